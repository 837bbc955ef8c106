package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"fintrack/internal/backtest"
	"fintrack/internal/dashboard"
	"fintrack/pkg/fintrack"
)

// Styles.
var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("6")).Padding(0, 1)
	headerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	strategyStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	gainStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	lossStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	signalStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	sparkStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
)

// Messages.
type resultsMsg struct {
	symbol  string
	results []strategyResult
	score   *fintrack.ScoreResponse
	err     error
}

type strategyResult struct {
	strategy backtest.Strategy
	result   *fintrack.Result
	err      error
}

type model struct {
	client  *fintrack.Client
	symbols []string
	current int
	years   int

	spinner spinner.Model
	loading bool
	err     error

	results []strategyResult
	score   *fintrack.ScoreResponse
}

func newModel(client *fintrack.Client, symbols []string, years int) model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return model{
		client:  client,
		symbols: symbols,
		years:   years,
		spinner: sp,
		loading: true,
	}
}

// fetchCmd runs every strategy against the current symbol on the server.
func (m model) fetchCmd() tea.Cmd {
	symbol := m.symbols[m.current]
	years := m.years
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		end := time.Now().UTC()
		req := fintrack.BacktestRequest{
			Symbol: symbol,
			Start:  end.AddDate(-years, 0, 0).Format("2006-01-02"),
			End:    end.Format("2006-01-02"),
		}

		var results []strategyResult
		for _, strat := range backtest.Strategies() {
			req.Strategy = string(strat)
			resp, err := client.Backtest(ctx, req)
			sr := strategyResult{strategy: strat, err: err}
			if err == nil {
				sr.result = resp.Result
			}
			results = append(results, sr)
		}

		score, err := client.Score(ctx, symbol)
		if err != nil {
			score = nil
		}
		return resultsMsg{symbol: symbol, results: results, score: score}
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetchCmd())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			m.loading = true
			m.err = nil
			return m, tea.Batch(m.spinner.Tick, m.fetchCmd())
		case "left", "h":
			m.current = (m.current + len(m.symbols) - 1) % len(m.symbols)
			m.loading = true
			return m, tea.Batch(m.spinner.Tick, m.fetchCmd())
		case "right", "l", "tab":
			m.current = (m.current + 1) % len(m.symbols)
			m.loading = true
			return m, tea.Batch(m.spinner.Tick, m.fetchCmd())
		}

	case resultsMsg:
		// Stale responses from a symbol we already navigated away from.
		if msg.symbol != m.symbols[m.current] {
			return m, nil
		}
		m.loading = false
		m.err = msg.err
		m.results = msg.results
		m.score = msg.score
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder

	title := fmt.Sprintf(" %s  trailing %dy ", m.symbols[m.current], m.years)
	b.WriteString(titleStyle.Render(title))
	if m.score != nil {
		b.WriteString("  ")
		b.WriteString(signalStyle.Render(m.score.Signal.Label))
		b.WriteString(dimStyle.Render(fmt.Sprintf("  score %.1f  rsi %.1f  kelly %.1f%%",
			m.score.Signal.Score, m.score.Signal.RSI, m.score.Signal.KellyPct)))
	}
	b.WriteString("\n\n")

	if m.loading {
		b.WriteString(m.spinner.View() + " loading...\n")
		return b.String()
	}
	if m.err != nil {
		b.WriteString(errStyle.Render("error: "+m.err.Error()) + "\n")
		return b.String()
	}

	b.WriteString(headerStyle.Render(fmt.Sprintf("%-14s %14s %14s %10s %7s  %s",
		"STRATEGY", "INVESTED", "FINAL", "RETURN", "TRADES", "EQUITY")))
	b.WriteString("\n")

	for _, sr := range m.results {
		if sr.err != nil {
			b.WriteString(fmt.Sprintf("%-14s %s\n",
				strategyStyle.Render(string(sr.strategy)), dimStyle.Render(sr.err.Error())))
			continue
		}
		met := sr.result.Metrics
		retStyle := gainStyle
		if met.TotalReturnPct < 0 {
			retStyle = lossStyle
		}
		b.WriteString(fmt.Sprintf("%s %14s %14s %s %7d  %s\n",
			strategyStyle.Render(fmt.Sprintf("%-14s", met.Strategy)),
			dashboard.FormatMoney(met.TotalInvested),
			dashboard.FormatMoney(met.FinalEquity),
			retStyle.Render(fmt.Sprintf("%10s", dashboard.FormatPct(met.TotalReturnPct))),
			met.TradeCount,
			sparkStyle.Render(dashboard.Sparkline(sr.result.Curve.Strategy, 30)),
		))
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render("←/→ symbol   r refresh   q quit"))
	b.WriteString("\n")
	return b.String()
}

func main() {
	var (
		serverURL = flag.String("server", "http://localhost:8080", "fintrack-server base URL")
		years     = flag.Int("years", 5, "trailing window in years")
	)
	flag.Parse()

	symbols := flag.Args()
	if len(symbols) == 0 {
		fmt.Fprintln(os.Stderr, "usage: fintrack-dashboard [flags] SYMBOL [SYMBOL...]")
		os.Exit(2)
	}
	for i := range symbols {
		symbols[i] = strings.ToUpper(symbols[i])
	}

	client := fintrack.NewClient(*serverURL)
	if _, err := tea.NewProgram(newModel(client, symbols, *years)).Run(); err != nil {
		log.Fatalf("dashboard failed: %v", err)
	}
}
