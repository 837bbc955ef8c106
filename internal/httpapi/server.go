package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"fintrack/internal/analysis"
	"fintrack/internal/backtest"
	"fintrack/internal/benchmark"
	"fintrack/internal/config"
	"fintrack/internal/domain"
	"fintrack/internal/marketdata"
	"fintrack/internal/portfolio"
	"fintrack/internal/store"
	"fintrack/pkg/fintrack"
)

// Server serves the fintrack REST API.
type Server struct {
	source marketdata.Source
	txs    store.TransactionStore
	cfg    *config.Config
	log    *slog.Logger
}

// NewServer creates a Server reading bars from source and the ledger from
// txs, with cfg supplying backtest defaults, allocation targets, and macro
// rates.
func NewServer(source marketdata.Source, txs store.TransactionStore, cfg *config.Config) *Server {
	return &Server{
		source: source,
		txs:    txs,
		cfg:    cfg,
		log:    slog.Default().With("component", "httpapi"),
	}
}

// RegisterRoutes registers all API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/backtest", s.handleBacktest)
	mux.HandleFunc("POST /api/v1/backtest/annual", s.handleBacktestAnnual)
	mux.HandleFunc("GET /api/v1/strategies", s.handleStrategies)
	mux.HandleFunc("GET /api/v1/score", s.handleScore)
	mux.HandleFunc("GET /api/v1/bars", s.handleBars)
	mux.HandleFunc("GET /api/v1/benchmark", s.handleBenchmark)
	mux.HandleFunc("GET /api/v1/portfolio", s.handlePortfolio)
	mux.HandleFunc("POST /api/v1/transactions", s.handleAddTransaction)
	mux.HandleFunc("DELETE /api/v1/transactions/{id}", s.handleDeleteTransaction)
	mux.HandleFunc("GET /api/v1/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/v1/rebalance", s.handleRebalance)
}

// Handler returns an http.Handler with CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// ---------------------------------------------------------------------------
// Backtest
// ---------------------------------------------------------------------------

// parseBacktestRequest decodes and validates the request, resolving dates
// and defaulted parameters.
func (s *Server) parseBacktestRequest(r *http.Request) (*BacktestRequest, backtest.Strategy, backtest.Config, time.Time, time.Time, error) {
	var req BacktestRequest
	var zero time.Time
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, "", backtest.Config{}, zero, zero, fmt.Errorf("decoding body: %w", err)
	}
	if req.Symbol == "" {
		return nil, "", backtest.Config{}, zero, zero, errors.New("symbol is required")
	}

	strat, err := backtest.ParseStrategy(req.Strategy)
	if err != nil {
		return nil, "", backtest.Config{}, zero, zero, err
	}

	start, err := time.Parse("2006-01-02", req.Start)
	if err != nil {
		return nil, "", backtest.Config{}, zero, zero, fmt.Errorf("invalid start date %q", req.Start)
	}
	end, err := time.Parse("2006-01-02", req.End)
	if err != nil {
		return nil, "", backtest.Config{}, zero, zero, fmt.Errorf("invalid end date %q", req.End)
	}
	if end.Before(start) {
		return nil, "", backtest.Config{}, zero, zero, errors.New("end date before start date")
	}

	cfg := backtest.Config{
		InitialCapital:      req.InitialCapital,
		MonthlyContribution: req.MonthlyContribution,
		Commission:          req.Commission,
	}
	if cfg.InitialCapital == 0 {
		cfg.InitialCapital = s.cfg.Backtest.InitialCapital
	}
	if cfg.MonthlyContribution == 0 && strat.Periodic() {
		cfg.MonthlyContribution = s.cfg.Backtest.MonthlyContribution
	}
	if cfg.Commission == 0 {
		cfg.Commission = s.cfg.Backtest.Commission
	}
	return &req, strat, cfg, start, end, nil
}

func (s *Server) market(req *BacktestRequest) domain.Market {
	if req.Market != "" {
		return domain.Market(strings.ToLower(req.Market))
	}
	return domain.MarketUS
}

func (s *Server) handleBacktest(w http.ResponseWriter, r *http.Request) {
	req, strat, cfg, start, end, err := s.parseBacktestRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	bars, err := s.source.DailyBars(r.Context(), req.Symbol, s.market(req), start, end)
	if err != nil && !errors.Is(err, marketdata.ErrNoBars) {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	result, err := backtest.Run(bars, strat, cfg)
	if err != nil {
		if errors.Is(err, backtest.ErrInsufficientData) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, BacktestResponse{Symbol: strings.ToUpper(req.Symbol), Result: toResult(result)})
}

func (s *Server) handleBacktestAnnual(w http.ResponseWriter, r *http.Request) {
	req, strat, cfg, start, end, err := s.parseBacktestRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	bars, err := s.source.DailyBars(r.Context(), req.Symbol, s.market(req), start, end)
	if err != nil && !errors.Is(err, marketdata.ErrNoBars) {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	results, err := backtest.RunAnnual(bars, strat, cfg)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, AnnualResponse{Symbol: strings.ToUpper(req.Symbol), Results: toAnnual(results)})
}

func (s *Server) handleStrategies(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string][]backtest.Strategy{"strategies": backtest.Strategies()})
}

// ---------------------------------------------------------------------------
// Market data and analysis
// ---------------------------------------------------------------------------

// symbolRange pulls the symbol plus an optional start/end range from query
// params, defaulting to the trailing year.
func symbolRange(r *http.Request) (string, time.Time, time.Time, error) {
	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		return "", time.Time{}, time.Time{}, errors.New("symbol is required")
	}

	end := time.Now().UTC().Truncate(24 * time.Hour)
	start := end.AddDate(-1, 0, 0)
	if v := r.URL.Query().Get("start"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return "", time.Time{}, time.Time{}, fmt.Errorf("invalid start date %q", v)
		}
		start = t
	}
	if v := r.URL.Query().Get("end"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return "", time.Time{}, time.Time{}, fmt.Errorf("invalid end date %q", v)
		}
		end = t
	}
	return symbol, start, end, nil
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	symbol, start, end, err := symbolRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	bars, err := s.source.DailyBars(r.Context(), symbol, domain.MarketUS, start, end)
	if err != nil {
		if errors.Is(err, marketdata.ErrNoBars) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, ScoreResponse{
		Symbol: strings.ToUpper(symbol),
		Signal: toSignal(analysis.Signals(bars)),
	})
}

func (s *Server) handleBars(w http.ResponseWriter, r *http.Request) {
	symbol, start, end, err := symbolRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	bars, err := s.source.DailyBars(r.Context(), symbol, domain.MarketUS, start, end)
	if err != nil {
		if errors.Is(err, marketdata.ErrNoBars) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, BarsResponse{Symbol: strings.ToUpper(symbol), Bars: toBars(bars)})
}

func (s *Server) handleBenchmark(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("symbols")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "symbols is required")
		return
	}
	symbols := strings.Split(raw, ",")

	end := time.Now().UTC().Truncate(24 * time.Hour)
	start := end.AddDate(-1, 0, 0)

	summaries := make(map[string]fintrack.Summary, len(symbols))
	for _, sym := range symbols {
		sym = strings.TrimSpace(sym)
		if sym == "" {
			continue
		}
		bars, err := s.source.DailyBars(r.Context(), sym, domain.MarketUS, start, end)
		if err != nil {
			s.log.Warn("benchmark symbol skipped", "symbol", sym, "err", err)
			continue
		}
		summaries[strings.ToUpper(sym)] = toSummary(benchmark.Summarize(
			bars,
			s.cfg.Benchmark.InflationRate*100,
			s.cfg.Benchmark.RiskFreeRate,
		))
	}
	writeJSON(w, BenchmarkResponse{Summaries: summaries})
}

// ---------------------------------------------------------------------------
// Portfolio
// ---------------------------------------------------------------------------

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	holdings, err := portfolio.Holdings(r.Context(), s.txs)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := make([]HoldingJSON, 0, len(holdings))
	for _, h := range holdings {
		out = append(out, HoldingJSON{
			Symbol:        h.Symbol,
			Quantity:      h.Quantity,
			AvgCost:       h.AvgCost,
			TotalInvested: h.TotalInvested,
		})
	}
	writeJSON(w, PortfolioResponse{Holdings: out})
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	var req TransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "decoding body: "+err.Error())
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid date %q", req.Date))
		return
	}
	side := domain.TradeSide(strings.ToUpper(req.Side))
	if side != domain.TradeSideBuy && side != domain.TradeSideSell {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid side %q", req.Side))
		return
	}
	if req.Symbol == "" || req.Quantity <= 0 || req.Price <= 0 {
		writeError(w, http.StatusBadRequest, "symbol, positive quantity and price are required")
		return
	}

	tx := &domain.Transaction{
		Date:     date,
		Symbol:   strings.ToUpper(req.Symbol),
		Side:     side,
		Quantity: req.Quantity,
		Price:    req.Price,
	}
	if err := s.txs.AddTransaction(r.Context(), tx); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, tx)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.txs.ListTransactions(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if txs == nil {
		txs = []domain.Transaction{}
	}
	writeJSON(w, txs)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	var id int64
	if _, err := fmt.Sscanf(r.PathValue("id"), "%d", &id); err != nil {
		writeError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}
	if err := s.txs.DeleteTransaction(r.Context(), id); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRebalance(w http.ResponseWriter, r *http.Request) {
	var req RebalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "decoding body: "+err.Error())
		return
	}
	if req.Amount <= 0 {
		writeError(w, http.StatusBadRequest, "amount must be positive")
		return
	}

	targets := req.Targets
	if len(targets) == 0 {
		targets = s.cfg.Portfolio.TargetPct
	}
	if len(targets) == 0 {
		writeError(w, http.StatusBadRequest, "no allocation targets configured")
		return
	}

	writeJSON(w, RebalanceResponse{
		Suggestions: portfolio.Rebalance(req.Amount, req.CurrentValues, targets),
	})
}
