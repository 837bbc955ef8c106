// Package fintrack provides a Go SDK for the fintrack-server API.
package fintrack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to a running fintrack-server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// apiError is the server's error body.
type apiError struct {
	Error string `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr apiError
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %s (status %d)", method, path, apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Backtest runs one backtest on the server.
func (c *Client) Backtest(ctx context.Context, req BacktestRequest) (*BacktestResponse, error) {
	var resp BacktestResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/backtest", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// BacktestAnnual runs a per-calendar-year backtest on the server.
func (c *Client) BacktestAnnual(ctx context.Context, req BacktestRequest) (*AnnualResponse, error) {
	var resp AnnualResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/backtest/annual", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Strategies lists the strategy identifiers the server supports.
func (c *Client) Strategies(ctx context.Context) ([]string, error) {
	var resp map[string][]string
	if err := c.do(ctx, http.MethodGet, "/api/v1/strategies", nil, &resp); err != nil {
		return nil, err
	}
	return resp["strategies"], nil
}

// Score retrieves the technical signal for a symbol over the trailing year.
func (c *Client) Score(ctx context.Context, symbol string) (*ScoreResponse, error) {
	var resp ScoreResponse
	path := "/api/v1/score?symbol=" + url.QueryEscape(symbol)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Bars retrieves daily bars for a symbol within [start, end].
func (c *Client) Bars(ctx context.Context, symbol string, start, end time.Time) (*BarsResponse, error) {
	var resp BarsResponse
	path := fmt.Sprintf("/api/v1/bars?symbol=%s&start=%s&end=%s",
		url.QueryEscape(symbol), start.Format("2006-01-02"), end.Format("2006-01-02"))
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Portfolio retrieves the current holdings derived from the ledger.
func (c *Client) Portfolio(ctx context.Context) (*PortfolioResponse, error) {
	var resp PortfolioResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/portfolio", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AddTransaction appends one entry to the ledger.
func (c *Client) AddTransaction(ctx context.Context, req TransactionRequest) error {
	return c.do(ctx, http.MethodPost, "/api/v1/transactions", req, nil)
}

// Rebalance asks the server how to distribute a new investment.
func (c *Client) Rebalance(ctx context.Context, req RebalanceRequest) (*RebalanceResponse, error) {
	var resp RebalanceResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/rebalance", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Benchmark retrieves comparison metrics for a set of symbols.
func (c *Client) Benchmark(ctx context.Context, symbols []string) (*BenchmarkResponse, error) {
	var resp BenchmarkResponse
	path := "/api/v1/benchmark?symbols=" + url.QueryEscape(strings.Join(symbols, ","))
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
