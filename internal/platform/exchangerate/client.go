// Package exchangerate fetches USD/ETB rates from an exchangerate-api style endpoint.
// Lookups never fail: after the configured attempts are spent the static fallback
// table answers, and a pair missing from it yields zero.
package exchangerate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/crowdfunding-ledger/internal/config"
	"github.com/crowdfunding-ledger/internal/domain/shared"
	"github.com/crowdfunding-ledger/internal/platform/metrics"
)

// Provider returns how many units of to one unit of from buys.
type Provider interface {
	Rate(ctx context.Context, from, to shared.Currency) decimal.Decimal
}

type pair struct {
	from, to shared.Currency
}

func (p pair) label() string {
	return p.from.ISOCode() + "_" + p.to.ISOCode()
}

type latestResponse struct {
	Result          string                     `json:"result"`
	ErrorType       string                     `json:"error-type"`
	ConversionRates map[string]decimal.Decimal `json:"conversion_rates"`
}

// Client implements Provider against GET {base}/{key}/latest/{FROM}.
type Client struct {
	logger         *slog.Logger
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	maxAttempts    int
	retryDelay     time.Duration
	requestTimeout time.Duration
	fallback       map[pair]decimal.Decimal
}

var _ Provider = (*Client)(nil)

func NewClient(logger *slog.Logger, cfg *config.ExchangeRateConfig) *Client {
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	return &Client{
		logger:         logger,
		httpClient:     &http.Client{},
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:         cfg.APIKey,
		maxAttempts:    attempts,
		retryDelay:     cfg.RetryDelay,
		requestTimeout: cfg.RequestTimeout,
		fallback: map[pair]decimal.Decimal{
			{shared.CurrencyUSD, shared.CurrencyBirr}: decimal.NewFromFloat(cfg.FallbackUSDETB),
			{shared.CurrencyBirr, shared.CurrencyUSD}: decimal.NewFromFloat(cfg.FallbackETBUSD),
		},
	}
}

// Rate tries the remote source up to maxAttempts times, then falls back. Same-currency
// pairs are 1 and never touch the network.
func (c *Client) Rate(ctx context.Context, from, to shared.Currency) decimal.Decimal {
	if from == to {
		return decimal.NewFromInt(1)
	}
	p := pair{from, to}

	if c.apiKey == "" {
		c.logger.Warn("Exchange rate API key not configured, using fallback rate", "pair", p.label())
		return c.useFallback(p)
	}

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		rate, err := c.fetch(ctx, from, to)
		if err == nil {
			metrics.ExchangeRateAttempts.WithLabelValues("success").Inc()
			c.logger.Debug("Fetched exchange rate", "pair", p.label(), "rate", rate.String())
			return rate
		}
		metrics.ExchangeRateAttempts.WithLabelValues("failure").Inc()
		c.logger.Warn("Exchange rate fetch failed",
			"pair", p.label(),
			"attempt", attempt,
			"max_attempts", c.maxAttempts,
			"error", err,
		)

		if attempt == c.maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			c.logger.Warn("Exchange rate lookup canceled", "pair", p.label(), "error", ctx.Err())
			return c.useFallback(p)
		case <-time.After(c.retryDelay):
		}
	}

	c.logger.Error("Failed to fetch exchange rate after all attempts", "pair", p.label(), "attempts", c.maxAttempts)
	return c.useFallback(p)
}

func (c *Client) useFallback(p pair) decimal.Decimal {
	metrics.ExchangeRateFallbacks.WithLabelValues(p.label()).Inc()
	rate, ok := c.fallback[p]
	if !ok {
		c.logger.Error("No fallback rate for pair", "pair", p.label())
		return decimal.Zero
	}
	c.logger.Warn("Using fallback exchange rate", "pair", p.label(), "rate", rate.String())
	return rate
}

func (c *Client) fetch(ctx context.Context, from, to shared.Currency) (decimal.Decimal, error) {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	url := fmt.Sprintf("%s/%s/latest/%s", c.baseURL, c.apiKey, from.ISOCode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body latestResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, fmt.Errorf("failed to decode response: %w", err)
	}
	if body.Result != "success" {
		return decimal.Zero, fmt.Errorf("api returned result %q (%s)", body.Result, body.ErrorType)
	}
	rate, ok := body.ConversionRates[to.ISOCode()]
	if !ok || !rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("no usable rate for %s", to.ISOCode())
	}
	return rate, nil
}
