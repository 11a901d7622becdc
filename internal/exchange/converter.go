// Package exchange provides currency conversion against an external
// exchange-rate API. The approval engine treats it as a black box that may
// fail; failures must never block an expense submission.
package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrRateUnavailable is returned when the rate provider cannot supply a rate.
// Callers are expected to degrade to the unconverted amount.
var ErrRateUnavailable = errors.New("exchange rate unavailable")

// Config holds rate provider configuration
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Converter fetches exchange rates over HTTP. The endpoint is expected to
// answer GET {base_url}/{FROM} with a JSON body carrying a "rates" map.
type Converter struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewConverter creates a new converter
func NewConverter(cfg Config, logger *zap.Logger) *Converter {
	return &Converter{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
	}
}

type ratesResponse struct {
	Base  string             `json:"base"`
	Rates map[string]float64 `json:"rates"`
}

// Convert converts amount from one currency to another using the provider's
// current rate. Same-currency conversions short-circuit without a network
// call. Any transport or payload problem is reported as ErrRateUnavailable.
func (c *Converter) Convert(ctx context.Context, amount float64, from, to string) (float64, error) {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))
	if from == "" || to == "" {
		return 0, fmt.Errorf("%w: missing currency code", ErrRateUnavailable)
	}
	if from == to {
		return amount, nil
	}

	url := fmt.Sprintf("%s/%s", c.baseURL, from)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRateUnavailable, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("Rate provider request failed", zap.String("from", from), zap.Error(err))
		return 0, fmt.Errorf("%w: %v", ErrRateUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("Rate provider returned non-OK status",
			zap.String("from", from),
			zap.Int("status", resp.StatusCode))
		return 0, fmt.Errorf("%w: status %d", ErrRateUnavailable, resp.StatusCode)
	}

	var body ratesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRateUnavailable, err)
	}

	rate, ok := body.Rates[to]
	if !ok || rate <= 0 {
		return 0, fmt.Errorf("%w: no rate from %s to %s", ErrRateUnavailable, from, to)
	}

	return amount * rate, nil
}
