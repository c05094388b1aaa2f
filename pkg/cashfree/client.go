// Package cashfree is a minimal client for the Cashfree Payment Gateway REST API.
package cashfree

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/printshop-backend/pkg/config"
	"github.com/sony/gobreaker"
)

const (
	SandboxBaseURL    = "https://sandbox.cashfree.com/pg"
	ProductionBaseURL = "https://api.cashfree.com/pg"

	defaultTimeout    = 10 * time.Second
	maxResponseBytes  = 1 << 20
	breakerTripAfter  = 5
	breakerOpenPeriod = 30 * time.Second
)

// ErrCircuitOpen is returned while the breaker rejects calls.
var ErrCircuitOpen = errors.New("cashfree: circuit open")

// Client calls the Cashfree PG API with app credentials.
type Client struct {
	httpClient *http.Client
	baseURL    string
	appID      string
	secretKey  string
	apiVersion string
	breaker    *gobreaker.CircuitBreaker
}

// New builds a client from configuration. httpClient may be nil.
func New(cfg config.CashfreeConfig, httpClient *http.Client) (*Client, error) {
	if strings.TrimSpace(cfg.AppID) == "" || strings.TrimSpace(cfg.SecretKey) == "" {
		return nil, errors.New("cashfree app id and secret key are required")
	}
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	apiVersion := cfg.APIVersion
	if apiVersion == "" {
		apiVersion = "2023-08-01"
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURLFor(cfg), "/"),
		appID:      cfg.AppID,
		secretKey:  cfg.SecretKey,
		apiVersion: apiVersion,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "cashfree",
			Timeout: breakerOpenPeriod,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= breakerTripAfter
			},
			IsSuccessful: func(err error) bool {
				var apiErr *APIError
				if errors.As(err, &apiErr) {
					return apiErr.Status < http.StatusInternalServerError
				}
				return err == nil
			},
		}),
	}, nil
}

func baseURLFor(cfg config.CashfreeConfig) string {
	if cfg.BaseURL != "" {
		return cfg.BaseURL
	}
	if cfg.Environment() == config.CashfreeEnvProduction {
		return ProductionBaseURL
	}
	return SandboxBaseURL
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.roundTrip(ctx, method, path, body, out)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrCircuitOpen, err)
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode cashfree request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build cashfree request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("x-client-id", c.appID)
	req.Header.Set("x-client-secret", c.secretKey)
	req.Header.Set("x-api-version", c.apiVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("cashfree %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read cashfree response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp.StatusCode, raw)
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode cashfree response: %w", err)
	}
	return nil
}
