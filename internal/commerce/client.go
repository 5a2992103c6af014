// Package commerce is the GraphQL client for the remote commerce API that owns
// the catalog, carts, customers, wishlists and orders.
package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"storefront-service/internal/util"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// Options configures a Client
type Options struct {
	Endpoint         string
	StoreCode        string
	Timeout          time.Duration
	BreakerThreshold int
	BreakerTimeout   time.Duration
	HTTPClient       *http.Client
}

// Client talks GraphQL over HTTP to the commerce API
type Client struct {
	endpoint   string
	storeCode  string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]byte]
	logger     *zap.Logger
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors graphQLErrors   `json:"errors"`
}

// NewClient creates a commerce API client
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	threshold := uint32(5)
	if opts.BreakerThreshold > 0 {
		threshold = uint32(opts.BreakerThreshold)
	}

	logger := util.GetLogger().Named("commerce")

	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    "commerce-api",
		Timeout: opts.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			var se *statusError
			if errors.As(err, &se) {
				return se.Code < http.StatusInternalServerError
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &Client{
		endpoint:   opts.Endpoint,
		storeCode:  opts.StoreCode,
		httpClient: httpClient,
		breaker:    breaker,
		logger:     logger,
	}
}

// do executes one GraphQL operation and decodes its data into out.
// token is the customer bearer token; empty for guest calls.
func (c *Client) do(ctx context.Context, op, query string, vars map[string]any, token string, out any) error {
	ctx, span := util.StartSpan(ctx, "commerce."+op)
	defer span.End()

	err := c.execute(ctx, op, query, vars, token, out)
	if err != nil {
		span.RecordError(err)
		util.RemoteCallErrorsTotal.WithLabelValues(op).Inc()
		c.logger.Warn("Commerce call failed", zap.String("operation", op), zap.Error(err))
		return &RemoteCallError{Operation: op, Err: err}
	}
	return nil
}

func (c *Client) execute(ctx context.Context, op, query string, vars map[string]any, token string, out any) error {
	body, err := json.Marshal(graphQLRequest{Query: query, Variables: vars})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	raw, err := c.breaker.Execute(func() ([]byte, error) {
		return c.post(ctx, body, token)
	})
	if err != nil {
		return err
	}

	var resp graphQLResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if len(resp.Errors) > 0 {
		return resp.Errors
	}
	if out == nil || len(resp.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("failed to decode %s data: %w", op, err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, body []byte, token string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.storeCode != "" {
		req.Header.Set("Store", c.storeCode)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &statusError{Code: resp.StatusCode}
	}
	return raw, nil
}
