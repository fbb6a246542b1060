// Package payment confirms gateway transactions before orders are created.
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

var (
	ErrNotPaid     = errors.New("payment not completed")
	ErrUnavailable = errors.New("payment gateway unavailable")
)

const consecutiveFailuresToTrip = 5

type Config struct {
	VerifyURL string
	APIKey    string
	Timeout   time.Duration
}

type verifyResponse struct {
	Status    string `json:"status"`
	Reference string `json:"reference"`
}

// HTTPVerifier asks the gateway for the status of a transaction.
// Calls go through a circuit breaker; while it is open Verify fails fast
// with ErrUnavailable.
type HTTPVerifier struct {
	cfg     Config
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[*verifyResponse]
	log     *zap.Logger
}

func NewHTTPVerifier(cfg Config, log *zap.Logger) *HTTPVerifier {
	log = log.Named("payment")
	st := gobreaker.Settings{
		Name:        "payment-gateway",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= consecutiveFailuresToTrip
		},
		// an unpaid transaction is a valid answer from a healthy gateway
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotPaid)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	return &HTTPVerifier{
		cfg: cfg,
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: gobreaker.NewCircuitBreaker[*verifyResponse](st),
		log:     log,
	}
}

func (v *HTTPVerifier) Verify(ctx context.Context, transactionReference string) error {
	resp, err := v.breaker.Execute(func() (*verifyResponse, error) {
		return v.fetch(ctx, transactionReference)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if err != nil {
		return err
	}

	v.log.Debug("payment verified", zap.String("transaction_reference", transactionReference), zap.String("status", resp.Status))
	return nil
}

func (v *HTTPVerifier) State() string {
	return v.breaker.State().String()
}

func (v *HTTPVerifier) fetch(ctx context.Context, reference string) (*verifyResponse, error) {
	endpoint := strings.TrimRight(v.cfg.VerifyURL, "/") + "/" + url.PathEscape(reference)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build verify request: %w", err)
	}
	if v.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+v.cfg.APIKey)
	}
	req.Header.Set("Accept", "application/json")

	res, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("verify request failed: %w", err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: transaction %s unknown to gateway", ErrNotPaid, reference)
	case res.StatusCode >= 500:
		return nil, fmt.Errorf("gateway returned status %d", res.StatusCode)
	case res.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: gateway returned status %d", ErrNotPaid, res.StatusCode)
	}

	var body verifyResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode verify response: %w", err)
	}

	switch strings.ToUpper(body.Status) {
	case "PAID", "SUCCESS", "SUCCESSFUL":
		return &body, nil
	default:
		return nil, fmt.Errorf("%w: gateway status %q", ErrNotPaid, body.Status)
	}
}
