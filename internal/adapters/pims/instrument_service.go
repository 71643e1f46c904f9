package pims

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kevin07696/payment-experience/internal/adapters/ports"
	"github.com/kevin07696/payment-experience/internal/domain"
	pkghttp "github.com/kevin07696/payment-experience/pkg/http"
	"github.com/kevin07696/payment-experience/pkg/resilience"
	"go.uber.org/zap"
)

// Config contains configuration for the payment instrument management
// service adapter.
type Config struct {
	// BaseURL of the instrument management service
	BaseURL string

	// Per-request timeout (default: 30s)
	Timeout time.Duration

	// MaxRetries for transport failures (default: 2)
	MaxRetries int
}

// DefaultConfig returns default configuration
func DefaultConfig(baseURL string) *Config {
	return &Config{
		BaseURL:    baseURL,
		Timeout:    30 * time.Second,
		MaxRetries: 2,
	}
}

// adapter implements the InstrumentServiceAccessor port over the
// instrument management service's REST API.
type adapter struct {
	client     *http.Client
	baseURL    string
	maxRetries int
	backoff    resilience.BackoffStrategy
	logger     *zap.Logger
}

// NewAdapter creates an instrument service adapter
func NewAdapter(cfg *Config, logger *zap.Logger) ports.InstrumentServiceAccessor {
	return &adapter{
		client:     pkghttp.NewHTTPClient(pkghttp.InstrumentServiceClientConfig(), cfg.Timeout),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		maxRetries: cfg.MaxRetries,
		backoff:    resilience.DefaultExponentialBackoff(),
		logger:     logger,
	}
}

func (a *adapter) PostPaymentInstrument(ctx context.Context, accountID string, request *domain.PaymentInstrumentRequest) (*domain.PaymentInstrument, *domain.ServiceErrorResponse, error) {
	endpoint := fmt.Sprintf("%s/v7.0/%s/paymentInstrumentsEx", a.baseURL, url.PathEscape(accountID))
	return a.do(ctx, http.MethodPost, endpoint, request)
}

func (a *adapter) UpdatePaymentInstrument(ctx context.Context, accountID, piid string, request *domain.PaymentInstrumentRequest) (*domain.PaymentInstrument, *domain.ServiceErrorResponse, error) {
	endpoint := fmt.Sprintf("%s/v7.0/%s/paymentInstrumentsEx/%s", a.baseURL, url.PathEscape(accountID), url.PathEscape(piid))
	return a.do(ctx, http.MethodPut, endpoint, request)
}

func (a *adapter) ResumePendingOperation(ctx context.Context, accountID, piid string, request *domain.PaymentInstrumentRequest) (*domain.PaymentInstrument, *domain.ServiceErrorResponse, error) {
	endpoint := fmt.Sprintf("%s/v7.0/%s/paymentInstrumentsEx/%s/resume", a.baseURL, url.PathEscape(accountID), url.PathEscape(piid))
	return a.do(ctx, http.MethodPost, endpoint, request)
}

// do executes the request with retries on transport failures and 503s.
// A 4xx decodes into a service error; anything else 2xx decodes into the
// payment instrument.
func (a *adapter) do(ctx context.Context, method, endpoint string, request *domain.PaymentInstrumentRequest) (*domain.PaymentInstrument, *domain.ServiceErrorResponse, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= a.maxRetries; attempt++ {
		if attempt > 0 {
			delay := a.backoff.NextDelay(attempt - 1)
			a.logger.Warn("Retrying instrument service call",
				zap.String("endpoint", endpoint),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(lastErr),
			)
			select {
			case <-ctx.Done():
				return nil, nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		pi, serviceErr, retriable, err := a.doOnce(ctx, method, endpoint, body)
		if err == nil {
			return pi, serviceErr, nil
		}
		if !retriable {
			return nil, nil, err
		}
		lastErr = err
	}

	return nil, nil, fmt.Errorf("instrument service call failed after %d attempts: %w", a.maxRetries+1, lastErr)
}

func (a *adapter) doOnce(ctx context.Context, method, endpoint string, body []byte) (*domain.PaymentInstrument, *domain.ServiceErrorResponse, bool, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, nil, false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, nil, true, fmt.Errorf("call instrument service: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, nil, true, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		pi := &domain.PaymentInstrument{}
		if err := json.Unmarshal(payload, pi); err != nil {
			return nil, nil, false, fmt.Errorf("decode payment instrument: %w", err)
		}
		return pi, nil, false, nil

	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		serviceErr := &domain.ServiceErrorResponse{}
		if err := json.Unmarshal(payload, serviceErr); err != nil || serviceErr.ErrorCode == "" {
			return nil, nil, false, fmt.Errorf("instrument service returned %d with undecodable body", resp.StatusCode)
		}
		return nil, serviceErr, false, nil

	case resp.StatusCode == http.StatusServiceUnavailable:
		return nil, nil, true, fmt.Errorf("instrument service unavailable (status %d)", resp.StatusCode)

	default:
		return nil, nil, false, fmt.Errorf("instrument service returned status %d", resp.StatusCode)
	}
}
