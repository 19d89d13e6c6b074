// Package acquirer adapts a JSON-over-HTTP card acquirer to the payment
// provider contract.
package acquirer

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

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/platform/logger"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/services/payments"
)

type Config struct {
	Name           string        `yaml:"name"`
	BaseURL        string        `yaml:"base_url"`
	APIKey         string        `yaml:"api_key"`
	Timeout        time.Duration `yaml:"timeout"`
	RetryableCodes []string      `yaml:"retryable_codes"`
	TerminalCodes  []string      `yaml:"terminal_codes"`
}

var defaultRetryable = []string{"processor_unavailable", "rate_limited", "issuer_timeout", "try_again"}

var defaultTerminal = []string{"card_declined", "insufficient_funds", "expired_card", "fraud_suspected", "invalid_request", "invalid_card"}

type Acquirer struct {
	log        *logger.Logger
	name       string
	baseURL    string
	apiKey     string
	retryable  map[string]struct{}
	terminal   map[string]struct{}
	httpClient *http.Client
}

var _ payments.Provider = (*Acquirer)(nil)

func New(log *logger.Logger, cfg Config) (*Acquirer, error) {
	name := strings.TrimSpace(cfg.Name)
	if name == "" {
		return nil, fmt.Errorf("acquirer name required")
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("acquirer %s: base url required", name)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	retryable := cfg.RetryableCodes
	if len(retryable) == 0 {
		retryable = defaultRetryable
	}
	terminal := cfg.TerminalCodes
	if len(terminal) == 0 {
		terminal = defaultTerminal
	}
	return &Acquirer{
		log:       log.With("provider", name),
		name:      name,
		baseURL:   base,
		apiKey:    strings.TrimSpace(cfg.APIKey),
		retryable: toSet(retryable),
		terminal:  toSet(terminal),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}, nil
}

func toSet(codes []string) map[string]struct{} {
	out := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		if c = strings.ToLower(strings.TrimSpace(c)); c != "" {
			out[c] = struct{}{}
		}
	}
	return out
}

func (a *Acquirer) Name() string { return a.name }

type chargeBody struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Method   string `json:"method"`
}

type refundBody struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type okResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Code   string `json:"code,omitempty"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (a *Acquirer) Charge(ctx context.Context, in payments.ChargeInput) (string, error) {
	var out okResponse
	if err := a.post(ctx, "/charges", in.IdempotencyKey, chargeBody{
		Amount:   in.Amount,
		Currency: in.Currency,
		Method:   in.Method,
	}, &out); err != nil {
		return "", err
	}
	switch strings.ToLower(out.Status) {
	case "", "captured", "succeeded", "approved":
	case "declined":
		return "", a.classify(http.StatusOK, out.Code, "charge declined")
	default:
		return "", payments.Retryable(out.Code, fmt.Sprintf("unexpected charge status %q", out.Status))
	}
	return out.ID, nil
}

func (a *Acquirer) Refund(ctx context.Context, in payments.RefundInput) (string, error) {
	var out okResponse
	path := "/charges/" + url.PathEscape(in.TransactionRef) + "/refunds"
	if err := a.post(ctx, path, in.IdempotencyKey, refundBody{Amount: in.Amount, Currency: in.Currency}, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

func (a *Acquirer) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	a.authorize(req)
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("health check returned %d", resp.StatusCode)
	}
	return nil
}

func (a *Acquirer) authorize(req *http.Request) {
	if a.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
	}
}

func (a *Acquirer) post(ctx context.Context, path, idempotencyKey string, body interface{}, out interface{}) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return payments.Terminal("encode", err.Error())
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return payments.Terminal("request", err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}
	a.authorize(req)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return payments.Retryable("network", err.Error())
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return payments.Retryable("network", err.Error())
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if err := json.Unmarshal(payload, out); err != nil {
			return payments.Retryable("decode", err.Error())
		}
		return nil
	}

	var e errorResponse
	_ = json.Unmarshal(payload, &e)
	msg := strings.TrimSpace(e.Error.Message)
	if msg == "" {
		msg = strings.TrimSpace(string(payload))
	}
	a.log.Debug("Acquirer returned error", "path", path, "status", resp.StatusCode, "code", e.Error.Code)
	return a.classify(resp.StatusCode, e.Error.Code, msg)
}

// classify applies the configured code lists first, then falls back to the
// HTTP status: 408, 429 and 5xx are retryable, other 4xx are terminal.
func (a *Acquirer) classify(status int, code, msg string) error {
	c := strings.ToLower(strings.TrimSpace(code))
	if _, ok := a.retryable[c]; ok {
		return payments.Retryable(c, msg)
	}
	if _, ok := a.terminal[c]; ok {
		return payments.Terminal(c, msg)
	}
	switch {
	case status == http.StatusRequestTimeout, status == http.StatusTooManyRequests, status >= 500:
		return payments.Retryable(c, fmt.Sprintf("http %d: %s", status, msg))
	case status >= 400:
		return payments.Terminal(c, fmt.Sprintf("http %d: %s", status, msg))
	default:
		return payments.Terminal(c, msg)
	}
}
