package storeclient

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

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/tokens"
)

const (
	DefaultTimeout    = 5 * time.Second
	IdempotencyHeader = "Idempotency-Key"

	maxBody = 4 << 20
)

// APIError is a non-2xx answer from the store API.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"error"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("store api: status %d", e.Status)
	}
	return fmt.Sprintf("store api: status %d: %s", e.Status, e.Message)
}

func (e *APIError) HTTPStatus() int { return e.Status }

func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

type Options struct {
	BaseURL string
	Timeout time.Duration
	// Transport overrides the default pooled transport; it is still wrapped by otelhttp.
	Transport http.RoundTripper
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[response]
}

type response struct {
	status int
	body   []byte
}

func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	base := opts.Transport
	if base == nil {
		base = &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		}
	}

	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(base),
		},
		breaker: gobreaker.NewCircuitBreaker[response](gobreaker.Settings{
			Name:        "store-api",
			MaxRequests: 1,
			Timeout:     10 * time.Second,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= 5
			},
		}),
	}
}

type call struct {
	method string
	path   string
	token  string
	header map[string]string
	in     any
	out    any
}

// Only transport failures and 5xx answers count against the breaker; a 4xx is
// a well-formed answer from a healthy service.
func (c *Client) do(ctx context.Context, rc call) error {
	l := logging.FromContext(ctx).With("method", rc.method, "path", rc.path)

	var payload []byte
	if rc.in != nil {
		b, err := json.Marshal(rc.in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		payload = b
	}

	res, err := c.breaker.Execute(func() (response, error) {
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, rc.method, c.baseURL+rc.path, body)
		if err != nil {
			return response{}, fmt.Errorf("create request: %w", err)
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Accept", "application/json")
		for k, v := range rc.header {
			req.Header.Set(k, v)
		}
		if rc.token != "" {
			req.AddCookie(&http.Cookie{Name: tokens.AccessCookie, Value: rc.token})
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return response{}, fmt.Errorf("do request: %w", err)
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
		if err != nil {
			return response{}, fmt.Errorf("read response: %w", err)
		}
		out := response{status: resp.StatusCode, body: raw}
		if resp.StatusCode >= 500 {
			return out, decodeError(out)
		}
		return out, nil
	})
	if err != nil {
		l.Warn("store_api_call_failed", "error", err)
		return err
	}

	if res.status >= 400 {
		apiErr := decodeError(res)
		l.Debug("store_api_rejected", "status", res.status, "error", apiErr)
		return apiErr
	}

	if rc.out == nil || len(res.body) == 0 {
		return nil
	}
	if err := json.Unmarshal(res.body, rc.out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(res response) *APIError {
	apiErr := &APIError{Status: res.status}
	if len(res.body) > 0 {
		_ = json.Unmarshal(res.body, apiErr)
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(res.status)
	}
	return apiErr
}

// State exposes the breaker state for readiness checks.
func (c *Client) State() gobreaker.State {
	return c.breaker.State()
}
