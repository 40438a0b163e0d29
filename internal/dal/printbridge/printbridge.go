package printbridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/msalarini/store-lamayer/internal/service/models/receipt"
	"github.com/sony/gobreaker/v2"
	"github.com/spf13/viper"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	msgPrintFailed = "print failed"
	msgUnavailable = "print server unavailable"
	maxBodyBytes   = 1 << 20
)

// Result is the outcome of a print request. Failures are reported here, never as errors.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HealthResult is the outcome of a health probe.
type HealthResult struct {
	Success bool   `json:"success"`
	Online  bool   `json:"online"`
	Printer string `json:"printer,omitempty"`
	Error   string `json:"error,omitempty"`
}

type serverResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
	Details string `json:"details"`
	Status  string `json:"status"`
	Printer string `json:"printer"`
}

type reply struct {
	status int
	body   serverResponse
}

// Client talks to the print server over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[reply]
}

type option func(*Client)

// WithBreakerSettings replaces the circuit breaker configuration.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithBreakerSettings(maxFailures uint32, openTimeout time.Duration) option {
	return func(cl *Client) {
		cl.breaker = newBreaker(maxFailures, openTimeout)
	}
}

// NewClient creates a print bridge client for baseURL.
func NewClient(baseURL string, timeout time.Duration, opts ...option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: newBreaker(3, 30*time.Second),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// MustNewClient creates a client from the print_server.* config keys.
func MustNewClient() *Client {
	url := viper.GetString("print_server.url")
	if url == "" {
		panic("print_server.url is not set")
	}

	return NewClient(
		url,
		viper.GetDuration("print_server.timeout"),
		WithBreakerSettings(
			viper.GetUint32("print_server.breaker.max_failures"),
			viper.GetDuration("print_server.breaker.open_timeout"),
		),
	)
}

func newBreaker(maxFailures uint32, openTimeout time.Duration) *gobreaker.CircuitBreaker[reply] {
	if maxFailures == 0 {
		maxFailures = 3
	}

	return gobreaker.NewCircuitBreaker[reply](gobreaker.Settings{
		Name:        "print-server",
		MaxRequests: 1,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
}

// PrintOrder sends one order ticket. It is called once per order; it does not retry.
func (c *Client) PrintOrder(ctx context.Context, data receipt.OrderData) Result {
	body, err := json.Marshal(receipt.PrintRequest{OrderData: &data})
	if err != nil {
		slog.ErrorContext(ctx, "Failed to encode print payload", "order_number", data.OrderNumber, "error", err)
		return Result{Success: false, Error: msgPrintFailed}
	}

	res := c.post(ctx, "/print", body)
	if !res.Success {
		slog.WarnContext(ctx, "Order was not printed", "order_number", data.OrderNumber, "error", res.Error)
	}

	return res
}

// TestPrint asks the print server for its diagnostic ticket.
func (c *Client) TestPrint(ctx context.Context) Result {
	return c.post(ctx, "/test-print", nil)
}

// Health probes the print server.
func (c *Client) Health(ctx context.Context) HealthResult {
	rep, err := c.do(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		slog.WarnContext(ctx, "Print server health check failed", "error", err)
		if _, ok := unwrapReply(err); !ok {
			return HealthResult{Success: false, Online: false, Error: "print server offline"}
		}
		return HealthResult{Success: true, Online: false, Printer: rep.body.Printer}
	}

	return HealthResult{
		Success: true,
		Online:  rep.status == http.StatusOK && rep.body.Status == "ok",
		Printer: rep.body.Printer,
	}
}

func (c *Client) post(ctx context.Context, path string, body []byte) Result {
	rep, err := c.do(ctx, http.MethodPost, path, body)
	if err != nil {
		slog.WarnContext(ctx, "Print server request failed", "path", path, "error", err)
		var ok bool
		if rep, ok = unwrapReply(err); !ok {
			return Result{Success: false, Error: msgUnavailable}
		}
	}

	if rep.status < 200 || rep.status >= 300 {
		msg := rep.body.Error
		if msg == "" {
			msg = msgPrintFailed
		}
		return Result{Success: false, Error: msg}
	}

	return Result{Success: true, Message: rep.body.Message}
}

// do runs one request through the breaker. Transport errors and 5xx answers
// count as breaker failures; 4xx answers are returned as replies.
func (c *Client) do(ctx context.Context, method, path string, body []byte) (reply, error) {
	return c.breaker.Execute(func() (reply, error) {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return reply{}, fmt.Errorf("failed to build request: %w", err)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return reply{}, fmt.Errorf("failed to call print server: %w", err)
		}
		defer resp.Body.Close()

		rep := reply{status: resp.StatusCode}
		raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return reply{}, fmt.Errorf("failed to read print server response: %w", err)
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &rep.body); err != nil {
				rep.body.Error = strings.TrimSpace(string(raw))
			}
		}

		if resp.StatusCode >= http.StatusInternalServerError {
			return rep, &statusError{status: resp.StatusCode, reply: rep}
		}

		return rep, nil
	})
}

type statusError struct {
	status int
	reply  reply
}

func (e *statusError) Error() string {
	return fmt.Sprintf("print server answered %d: %s", e.status, e.reply.body.Error)
}

// unwrapReply recovers the server reply carried by a 5xx error.
func unwrapReply(err error) (reply, bool) {
	var se *statusError
	if errors.As(err, &se) {
		return se.reply, true
	}

	return reply{}, false
}
