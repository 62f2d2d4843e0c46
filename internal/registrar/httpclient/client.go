// Package httpclient talks to a registrar over JSON/HTTP.
package httpclient

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

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"parsid/internal/registrar"
	"parsid/pkg/platform/circuit"
)

const (
	DefaultTimeout = 10 * time.Second

	registerPath = "/identities"
	maxBodyBytes = 64 << 10
)

// Observer receives one call per Register attempt. outcome is "success" or
// a registrar.Category.
type Observer interface {
	ObserveRegistrarCall(outcome string, elapsed time.Duration)
}

type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	breaker *circuit.Breaker
	tracer  trace.Tracer
	logger  *slog.Logger
	obs     Observer
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout bounds each Register call, on top of any caller deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(c *Client) { c.breaker = b }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func WithObserver(obs Observer) Option {
	return func(c *Client) { c.obs = obs }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		timeout: DefaultTimeout,
		breaker: circuit.New("registrar"),
		tracer:  otel.Tracer("parsid/registrar/httpclient"),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// errorBody is the registrar's failure body. Retryable, when present, is the
// registrar's own verdict and overrides the status-derived default.
type errorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Retryable        *bool  `json:"retryable"`
}

// Register submits req. Failures are *registrar.Error.
func (c *Client) Register(ctx context.Context, req registrar.MintRequest) (receipt registrar.Receipt, err error) {
	ctx, span := c.tracer.Start(ctx, "registrar.register", trace.WithSpanKind(trace.SpanKindClient))
	start := time.Now()
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = string(registrar.CategoryOf(err))
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
		}
		span.SetAttributes(attribute.String("registrar.outcome", outcome))
		span.End()
		if c.obs != nil {
			c.obs.ObserveRegistrarCall(outcome, time.Since(start))
		}
	}()

	if !c.breaker.Allow() {
		return registrar.Receipt{}, registrar.NewError(registrar.CategoryUnavailable,
			"registrar temporarily unavailable", registrar.ErrCircuitOpen)
	}

	receipt, err = c.do(ctx, req)
	c.record(ctx, err)
	return receipt, err
}

func (c *Client) do(ctx context.Context, req registrar.MintRequest) (registrar.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := json.Marshal(req)
	if err != nil {
		return registrar.Receipt{}, registrar.NewError(registrar.CategoryInternal, "encode mint request", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+registerPath, bytes.NewReader(payload))
	if err != nil {
		return registrar.Receipt{}, registrar.NewError(registrar.CategoryInternal, "build mint request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return registrar.Receipt{}, transportError(ctx, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return registrar.Receipt{}, transportError(ctx, err)
	}
	return parseResponse(resp.StatusCode, body)
}

// record feeds the breaker. Caller cancellation and definitive rejections say
// nothing about registrar health.
func (c *Client) record(ctx context.Context, err error) {
	if err == nil {
		c.breaker.RecordSuccess()
		return
	}
	switch registrar.CategoryOf(err) {
	case registrar.CategoryCanceled:
		return
	case registrar.CategoryTimeout, registrar.CategoryUnavailable, registrar.CategoryBadResponse:
		if _, change := c.breaker.RecordFailure(); change.Opened {
			c.logger.WarnContext(ctx, "registrar circuit opened", "breaker", c.breaker.Name())
		}
	default:
		c.breaker.RecordSuccess()
	}
}

func transportError(ctx context.Context, err error) error {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded), errors.Is(err, context.DeadlineExceeded):
		return registrar.NewError(registrar.CategoryTimeout, "registrar did not answer in time", err)
	case errors.Is(ctx.Err(), context.Canceled), errors.Is(err, context.Canceled):
		return registrar.NewError(registrar.CategoryCanceled, "mint request canceled", err)
	default:
		return registrar.NewError(registrar.CategoryUnavailable, "registrar unreachable", err)
	}
}

func parseResponse(status int, body []byte) (registrar.Receipt, error) {
	if status == http.StatusOK || status == http.StatusCreated {
		var receipt registrar.Receipt
		if err := json.Unmarshal(body, &receipt); err != nil {
			return registrar.Receipt{}, registrar.NewError(registrar.CategoryBadResponse, "malformed registrar receipt", err)
		}
		if receipt.Reference == "" {
			return registrar.Receipt{}, registrar.NewError(registrar.CategoryBadResponse, "registrar receipt has no reference", nil)
		}
		return receipt, nil
	}

	message := fmt.Sprintf("registrar returned status %d", status)
	var eb errorBody
	decoded := json.Unmarshal(body, &eb) == nil
	if decoded && eb.ErrorDescription != "" {
		message = eb.ErrorDescription
	}
	rerr := registrar.NewError(categoryForStatus(status), message, nil)
	if decoded && eb.Retryable != nil {
		rerr.Retryable = *eb.Retryable
	}
	return registrar.Receipt{}, rerr
}

func categoryForStatus(status int) registrar.Category {
	switch {
	case status == http.StatusConflict:
		return registrar.CategoryHandleTaken
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return registrar.CategoryRejected
	case status == http.StatusTooManyRequests:
		return registrar.CategoryRateLimited
	case status == http.StatusRequestTimeout, status == http.StatusGatewayTimeout:
		return registrar.CategoryTimeout
	case status >= 500:
		return registrar.CategoryUnavailable
	default:
		return registrar.CategoryBadResponse
	}
}
