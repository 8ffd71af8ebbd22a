// Package apiclient is the authenticated request pipeline: every backend call made
// on behalf of a signed-in user goes through Transport, which attaches the bearer
// token and ends the session when the backend answers 401.
package apiclient

import (
	"context"
	"io"
	"log"
	"net/http"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	// HeaderRequestID is the correlation header sent with every request.
	HeaderRequestID = "X-Request-ID"

	instrumentationName = "portfolio-client/internal/apiclient"
	bearerPrefix        = "Bearer "
)

// TokenSource supplies the current access token, if a valid session exists.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, bool)
}

// UnauthorizedHandler is told when the backend rejected a request with 401.
type UnauthorizedHandler interface {
	HandleUnauthorized(ctx context.Context)
}

// UnauthorizedFunc adapts a function to UnauthorizedHandler.
type UnauthorizedFunc func(ctx context.Context)

// HandleUnauthorized calls f(ctx).
func (f UnauthorizedFunc) HandleUnauthorized(ctx context.Context) { f(ctx) }

// Transport is an http.RoundTripper that authenticates requests and reports 401s.
// A 401 response is never returned to the caller: its body is closed, the
// handler is invoked once and RoundTrip returns ErrUnauthorized.
type Transport struct {
	base         http.RoundTripper
	tokens       TokenSource
	onUnauth     UnauthorizedHandler
	tracer       trace.Tracer
	propagator   propagation.TextMapPropagator
	requests     metric.Int64Counter
	unauthorized metric.Int64Counter
}

// Option configures a Transport.
type Option func(*transportOptions)

type transportOptions struct {
	tp trace.TracerProvider
	mp metric.MeterProvider
}

// WithTracerProvider sets the tracer provider. Defaults to the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *transportOptions) { o.tp = tp }
}

// WithMeterProvider sets the meter provider. Defaults to the global provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *transportOptions) { o.mp = mp }
}

// NewTransport wraps base (http.DefaultTransport when nil). tokens and onUnauth may be nil.
func NewTransport(base http.RoundTripper, tokens TokenSource, onUnauth UnauthorizedHandler, opts ...Option) *Transport {
	o := transportOptions{tp: otel.GetTracerProvider(), mp: otel.GetMeterProvider()}
	for _, opt := range opts {
		opt(&o)
	}
	if base == nil {
		base = http.DefaultTransport
	}
	meter := o.mp.Meter(instrumentationName)
	requests, err := meter.Int64Counter("portfolio.client.requests",
		metric.WithDescription("Backend requests sent through the authenticated pipeline."))
	if err != nil {
		log.Printf("apiclient: create requests counter: %v", err)
		requests = metricnoop.Int64Counter{}
	}
	unauthorized, err := meter.Int64Counter("portfolio.client.unauthorized",
		metric.WithDescription("Backend responses with status 401."))
	if err != nil {
		log.Printf("apiclient: create unauthorized counter: %v", err)
		unauthorized = metricnoop.Int64Counter{}
	}
	return &Transport{
		base:         base,
		tokens:       tokens,
		onUnauth:     onUnauth,
		tracer:       o.tp.Tracer(instrumentationName),
		propagator:   otel.GetTextMapPropagator(),
		requests:     requests,
		unauthorized: unauthorized,
	}
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx, span := t.tracer.Start(req.Context(), "HTTP "+req.Method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method),
			attribute.String("url.path", req.URL.Path),
		))
	defer span.End()

	r := req.Clone(ctx)
	if t.tokens != nil {
		if tok, ok := t.tokens.AccessToken(ctx); ok {
			r.Header.Set("Authorization", bearerPrefix+tok)
		}
	}
	if r.Header.Get(HeaderRequestID) == "" {
		id, ok := RequestIDFromContext(ctx)
		if !ok {
			id = uuid.NewString()
		}
		r.Header.Set(HeaderRequestID, id)
	}
	span.SetAttributes(attribute.String("request.id", r.Header.Get(HeaderRequestID)))
	t.propagator.Inject(ctx, propagation.HeaderCarrier(r.Header))

	resp, err := t.base.RoundTrip(r)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		t.requests.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "error")))
		return nil, err
	}
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	t.requests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", "response"),
		attribute.Int("status", resp.StatusCode),
	))

	if resp.StatusCode != http.StatusUnauthorized {
		if resp.StatusCode >= 500 {
			span.SetStatus(codes.Error, resp.Status)
		}
		return resp, nil
	}

	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	_ = resp.Body.Close()
	t.unauthorized.Add(ctx, 1)
	span.SetStatus(codes.Error, "unauthorized")
	if t.onUnauth != nil {
		t.onUnauth.HandleUnauthorized(ctx)
	}
	return nil, ErrUnauthorized
}
