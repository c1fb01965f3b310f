// Package tracing implements ports.Tracer with OpenTelemetry.
//
// Trace contexts travel inside event metadata as a flat string of
// "key:value;" pairs holding the propagator fields, for example
// "traceparent:00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01;".
package tracing

import (
	"context"
	"sort"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope of spans started by the host.
const TracerName = "github.com/reglet-dev/operator-host"

// Option configures an OTel tracer.
type Option func(*tracerConfig)

type tracerConfig struct {
	provider   trace.TracerProvider
	propagator propagation.TextMapPropagator
}

func defaultTracerConfig() tracerConfig {
	return tracerConfig{
		provider:   otel.GetTracerProvider(),
		propagator: propagation.TraceContext{},
	}
}

// WithTracerProvider sets the provider spans are started from.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *tracerConfig) {
		if tp != nil {
			c.provider = tp
		}
	}
}

// WithPropagator sets the propagator used to (de)serialize contexts.
func WithPropagator(p propagation.TextMapPropagator) Option {
	return func(c *tracerConfig) {
		if p != nil {
			c.propagator = p
		}
	}
}

// OTel implements ports.Tracer.
type OTel struct {
	tracer     trace.Tracer
	propagator propagation.TextMapPropagator
}

// New creates an OTel tracer.
func New(opts ...Option) *OTel {
	cfg := defaultTracerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &OTel{
		tracer:     cfg.provider.Tracer(TracerName),
		propagator: cfg.propagator,
	}
}

// Deserialize implements ports.Tracer. Malformed pairs are skipped.
func (t *OTel) Deserialize(ctx context.Context, serialized string) context.Context {
	return t.propagator.Extract(ctx, parseCarrier(serialized))
}

// StartSpan implements ports.Tracer.
func (t *OTel) StartSpan(ctx context.Context, name string) (context.Context, func()) {
	ctx, span := t.tracer.Start(ctx, name)
	return ctx, func() { span.End() }
}

// Serialize implements ports.Tracer. An empty string means ctx carries no
// valid span context.
func (t *OTel) Serialize(ctx context.Context) string {
	carrier := propagation.MapCarrier{}
	t.propagator.Inject(ctx, carrier)
	return formatCarrier(carrier)
}

func parseCarrier(serialized string) propagation.MapCarrier {
	carrier := propagation.MapCarrier{}
	for _, pair := range strings.Split(serialized, ";") {
		key, value, ok := strings.Cut(pair, ":")
		if !ok || key == "" {
			continue
		}
		carrier[key] = value
	}
	return carrier
}

func formatCarrier(carrier propagation.MapCarrier) string {
	keys := carrier.Keys()
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte(':')
		b.WriteString(carrier[k])
		b.WriteByte(';')
	}
	return b.String()
}
