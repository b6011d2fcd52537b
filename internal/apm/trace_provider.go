// Package apm configures the global OpenTelemetry tracer provider.
package apm

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"

	"github.com/fd1az/sizing-bot/internal/logger"
)

type Provider string

const (
	ZipkinProvider   Provider = "ZIPKIN_PROVIDER"
	OTLPGRPCProvider Provider = "OTLP_GRPC_PROVIDER"
	OTLPHTTPProvider Provider = "OTLP_HTTP_PROVIDER"
	ConsoleProvider  Provider = "CONSOLE_PROVIDER"
	EmptyProvider    Provider = "EMPTY_PROVIDER"
)

// TraceProvider is a running tracer provider.
type TraceProvider interface {
	Stop() error
}

// Settings selects and configures the exporter.
type Settings struct {
	Provider    Provider
	ServiceName string
	Endpoint    string
	// Headers is a comma-separated list of key=value pairs sent with OTLP exports.
	Headers string
	// Console is where the console exporter writes. Nil means stdout.
	Console io.Writer
}

type traceProvider struct {
	tp *sdktrace.TracerProvider
}

type emptyProvider struct{}

func (emptyProvider) Stop() error { return nil }

// NewTraceProvider installs a global tracer provider for s.Provider.
// Unknown providers fall back to the empty provider with a warning.
func NewTraceProvider(ctx context.Context, s Settings, log logger.LoggerInterface) (TraceProvider, error) {
	exp, err := newExporter(ctx, s, log)
	if err != nil {
		return nil, err
	}
	if exp == nil {
		return emptyProvider{}, nil
	}

	rsrc, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(s.ServiceName),
			attribute.String("otel.provider", string(s.Provider)),
		))
	if err != nil {
		log.Warn(ctx, "merging otel resource failed, using default", "error", err)
		rsrc = resource.Default()
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(rsrc),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))

	log.Info(ctx, "tracing enabled", "provider", s.Provider, "endpoint", s.Endpoint)

	return &traceProvider{tp}, nil
}

func newExporter(ctx context.Context, s Settings, log logger.LoggerInterface) (sdktrace.SpanExporter, error) {
	switch s.Provider {
	case ZipkinProvider:
		return zipkin.New(s.Endpoint)

	case OTLPGRPCProvider:
		headers, err := parseHeaders(s.Headers)
		if err != nil {
			return nil, err
		}
		return otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpointURL(s.Endpoint),
			otlptracegrpc.WithHeaders(headers),
		)

	case OTLPHTTPProvider:
		headers, err := parseHeaders(s.Headers)
		if err != nil {
			return nil, err
		}
		return otlptracehttp.New(ctx,
			otlptracehttp.WithEndpointURL(s.Endpoint),
			otlptracehttp.WithHeaders(headers),
		)

	case ConsoleProvider:
		opts := []stdouttrace.Option{stdouttrace.WithPrettyPrint()}
		if s.Console != nil {
			opts = append(opts, stdouttrace.WithWriter(s.Console))
		}
		return stdouttrace.New(opts...)

	case EmptyProvider, "":
		return nil, nil

	default:
		log.Warn(ctx, "trace provider not found, using empty provider", "provider", s.Provider)
		return nil, nil
	}
}

// parseHeaders turns "k1=v1,k2=v2" into a map.
func parseHeaders(raw string) (map[string]string, error) {
	headers := make(map[string]string)
	if strings.TrimSpace(raw) == "" {
		return headers, nil
	}
	for _, pair := range strings.Split(raw, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid otlp header %q, expected key=value", pair)
		}
		headers[k] = v
	}
	return headers, nil
}

func (o *traceProvider) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5) //nolint:gomnd
	defer cancel()

	return o.tp.Shutdown(ctx)
}
