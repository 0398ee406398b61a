// Package tracing configures the OpenTelemetry tracer provider and offers a
// small helper for starting spans in services.
package tracing

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope used by recall services.
const TracerName = "github.com/custodia-labs/recall"

var (
	providerMu sync.Mutex
	provider   *sdktrace.TracerProvider
)

// Config controls the tracer provider.
type Config struct {
	// ServiceName is reported as service.name.
	ServiceName string

	// Version is reported as service.version.
	Version string

	// Exporter receives finished spans as pretty JSON. Nil records spans
	// without exporting them.
	Exporter io.Writer

	// OTLPEndpoint sends spans to an OTLP/HTTP collector when set. Either a
	// host:port or a full URL.
	OTLPEndpoint string
	OTLPHeaders  map[string]string
	OTLPInsecure bool
}

// Enabled reports whether the config exports spans anywhere.
func (c Config) Enabled() bool {
	return c.Exporter != nil || c.OTLPEndpoint != ""
}

// ApplyEnv fills the OTLP fields from the standard OTEL_EXPORTER_OTLP_*
// variables. Fields already set are kept.
func (c *Config) ApplyEnv() {
	if c.OTLPEndpoint == "" {
		c.OTLPEndpoint = strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"))
	}
	if c.OTLPHeaders == nil {
		c.OTLPHeaders = parseHeaders(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"))
	}
	switch strings.ToLower(strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_INSECURE"))) {
	case "1", "true", "yes", "on":
		c.OTLPInsecure = true
	}
}

// parseHeaders parses "k1=v1,k2=v2". Malformed pairs are skipped.
func parseHeaders(raw string) map[string]string {
	headers := map[string]string{}
	for _, part := range strings.Split(raw, ",") {
		k, v, ok := strings.Cut(part, "=")
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if !ok || k == "" || v == "" {
			continue
		}
		headers[k] = v
	}
	if len(headers) == 0 {
		return nil
	}
	return headers
}

func otlpOptions(cfg Config) []otlptracehttp.Option {
	var opts []otlptracehttp.Option
	if strings.Contains(cfg.OTLPEndpoint, "://") {
		opts = append(opts, otlptracehttp.WithEndpointURL(cfg.OTLPEndpoint))
	} else {
		opts = append(opts, otlptracehttp.WithEndpoint(cfg.OTLPEndpoint))
	}
	if cfg.OTLPInsecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	if len(cfg.OTLPHeaders) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(cfg.OTLPHeaders))
	}
	return opts
}

// Init installs a process-wide tracer provider. Calling it again replaces
// the previous provider after shutting it down.
func Init(ctx context.Context, cfg Config) error {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.Version),
		),
	)
	if err != nil {
		return err
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
	}
	if cfg.Exporter != nil {
		exporter, err := stdouttrace.New(
			stdouttrace.WithWriter(cfg.Exporter),
			stdouttrace.WithPrettyPrint(),
		)
		if err != nil {
			return err
		}
		opts = append(opts, sdktrace.WithSyncer(exporter))
	}
	if cfg.OTLPEndpoint != "" {
		exporter, err := otlptracehttp.New(ctx, otlpOptions(cfg)...)
		if err != nil {
			return err
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}
	tp := sdktrace.NewTracerProvider(opts...)

	providerMu.Lock()
	prev := provider
	provider = tp
	providerMu.Unlock()

	otel.SetTracerProvider(tp)
	if prev != nil {
		return prev.Shutdown(ctx)
	}
	return nil
}

// Enabled reports whether Init has installed a provider.
func Enabled() bool {
	providerMu.Lock()
	defer providerMu.Unlock()
	return provider != nil
}

// Shutdown flushes and stops the provider installed by Init.
func Shutdown(ctx context.Context) error {
	providerMu.Lock()
	tp := provider
	provider = nil
	providerMu.Unlock()
	if tp == nil {
		return nil
	}
	return tp.Shutdown(ctx)
}

// StartSpan starts a span on the recall tracer. Without Init the global
// no-op provider is used, so spans cost nothing.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, name, trace.WithAttributes(attrs...))
}

// End records err on the span, if any, and ends it.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
