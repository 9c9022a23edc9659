package tracing

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"employee-portal/internal/logging"
)

func TestInitTracer_RequiresServiceName(t *testing.T) {
	if _, err := InitTracer(context.Background(), Config{}); err == nil {
		t.Fatal("expected an error without ServiceName")
	}
}

func TestInject_CarriesTraceContext(t *testing.T) {
	shutdown, err := InitTracer(context.Background(), Config{
		ServiceName:  ServiceName,
		Environment:  "development",
		TracesExport: "none",
		Logger:       logging.Discard(),
	})
	if err != nil {
		t.Fatalf("InitTracer failed: %v", err)
	}
	t.Cleanup(func() { _ = shutdown(context.Background()) })

	ctx, span := StartSpan(context.Background(), "backend.call")
	RecordError(span, errors.New("boom"))
	RecordError(span, nil)
	defer span.End()

	h := http.Header{}
	Inject(ctx, h)
	tp := h.Get("traceparent")
	if tp == "" {
		t.Fatal("traceparent header not injected")
	}
	if !strings.Contains(tp, span.SpanContext().TraceID().String()) {
		t.Errorf("traceparent %q does not carry trace id %s", tp, span.SpanContext().TraceID())
	}
}

func TestSamplerFromEnv(t *testing.T) {
	tests := []struct {
		sampler, arg string
		want         string
	}{
		{"", "", "ParentBased{root:AlwaysOnSampler"},
		{"always_on", "", "AlwaysOnSampler"},
		{"always_off", "", "AlwaysOffSampler"},
		{"traceidratio", "0.5", "TraceIDRatioBased{0.5}"},
		{"traceidratio", "nope", "ParentBased{root:AlwaysOnSampler"},
		{"traceidratio", "7", "ParentBased{root:AlwaysOnSampler"},
		{"bogus", "", "ParentBased{root:AlwaysOnSampler"},
	}
	for _, tt := range tests {
		t.Run(tt.sampler+"/"+tt.arg, func(t *testing.T) {
			t.Setenv("OTEL_TRACES_SAMPLER", tt.sampler)
			t.Setenv("OTEL_TRACES_SAMPLER_ARG", tt.arg)
			got := samplerFromEnv(logging.Discard()).Description()
			if !strings.Contains(got, tt.want) {
				t.Errorf("sampler = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}
