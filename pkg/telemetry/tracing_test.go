package telemetry

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func TestInitTracerNone(t *testing.T) {
	shutdown, err := InitTracer(context.Background(), "presence-test", ExporterNone, "")
	if err != nil {
		t.Fatalf("InitTracer: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}

func TestInitTracerUnknownExporter(t *testing.T) {
	if _, err := InitTracer(context.Background(), "presence-test", "zipkin", ""); err == nil {
		t.Fatal("InitTracer accepted an unknown exporter")
	}
}

func TestInjectTraceContext(t *testing.T) {
	previous := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(previous) })

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	attrs := InjectTraceContext(ctx)
	attr, ok := attrs["traceparent"]
	if !ok || attr.StringValue == nil {
		t.Fatalf("traceparent not injected: %v", attrs)
	}
	if want := "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"; *attr.StringValue != want {
		t.Errorf("traceparent = %q, want %q", *attr.StringValue, want)
	}
	if attr.DataType == nil || *attr.DataType != "String" {
		t.Errorf("DataType = %v, want String", attr.DataType)
	}
}

func TestInjectTraceContextWithoutSpan(t *testing.T) {
	previous := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(previous) })

	if attrs := InjectTraceContext(context.Background()); len(attrs) != 0 {
		t.Errorf("attrs = %v, want none without an active span", attrs)
	}
}
