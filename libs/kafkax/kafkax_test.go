package kafkax

import (
	"context"
	"testing"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func TestEventMetaFallbacks(t *testing.T) {
	msg := kafka.Message{Topic: "doctor.schedule.updated.v1", Key: []byte("doc-1")}
	meta := ExtractEventMeta(msg)
	if meta.EventID != "" || meta.EventType != "doctor.schedule.updated.v1" {
		t.Fatalf("unexpected meta %+v", meta)
	}

	msg.Headers = EventMeta{EventID: "evt-1", EventType: "portal.appointment.booked.v1"}.Headers()
	meta = ExtractEventMeta(msg)
	if meta.EventID != "evt-1" || meta.EventType != "portal.appointment.booked.v1" {
		t.Fatalf("unexpected meta %+v", meta)
	}
}

func TestSplitBrokers(t *testing.T) {
	got := SplitBrokers(" kafka-1:9092, ,kafka-2:9092")
	if len(got) != 2 || got[1] != "kafka-2:9092" {
		t.Fatalf("unexpected brokers %#v", got)
	}
}

func TestTraceHeadersRoundTrip(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{1, 2, 3},
		SpanID:     trace.SpanID{4, 5, 6},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	headers := InjectTraceHeaders(ctx, nil)
	if HeaderValue(headers, "traceparent") == "" {
		t.Fatal("expected traceparent header")
	}

	got := trace.SpanContextFromContext(ExtractTraceContext(context.Background(), kafka.Message{Headers: headers}))
	if got.TraceID() != sc.TraceID() {
		t.Fatalf("trace id mismatch: %s vs %s", got.TraceID(), sc.TraceID())
	}
}
