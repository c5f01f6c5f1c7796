package otelx

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// TraceContext is the W3C pair stored next to an outbox row so the publisher
// can continue the trace of the request that recorded it.
type TraceContext struct {
	Traceparent string
	Tracestate  string
}

func CaptureTraceContext(ctx context.Context) TraceContext {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	return TraceContext{Traceparent: carrier.Get("traceparent"), Tracestate: carrier.Get("tracestate")}
}

func (tc TraceContext) Empty() bool {
	return tc.Traceparent == ""
}

// Resume returns ctx carrying tc as its remote parent. An empty tc leaves ctx as is.
func (tc TraceContext) Resume(ctx context.Context) context.Context {
	if tc.Empty() {
		return ctx
	}
	carrier := propagation.MapCarrier{"traceparent": tc.Traceparent}
	if tc.Tracestate != "" {
		carrier["tracestate"] = tc.Tracestate
	}
	return otel.GetTextMapPropagator().Extract(ctx, carrier)
}
