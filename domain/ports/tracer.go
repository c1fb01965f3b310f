package ports

import "context"

// Tracer derives child trace contexts for dispatched events.
// A nil Tracer is a valid configuration: trace-context fields are then emptied.
type Tracer interface {
	// Deserialize attaches the serialized parent context to ctx.
	Deserialize(ctx context.Context, serialized string) context.Context

	// StartSpan starts a child span of ctx. The returned func ends it.
	StartSpan(ctx context.Context, name string) (context.Context, func())

	// Serialize renders the span context carried by ctx.
	Serialize(ctx context.Context) string
}
