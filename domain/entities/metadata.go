package entities

// Metadata travels alongside every input and output payload.
type Metadata struct {
	Parameters MetadataParameters `json:"parameters"`
}

// MetadataParameters are the side-channel fields of a Metadata.
type MetadataParameters struct {
	// OpenTelemetryContext is the serialized trace context of the event.
	OpenTelemetryContext string `json:"open_telemetry_context,omitempty"`

	// Watermark is a producer-defined monotonic marker.
	Watermark uint64 `json:"watermark,omitempty"`

	// Deadline is a producer-defined processing deadline.
	Deadline uint64 `json:"deadline,omitempty"`
}

// Guest metadata keys, as seen by handler code.
const (
	MetadataKeyWatermark            = "watermark"
	MetadataKeyDeadline             = "deadline"
	MetadataKeyOpenTelemetryContext = "open_telemetry_context"
)

// ToMap returns the flat key/value form handed to guest code.
func (m Metadata) ToMap() map[string]any {
	return map[string]any{
		MetadataKeyWatermark:            m.Parameters.Watermark,
		MetadataKeyDeadline:             m.Parameters.Deadline,
		MetadataKeyOpenTelemetryContext: m.Parameters.OpenTelemetryContext,
	}
}
