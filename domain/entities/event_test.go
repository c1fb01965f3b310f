package entities

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutgoingEvent_IsTerminal(t *testing.T) {
	assert.False(t, NewOutput("out", Metadata{}, []byte{1}).IsTerminal())
	assert.True(t, NewFinished(InputsClosed).IsTerminal())
	assert.True(t, NewError(errors.New("boom")).IsTerminal())
	assert.True(t, NewAborted("panic", nil).IsTerminal())
}

func TestIncomingEventConstructors(t *testing.T) {
	md := Metadata{Parameters: MetadataParameters{Watermark: 7}}
	in := NewInput("image", []byte("px"), md)
	assert.Equal(t, IncomingInput, in.Type)
	assert.Equal(t, "image", in.ID)
	assert.Equal(t, uint64(7), in.Metadata.Parameters.Watermark)

	closed := NewInputClosed("image")
	assert.Equal(t, IncomingInputClosed, closed.Type)
	assert.Equal(t, "image", closed.ID)

	assert.Equal(t, IncomingStop, NewStop().Type)
}

func TestMetadata_ToMap(t *testing.T) {
	md := Metadata{Parameters: MetadataParameters{
		OpenTelemetryContext: "traceparent:00-abc;",
		Watermark:            3,
		Deadline:             9,
	}}

	m := md.ToMap()
	assert.Equal(t, uint64(3), m[MetadataKeyWatermark])
	assert.Equal(t, uint64(9), m[MetadataKeyDeadline])
	assert.Equal(t, "traceparent:00-abc;", m[MetadataKeyOpenTelemetryContext])
}
