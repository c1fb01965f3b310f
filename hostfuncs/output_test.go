package hostfuncs

import (
	"context"
	"testing"

	domainerrors "github.com/reglet-dev/operator-host/domain/errors"
	"github.com/reglet-dev/operator-host/wireformat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSink struct {
	id       string
	data     []byte
	metadata map[string]any
	err      error
}

func (s *captureSink) SendOutput(_ context.Context, id string, data []byte, metadata map[string]any) error {
	s.id, s.data, s.metadata = id, data, metadata
	return s.err
}

type panicSink struct{}

func (panicSink) SendOutput(context.Context, string, []byte, map[string]any) error {
	panic("sink exploded")
}

func TestSendOutput(t *testing.T) {
	t.Run("forwards to sink", func(t *testing.T) {
		sink := &captureSink{}
		ctx := WithOutputSink(context.Background(), sink)

		resp := SendOutput(ctx, wireformat.SendOutputWire{
			ID:       "bbox",
			Data:     []byte{1, 2, 3},
			Metadata: map[string]any{"watermark": 4},
		})
		assert.Nil(t, resp)
		assert.Equal(t, "bbox", sink.id)
		assert.Equal(t, []byte{1, 2, 3}, sink.data)
		assert.Equal(t, 4, sink.metadata["watermark"])
	})

	t.Run("missing id", func(t *testing.T) {
		resp := SendOutput(WithOutputSink(context.Background(), &captureSink{}), wireformat.SendOutputWire{})
		require.NotNil(t, resp)
		assert.Equal(t, "VALIDATION_ERROR", resp.Error)
	})

	t.Run("no sink in context", func(t *testing.T) {
		resp := SendOutput(context.Background(), wireformat.SendOutputWire{ID: "bbox"})
		require.NotNil(t, resp)
		assert.Equal(t, "INTERNAL_ERROR", resp.Error)
	})

	t.Run("sink error", func(t *testing.T) {
		sink := &captureSink{err: &domainerrors.OutputError{OutputID: "bbox", Reason: "metadata"}}
		resp := SendOutput(WithOutputSink(context.Background(), sink), wireformat.SendOutputWire{ID: "bbox"})
		require.NotNil(t, resp)
		assert.Equal(t, "OUTPUT_ERROR", resp.Error)
		assert.Equal(t, "metadata", resp.Reason)
	})
}

func TestSendOutput_ThroughRegistry(t *testing.T) {
	reg, err := NewOperatorRegistry(nil)
	require.NoError(t, err)

	tests := []struct {
		name    string
		ctx     context.Context
		payload string
		wantErr string
	}{
		// "AQID" is base64 for 0x01 0x02 0x03.
		{"success", WithOutputSink(context.Background(), &captureSink{}), `{"id":"bbox","data":"AQID","metadata":{"watermark":4}}`, ""},
		{"malformed", WithOutputSink(context.Background(), &captureSink{}), `{"id":`, "VALIDATION_ERROR"},
		{"missing id", WithOutputSink(context.Background(), &captureSink{}), `{"data":""}`, "VALIDATION_ERROR"},
		{"no sink", context.Background(), `{"id":"a","data":""}`, "INTERNAL_ERROR"},
		{"sink panic", WithOutputSink(context.Background(), panicSink{}), `{"id":"a","data":""}`, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := reg.Invoke(tt.ctx, SendOutputFunc, []byte(tt.payload))
			require.NoError(t, err)
			if tt.wantErr == "" {
				assert.Nil(t, resp)
				return
			}
			assert.Equal(t, tt.wantErr, decodeError(t, resp).Error)
		})
	}

	t.Run("payload decoded", func(t *testing.T) {
		sink := &captureSink{}
		_, err := reg.Invoke(WithOutputSink(context.Background(), sink), SendOutputFunc,
			[]byte(`{"id":"bbox","data":"AQID","metadata":{"watermark":4}}`))
		require.NoError(t, err)
		assert.Equal(t, []byte{1, 2, 3}, sink.data)
		assert.EqualValues(t, 4, sink.metadata["watermark"])
	})

	t.Run("malformed names the function", func(t *testing.T) {
		resp, err := reg.Invoke(context.Background(), SendOutputFunc, []byte(`nope`))
		require.NoError(t, err)
		assert.Contains(t, decodeError(t, resp).Message, "invalid send_output request")
	})
}
