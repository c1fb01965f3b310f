package hostfuncs

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/reglet-dev/operator-host/wireformat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPanicRecoveryMiddleware(t *testing.T) {
	tests := []struct {
		name     string
		handler  ByteHandler
		wantResp string
		wantMsg  string
	}{
		{
			name:     "passes responses through",
			handler:  func(context.Context, []byte) ([]byte, error) { return []byte(`{"ok":true}`), nil },
			wantResp: `{"ok":true}`,
		},
		{
			name:    "string panic",
			handler: func(context.Context, []byte) ([]byte, error) { panic("guest memory view out of range") },
			wantMsg: "panic: guest memory view out of range",
		},
		{
			name:    "error panic",
			handler: func(context.Context, []byte) ([]byte, error) { panic(errors.New("outbox is nil")) },
			wantMsg: "panic: outbox is nil",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := PanicRecoveryMiddleware()(tt.handler)(context.Background(), nil)
			require.NoError(t, err)

			if tt.wantResp != "" {
				assert.JSONEq(t, tt.wantResp, string(resp))
				return
			}
			errResp := decodeError(t, resp)
			assert.Equal(t, "INTERNAL_ERROR", errResp.Error)
			assert.Equal(t, tt.wantMsg, errResp.Message)
		})
	}
}

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	reg, err := NewRegistry(
		WithMiddleware(LoggingMiddleware(logger)),
		WithByteHandler(SendOutputFunc, func(context.Context, []byte) ([]byte, error) {
			return nil, nil
		}),
		WithByteHandler(LogMessageFunc, func(context.Context, []byte) ([]byte, error) {
			return nil, errors.New("guest allocate failed")
		}),
	)
	require.NoError(t, err)

	_, err = reg.Invoke(context.Background(), SendOutputFunc, []byte(`{"id":"a"}`))
	require.NoError(t, err)
	_, err = reg.Invoke(context.Background(), LogMessageFunc, nil)
	require.Error(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "function=send_output")
	assert.Contains(t, lines[0], "request_bytes=10")
	assert.Contains(t, lines[1], "function=log_message")
	assert.Contains(t, lines[2], "level=ERROR")
	assert.Contains(t, lines[2], "guest allocate failed")
}

func TestLoggingMiddleware_NilLogger(t *testing.T) {
	handler := LoggingMiddleware(nil)(func(context.Context, []byte) ([]byte, error) {
		return []byte("null"), nil
	})
	resp, err := handler(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "null", string(resp))
}

func TestOperatorRegistry_RecoversSinkPanic(t *testing.T) {
	reg, err := NewOperatorRegistry(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	require.NoError(t, err)

	payload, err := wireformat.Marshal(wireformat.SendOutputWire{ID: "bbox", Data: []byte{1}})
	require.NoError(t, err)

	resp, err := reg.Invoke(WithOutputSink(context.Background(), panicSink{}), SendOutputFunc, payload)
	require.NoError(t, err)
	assert.Equal(t, "panic: sink exploded", decodeError(t, resp).Message)
}
