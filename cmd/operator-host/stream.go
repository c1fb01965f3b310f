package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// maxLineSize bounds one JSON-encoded event on stdin.
const maxLineSize = 64 * 1024 * 1024

// eventStream carries encoded events in both directions. ReadEvent returns
// io.EOF once the peer is done sending.
type eventStream interface {
	ReadEvent() ([]byte, error)
	WriteEvent(data []byte) error
	Close() error
}

// stdioStream frames events as JSON lines.
type stdioStream struct {
	scanner *bufio.Scanner
	w       io.Writer
	mu      sync.Mutex
}

func newStdioStream(r io.Reader, w io.Writer) *stdioStream {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &stdioStream{scanner: scanner, w: w}
}

func (s *stdioStream) ReadEvent() ([]byte, error) {
	if s.scanner.Scan() {
		return bytes.Clone(s.scanner.Bytes()), nil
	}
	if err := s.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

func (s *stdioStream) WriteEvent(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.w.Write(append(data, '\n'))
	return err
}

func (s *stdioStream) Close() error { return nil }

// wsStream sends one event per websocket text message.
type wsStream struct {
	conn   *websocket.Conn
	server *http.Server
	mu     sync.Mutex // protects writes
}

func (s *wsStream) ReadEvent() ([]byte, error) {
	_, msg, err := s.conn.ReadMessage()
	if err != nil {
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			return nil, io.EOF
		}
		return nil, err
	}
	return msg, nil
}

func (s *wsStream) WriteEvent(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

func (s *wsStream) Close() error {
	s.mu.Lock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "operator finished")
	_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	s.mu.Unlock()

	err := s.conn.Close()
	if s.server != nil {
		_ = s.server.Close()
	}
	return err
}

// wsListener serves a single websocket connection. Later connection
// attempts are refused with 409 Conflict.
type wsListener struct {
	ln       net.Listener
	server   *http.Server
	conns    chan *websocket.Conn
	accepted atomic.Bool
}

func listenWebsocket(addr string, logger *slog.Logger) (*wsListener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	l := &wsListener{ln: ln, conns: make(chan *websocket.Conn, 1)}
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if !l.accepted.CompareAndSwap(false, true) {
			http.Error(w, "operator already has a client", http.StatusConflict)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			l.accepted.Store(false)
			logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
			return
		}
		l.conns <- conn
	})
	l.server = &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := l.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("websocket server stopped", "error", err)
		}
	}()
	return l, nil
}

// Addr returns the bound address.
func (l *wsListener) Addr() net.Addr {
	return l.ln.Addr()
}

// Accept waits for the client connection.
func (l *wsListener) Accept(ctx context.Context) (*wsStream, error) {
	select {
	case conn := <-l.conns:
		return &wsStream{conn: conn, server: l.server}, nil
	case <-ctx.Done():
		_ = l.server.Close()
		return nil, ctx.Err()
	}
}

func acceptWebsocket(ctx context.Context, addr string, logger *slog.Logger) (*wsStream, error) {
	l, err := listenWebsocket(addr, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("waiting for websocket client", "addr", l.Addr().String())
	return l.Accept(ctx)
}
