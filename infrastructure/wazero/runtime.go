package wazero

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/reglet-dev/operator-host/domain/entities"
	domainerrors "github.com/reglet-dev/operator-host/domain/errors"
	"github.com/reglet-dev/operator-host/domain/ports"
	"github.com/reglet-dev/operator-host/hostfuncs"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"github.com/tetratelabs/wazero/sys"
)

const (
	memoryExport     = "memory"
	allocateExport   = "allocate"
	deallocateExport = "deallocate"
	onEventExport    = "on_event"
	initExport       = "init_operator"
	dropExport       = "drop_operator"
	wasiInitExport   = "_initialize"
)

type config struct {
	logger           *slog.Logger
	maxRequestSize   uint32
	memoryLimitPages uint32
}

func defaultConfig() config {
	return config{
		logger:         slog.Default(),
		maxRequestSize: hostfuncs.DefaultMaxRequestSize,
	}
}

// Option configures a Runtime.
type Option func(*config)

// WithLogger sets the fallback logger for guest log output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRequestLimit bounds host function requests read from guest memory.
func WithRequestLimit(size uint32) Option {
	return func(c *config) {
		c.maxRequestSize = size
	}
}

// WithMemoryLimitPages caps guest linear memory in 64KiB pages. Zero keeps
// the wazero default.
func WithMemoryLimitPages(pages uint32) Option {
	return func(c *config) {
		c.memoryLimitPages = pages
	}
}

// Runtime implements ports.GuestRuntime for WebAssembly modules.
type Runtime struct {
	cfg config
}

// NewRuntime creates a WebAssembly guest runtime.
func NewRuntime(opts ...Option) *Runtime {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Runtime{cfg: cfg}
}

// Kind implements ports.GuestRuntime.
func (r *Runtime) Kind() entities.RuntimeKind {
	return entities.RuntimeWasm
}

// Load implements ports.GuestRuntime. Each handler gets its own wazero
// runtime, closed together with the handler.
func (r *Runtime) Load(ctx context.Context, req ports.LoadRequest) (_ ports.HandlerInstance, err error) {
	logger := req.Logger
	if logger == nil {
		logger = r.cfg.logger
	}
	stem := strings.TrimSuffix(filepath.Base(req.Path), filepath.Ext(req.Path))

	wasmBytes, err := os.ReadFile(req.Path)
	if err != nil {
		return nil, &domainerrors.InitError{Stage: "read", Path: req.Path, Err: err}
	}

	rcfg := wazero.NewRuntimeConfig()
	if r.cfg.memoryLimitPages > 0 {
		rcfg = rcfg.WithMemoryLimitPages(r.cfg.memoryLimitPages)
	}
	rt := wazero.NewRuntimeWithConfig(ctx, rcfg)
	defer func() {
		if err != nil {
			_ = rt.Close(context.WithoutCancel(ctx))
		}
	}()

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		return nil, &domainerrors.InitError{Stage: "wasi", Path: req.Path, Err: err}
	}

	registry, err := hostfuncs.NewOperatorRegistry(logger)
	if err != nil {
		return nil, &domainerrors.InitError{Stage: "host_module", Path: req.Path, Err: err}
	}
	if err := RegisterWithRuntime(ctx, rt, registry, WithMaxRequestSize(r.cfg.maxRequestSize)); err != nil {
		return nil, &domainerrors.InitError{Stage: "host_module", Path: req.Path, Err: err}
	}

	compiled, err := rt.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, &domainerrors.GuestError{Op: "import", Message: err.Error(), Err: err}
	}

	if _, ok := compiled.ExportedFunctions()[onEventExport]; !ok {
		return nil, &domainerrors.NoHandlerTypeError{Module: stem, Symbol: onEventExport}
	}
	if _, ok := compiled.ExportedFunctions()[allocateExport]; !ok {
		return nil, &domainerrors.InitError{Stage: "abi", Path: req.Path, Err: fmt.Errorf("module does not export %q", allocateExport)}
	}
	if _, ok := compiled.ExportedMemories()[memoryExport]; !ok {
		return nil, &domainerrors.InitError{Stage: "abi", Path: req.Path, Err: fmt.Errorf("module does not export %q", memoryExport)}
	}

	guestLog := &logWriter{logger: logger}
	modCfg := wazero.NewModuleConfig().
		WithName(stem).
		WithStartFunctions().
		WithStdout(guestLog).
		WithStderr(guestLog)

	mod, err := rt.InstantiateModule(ctx, compiled, modCfg)
	if err != nil {
		return nil, callError("construct", err)
	}

	if fn := mod.ExportedFunction(wasiInitExport); fn != nil {
		if _, err := fn.Call(ctx); err != nil {
			return nil, callError("construct", err)
		}
	}
	if fn := mod.ExportedFunction(initExport); fn != nil {
		results, err := fn.Call(ctx)
		if err != nil {
			return nil, callError("construct", err)
		}
		if len(results) > 0 && int32(uint32(results[0])) != 0 { //nolint:gosec // G115: i32 result
			code := int32(uint32(results[0])) //nolint:gosec // G115: i32 result
			return nil, &domainerrors.GuestError{Op: "construct", Message: fmt.Sprintf("%s returned %d", initExport, code)}
		}
	}

	logger.Debug("wasm operator loaded", "module", stem, "size", len(wasmBytes))
	return &handler{
		rt:         rt,
		mod:        mod,
		onEvent:    mod.ExportedFunction(onEventExport),
		allocate:   mod.ExportedFunction(allocateExport),
		deallocate: mod.ExportedFunction(deallocateExport),
		drop:       mod.ExportedFunction(dropExport),
		logger:     logger,
	}, nil
}

// callError converts a failed guest call. A guest that called proc_exit
// aborts the session; traps and other failures are guest errors.
func callError(op string, err error) error {
	var exit *sys.ExitError
	if errors.As(err, &exit) {
		return &domainerrors.AbortError{Info: fmt.Sprintf("guest exited with code %d during %s", exit.ExitCode(), op)}
	}
	msg, _, _ := strings.Cut(err.Error(), "\n")
	return &domainerrors.GuestError{Op: op, Message: msg, Traceback: err.Error(), Err: err}
}

// logWriter routes guest stdout and stderr to slog, one record per line.
type logWriter struct {
	logger *slog.Logger
}

func (w *logWriter) Write(p []byte) (int, error) {
	for _, line := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
		if line != "" {
			w.logger.Info(line, "stream", "stdio")
		}
	}
	return len(p), nil
}
