package script

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/console"
	"github.com/dop251/goja_nodejs/require"
	"github.com/reglet-dev/operator-host/domain/entities"
	domainerrors "github.com/reglet-dev/operator-host/domain/errors"
	"github.com/reglet-dev/operator-host/domain/ports"
)

const (
	// ModuleName is the native module exposing host helpers to handlers.
	ModuleName = "dora"

	handlerSymbol = "Operator"

	// DefaultMaxCallStackSize bounds guest call depth. Deeper recursion
	// raises a RangeError instead of exhausting host memory.
	DefaultMaxCallStackSize = 10000

	stackOverflowMessage = "RangeError: Maximum call stack size exceeded"
	overflowFrames       = 20
)

// statusScript builds the frozen DoraStatus enum.
const statusScript = `(function () {
	const mk = (value, name) => Object.freeze({ value: value, name: name });
	return Object.freeze({
		CONTINUE: mk(0, "CONTINUE"),
		STOP: mk(1, "STOP"),
		STOP_ALL: mk(2, "STOP_ALL"),
	});
})()`

type config struct {
	logger           *slog.Logger
	searchPaths      []string
	maxCallStackSize int
}

func defaultConfig() config {
	return config{
		logger:           slog.Default(),
		maxCallStackSize: DefaultMaxCallStackSize,
	}
}

// Option configures a Runtime.
type Option func(*config)

// WithLogger sets the fallback logger for guest console output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithSearchPaths adds module folders searched by require for every handler.
func WithSearchPaths(paths ...string) Option {
	return func(c *config) {
		c.searchPaths = append(c.searchPaths, paths...)
	}
}

// WithMaxCallStackSize sets the guest call depth limit. Non-positive values
// keep the default.
func WithMaxCallStackSize(size int) Option {
	return func(c *config) {
		if size > 0 {
			c.maxCallStackSize = size
		}
	}
}

// Runtime implements ports.GuestRuntime for JavaScript modules.
type Runtime struct {
	cfg config
}

// NewRuntime creates a JavaScript guest runtime.
func NewRuntime(opts ...Option) *Runtime {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Runtime{cfg: cfg}
}

// Kind implements ports.GuestRuntime.
func (r *Runtime) Kind() entities.RuntimeKind {
	return entities.RuntimeScript
}

// Load implements ports.GuestRuntime. Each handler gets its own goja runtime.
func (r *Runtime) Load(_ context.Context, req ports.LoadRequest) (ports.HandlerInstance, error) {
	logger := req.Logger
	if logger == nil {
		logger = r.cfg.logger
	}

	dir := filepath.Dir(req.Path)
	if !utf8.ValidString(dir) {
		return nil, &domainerrors.InitError{Stage: "search_path", Path: req.Path, Err: errors.New("module path is not valid utf8")}
	}
	stem := strings.TrimSuffix(filepath.Base(req.Path), filepath.Ext(req.Path))

	folders := append([]string{dir}, r.cfg.searchPaths...)
	folders = append(folders, req.SearchPaths...)

	vm := goja.New()
	vm.SetMaxCallStackSize(r.cfg.maxCallStackSize)
	status, err := vm.RunString(statusScript)
	if err != nil {
		return nil, &domainerrors.InitError{Stage: "globals", Path: req.Path, Err: err}
	}
	if err := vm.Set("DoraStatus", status); err != nil {
		return nil, &domainerrors.InitError{Stage: "globals", Path: req.Path, Err: err}
	}

	registry := require.NewRegistry(require.WithGlobalFolders(folders...))
	registry.RegisterNativeModule(console.ModuleName, console.RequireWithPrinter(&slogPrinter{logger: logger}))
	registry.RegisterNativeModule(ModuleName, func(_ *goja.Runtime, module *goja.Object) {
		exports := module.Get("exports").(*goja.Object)
		_ = exports.Set("DoraStatus", status)
	})
	registry.Enable(vm)
	console.Enable(vm)

	requireFn, ok := goja.AssertFunction(vm.Get("require"))
	if !ok {
		return nil, &domainerrors.InitError{Stage: "globals", Path: req.Path, Err: errors.New("require is not available")}
	}

	exports, err := requireFn(goja.Undefined(), vm.ToValue(stem))
	if err != nil {
		return nil, guestError("import", err)
	}
	if exports == nil || goja.IsUndefined(exports) || goja.IsNull(exports) {
		return nil, &domainerrors.NoHandlerTypeError{Module: stem, Symbol: handlerSymbol}
	}

	ctor := exports.ToObject(vm).Get(handlerSymbol)
	if ctor == nil || goja.IsUndefined(ctor) {
		return nil, &domainerrors.NoHandlerTypeError{Module: stem, Symbol: handlerSymbol}
	}
	if _, ok := goja.AssertConstructor(ctor); !ok {
		return nil, &domainerrors.NoHandlerTypeError{Module: stem, Symbol: handlerSymbol}
	}

	instance, err := vm.New(ctor)
	if err != nil {
		return nil, guestError("construct", err)
	}

	logger.Debug("script operator loaded", "module", stem, "search_paths", folders)
	return &handler{
		vm:         vm,
		instance:   instance,
		uint8Array: vm.Get("Uint8Array"),
		logger:     logger,
	}, nil
}

// guestError converts an error raised by guest code into a GuestError,
// keeping the JavaScript stack as traceback.
func guestError(op string, err error) *domainerrors.GuestError {
	var overflow *goja.StackOverflowError
	if errors.As(err, &overflow) {
		return &domainerrors.GuestError{
			Op:        op,
			Message:   stackOverflowMessage,
			Traceback: stackOverflowMessage + "\n" + topFrames(overflow.String(), overflowFrames),
			Err:       err,
		}
	}

	var ex *goja.Exception
	if errors.As(err, &ex) {
		msg := ex.Error()
		if v := ex.Value(); v != nil {
			msg = v.String()
		}
		return &domainerrors.GuestError{
			Op:        op,
			Message:   msg,
			Traceback: strings.TrimRight(ex.String(), "\n"),
			Err:       err,
		}
	}
	return &domainerrors.GuestError{Op: op, Message: err.Error(), Err: err}
}

// topFrames keeps the first n lines of a goja stack rendering.
func topFrames(stack string, n int) string {
	lines := strings.SplitN(strings.TrimRight(stack, "\n"), "\n", n+1)
	if len(lines) > n {
		lines = append(lines[:n], "\t...")
	}
	return strings.Join(lines, "\n")
}

// slogPrinter routes guest console output to slog.
type slogPrinter struct {
	logger *slog.Logger
}

func (p *slogPrinter) Log(s string)   { p.logger.Info(s, "stream", "console") }
func (p *slogPrinter) Info(s string)  { p.logger.Info(s, "stream", "console") }
func (p *slogPrinter) Debug(s string) { p.logger.Debug(s, "stream", "console") }
func (p *slogPrinter) Warn(s string)  { p.logger.Warn(s, "stream", "console") }
func (p *slogPrinter) Error(s string) { p.logger.Error(s, "stream", "console") }
