package wazero

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/reglet-dev/operator-host/hostfuncs"
	"github.com/reglet-dev/operator-host/internal/abi"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// HostModuleName is the module WASM operators import host functions from.
const HostModuleName = "dora"

// AdapterConfig holds configuration for the wazero adapter.
type AdapterConfig struct {
	// ModuleName is the host module name (default: "dora").
	ModuleName string

	// MaxRequestSize limits the size of incoming requests from guest memory.
	MaxRequestSize uint32
}

// AdapterOption configures the adapter.
type AdapterOption func(*AdapterConfig)

// WithModuleName sets the host module name.
func WithModuleName(name string) AdapterOption {
	return func(c *AdapterConfig) {
		c.ModuleName = name
	}
}

// WithMaxRequestSize sets the maximum request size from guest memory.
func WithMaxRequestSize(size uint32) AdapterOption {
	return func(c *AdapterConfig) {
		c.MaxRequestSize = size
	}
}

func defaultAdapterConfig() AdapterConfig {
	return AdapterConfig{
		ModuleName:     HostModuleName,
		MaxRequestSize: hostfuncs.DefaultMaxRequestSize,
	}
}

// RegisterWithRuntime registers all handlers from a HandlerRegistry with a
// wazero runtime as one host module.
//
// Each handler is wrapped to:
//   - Read request bytes from guest memory using the packed i64 ptr+len format
//   - Invoke the ByteHandler with the request payload
//   - Allocate response memory in the guest using the "allocate" export
//   - Return packed i64 ptr+len of the response, or 0 for an empty response
func RegisterWithRuntime(ctx context.Context, runtime wazero.Runtime, registry *hostfuncs.HandlerRegistry, opts ...AdapterOption) error {
	cfg := defaultAdapterConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	builder := runtime.NewHostModuleBuilder(cfg.ModuleName)
	for _, name := range registry.Names() {
		funcName := name
		builder.NewFunctionBuilder().
			WithGoModuleFunction(api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
				handleRegistryCall(ctx, mod, stack, registry, funcName, cfg.MaxRequestSize)
			}), []api.ValueType{api.ValueTypeI64}, []api.ValueType{api.ValueTypeI64}).
			Export(funcName)
	}

	if _, err := builder.Instantiate(ctx); err != nil {
		return fmt.Errorf("failed to instantiate host module %q: %w", cfg.ModuleName, err)
	}
	return nil
}

func handleRegistryCall(ctx context.Context, mod api.Module, stack []uint64, registry *hostfuncs.HandlerRegistry, name string, maxRequestSize uint32) {
	ptr, length := abi.UnpackPtrLen(stack[0])

	if length > maxRequestSize {
		errMsg := fmt.Sprintf("request size %d exceeds maximum %d bytes", length, maxRequestSize)
		slog.ErrorContext(ctx, "wazero: "+errMsg, "function", name)
		stack[0] = writeResponse(ctx, mod, hostfuncs.NewValidationError(errMsg).ToJSON())
		return
	}

	requestBytes, ok := mod.Memory().Read(ptr, length)
	if !ok {
		errMsg := "failed to read request from guest memory"
		slog.ErrorContext(ctx, "wazero: "+errMsg, "function", name)
		stack[0] = writeResponse(ctx, mod, hostfuncs.NewInternalError(errMsg).ToJSON())
		return
	}

	responseBytes, err := registry.Invoke(ctx, name, requestBytes)
	if err != nil {
		slog.ErrorContext(ctx, "wazero: handler invocation failed", "function", name, "error", err)
		stack[0] = writeResponse(ctx, mod, hostfuncs.NewInternalError(err.Error()).ToJSON())
		return
	}

	stack[0] = writeResponse(ctx, mod, responseBytes)
}

// writeResponse copies data into guest memory. Returns packed ptr+len, or 0
// when data is empty or cannot be written.
func writeResponse(ctx context.Context, mod api.Module, data []byte) uint64 {
	if len(data) == 0 {
		return 0
	}

	allocateFn := mod.ExportedFunction(allocateExport)
	if allocateFn == nil {
		slog.ErrorContext(ctx, "wazero: guest module missing 'allocate' export")
		return 0
	}

	results, err := allocateFn.Call(ctx, uint64(len(data)))
	if err != nil {
		slog.ErrorContext(ctx, "wazero: failed to call guest allocate", "error", err)
		return 0
	}
	ptr := uint32(results[0]) //nolint:gosec // G115: WASM32 pointers are always 32-bit
	size := uint32(len(data)) //nolint:gosec // G115: data length is bounded by MaxRequestSize
	arenaFrom(ctx).track(ptr, size)

	if !mod.Memory().Write(ptr, data) {
		slog.ErrorContext(ctx, "wazero: failed to write response to guest memory")
		return 0
	}
	return abi.PackPtrLen(ptr, size)
}
