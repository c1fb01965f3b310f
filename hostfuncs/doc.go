// Package hostfuncs implements the host functions a WASM operator imports
// from the host module. Handlers take and return JSON payloads and have no
// dependency on a specific WASM runtime; infrastructure/wazero adapts them to
// guest memory.
//
// The operator host module exports:
//
//	send_output(request) -> 0 | ErrorResponse
//	log_message(request) -> 0
//
// Per-dispatch state such as the output sink travels in the context.
package hostfuncs
