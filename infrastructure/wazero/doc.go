// Package wazero hosts WebAssembly operators on the wazero runtime and adapts
// hostfuncs handlers to guest memory.
//
// A WASM operator is a module that exports:
//
//	memory
//	allocate(size i32) -> ptr i32
//	on_event(ptr i32, len i32) -> status i32
//	deallocate(ptr i32, size i32)       (optional)
//	init_operator() -> i32              (optional, non-zero fails construction)
//	drop_operator()                     (optional)
//
// on_event receives a wireformat.IncomingEventWire JSON document and returns
// 0 (continue), 1 (stop) or 2 (stop all). The module may import from the
// "dora" host module:
//
//	send_output(packed i64) -> packed i64
//	log_message(packed i64) -> packed i64
//
// Packed values carry a pointer in the upper and a length in the lower 32
// bits. Requests are JSON (wireformat.SendOutputWire, wireformat.LogMessageWire).
// A zero result means success; otherwise it points at a hostfuncs.ErrorResponse
// allocated through the guest's allocate export.
//
// WASI preview1 is available. A guest calling proc_exit aborts the session.
package wazero
