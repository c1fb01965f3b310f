// Package operator runs one hosted operator session: it resolves the handler
// source, loads the handler through a guest runtime, drives the event loop
// and reports exactly one terminal event when the session ends.
//
// A session owns its handler for its whole lifetime. Every guest call
// (load, dispatch, drop) runs under the process-wide execution lock, so at
// most one session executes guest code at any instant.
package operator
