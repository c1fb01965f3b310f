// Package gil provides the process-wide execution lock that serializes every
// call into a guest runtime. Only one goroutine in the process may run guest
// code at a time; sessions acquire the lock per call and never hold it while
// waiting for input.
package gil

import "sync"

var token sync.Mutex

// Do runs fn while holding the execution lock.
// The lock is released when fn returns or panics.
func Do(fn func() error) error {
	token.Lock()
	defer token.Unlock()
	return fn()
}
