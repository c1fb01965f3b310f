package gil

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDo_Serializes(t *testing.T) {
	var active, peak atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = Do(func() error {
					n := active.Add(1)
					for {
						p := peak.Load()
						if n <= p || peak.CompareAndSwap(p, n) {
							break
						}
					}
					active.Add(-1)
					return nil
				})
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), peak.Load())
}

func TestDo_ReturnsError(t *testing.T) {
	want := errors.New("guest failed")
	assert.ErrorIs(t, Do(func() error { return want }), want)
}

func TestDo_ReleasesOnPanic(t *testing.T) {
	assert.Panics(t, func() {
		_ = Do(func() error { panic("guest abort") })
	})

	// The lock must be free again.
	assert.NoError(t, Do(func() error { return nil }))
}
