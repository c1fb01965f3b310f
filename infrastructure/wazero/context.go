package wazero

import "context"

// contextKey is a private type for context keys.
type contextKey struct {
	name string
}

var arenaKey = &contextKey{name: "arena"}

type allocation struct {
	ptr  uint32
	size uint32
}

// arena records the guest allocations made by the host during one dispatch.
type arena struct {
	allocs []allocation
}

func (a *arena) track(ptr, size uint32) {
	if a == nil {
		return
	}
	a.allocs = append(a.allocs, allocation{ptr: ptr, size: size})
}

func withArena(ctx context.Context, a *arena) context.Context {
	return context.WithValue(ctx, arenaKey, a)
}

// arenaFrom returns the dispatch arena, or nil outside of a dispatch.
func arenaFrom(ctx context.Context) *arena {
	a, _ := ctx.Value(arenaKey).(*arena)
	return a
}
