// Package scripting provides a sandboxed GopherLua execution environment for
// ability eligibility predicates. It has no dependency on the agent core;
// callers pass plain numbers in and read a single value back.
package scripting

import (
	"context"
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"
)

// DefaultInstructionLimit is the maximum number of Lua opcodes allowed per
// call when no override is configured.
const DefaultInstructionLimit = 100_000

// countingContext is a context.Context that cancels itself after Done() has
// been called limit times. GopherLua's mainLoopWithContext calls Done() once
// per opcode, making this an exact instruction-count limit.
type countingContext struct {
	context.Context
	cancel    context.CancelFunc
	remaining *atomic.Int64
}

// Done returns the underlying cancellation channel, decrementing the budget.
func (c *countingContext) Done() <-chan struct{} {
	if c.remaining.Add(-1) <= 0 {
		c.cancel()
	}
	return c.Context.Done()
}

// newCountingContext returns a context that cancels after limit calls to Done().
// Precondition: limit > 0.
func newCountingContext(limit int) (context.Context, context.CancelFunc) {
	base, cancel := context.WithCancel(context.Background())
	rem := &atomic.Int64{}
	rem.Store(int64(limit))
	return &countingContext{
		Context:   base,
		cancel:    cancel,
		remaining: rem,
	}, cancel
}

// Sandbox is a restricted LState whose every entry point runs under a fresh
// instruction budget.
//
// Invariant: L has only base, table, string and math loaded and no file or
// code-loading globals.
type Sandbox struct {
	L     *lua.LState
	limit int
}

// NewSandbox creates a sandboxed LState with:
//   - Only safe stdlib loaded: base, table, string, math
//   - Dangerous globals removed: dofile, loadfile, load, collectgarbage, require
//   - Each Run limited to at most instLimit Lua opcodes
//
// Precondition: instLimit >= 0; 0 uses DefaultInstructionLimit.
// Postcondition: the caller owns the Sandbox and must call Close.
func NewSandbox(instLimit int) *Sandbox {
	limit := instLimit
	if limit <= 0 {
		limit = DefaultInstructionLimit
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	for _, name := range []string{"dofile", "loadfile", "load", "collectgarbage", "require"} {
		L.SetGlobal(name, lua.LNil)
	}
	return &Sandbox{L: L, limit: limit}
}

// Run executes fn with a fresh instruction budget installed on the LState.
//
// Postcondition: the budget context is removed before Run returns.
func (s *Sandbox) Run(fn func(L *lua.LState) error) error {
	ctx, cancel := newCountingContext(s.limit)
	defer cancel()
	s.L.SetContext(ctx)
	defer s.L.RemoveContext()
	return fn(s.L)
}

// DoString runs src under the instruction budget.
func (s *Sandbox) DoString(src string) error {
	return s.Run(func(L *lua.LState) error { return L.DoString(src) })
}

// DoFile runs the Lua file at path under the instruction budget.
func (s *Sandbox) DoFile(path string) error {
	return s.Run(func(L *lua.LState) error { return L.DoFile(path) })
}

// Close releases the underlying LState.
func (s *Sandbox) Close() { s.L.Close() }
