package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Manager owns one Sandbox per scope (typically one per ability catalogue)
// and exposes hook dispatch.
//
// Manager is safe for concurrent use; calls into the same scope are
// serialized because an LState is single-threaded.
type Manager struct {
	mu        sync.Mutex
	sandboxes map[string]*Sandbox
	instLimit int
	logger    *zap.Logger
}

// NewManager creates a Manager.
//
// Precondition: instLimit >= 0; 0 uses DefaultInstructionLimit.
// Postcondition: Returns a non-nil Manager with no scopes loaded.
func NewManager(instLimit int, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		sandboxes: make(map[string]*Sandbox),
		instLimit: instLimit,
		logger:    logger,
	}
}

// LoadScope creates a sandbox for scope and executes every *.lua file in
// scriptDir in lexicographic order. An existing sandbox for scope is replaced.
//
// Precondition: scope must be non-empty; scriptDir must be a readable directory.
// Postcondition: scope is registered; returns error on any Lua load failure.
func (m *Manager) LoadScope(scope, scriptDir string) error {
	if scope == "" {
		return fmt.Errorf("scripting: scope must not be empty")
	}
	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		return fmt.Errorf("scripting: reading script dir %q for %q: %w", scriptDir, scope, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	sb := NewSandbox(m.instLimit)
	for _, path := range luaFiles {
		if err := sb.DoFile(path); err != nil {
			sb.Close()
			return fmt.Errorf("scripting: loading %q for %q: %w", path, scope, err)
		}
	}
	m.install(scope, sb)
	m.logger.Info("scripting: scope loaded",
		zap.String("scope", scope),
		zap.Int("files", len(luaFiles)),
	)
	return nil
}

// LoadScopeString is LoadScope for an in-memory chunk.
//
// Precondition: scope must be non-empty.
func (m *Manager) LoadScopeString(scope, src string) error {
	if scope == "" {
		return fmt.Errorf("scripting: scope must not be empty")
	}
	sb := NewSandbox(m.instLimit)
	if err := sb.DoString(src); err != nil {
		sb.Close()
		return fmt.Errorf("scripting: loading chunk for %q: %w", scope, err)
	}
	m.install(scope, sb)
	return nil
}

func (m *Manager) install(scope string, sb *Sandbox) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.sandboxes[scope]; ok {
		old.Close()
	}
	m.sandboxes[scope] = sb
}

// HasHook reports whether scope defines a global function named hook.
func (m *Manager) HasHook(scope, hook string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	sb, ok := m.sandboxes[scope]
	if !ok {
		return false
	}
	_, isFn := sb.L.GetGlobal(hook).(*lua.LFunction)
	return isFn
}

// CallHook calls the named Lua global function in scope's sandbox. Returns
// (LNil, nil) if the scope or hook is not defined. Lua runtime errors,
// including an exhausted instruction budget, are logged at Warn level and
// never propagated.
//
// Precondition: args must be valid lua.LValue instances.
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(scope, hook string, args ...lua.LValue) (lua.LValue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sb, ok := m.sandboxes[scope]
	if !ok {
		m.logger.Info("scripting: no sandbox for scope",
			zap.String("scope", scope),
			zap.String("hook", hook),
		)
		return lua.LNil, nil
	}

	fn := sb.L.GetGlobal(hook)
	if fn == lua.LNil {
		return lua.LNil, nil
	}

	var ret lua.LValue = lua.LNil
	err := sb.Run(func(L *lua.LState) error {
		if err := L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, args...); err != nil {
			return err
		}
		ret = L.Get(-1)
		L.Pop(1)
		return nil
	})
	if err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("scope", scope),
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, nil
	}
	return ret, nil
}

// Close releases every sandbox.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for scope, sb := range m.sandboxes {
		sb.Close()
		delete(m.sandboxes, scope)
	}
}
