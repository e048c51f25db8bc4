// Package action is a registry for host UI actions. Disassembler hosts
// expose commands through named actions with a label and a hotkey; this
// package keeps the registration bookkeeping host-neutral so the same
// plugin body can run under a host binding or the standalone CLI.
package action

import (
	"errors"
	"fmt"
	"runtime/debug"
	"sort"
	"sync"
)

var (
	ErrNotRegistered = errors.New("action: not registered")
	ErrInvalid       = errors.New("action: invalid descriptor")
)

// Desc describes a registered action.
type Desc struct {
	Name    string // stable identifier, e.g. "auto_enum:set_enums"
	Label   string // menu text
	Hotkey  string // e.g. "Ctrl+Shift+M"
	Tooltip string
	Run     func() error
}

// PanicError is a panic trapped during Activate, with the goroutine
// stack captured at the point of recovery.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("action: panic: %v", e.Value)
}

// Registry tracks registered actions by name.
type Registry struct {
	mu      sync.Mutex
	actions map[string]Desc
}

func NewRegistry() *Registry {
	return &Registry{actions: make(map[string]Desc)}
}

// Register adds an action. Registering a name again replaces the
// previous descriptor, so re-running plugin init is harmless.
func (r *Registry) Register(d Desc) error {
	if d.Name == "" || d.Run == nil {
		return ErrInvalid
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions[d.Name] = d
	return nil
}

// Unregister removes an action. Unknown names are a no-op.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.actions, name)
}

// Lookup returns the descriptor for name.
func (r *Registry) Lookup(name string) (Desc, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.actions[name]
	return d, ok
}

// Names returns the registered action names in sorted order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.actions))
	for n := range r.actions {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Activate runs the named action. A panic in the action body is trapped
// and returned as a *PanicError instead of taking down the host.
func (r *Registry) Activate(name string) (err error) {
	d, ok := r.Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotRegistered, name)
	}
	defer func() {
		if v := recover(); v != nil {
			err = &PanicError{Value: v, Stack: debug.Stack()}
		}
	}()
	return d.Run()
}
