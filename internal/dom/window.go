// internal/dom/window.go
package dom

import "sync"

// Window holds page globals defined by executed scripts.
type Window struct {
	mu      sync.RWMutex
	globals map[string]struct{}
}

func NewWindow() *Window {
	return &Window{globals: make(map[string]struct{})}
}

// Define marks name as a defined global.
func (w *Window) Define(name string) {
	w.mu.Lock()
	w.globals[name] = struct{}{}
	w.mu.Unlock()
}

// Defined reports whether name has been defined.
func (w *Window) Defined(name string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.globals[name]
	return ok
}
