package task

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownTask is returned for a task name with no registered handler.
// Callers treat it as a per-message problem, never a fatal one.
var ErrUnknownTask = errors.New("unknown task")

// Registry maps task names to handlers.
type Registry struct {
	handlers map[string]Handler
	mutex    sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
	}
}

// Register adds a new handler under its name.
func (r *Registry) Register(h Handler) error {
	if h == nil || h.Name() == "" {
		return errors.New("handler must have a name")
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.handlers[h.Name()]; exists {
		return fmt.Errorf("handler '%s' already registered", h.Name())
	}
	r.handlers[h.Name()] = h
	return nil
}

func (r *Registry) Exists(name string) bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	_, exists := r.handlers[name]
	return exists
}

func (r *Registry) Lookup(name string) (Handler, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	h, exists := r.handlers[name]
	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTask, name)
	}
	return h, nil
}

// List returns registered task names in sorted order.
func (r *Registry) List() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
