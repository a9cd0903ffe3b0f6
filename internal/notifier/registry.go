package notifier

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Registry manages notifier instances
type Registry struct {
	mu        sync.RWMutex
	notifiers map[string]Notifier
}

// NewRegistry creates a new notifier registry
func NewRegistry() *Registry {
	return &Registry{
		notifiers: make(map[string]Notifier),
	}
}

// Register adds a notifier to the registry
func (r *Registry) Register(n Notifier) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := n.Name()
	if _, exists := r.notifiers[name]; exists {
		return fmt.Errorf("notifier %s already registered", name)
	}

	r.notifiers[name] = n
	return nil
}

// Get retrieves a notifier by name
func (r *Registry) Get(name string) (Notifier, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n, exists := r.notifiers[name]
	if !exists {
		return nil, fmt.Errorf("notifier %s not found", name)
	}
	return n, nil
}

// GetAll returns all registered notifiers ordered by name
func (r *Registry) GetAll() []Notifier {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Notifier, 0, len(r.notifiers))
	for _, n := range r.notifiers {
		result = append(result, n)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name() < result[j].Name()
	})
	return result
}

// Len returns the number of registered notifiers
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.notifiers)
}

// SendFunc delivers text through one notifier. The dispatch router passes
// one that retries.
type SendFunc func(ctx context.Context, n Notifier, text string) error

// NotifyAll sends text to all registered notifiers in name order and returns
// the failures keyed by notifier name. A nil send calls Notifier.Send.
func (r *Registry) NotifyAll(ctx context.Context, text string, send SendFunc) map[string]error {
	if send == nil {
		send = func(ctx context.Context, n Notifier, text string) error {
			return n.Send(ctx, text)
		}
	}

	errors := make(map[string]error)
	for _, n := range r.GetAll() {
		if err := send(ctx, n, text); err != nil {
			errors[n.Name()] = err
		}
	}
	return errors
}
