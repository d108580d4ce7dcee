package local

import (
	"sort"
	"sync"

	"github.com/goliatone/go-errors"
)

// ErrStrategyNotFound is returned when no strategy is registered under a name
var ErrStrategyNotFound = errors.New("authentication strategy not found", errors.CategoryNotFound).
	WithTextCode("STRATEGY_NOT_FOUND").
	WithCode(errors.CodeNotFound)

// Registry holds named strategies for a host middleware
type Registry struct {
	mu         sync.RWMutex
	strategies map[string]AuthenticationStrategy
}

func NewRegistry() *Registry {
	return &Registry{strategies: map[string]AuthenticationStrategy{}}
}

// Use registers strategy under its own name
func (r *Registry) Use(strategy AuthenticationStrategy) *Registry {
	return r.UseAs(strategy.Name(), strategy)
}

// UseAs registers strategy under name, replacing any previous entry
func (r *Registry) UseAs(name string, strategy AuthenticationStrategy) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies[name] = strategy
	return r
}

// Unuse removes the strategy registered under name
func (r *Registry) Unuse(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.strategies, name)
}

func (r *Registry) Get(name string) (AuthenticationStrategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.strategies[name]
	if !ok {
		return nil, ErrStrategyNotFound.Clone().
			WithMetadata(map[string]any{"name": name})
	}
	return s, nil
}

// Names returns the registered names in sorted order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
