package step

import (
	"fmt"
	"sync"

	"github.com/docforge/docforge/derrors"
)

// Factory constructs a Step from its decoded wire payload.
type Factory func(payload []byte) (Step, error)

// Registry maps step names to factories so a recordlog reader can
// deserialize steps it doesn't have a compile-time type for — custom
// step types a caller registers at startup, exactly like a plugin.
//
// Grounded on core/decorators/registry.go's Register/checkCollision/Get
// shape: a global, mutex-guarded, collision-checked name table.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns a Registry preloaded with the six built-in step
// factories.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	r.mustRegister("add_node", func(p []byte) (Step, error) { return decodeStep[AddNodeStep](p) })
	r.mustRegister("remove_node", func(p []byte) (Step, error) { return decodeStep[RemoveNodeStep](p) })
	r.mustRegister("move_node", func(p []byte) (Step, error) { return decodeStep[MoveNodeStep](p) })
	r.mustRegister("set_attrs", func(p []byte) (Step, error) { return decodeStep[SetAttrsStep](p) })
	r.mustRegister("add_mark", func(p []byte) (Step, error) { return decodeStep[AddMarkStep](p) })
	r.mustRegister("remove_mark", func(p []byte) (Step, error) { return decodeStep[RemoveMarkStep](p) })
	return r
}

func (r *Registry) mustRegister(name string, f Factory) {
	if err := r.Register(name, f); err != nil {
		panic(fmt.Sprintf("step: built-in registration failed for %q: %v", name, err))
	}
}

// Register adds a factory under name. It returns an error if name is
// already registered, matching the teacher's checkCollision behavior
// rather than silently overwriting.
func (r *Registry) Register(name string, f Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("step: factory %q already registered", name)
	}
	r.factories[name] = f
	return nil
}

// Create looks up name's factory and invokes it with payload.
func (r *Registry) Create(name string, payload []byte) (Step, error) {
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, derrors.E("step.create", derrors.UnknownStep, fmt.Errorf("no factory registered for step %q", name))
	}
	return f(payload)
}
