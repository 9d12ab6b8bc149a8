package envvar

import (
	"slices"
	"sync"
)

// Registry tracks the top-level variables of one configuration surface.
// Constructors list new variables in DefaultRegistry; schemas delist the
// children they consume, so a registry holds only roots. Independent
// surfaces, such as a test fixture or an embedded component with its own
// configuration, keep their own Registry via the In chainer.
type Registry struct {
	mu      sync.Mutex
	order   []Node
	present map[Node]struct{}
	barred  map[Node]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		present: make(map[Node]struct{}),
		barred:  make(map[Node]struct{}),
	}
}

// DefaultRegistry lists every variable not explicitly moved elsewhere with
// In. Describing it documents the full configuration surface of the
// process.
var DefaultRegistry = NewRegistry()

// Add lists the node as a top-level variable, moving it out of its current
// registry if it has one. Adding an excluded node is a no-op.
func (r *Registry) Add(n Node) {
	if h := n.homeReg(); h != nil && h != r {
		h.Remove(n)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, out := r.barred[n]; out {
		return
	}
	if _, ok := r.present[n]; ok {
		return
	}
	r.present[n] = struct{}{}
	r.order = append(r.order, n)
	n.setHome(r)
}

// Remove delists the node. A later Add may list it again.
func (r *Registry) Remove(n Node) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.remove(n)
}

// Exclude delists the node and bars it from the registry for good: later
// Adds are ignored. Use it for helper variables that should never show up
// in descriptions of this registry.
func (r *Registry) Exclude(n Node) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.barred[n] = struct{}{}
	r.remove(n)
}

func (r *Registry) remove(n Node) {
	if _, ok := r.present[n]; !ok {
		return
	}
	delete(r.present, n)
	r.order = slices.DeleteFunc(r.order, func(m Node) bool { return m == n })
	n.setHome(nil)
}

// Roots returns the currently listed top-level variables in registration
// order. The returned slice is a copy.
func (r *Registry) Roots() []Node {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.order)
}
