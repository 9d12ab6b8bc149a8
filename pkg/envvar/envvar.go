// Package envvar resolves typed configuration values from environment
// variables.
//
// A configuration value is declared once, as a variable in a resolution
// graph. Leaves bind a single environment key to a parsed Go value:
//
//	timeout := envvar.New("APP_TIMEOUT", parser.Duration).Default(30 * time.Second)
//
// Schemas aggregate child variables and hand their resolved values to a
// factory, producing whole configuration structs from families of keys:
//
//	type Cache struct {
//		Host string
//		Port int           `default:"6379"`
//		TTL  time.Duration `env:"EXPIRY" default:"1h"`
//	}
//
//	cache := envvar.Struct[Cache]("CACHE_", nil)
//
// Resolution happens on demand through Get. Every call re-reads the live
// environment, so a variable set between two calls is observed by the second
// one; nothing is cached across resolutions. Absence, case-ambiguity and
// parse failures are reported as typed errors, and defaults substitute only
// for absence.
//
// Top-level variables register themselves in a Registry so that tooling can
// enumerate and document the full configuration surface of a process; the
// describe package renders such registries as help text.
package envvar

import (
	"sync"

	"github.com/pkg/errors"
)

// Node is the read-only surface every variable in a resolution graph
// implements. Consumers traverse trees of Nodes to enumerate or document
// variables; only this package can implement the interface.
type Node interface {
	// Key returns the environment key of a leaf, or the accumulated key
	// prefix of a schema.
	Key() string
	// Description returns the help text attached with Describe, or "".
	Description() string
	// IsCaseSensitive reports whether lookups honor the key casing as
	// written.
	IsCaseSensitive() bool
	// Children returns the direct children of a schema, positional children
	// first, keyword children in name order. Leaves return nil.
	Children() []Node
	// IsLeaf reports whether the node binds exactly one environment key.
	IsLeaf() bool

	// resolveChild resolves the node on behalf of an enclosing schema,
	// reporting presence and discarding out of band.
	resolveChild() (childResult, error)
	// prefixed returns a fresh copy of the node with the prefix prepended to
	// every key underneath it. The copy carries no override and belongs to
	// no registry.
	prefixed(prefix string) Node
	// homeReg and setHome track which registry currently lists the node as
	// a top-level variable.
	homeReg() *Registry
	setHome(r *Registry)
}

// childResult is the untyped form of a resolution handed from a child to its
// enclosing schema.
type childResult struct {
	value   any
	exists  bool
	discard bool
}

// result is the typed outcome of a full driver pass over one node.
type result[T any] struct {
	value   T
	exists  bool
	discard bool
}

type fallbackKind int

const (
	// fallbackNone marks absence as an error: there is nothing to fall
	// back to.
	fallbackNone fallbackKind = iota
	fallbackValue
	fallbackFactory
	fallbackDiscard
	// fallbackAsDefault defers to surrounding machinery: a schema's
	// on-partial policy deferring to the schema default, or an inferred
	// variable deferring to the default declared by the factory field.
	fallbackAsDefault
)

// fallback is a tagged default: a concrete value, a factory invoked fresh on
// every resolution, a discard marker, a defer marker, or nothing at all.
// Variants are told apart by kind, never by comparing payloads.
type fallback[T any] struct {
	kind    fallbackKind
	value   T
	factory func() T
}

// materialize produces the fallback payload, invoking the factory variant
// anew so that mutable defaults are never shared between resolutions.
func (f fallback[T]) materialize() T {
	if f.kind == fallbackFactory {
		return f.factory()
	}
	return f.value
}

type overrideKind int

const (
	overrideValue overrideKind = iota
	overrideMissing
	overrideDiscard
)

// override is a runtime stand-in for a variable's resolution, installed by
// the Patch methods for the duration of a test.
type override[T any] struct {
	kind  overrideKind
	value T
}

// core carries the state shared by leaves and schemas: identity, default,
// validators, the active override and registry membership.
type core[T any] struct {
	key         string
	description string
	def         fallback[T]
	validators  []func(T) (T, error)

	mu    sync.Mutex
	patch *override[T]

	reg *Registry
}

func (c *core[T]) Key() string         { return c.key }
func (c *core[T]) Description() string { return c.description }

func (c *core[T]) state() *core[T] { return c }

func (c *core[T]) homeReg() *Registry  { return c.reg }
func (c *core[T]) setHome(r *Registry) { c.reg = r }

func (c *core[T]) override() *override[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.patch
}

// shape is the node-kind-specific half of resolution: a leaf looks up and
// parses its key, a schema resolves its children and calls its factory.
// extras are merged into a schema's factory call and ignored by leaves.
type shape[T any] interface {
	Key() string
	state() *core[T]
	resolveRaw(extras map[string]any) (value T, discarded bool, err error)
}

// resolve drives one resolution of a node: override first, then the
// node-shape-specific read, then default substitution for absence, then
// validators.
//
// Validators refine successfully resolved values, including values produced
// by a schema's on-partial policy. A value substituted by the node's own
// default is returned as authored, and a discarded result carries no value
// to validate.
func resolve[T any](s shape[T], extras map[string]any) (result[T], error) {
	c := s.state()
	if o := c.override(); o != nil {
		switch o.kind {
		case overrideMissing:
			return result[T]{}, &MissingError{Key: s.Key()}
		case overrideDiscard:
			return result[T]{discard: true}, nil
		default:
			return result[T]{value: o.value, exists: true}, nil
		}
	}

	value, discarded, err := s.resolveRaw(extras)
	if err != nil {
		var skip *skipDefault
		if errors.As(err, &skip) {
			// A partial schema bubbles past its own default.
			return result[T]{}, skip.inner
		}
		var miss *MissingError
		if errors.As(err, &miss) && c.def.kind != fallbackNone {
			if c.def.kind == fallbackDiscard {
				return result[T]{discard: true}, nil
			}
			return result[T]{value: c.def.materialize(), exists: false}, nil
		}
		return result[T]{}, err
	}
	if discarded {
		return result[T]{exists: true, discard: true}, nil
	}

	for _, validate := range c.validators {
		value, err = validate(value)
		if err != nil {
			return result[T]{}, err
		}
	}
	return result[T]{value: value, exists: true}, nil
}

// get adapts a driver pass to the public Get contract.
func get[T any](s shape[T], extras map[string]any) (T, error) {
	res, err := resolve(s, extras)
	if err != nil {
		var zero T
		return zero, err
	}
	if res.discard {
		var zero T
		return zero, ErrDiscarded
	}
	return res.value, nil
}
