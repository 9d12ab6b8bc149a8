package envvar

import (
	"slices"
	"sort"

	"github.com/pkg/errors"

	"github.com/animalet/entorn-go/internal/clone"
)

// Args names the keyword children of a schema. Values must be variables
// (leaves or nested schemas) or Auto placeholders bound during construction;
// anything else panics.
type Args map[string]any

type namedChild struct {
	name string
	node Node
}

// SchemaVar aggregates child variables and assembles their resolved values
// into a T through a factory. Children are resolved positionally first, in
// declared order, then by keyword in name order; each child applies its own
// defaults and validators before the schema sees its value.
//
// A schema distinguishes three outcomes when children are missing. If no
// child was present in the environment at all, the schema itself counts as
// missing and its own default applies. If some children were present and
// others missing, the configuration is partial: almost always a typo or a
// half-finished override, so the schema fails with the first missing key
// rather than silently falling back to a default meant for the wholly absent
// case. The OnPartial family opts into a different policy where partial
// configuration is intentional.
type SchemaVar[T any] struct {
	core[T]

	positional []Node
	keywords   []namedChild
	invoke     func(pos []any, kw map[string]any) (T, error)
	onPartial  fallback[T]
}

// Default sets the value substituted when the schema is wholly absent from
// the environment.
func (s *SchemaVar[T]) Default(value T) *SchemaVar[T] {
	s.def = fallback[T]{kind: fallbackValue, value: value}
	return s
}

// DefaultFactory sets a producer invoked anew every time the wholly absent
// schema resolves, so mutable defaults are never shared between calls.
func (s *SchemaVar[T]) DefaultFactory(produce func() T) *SchemaVar[T] {
	if produce == nil {
		panic(errors.Errorf("schema %q given a nil default factory", s.key))
	}
	s.def = fallback[T]{kind: fallbackFactory, factory: produce}
	return s
}

// DefaultDiscard makes a wholly absent schema resolve to a discarded value.
func (s *SchemaVar[T]) DefaultDiscard() *SchemaVar[T] {
	s.def = fallback[T]{kind: fallbackDiscard}
	return s
}

// Describe attaches help text. Embedded newlines separate paragraphs.
func (s *SchemaVar[T]) Describe(text string) *SchemaVar[T] {
	s.description = text
	return s
}

// Validate appends a refinement step applied to every successfully assembled
// value, in chaining order, including values produced by an OnPartial
// policy and extra values merged by GetWith.
func (s *SchemaVar[T]) Validate(validate func(T) (T, error)) *SchemaVar[T] {
	if validate == nil {
		panic(errors.Errorf("schema %q given a nil validator", s.key))
	}
	s.validators = append(s.validators, validate)
	return s
}

// OnPartial resolves a partially configured schema to the given value
// instead of failing.
func (s *SchemaVar[T]) OnPartial(value T) *SchemaVar[T] {
	s.onPartial = fallback[T]{kind: fallbackValue, value: value}
	return s
}

// OnPartialFactory resolves a partially configured schema through a
// producer invoked anew on every such resolution.
func (s *SchemaVar[T]) OnPartialFactory(produce func() T) *SchemaVar[T] {
	if produce == nil {
		panic(errors.Errorf("schema %q given a nil on-partial factory", s.key))
	}
	s.onPartial = fallback[T]{kind: fallbackFactory, factory: produce}
	return s
}

// OnPartialDiscard makes a partially configured schema resolve to a
// discarded value.
func (s *SchemaVar[T]) OnPartialDiscard() *SchemaVar[T] {
	s.onPartial = fallback[T]{kind: fallbackDiscard}
	return s
}

// OnPartialAsDefault makes a partially configured schema fall back to its
// own default, the same as when it is wholly absent. The schema must already
// have one: chain this after Default, DefaultFactory or DefaultDiscard, or
// the call panics since there would be nothing to fall back to.
func (s *SchemaVar[T]) OnPartialAsDefault() *SchemaVar[T] {
	if s.def.kind == fallbackNone {
		panic(errors.Errorf("schema %q cannot treat partial input as default without a default", s.key))
	}
	s.onPartial = fallback[T]{kind: fallbackAsDefault}
	return s
}

// In moves the schema to the given registry, removing it from its current
// one.
func (s *SchemaVar[T]) In(r *Registry) *SchemaVar[T] {
	r.Add(s)
	return s
}

// Get resolves the schema against the live environment.
func (s *SchemaVar[T]) Get() (T, error) {
	return get[T](s, nil)
}

// GetWith resolves the schema and merges extra keyword values into the
// factory call. An extra sharing a name with a keyword child overrides the
// child's resolved value; extras never affect whether the schema counts as
// present or partial. The extras are deep-copied first, so factories and
// validators that mutate the assembled value cannot corrupt caller-owned
// data.
func (s *SchemaVar[T]) GetWith(extras map[string]any) (T, error) {
	if len(extras) > 0 {
		copied, err := clone.Value(extras)
		if err != nil {
			var zero T
			return zero, errors.Wrap(err, "failed to isolate extra factory values")
		}
		extras = copied
	}
	return get[T](s, extras)
}

// MustGet resolves the schema and panics on any error. Meant for program
// startup, where a misconfigured environment should stop the process.
func (s *SchemaVar[T]) MustGet() T {
	value, err := s.Get()
	if err != nil {
		panic(err)
	}
	return value
}

// WithPrefix returns a fresh schema with the prefix prepended to every key
// underneath it. The original is not modified; the copy joins the original's
// registry, carries no overrides, and resolves independently from then on.
func (s *SchemaVar[T]) WithPrefix(prefix string) *SchemaVar[T] {
	out := s.withPrefix(prefix)
	if r := s.homeReg(); r != nil {
		r.Add(out)
	}
	return out
}

func (s *SchemaVar[T]) withPrefix(prefix string) *SchemaVar[T] {
	pos := make([]Node, len(s.positional))
	for i, child := range s.positional {
		pos[i] = child.prefixed(prefix)
	}
	kws := make([]namedChild, len(s.keywords))
	for i, kc := range s.keywords {
		kws[i] = namedChild{name: kc.name, node: kc.node.prefixed(prefix)}
	}
	return &SchemaVar[T]{
		core: core[T]{
			key:         prefix + s.key,
			description: s.description,
			def:         s.def,
			validators:  slices.Clone(s.validators),
		},
		positional: pos,
		keywords:   kws,
		invoke:     s.invoke,
		onPartial:  s.onPartial,
	}
}

// IsCaseSensitive implements Node; key casing of a schema is carried by its
// leaves.
func (s *SchemaVar[T]) IsCaseSensitive() bool { return false }

// IsLeaf implements Node.
func (s *SchemaVar[T]) IsLeaf() bool { return false }

// Children implements Node: positional children first, then keyword
// children in name order.
func (s *SchemaVar[T]) Children() []Node {
	out := make([]Node, 0, len(s.positional)+len(s.keywords))
	out = append(out, s.positional...)
	for _, kc := range s.keywords {
		out = append(out, kc.node)
	}
	return out
}

func (s *SchemaVar[T]) resolveChild() (childResult, error) {
	res, err := resolve[T](s, nil)
	if err != nil {
		return childResult{}, err
	}
	return childResult{value: res.value, exists: res.exists, discard: res.discard}, nil
}

func (s *SchemaVar[T]) prefixed(prefix string) Node { return s.withPrefix(prefix) }

func (s *SchemaVar[T]) resolveRaw(extras map[string]any) (T, bool, error) {
	var zero T
	var (
		pos      []any
		missing  []*MissingError
		anyExist bool
	)
	kw := make(map[string]any, len(s.keywords)+len(extras))

	for _, child := range s.positional {
		res, err := child.resolveChild()
		if err != nil {
			var miss *MissingError
			if errors.As(err, &miss) {
				missing = append(missing, miss)
				continue
			}
			return zero, false, err
		}
		if res.exists {
			anyExist = true
		}
		if res.discard {
			// A discarded positional slot truncates the call: slots after
			// it cannot shift into its place.
			break
		}
		pos = append(pos, res.value)
	}
	for _, kc := range s.keywords {
		res, err := kc.node.resolveChild()
		if err != nil {
			var miss *MissingError
			if errors.As(err, &miss) {
				missing = append(missing, miss)
				continue
			}
			return zero, false, err
		}
		if res.exists {
			anyExist = true
		}
		if res.discard {
			continue
		}
		kw[kc.name] = res.value
	}

	if len(missing) > 0 {
		if s.onPartial.kind != fallbackAsDefault && anyExist {
			switch s.onPartial.kind {
			case fallbackNone:
				return zero, false, &skipDefault{inner: missing[0]}
			case fallbackDiscard:
				return zero, true, nil
			default:
				return s.onPartial.materialize(), false, nil
			}
		}
		return zero, false, missing[0]
	}

	for k, v := range extras {
		kw[k] = v
	}
	value, err := s.invoke(pos, kw)
	return value, false, err
}

// newSchema performs the construction steps shared by Struct, Call and Map:
// validating and binding children, prefixing them, pruning consumed
// top-level registrations and registering the schema itself.
func newSchema[T any](prefix string, spec *factorySpec, invoke func([]any, map[string]any) (T, error), posIn []any, kwIn Args) *SchemaVar[T] {
	seen := make(map[any]struct{}, len(posIn)+len(kwIn))
	note := func(child any) {
		if child == nil {
			panic(errors.Errorf("schema %q given a nil child", prefix))
		}
		switch child.(type) {
		case Node, *InferVar:
		default:
			// Not a child at all; bindChild reports the offending type.
			return
		}
		if _, dup := seen[child]; dup {
			panic(errors.Errorf("schema %q uses the same child variable twice; build a fresh variable for each slot", prefix))
		}
		seen[child] = struct{}{}
	}

	pos := make([]Node, 0, len(posIn))
	for i, raw := range posIn {
		note(raw)
		param, ok := spec.forPositional(i)
		if !ok {
			panic(errors.Errorf("schema %q factory takes %d positional values, got %d", prefix, len(spec.positional), len(posIn)))
		}
		pos = append(pos, bindChild(prefix, raw, param))
	}

	names := make([]string, 0, len(kwIn))
	for name := range kwIn {
		names = append(names, name)
	}
	sort.Strings(names)
	kws := make([]namedChild, 0, len(names))
	taken := make(map[string]struct{}, len(names))
	for _, name := range names {
		raw := kwIn[name]
		note(raw)
		param, ok := spec.forKeyword(name)
		if !ok {
			panic(errors.Errorf("schema %q factory declares no parameter %q", prefix, name))
		}
		// Children are stored under the name the factory decodes by, so an
		// env-tagged field reached through its field name still assembles.
		canonical := keywordName(param, name)
		if _, dup := taken[canonical]; dup {
			panic(errors.Errorf("schema %q names the factory parameter %q twice", prefix, canonical))
		}
		taken[canonical] = struct{}{}
		kws = append(kws, namedChild{name: canonical, node: bindChild(prefix, raw, param)})
	}

	s := &SchemaVar[T]{
		core:       core[T]{key: prefix},
		positional: pos,
		keywords:   kws,
		invoke:     invoke,
	}
	DefaultRegistry.Add(s)
	return s
}

// bindChild turns one construction input into a resolved, prefixed child:
// Auto placeholders are bound against the factory parameter, finished
// variables are consumed as-is. Consumed variables stop being top-level:
// they are removed from their registry, since only their enclosing schema
// remains a root.
func bindChild(prefix string, raw any, param paramSpec) Node {
	switch child := raw.(type) {
	case *InferVar:
		bound, err := child.bind(param)
		if err != nil {
			panic(errors.Wrapf(err, "schema %q", prefix))
		}
		return bound.prefixed(prefix)
	case Node:
		if r := child.homeReg(); r != nil {
			r.Remove(child)
		}
		return child.prefixed(prefix)
	default:
		panic(errors.Errorf("schema %q child must be a variable or envvar.Auto(), got %T", prefix, raw))
	}
}

// keywordName picks the name a child is assembled under: the parameter's
// tag when it has one, its declared name otherwise, or the caller's
// spelling when the factory takes arbitrary keywords.
func keywordName(param paramSpec, given string) string {
	if param.keyTag != "" {
		return param.keyTag
	}
	if param.name != "" {
		return param.name
	}
	return given
}
