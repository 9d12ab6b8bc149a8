package envvar

import (
	"slices"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/animalet/entorn-go/internal/envparse"
	"github.com/animalet/entorn-go/pkg/parser"
)

// Var is a leaf of the resolution graph: exactly one environment key, read
// and parsed into a T on every Get.
type Var[T any] struct {
	core[T]

	parse         parser.Parser[T]
	caseSensitive bool
	keepSpace     bool
	absolute      bool
}

// New declares a leaf variable and registers it as a top-level variable in
// the default registry.
//
// Parameters:
//   - key: the environment variable name. Lookup is case-insensitive unless
//     CaseSensitive is chained.
//   - parse: converts the raw string into a T. See the parser package for
//     the built-in set.
//
// Returns the variable, ready for further chained configuration.
func New[T any](key string, parse parser.Parser[T]) *Var[T] {
	if parse == nil {
		panic(errors.Errorf("environment variable %q declared without a parser", key))
	}
	v := &Var[T]{
		core:  core[T]{key: key},
		parse: parse,
	}
	DefaultRegistry.Add(v)
	return v
}

// String declares a leaf holding the raw string value.
func String(key string) *Var[string] { return New(key, parser.String) }

// Bool declares a boolean leaf accepting strconv.ParseBool spellings.
func Bool(key string) *Var[bool] { return New(key, parser.Bool) }

// Int declares a base-10 integer leaf.
func Int(key string) *Var[int] { return New(key, parser.Int) }

// Int64 declares a base-10 64-bit integer leaf.
func Int64(key string) *Var[int64] { return New(key, parser.Int64) }

// Uint64 declares a base-10 unsigned 64-bit integer leaf.
func Uint64(key string) *Var[uint64] { return New(key, parser.Uint64) }

// Float64 declares a floating point leaf.
func Float64(key string) *Var[float64] { return New(key, parser.Float64) }

// Duration declares a time.Duration leaf in Go's "1h30m" notation.
func Duration(key string) *Var[time.Duration] { return New(key, parser.Duration) }

// Bytes declares a leaf holding the raw value as bytes.
func Bytes(key string) *Var[[]byte] { return New(key, parser.Bytes) }

// Default sets the value substituted when the key is absent.
func (v *Var[T]) Default(value T) *Var[T] {
	v.def = fallback[T]{kind: fallbackValue, value: value}
	return v
}

// DefaultFactory sets a producer invoked anew on every absent resolution, so
// mutable defaults are never shared between calls.
func (v *Var[T]) DefaultFactory(produce func() T) *Var[T] {
	if produce == nil {
		panic(errors.Errorf("environment variable %q given a nil default factory", v.key))
	}
	v.def = fallback[T]{kind: fallbackFactory, factory: produce}
	return v
}

// DefaultDiscard makes an absent key resolve to a discarded value: inside a
// schema the slot is omitted from the factory call, and a direct Get reports
// ErrDiscarded.
func (v *Var[T]) DefaultDiscard() *Var[T] {
	v.def = fallback[T]{kind: fallbackDiscard}
	return v
}

// Describe attaches help text. Embedded newlines separate paragraphs.
func (v *Var[T]) Describe(text string) *Var[T] {
	v.description = text
	return v
}

// Validate appends a refinement step applied to successfully resolved
// values, in chaining order. Validators never see substituted defaults.
func (v *Var[T]) Validate(validate func(T) (T, error)) *Var[T] {
	if validate == nil {
		panic(errors.Errorf("environment variable %q given a nil validator", v.key))
	}
	v.validators = append(v.validators, validate)
	return v
}

// CaseSensitive makes lookups honor the key casing exactly as written.
func (v *Var[T]) CaseSensitive() *Var[T] {
	v.caseSensitive = true
	return v
}

// KeepWhitespace preserves leading and trailing whitespace in the raw value,
// which is stripped before parsing by default.
func (v *Var[T]) KeepWhitespace() *Var[T] {
	v.keepSpace = true
	return v
}

// Absolute marks the key as fully qualified: prefixes applied by enclosing
// schemas or WithPrefix leave it untouched.
func (v *Var[T]) Absolute() *Var[T] {
	v.absolute = true
	return v
}

// In moves the variable to the given registry, removing it from its current
// one.
func (v *Var[T]) In(r *Registry) *Var[T] {
	r.Add(v)
	return v
}

// Get resolves the variable against the live environment.
func (v *Var[T]) Get() (T, error) {
	return get[T](v, nil)
}

// MustGet resolves the variable and panics on any error. Meant for program
// startup, where a misconfigured environment should stop the process.
func (v *Var[T]) MustGet() T {
	value, err := v.Get()
	if err != nil {
		panic(err)
	}
	return value
}

// WithPrefix returns a fresh variable with the prefix prepended to the key.
// The original is not modified; the copy joins the original's registry, has
// no override installed, and resolves independently from then on.
func (v *Var[T]) WithPrefix(prefix string) *Var[T] {
	out := v.withPrefix(prefix)
	if r := v.homeReg(); r != nil {
		r.Add(out)
	}
	return out
}

func (v *Var[T]) withPrefix(prefix string) *Var[T] {
	key := v.key
	if !v.absolute {
		key = prefix + key
	}
	return &Var[T]{
		core: core[T]{
			key:         key,
			description: v.description,
			def:         v.def,
			validators:  slices.Clone(v.validators),
		},
		parse:         v.parse,
		caseSensitive: v.caseSensitive,
		keepSpace:     v.keepSpace,
		absolute:      v.absolute,
	}
}

// IsCaseSensitive reports whether lookups honor the key casing as written.
func (v *Var[T]) IsCaseSensitive() bool { return v.caseSensitive }

// Children implements Node; a leaf has none.
func (v *Var[T]) Children() []Node { return nil }

// IsLeaf implements Node.
func (v *Var[T]) IsLeaf() bool { return true }

func (v *Var[T]) resolveChild() (childResult, error) {
	res, err := resolve[T](v, nil)
	if err != nil {
		return childResult{}, err
	}
	return childResult{value: res.value, exists: res.exists, discard: res.discard}, nil
}

func (v *Var[T]) prefixed(prefix string) Node { return v.withPrefix(prefix) }

func (v *Var[T]) resolveRaw(map[string]any) (T, bool, error) {
	var zero T
	raw, err := envparse.Lookup(v.caseSensitive, v.key)
	if err != nil {
		var amb *envparse.AmbiguityError
		switch {
		case errors.Is(err, envparse.ErrNotFound):
			return zero, false, &MissingError{Key: v.key}
		case errors.As(err, &amb):
			return zero, false, &AmbiguityError{Key: v.key, Candidates: amb.Candidates, cause: err}
		default:
			return zero, false, err
		}
	}
	if !v.keepSpace {
		raw = strings.TrimSpace(raw)
	}
	value, err := v.parse(raw)
	if err != nil {
		return zero, false, &ParseError{Key: v.key, Cause: err}
	}
	return value, false, nil
}
