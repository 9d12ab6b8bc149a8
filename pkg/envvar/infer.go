package envvar

import (
	"slices"

	"github.com/pkg/errors"

	"github.com/animalet/entorn-go/pkg/parser"
)

// InferVar is a placeholder child that derives its environment key, parser
// and default from the factory parameter it is bound to when the enclosing
// schema is built. It is not resolvable on its own, and like any child it
// may fill only one slot per schema.
type InferVar struct {
	key           string
	description   string
	def           fallback[any]
	validators    []func(any) (any, error)
	caseSensitive bool
	keepSpace     bool
	absolute      bool
}

// Auto declares an inference placeholder for use as a schema child. Bound
// under a struct field, the key comes from the env tag or the field name,
// the parser from the field type (see parser.ForType) and the default from
// the default tag; chainers override each piece individually.
func Auto() *InferVar {
	return &InferVar{def: fallback[any]{kind: fallbackAsDefault}}
}

// Key fixes the environment key instead of inferring it from the parameter
// name. Positional children of a function factory have no name to infer
// from, so they require it.
func (iv *InferVar) Key(key string) *InferVar {
	iv.key = key
	return iv
}

// Describe attaches help text. Embedded newlines separate paragraphs.
func (iv *InferVar) Describe(text string) *InferVar {
	iv.description = text
	return iv
}

// Default fixes the value substituted on absence, instead of deferring to
// the default tag of the bound parameter.
func (iv *InferVar) Default(value any) *InferVar {
	iv.def = fallback[any]{kind: fallbackValue, value: value}
	return iv
}

// DefaultDiscard makes the absent bound child resolve to a discarded value,
// omitting its slot from the factory call.
func (iv *InferVar) DefaultDiscard() *InferVar {
	iv.def = fallback[any]{kind: fallbackDiscard}
	return iv
}

// NoDefault makes absence an error even when the bound parameter declares a
// default tag.
func (iv *InferVar) NoDefault() *InferVar {
	iv.def = fallback[any]{kind: fallbackNone}
	return iv
}

// Validate appends a refinement step applied to the bound child's
// successfully resolved values, in chaining order.
func (iv *InferVar) Validate(validate func(any) (any, error)) *InferVar {
	if validate == nil {
		panic(errors.New("inferred variable given a nil validator"))
	}
	iv.validators = append(iv.validators, validate)
	return iv
}

// CaseSensitive makes lookups honor the inferred key casing exactly as
// written.
func (iv *InferVar) CaseSensitive() *InferVar {
	iv.caseSensitive = true
	return iv
}

// KeepWhitespace preserves leading and trailing whitespace in the raw
// value.
func (iv *InferVar) KeepWhitespace() *InferVar {
	iv.keepSpace = true
	return iv
}

// Absolute marks the inferred key as fully qualified, immune to schema
// prefixes.
func (iv *InferVar) Absolute() *InferVar {
	iv.absolute = true
	return iv
}

// bind materializes the placeholder against one factory parameter. Each
// piece falls back along its own chain: explicit key, then tag, then
// parameter name; explicit default, then default tag, then none. The
// parameter type must yield a parser or binding fails.
func (iv *InferVar) bind(param paramSpec) (*Var[any], error) {
	key := iv.key
	if key == "" {
		switch {
		case param.keyTag != "":
			key = param.keyTag
		case param.name != "":
			key = param.name
		default:
			return nil, errors.Errorf("cannot infer a key for positional child %d, set one with Key", param.index)
		}
	}
	if param.typ == nil {
		return nil, errors.Errorf("cannot infer a type for child %q", key)
	}
	untyped, err := parser.ForType(param.typ)
	if err != nil {
		return nil, errors.Wrapf(err, "child %q", key)
	}
	parse := parser.Parser[any](untyped)

	def := iv.def
	if def.kind == fallbackAsDefault {
		if param.hasDef {
			value, err := parse(param.rawDef)
			if err != nil {
				return nil, errors.Wrapf(err, "cannot parse the default tag of child %q", key)
			}
			def = fallback[any]{kind: fallbackValue, value: value}
		} else {
			def = fallback[any]{kind: fallbackNone}
		}
	}

	return &Var[any]{
		core: core[any]{
			key:         key,
			description: iv.description,
			def:         def,
			validators:  slices.Clone(iv.validators),
		},
		parse:         parse,
		caseSensitive: iv.caseSensitive,
		keepSpace:     iv.keepSpace,
		absolute:      iv.absolute,
	}, nil
}
