package envvar

import (
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
)

// paramSpec describes one factory parameter as seen by inference binding:
// its name or position, declared type, and any per-field overrides carried
// by struct tags. A tag always wins over the inferred name or position.
type paramSpec struct {
	name   string
	index  int
	typ    reflect.Type
	keyTag string
	rawDef string
	hasDef bool
}

// factorySpec is the parameter table of a schema factory. Struct factories
// declare keyword parameters from their exported fields, function factories
// declare positional parameters from their signature, and map factories
// accept any keyword.
type factorySpec struct {
	positional []paramSpec
	keyword    []paramSpec
	variadic   reflect.Type
	anyKeyword bool
}

func (fs *factorySpec) forPositional(i int) (paramSpec, bool) {
	if i < len(fs.positional) {
		return fs.positional[i], true
	}
	if fs.variadic != nil {
		return paramSpec{index: i, typ: fs.variadic}, true
	}
	return paramSpec{}, false
}

// forKeyword matches a keyword child name against the parameter table. An
// env tag match wins over the parameter name, and an exact name match wins
// over a case-insensitive one, mirroring how the assembled values are
// decoded.
func (fs *factorySpec) forKeyword(name string) (paramSpec, bool) {
	for _, p := range fs.keyword {
		if p.keyTag == name {
			return p, true
		}
	}
	for _, p := range fs.keyword {
		if p.name == name {
			return p, true
		}
	}
	for _, p := range fs.keyword {
		if strings.EqualFold(p.name, name) {
			return p, true
		}
	}
	if fs.anyKeyword {
		return paramSpec{name: name, index: -1}, true
	}
	return paramSpec{}, false
}

// Struct declares a schema assembling a T from keyword children decoded
// into its exported fields. Field matching uses the env tag when present,
// else the field name, case-insensitively.
//
// Parameters:
//   - prefix: prepended to the key of every child.
//   - args: the keyword children by field name (or env tag). Passing nil
//     infers a child for every exported field: the key from the env tag or
//     field name, the parser from the field type, and the default from the
//     default tag. Fields tagged `env:"-"` are left out.
//
// Returns the schema, registered as a top-level variable. Construction
// panics on unknown field names, unusable field types and misused child
// instances; a schema is built once at startup and such mistakes should not
// survive to resolution time.
func Struct[T any](prefix string, args Args) *SchemaVar[T] {
	spec := structSpec(reflect.TypeFor[T]())
	if args == nil {
		args = make(Args, len(spec.keyword))
		for _, p := range spec.keyword {
			name := p.name
			if p.keyTag != "" {
				name = p.keyTag
			}
			args[name] = Auto()
		}
	}
	return newSchema[T](prefix, spec, structInvoke[T](), nil, args)
}

// Call declares a schema applying positional children to a function
// factory. The factory must return T, or T and an error; its arity is
// checked here, at construction.
func Call[T any](prefix string, factory any, pos ...any) *SchemaVar[T] {
	fv := reflect.ValueOf(factory)
	if !fv.IsValid() || fv.Kind() != reflect.Func {
		panic(errors.Errorf("schema %q factory must be a function, got %T", prefix, factory))
	}
	ft := fv.Type()

	want := reflect.TypeFor[T]()
	switch ft.NumOut() {
	case 1:
	case 2:
		if ft.Out(1) != reflect.TypeFor[error]() {
			panic(errors.Errorf("schema %q factory's second return must be error, got %s", prefix, ft.Out(1)))
		}
	default:
		panic(errors.Errorf("schema %q factory must return a value, or a value and an error", prefix))
	}
	if !ft.Out(0).AssignableTo(want) {
		panic(errors.Errorf("schema %q factory returns %s, want %s", prefix, ft.Out(0), want))
	}
	if ft.IsVariadic() {
		if len(pos) < ft.NumIn()-1 {
			panic(errors.Errorf("schema %q factory takes at least %d positional values, got %d", prefix, ft.NumIn()-1, len(pos)))
		}
	} else if len(pos) != ft.NumIn() {
		panic(errors.Errorf("schema %q factory takes %d positional values, got %d", prefix, ft.NumIn(), len(pos)))
	}

	return newSchema[T](prefix, funcSpec(ft), callInvoke[T](fv), pos, nil)
}

// Map declares a schema assembling its keyword children into a plain map,
// for configuration shapes too loose for a struct. Discarded children are
// genuinely absent from the result.
func Map(prefix string, args Args) *SchemaVar[map[string]any] {
	if len(args) == 0 {
		panic(errors.Errorf("map schema %q declared without children", prefix))
	}
	spec := &factorySpec{anyKeyword: true}
	return newSchema[map[string]any](prefix, spec, mapInvoke, nil, args)
}

func structSpec(t reflect.Type) *factorySpec {
	if t.Kind() != reflect.Struct {
		panic(errors.Errorf("schema factory type %s is not a struct", t))
	}
	fs := &factorySpec{}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag, _, _ := strings.Cut(f.Tag.Get("env"), ",")
		if tag == "-" {
			continue
		}
		rawDef, hasDef := f.Tag.Lookup("default")
		fs.keyword = append(fs.keyword, paramSpec{
			name:   f.Name,
			index:  -1,
			typ:    f.Type,
			keyTag: tag,
			rawDef: rawDef,
			hasDef: hasDef,
		})
	}
	return fs
}

func funcSpec(ft reflect.Type) *factorySpec {
	fs := &factorySpec{}
	n := ft.NumIn()
	if ft.IsVariadic() {
		fs.variadic = ft.In(n - 1).Elem()
		n--
	}
	for i := 0; i < n; i++ {
		fs.positional = append(fs.positional, paramSpec{index: i, typ: ft.In(i)})
	}
	return fs
}

func structInvoke[T any]() func([]any, map[string]any) (T, error) {
	return func(_ []any, kw map[string]any) (T, error) {
		var out T
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:      &out,
			TagName:     "env",
			ErrorUnused: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.TextUnmarshallerHookFunc(),
			),
		})
		if err != nil {
			return out, errors.Wrap(err, "failed to build schema decoder")
		}
		if err := dec.Decode(kw); err != nil {
			return out, errors.Wrap(err, "failed to assemble value from environment")
		}
		return out, nil
	}
}

func callInvoke[T any](fv reflect.Value) func([]any, map[string]any) (T, error) {
	ft := fv.Type()
	return func(pos []any, kw map[string]any) (T, error) {
		var zero T
		if len(kw) > 0 {
			return zero, errors.Errorf("factory accepts no keyword values, got %d", len(kw))
		}
		if ft.IsVariadic() {
			if len(pos) < ft.NumIn()-1 {
				return zero, errors.Errorf("factory takes at least %d values, got %d after discarding", ft.NumIn()-1, len(pos))
			}
		} else if len(pos) != ft.NumIn() {
			return zero, errors.Errorf("factory takes %d values, got %d after discarding", ft.NumIn(), len(pos))
		}
		in := make([]reflect.Value, len(pos))
		for i, raw := range pos {
			pt := positionalType(ft, i)
			rv := reflect.ValueOf(raw)
			switch {
			case !rv.IsValid():
				in[i] = reflect.Zero(pt)
			case rv.Type().AssignableTo(pt):
				in[i] = rv
			default:
				return zero, errors.Errorf("positional value %d is %s, want %s", i, rv.Type(), pt)
			}
		}
		out := fv.Call(in)
		if len(out) == 2 && !out[1].IsNil() {
			return zero, out[1].Interface().(error)
		}
		// Assign through reflection: the return type was checked assignable
		// to T at construction, which is looser than a type assertion.
		var value T
		reflect.ValueOf(&value).Elem().Set(out[0])
		return value, nil
	}
}

func positionalType(ft reflect.Type, i int) reflect.Type {
	if ft.IsVariadic() && i >= ft.NumIn()-1 {
		return ft.In(ft.NumIn() - 1).Elem()
	}
	return ft.In(i)
}

func mapInvoke(_ []any, kw map[string]any) (map[string]any, error) {
	return kw, nil
}
