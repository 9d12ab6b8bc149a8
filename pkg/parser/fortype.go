package parser

import (
	"encoding"
	"reflect"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Untyped parses a raw string into a value of a type fixed at registration
// time rather than at compile time. It is the currency of type-driven parser
// inference, where the target type is only known through reflection.
type Untyped func(raw string) (any, error)

// Typed adapts a compile-time parser for registration with RegisterType.
func Typed[T any](parse Parser[T]) Untyped {
	return func(raw string) (any, error) {
		return parse(raw)
	}
}

var (
	typesMu sync.RWMutex
	types   = make(map[reflect.Type]Untyped)
)

// RegisterType installs parse as the parser ForType returns for t, taking
// precedence over the structural derivation. If a parser is already
// registered for t it is replaced and a warning is logged.
//
// Example:
//
//	parser.RegisterType(reflect.TypeFor[net.HardwareAddr](), parser.Typed(parseMAC))
//
// Thread-safe: this function can be called concurrently with ForType.
func RegisterType(t reflect.Type, parse Untyped) {
	typesMu.Lock()
	defer typesMu.Unlock()
	if _, exists := types[t]; exists {
		log.Warn().Str("type", t.String()).Msg("Overriding registered parser for type")
	}
	types[t] = parse
}

var textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()

// ForType derives a parser producing values of t. It is used when a parser
// is chosen from a struct field or factory parameter type instead of being
// spelled out.
//
// Resolution order:
//  1. a parser registered with RegisterType
//  2. time.Duration, via time.ParseDuration
//  3. types whose pointer implements encoding.TextUnmarshaler
//  4. string, bool, integer, unsigned and float kinds (including named
//     types of those kinds) and byte slices
//
// Types outside that set yield an error.
func ForType(t reflect.Type) (Untyped, error) {
	typesMu.RLock()
	registered, ok := types[t]
	typesMu.RUnlock()
	if ok {
		return registered, nil
	}

	if t == reflect.TypeFor[time.Duration]() {
		return Typed(Duration), nil
	}
	if reflect.PointerTo(t).Implements(textUnmarshalerType) {
		return func(raw string) (any, error) {
			value := reflect.New(t)
			if err := value.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(raw)); err != nil {
				return nil, err
			}
			return value.Elem().Interface(), nil
		}, nil
	}

	switch t.Kind() {
	case reflect.String:
		return func(raw string) (any, error) {
			value := reflect.New(t).Elem()
			value.SetString(raw)
			return value.Interface(), nil
		}, nil
	case reflect.Bool:
		return func(raw string) (any, error) {
			parsed, err := strconv.ParseBool(raw)
			if err != nil {
				return nil, err
			}
			value := reflect.New(t).Elem()
			value.SetBool(parsed)
			return value.Interface(), nil
		}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return func(raw string) (any, error) {
			parsed, err := strconv.ParseInt(raw, 10, t.Bits())
			if err != nil {
				return nil, err
			}
			value := reflect.New(t).Elem()
			value.SetInt(parsed)
			return value.Interface(), nil
		}, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return func(raw string) (any, error) {
			parsed, err := strconv.ParseUint(raw, 10, t.Bits())
			if err != nil {
				return nil, err
			}
			value := reflect.New(t).Elem()
			value.SetUint(parsed)
			return value.Interface(), nil
		}, nil
	case reflect.Float32, reflect.Float64:
		return func(raw string) (any, error) {
			parsed, err := strconv.ParseFloat(raw, t.Bits())
			if err != nil {
				return nil, err
			}
			value := reflect.New(t).Elem()
			value.SetFloat(parsed)
			return value.Interface(), nil
		}, nil
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return func(raw string) (any, error) {
				return reflect.ValueOf([]byte(raw)).Convert(t).Interface(), nil
			}, nil
		}
	}
	return nil, errors.Errorf("no parser known for type %s", t)
}
