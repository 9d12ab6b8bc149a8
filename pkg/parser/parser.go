// Package parser converts the raw string form of environment variables into
// typed values.
//
// A Parser is any function from the raw string to a value and an error. The
// package ships parsers for scalars, delimiter-separated collections,
// key-value pair lists, regular-expression driven extraction, fixed lookup
// tables and whole configuration documents (JSON, YAML, TOML). Parsers for
// additional types can be registered for type-driven inference, see ForType.
package parser

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Parser converts the raw string form of an environment variable into a T.
// Implementations must not retain raw and should return a descriptive error
// for malformed input; the caller adds the variable name.
type Parser[T any] func(raw string) (T, error)

// String accepts any raw value unchanged.
func String(raw string) (string, error) {
	return raw, nil
}

// Bytes returns the raw value as a byte slice.
func Bytes(raw string) ([]byte, error) {
	return []byte(raw), nil
}

// Bool parses the spellings accepted by strconv.ParseBool
// (1, t, true, 0, f, false, in any case).
func Bool(raw string) (bool, error) {
	return strconv.ParseBool(raw)
}

// Int parses a base-10 integer.
func Int(raw string) (int, error) {
	return strconv.Atoi(raw)
}

// Int64 parses a base-10 64-bit integer.
func Int64(raw string) (int64, error) {
	return strconv.ParseInt(raw, 10, 64)
}

// Uint64 parses a base-10 unsigned 64-bit integer.
func Uint64(raw string) (uint64, error) {
	return strconv.ParseUint(raw, 10, 64)
}

// Float64 parses a floating point number.
func Float64(raw string) (float64, error) {
	return strconv.ParseFloat(raw, 64)
}

// Complex128 parses a complex number such as "3+4i".
func Complex128(raw string) (complex128, error) {
	return strconv.ParseComplex(raw, 128)
}

// URL parses an absolute URL.
func URL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if !u.IsAbs() {
		return nil, errors.Errorf("%q is not an absolute URL", raw)
	}
	return u, nil
}

// Duration parses a time.Duration in Go's "300ms", "1h30m" notation.
func Duration(raw string) (time.Duration, error) {
	return time.ParseDuration(raw)
}

// Time returns a parser for timestamps in the given reference layout.
func Time(layout string) Parser[time.Time] {
	return func(raw string) (time.Time, error) {
		return time.Parse(layout, raw)
	}
}

// BoolOf builds a boolean parser that accepts only the given spellings.
// Matching ignores case. Spellings listed in both sets are rejected at parse
// time as ambiguous.
//
// Example:
//
//	onOff := parser.BoolOf([]string{"on", "enabled"}, []string{"off", "disabled"})
func BoolOf(truthy, falsy []string) Parser[bool] {
	return boolOf(truthy, falsy, true)
}

// BoolOfExact behaves like BoolOf but matches the spellings
// case-sensitively.
func BoolOfExact(truthy, falsy []string) Parser[bool] {
	return boolOf(truthy, falsy, false)
}

func boolOf(truthy, falsy []string, fold bool) Parser[bool] {
	return func(raw string) (bool, error) {
		isTrue := contains(truthy, raw, fold)
		isFalse := contains(falsy, raw, fold)
		switch {
		case isTrue && isFalse:
			return false, errors.Errorf("%q is listed as both true and false", raw)
		case isTrue:
			return true, nil
		case isFalse:
			return false, nil
		default:
			return false, errors.Errorf("%q matches neither the true spellings %v nor the false spellings %v", raw, truthy, falsy)
		}
	}
}

// BoolOfOr behaves like BoolOf except that input matching neither set
// resolves to fallback instead of failing.
func BoolOfOr(fallback bool, truthy, falsy []string) Parser[bool] {
	strict := BoolOf(truthy, falsy)
	return func(raw string) (bool, error) {
		if !contains(truthy, raw, true) && !contains(falsy, raw, true) {
			return fallback, nil
		}
		return strict(raw)
	}
}

func contains(spellings []string, raw string, fold bool) bool {
	for _, s := range spellings {
		if s == raw || (fold && strings.EqualFold(s, raw)) {
			return true
		}
	}
	return false
}
