package parser

import (
	"regexp"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Lookup builds a parser over a fixed table of spellings. Matching ignores
// case; when two spellings collide under case folding, the exact spelling
// wins. Useful for enumerations:
//
//	level := parser.Lookup(map[string]zerolog.Level{
//		"debug": zerolog.DebugLevel,
//		"info":  zerolog.InfoLevel,
//	})
func Lookup[T any](table map[string]T) Parser[T] {
	return lookupIn(table, true)
}

// LookupExact behaves like Lookup but matches spellings case-sensitively.
func LookupExact[T any](table map[string]T) Parser[T] {
	return lookupIn(table, false)
}

func lookupIn[T any](table map[string]T, fold bool) Parser[T] {
	return func(raw string) (T, error) {
		var zero T
		if value, ok := table[raw]; ok {
			return value, nil
		}
		if fold {
			found := false
			var value T
			for spelling, candidate := range table {
				if !strings.EqualFold(spelling, raw) {
					continue
				}
				if found {
					return zero, errors.Errorf("%q matches several table entries", raw)
				}
				value, found = candidate, true
			}
			if found {
				return value, nil
			}
		}
		spellings := make([]string, 0, len(table))
		for spelling := range table {
			spellings = append(spellings, spelling)
		}
		sort.Strings(spellings)
		return zero, errors.Errorf("%q is not one of %s", raw, strings.Join(spellings, ", "))
	}
}

// Case associates a regular expression with the value it parses to. The
// pattern must match the entire input.
type Case[T any] struct {
	Pattern *regexp.Regexp
	Value   T
}

// Match builds a parser that tries cases in order and returns the value of
// the first whose pattern matches the whole input.
func Match[T any](cases ...Case[T]) Parser[T] {
	// Anchor the patterns once so a partial match never counts.
	anchored := make([]*regexp.Regexp, len(cases))
	for i, c := range cases {
		anchored[i] = regexp.MustCompile(`\A(?:` + c.Pattern.String() + `)\z`)
	}
	return func(raw string) (T, error) {
		for i, c := range cases {
			if anchored[i].MatchString(raw) {
				return c.Value, nil
			}
		}
		var zero T
		return zero, errors.Errorf("%q matches no case", raw)
	}
}

// MatchOr behaves like Match but yields fallback instead of an error when no
// case matches.
func MatchOr[T any](fallback T, cases ...Case[T]) Parser[T] {
	match := Match(cases...)
	return func(raw string) (T, error) {
		value, err := match(raw)
		if err != nil {
			return fallback, nil
		}
		return value, nil
	}
}
