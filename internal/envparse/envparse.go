// Package envparse provides low-level access to the process environment with
// optional case-insensitive key lookup.
//
// Case-sensitive lookups always read the live environment directly.
// Case-insensitive lookups go through a lazily-built index that maps
// lower-cased keys to the exact spellings present in the environment. The
// index is rebuilt on demand whenever it looks stale, so variables set or
// removed behind the accessor's back are still found (at the cost of an
// extra scan).
package envparse

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// ErrNotFound is returned by Lookup when no environment variable matches the
// requested key. Callers are expected to test for it with errors.Is.
var ErrNotFound = errors.New("environment variable not found")

// AmbiguityError is returned by a case-insensitive Lookup when several
// environment variables differ only in case and none matches the requested
// spelling exactly.
type AmbiguityError struct {
	// Query is the key as requested by the caller.
	Query string
	// Candidates holds the exact spellings found in the environment,
	// sorted lexicographically.
	Candidates []string
}

func (e *AmbiguityError) Error() string {
	return fmt.Sprintf("environment variable %q is ambiguous: candidates are %s", e.Query, strings.Join(e.Candidates, ", "))
}

// Accessor reads and mutates the process environment. The zero value is not
// usable; construct instances with New.
//
// All methods are safe for concurrent use. Mutations performed through the
// accessor keep the case-insensitive index synchronized without a full
// rescan; mutations performed through other means (os.Setenv, a child
// process inheriting a modified block) are picked up by the stale-index
// retry in Lookup.
type Accessor struct {
	mu       sync.Mutex
	environ  func() []string
	lookup   func(key string) (string, bool)
	set      func(key, value string) error
	unset    func(key string) error
	caseless map[string][]string // lower-cased key -> exact spellings
}

// New creates an accessor over the live process environment.
func New() *Accessor {
	return &Accessor{
		environ: os.Environ,
		lookup:  os.LookupEnv,
		set:     os.Setenv,
		unset:   os.Unsetenv,
	}
}

// Lookup retrieves the value of the environment variable for key.
//
// When caseSensitive is true the live environment is consulted directly and
// only an exact match counts. When false, any variable whose name equals key
// under case folding matches; an exact match wins over competing spellings,
// and multiple competing spellings without an exact match yield an
// *AmbiguityError.
//
// A variable set to the empty string is found and returned as "".
// ErrNotFound is returned when nothing matches.
func (a *Accessor) Lookup(caseSensitive bool, key string) (string, error) {
	if caseSensitive {
		value, ok := a.lookup(key)
		if !ok {
			return "", errors.Wrapf(ErrNotFound, "%q", key)
		}
		return value, nil
	}
	return a.lookupCaseless(key)
}

// Setenv sets the environment variable key to value and keeps the
// case-insensitive index up to date.
func (a *Accessor) Setenv(key, value string) error {
	if err := a.set(key, value); err != nil {
		return errors.Wrapf(err, "setting %q", key)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.noteSet(key)
	return nil
}

// Unsetenv removes the environment variable key and keeps the
// case-insensitive index up to date.
func (a *Accessor) Unsetenv(key string) error {
	if err := a.unset(key); err != nil {
		return errors.Wrapf(err, "unsetting %q", key)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.noteUnset(key)
	return nil
}

// std is the accessor used by the package-level functions. All callers of
// this package share it so that its index is maintained in one place.
var std = New()

// Lookup retrieves key from the shared process-environment accessor.
func Lookup(caseSensitive bool, key string) (string, error) {
	return std.Lookup(caseSensitive, key)
}

// Setenv sets key through the shared process-environment accessor.
func Setenv(key, value string) error {
	return std.Setenv(key, value)
}

// Unsetenv removes key through the shared process-environment accessor.
func Unsetenv(key string) error {
	return std.Unsetenv(key)
}

