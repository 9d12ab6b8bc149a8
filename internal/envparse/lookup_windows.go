//go:build windows

package envparse

import (
	"strings"

	"github.com/pkg/errors"
)

// On Windows the environment block is case-preserving but case-insensitive
// and the runtime canonicalizes lookups already, so no index is kept.
// Uppercasing matches the convention the system uses for well-known names.
func (a *Accessor) lookupCaseless(key string) (string, error) {
	value, ok := a.lookup(strings.ToUpper(key))
	if !ok {
		return "", errors.Wrapf(ErrNotFound, "%q", key)
	}
	return value, nil
}

func (a *Accessor) noteSet(key string) {}

func (a *Accessor) noteUnset(key string) {}
