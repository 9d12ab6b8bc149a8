// Package clone isolates caller-owned data from values the resolution
// machinery hands to factories and validators, which are free to mutate what
// they receive.
package clone

import (
	"github.com/pkg/errors"
	"github.com/tiendc/go-deepcopy"
)

// Value returns a deep copy of src. Slices, maps and nested pointers are
// recursively copied so mutations of the result never reach src.
//
// src must be plain data: values containing functions or channels cannot be
// copied and make Value return an error.
func Value[T any](src T) (T, error) {
	var dst T
	if err := deepcopy.Copy(&dst, &src); err != nil {
		return dst, errors.Wrapf(err, "failed to deep copy type %T", src)
	}
	return dst, nil
}
