package envvar

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrDiscarded is returned by Get when a variable resolved to its Discard
// fallback. Discarding is meaningful inside a schema, where the slot is
// omitted from the factory call; a caller resolving such a variable directly
// has nothing to receive.
var ErrDiscarded = errors.New("value discarded")

// MissingError reports that a variable, or a schema descendant of one, was
// absent from the environment and no default could stand in for it.
type MissingError struct {
	Key string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("missing environment variable %q", e.Key)
}

// AmbiguityError reports that a case-insensitive lookup matched several
// differently cased environment variables, none of them exactly. Ambiguity is
// a configuration bug and is never substituted by a default.
type AmbiguityError struct {
	Key        string
	Candidates []string

	cause error
}

func (e *AmbiguityError) Error() string {
	return fmt.Sprintf("cannot choose between environment variables %s for %q",
		strings.Join(e.Candidates, ", "), e.Key)
}

func (e *AmbiguityError) Unwrap() error { return e.cause }

// ParseError reports that a variable was present but its raw value failed
// coercion. Like AmbiguityError it is never substituted by a default.
type ParseError struct {
	Key   string
	Cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse environment variable %q: %v", e.Key, e.Cause)
}

func (e *ParseError) Unwrap() error { return e.Cause }

// skipDefault carries a missing-variable error past the default handling of
// the node that raised it. A schema resolving to a partial result must not
// fall back to its own default, which is meant for the wholly absent case;
// wrapping the error lets the driver tell the two apart. The wrapper never
// escapes this package.
type skipDefault struct {
	inner error
}

func (e *skipDefault) Error() string { return e.inner.Error() }
func (e *skipDefault) Unwrap() error { return e.inner }
