package envvar

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Patch installs a runtime override: until the returned restore function
// runs, every resolution of this variable yields value without touching the
// environment, bypassing parsing, defaults and validators. Overrides nest,
// and each restore reinstates the previous one whatever the exit path:
//
//	restore := v.Patch(testValue)
//	defer restore()
//
// The override is per handle. A schema built from this variable holds its
// own prefixed copy, which patching the original does not reach; to stub a
// schema out, patch the schema itself or set the child's environment key.
func (c *core[T]) Patch(value T) (restore func()) {
	log.Debug().Str("key", c.key).Msg("environment variable overridden")
	return c.push(&override[T]{kind: overrideValue, value: value})
}

// PatchMissing simulates absence: resolution fails with a MissingError even
// when the variable has a default.
func (c *core[T]) PatchMissing() (restore func()) {
	log.Debug().Str("key", c.key).Msg("environment variable overridden as missing")
	return c.push(&override[T]{kind: overrideMissing})
}

// PatchDiscard simulates an absent variable with a Discard fallback:
// schemas omit the slot, and a direct Get reports ErrDiscarded.
func (c *core[T]) PatchDiscard() (restore func()) {
	log.Debug().Str("key", c.key).Msg("environment variable overridden as discarded")
	return c.push(&override[T]{kind: overrideDiscard})
}

func (c *core[T]) push(o *override[T]) func() {
	c.mu.Lock()
	prev := c.patch
	c.patch = o
	c.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			c.patch = prev
			c.mu.Unlock()
		})
	}
}
