//go:build !windows

package envparse

import (
	"slices"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// lookupCaseless resolves key against the case-insensitive index, rebuilding
// it at most once per call when the index looks stale.
//
// An exact spelling always wins over competing candidates. A single live
// candidate is returned regardless of spelling. Several live candidates with
// no exact match produce an *AmbiguityError listing every spelling.
func (a *Accessor) lookupCaseless(key string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	lower := strings.ToLower(key)
	rebuilt := false
	if a.caseless == nil {
		a.rebuild()
		rebuilt = true
	}
	for {
		candidates := a.caseless[lower]
		switch {
		case len(candidates) == 0:
			// Possibly stale: the variable may have appeared since
			// the last scan. Fall through to the rebuild below.
		case slices.Contains(candidates, key):
			// The exact requested spelling is indexed. Verify it
			// against the live environment in case it was removed
			// behind our back.
			if value, ok := a.lookup(key); ok {
				return value, nil
			}
		case len(candidates) == 1:
			if value, ok := a.lookup(candidates[0]); ok {
				return value, nil
			}
		default:
			if !rebuilt {
				a.rebuild()
				rebuilt = true
				continue
			}
			sorted := append([]string(nil), candidates...)
			sort.Strings(sorted)
			log.Warn().Str("key", key).Strs("candidates", sorted).Msg("Ambiguous case-insensitive environment lookup")
			return "", &AmbiguityError{Query: key, Candidates: sorted}
		}
		if rebuilt {
			return "", errors.Wrapf(ErrNotFound, "%q", key)
		}
		a.rebuild()
		rebuilt = true
	}
}

// rebuild rescans the environment and replaces the case-insensitive index.
// Callers must hold a.mu.
func (a *Accessor) rebuild() {
	index := make(map[string][]string)
	for _, entry := range a.environ() {
		eq := strings.IndexByte(entry, '=')
		if eq <= 0 {
			// Skip malformed entries and the hidden "=X:" style
			// entries some platforms keep in the block.
			continue
		}
		name := entry[:eq]
		lower := strings.ToLower(name)
		if !slices.Contains(index[lower], name) {
			index[lower] = append(index[lower], name)
		}
	}
	a.caseless = index
	log.Debug().Int("entries", len(index)).Msg("Rebuilt case-insensitive environment index")
}

// noteSet records a mutation made through the accessor so the index stays
// valid without a rescan. Callers must hold a.mu.
func (a *Accessor) noteSet(key string) {
	if a.caseless == nil {
		return // the first caseless lookup will scan anyway
	}
	lower := strings.ToLower(key)
	if !slices.Contains(a.caseless[lower], key) {
		a.caseless[lower] = append(a.caseless[lower], key)
	}
}

// noteUnset records a removal made through the accessor. Callers must hold a.mu.
func (a *Accessor) noteUnset(key string) {
	if a.caseless == nil {
		return
	}
	lower := strings.ToLower(key)
	kept := slices.DeleteFunc(slices.Clone(a.caseless[lower]), func(name string) bool {
		return name == key
	})
	if len(kept) == 0 {
		delete(a.caseless, lower)
	} else {
		a.caseless[lower] = kept
	}
}
