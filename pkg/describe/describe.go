// Package describe renders the variables of a registry as help text.
//
// Three renderings are offered. Nested mirrors the schema structure, with
// children indented beneath their schema's title. FlatSorted lists every
// leaf key alphabetically, collapsing keys that appear several times.
// FlatGrouped also lists only leaves, but keeps the leaves of one schema
// together.
//
// All renderings wrap long descriptions to a configurable width with a
// hanging indent, so the output can be printed as-is in usage text:
//
//	for _, line := range describe.Nested(envvar.DefaultRegistry) {
//		fmt.Println(line)
//	}
package describe

import (
	"slices"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/animalet/entorn-go/pkg/envvar"
)

type options struct {
	width          int
	indent         string
	keepDuplicates bool
}

// Option adjusts how a rendering is laid out.
type Option func(*options)

// Width sets the total line width, indentation included. The default is 70.
func Width(w int) Option {
	return func(o *options) { o.width = w }
}

// Indent sets the string prepended per nesting level in Nested renderings.
// The default is a single space.
func Indent(s string) Option {
	return func(o *options) { o.indent = s }
}

// KeepDuplicates makes FlatSorted render every occurrence of a key that
// several variables share, instead of collapsing them into one line.
func KeepDuplicates() Option {
	return func(o *options) { o.keepDuplicates = true }
}

func buildOptions(opts []Option) options {
	o := options{width: 70, indent: " "}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Nested renders the registry's variables as an indented tree, one line
// slice entry per output line. A schema with a description contributes a
// title line ending in ":"; its children are indented one level either way.
func Nested(r *envvar.Registry, opts ...Option) []string {
	o := buildOptions(opts)
	roots := make([]*entry, 0)
	for _, n := range r.Roots() {
		roots = append(roots, buildEntry(nil, n))
	}
	slices.SortFunc(roots, func(a, b *entry) int { return slices.Compare(a.path, b.path) })

	var lines []string
	for _, e := range roots {
		lines = append(lines, nestedLines(e, "", "", o.indent, o.width)...)
	}
	return lines
}

// FlatSorted renders every leaf of the registry alphabetically by key.
// When several variables resolve the same key the line is collapsed to one
// entry, preferring a described variable; pass KeepDuplicates to list each
// occurrence instead.
func FlatSorted(r *envvar.Registry, opts ...Option) []string {
	o := buildOptions(opts)
	leaves := collectLeaves(r)
	slices.SortStableFunc(leaves, func(a, b flatLeaf) int {
		return strings.Compare(a.sortKey(), b.sortKey())
	})

	var lines []string
	for start := 0; start < len(leaves); {
		end := start + 1
		for end < len(leaves) && leaves[end].sortKey() == leaves[start].sortKey() {
			end++
		}
		group := leaves[start:end]
		if len(group) > 1 && !o.keepDuplicates {
			lines = append(lines, leafLines(collate(group).v, "", "", o.width)...)
		} else {
			for _, l := range group {
				lines = append(lines, leafLines(l.v, "", "", o.width)...)
			}
		}
		start = end
	}
	return lines
}

// FlatGrouped renders every leaf of the registry without nesting, but keeps
// the leaves belonging to one schema adjacent, schemas ordered by their
// key paths. Shared keys are never collapsed.
func FlatGrouped(r *envvar.Registry, opts ...Option) []string {
	o := buildOptions(opts)
	leaves := collectLeaves(r)
	slices.SortStableFunc(leaves, func(a, b flatLeaf) int {
		if c := slices.Compare(a.path, b.path); c != 0 {
			return c
		}
		return strings.Compare(a.v.Key(), b.v.Key())
	})

	var lines []string
	for _, l := range leaves {
		lines = append(lines, leafLines(l.v, "", "", o.width)...)
	}
	return lines
}

// collate picks one representative for a key shared by several variables:
// a described one when available. Conflicting descriptions are tolerated
// with a warning, since the output can only show one of them.
func collate(group []flatLeaf) flatLeaf {
	var described []flatLeaf
	for _, l := range group {
		if l.v.Description() != "" {
			described = append(described, l)
		}
	}
	if len(described) == 0 {
		return group[0]
	}
	distinct := make(map[string]struct{}, len(described))
	for _, l := range described {
		distinct[l.v.Description()] = struct{}{}
	}
	if len(distinct) > 1 {
		log.Warn().Str("key", described[0].v.Key()).Msg("Multiple descriptions for one environment variable, choosing arbitrarily")
	}
	return described[0]
}
