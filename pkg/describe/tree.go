package describe

import (
	"slices"
	"strings"

	"github.com/animalet/entorn-go/pkg/envvar"
)

// entry positions one variable in the rendered output. The path is the sort
// key: a leaf appends its upper-cased key to its parent's path, a schema
// appends the smallest upper-cased key among its descendant leaves, so a
// schema sorts where its first variable would.
type entry struct {
	path     []string
	v        envvar.Node
	children []*entry
}

func buildEntry(path []string, v envvar.Node) *entry {
	if v.IsLeaf() {
		return &entry{
			path: append(slices.Clone(path), strings.ToUpper(v.Key())),
			v:    v,
		}
	}
	if min, ok := minLeafKey(v); ok {
		path = append(slices.Clone(path), min)
	}
	e := &entry{path: slices.Clone(path), v: v}
	for _, child := range v.Children() {
		e.children = append(e.children, buildEntry(e.path, child))
	}
	return e
}

func minLeafKey(v envvar.Node) (string, bool) {
	var min string
	found := false
	var walk func(envvar.Node)
	walk = func(n envvar.Node) {
		if n.IsLeaf() {
			if key := strings.ToUpper(n.Key()); !found || key < min {
				min, found = key, true
			}
			return
		}
		for _, child := range n.Children() {
			walk(child)
		}
	}
	for _, child := range v.Children() {
		walk(child)
	}
	return min, found
}

// flatLeaf is one leaf variable positioned under its schema path for the
// flat renderings.
type flatLeaf struct {
	path []string
	v    envvar.Node
}

// sortKey folds even case-sensitive keys upper, so FlatSorted interleaves
// them with their case-insensitive neighbors.
func (l flatLeaf) sortKey() string {
	return strings.ToUpper(l.v.Key())
}

func collectLeaves(r *envvar.Registry) []flatLeaf {
	var leaves []flatLeaf
	var walk func(path []string, v envvar.Node)
	walk = func(path []string, v envvar.Node) {
		if v.IsLeaf() {
			leaves = append(leaves, flatLeaf{
				path: append(slices.Clone(path), strings.ToUpper(v.Key())),
				v:    v,
			})
			return
		}
		if min, ok := minLeafKey(v); ok {
			path = append(slices.Clone(path), min)
		}
		for _, child := range v.Children() {
			walk(path, child)
		}
	}
	for _, n := range r.Roots() {
		walk(nil, n)
	}
	return leaves
}
