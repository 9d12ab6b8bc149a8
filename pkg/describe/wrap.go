package describe

import (
	"slices"
	"strings"
	"unicode"

	"github.com/mitchellh/go-wordwrap"

	"github.com/animalet/entorn-go/pkg/envvar"
)

func displayKey(v envvar.Node) string {
	key := v.Key()
	if !v.IsCaseSensitive() {
		key = strings.ToUpper(key)
	}
	return key
}

// leafLines renders one leaf: "KEY: description" wrapped with a hanging
// indent as wide as the "KEY: " prefix, or just the key when undescribed.
func leafLines(v envvar.Node, initial, subsequent string, width int) []string {
	key := displayKey(v)
	description := v.Description()
	if description == "" {
		return wrapParagraph(key, initial, subsequent, width)
	}
	prefix := key + ": "
	paragraphs := strings.Split(description, "\n")
	paragraphs[0] = prefix + strings.TrimLeftFunc(paragraphs[0], unicode.IsSpace)
	return wrapBlock(paragraphs, initial, subsequent+strings.Repeat(" ", len(prefix)), width)
}

// nestedLines renders an entry and its subtree. A described schema gets a
// title line ending in ":"; children are indented one increment deeper
// whether or not there was a title, so siblings of a titled schema line up
// with siblings of an untitled one.
func nestedLines(e *entry, initial, subsequent, increment string, width int) []string {
	if e.v.IsLeaf() {
		return leafLines(e.v, initial, subsequent, width)
	}
	var lines []string
	if description := e.v.Description(); description != "" {
		paragraphs := strings.Split(description, "\n")
		last := len(paragraphs) - 1
		paragraphs[last] = strings.TrimRightFunc(paragraphs[last], unicode.IsSpace) + ":"
		lines = append(lines, wrapBlock(paragraphs, initial, subsequent, width)...)
	}
	initial += increment
	subsequent += increment

	children := slices.Clone(e.children)
	slices.SortFunc(children, func(a, b *entry) int { return slices.Compare(a.path, b.path) })
	for _, child := range children {
		lines = append(lines, nestedLines(child, initial, subsequent, increment, width)...)
	}
	return lines
}

// wrapBlock wraps newline-separated paragraphs; every paragraph after the
// first starts at the subsequent indent.
func wrapBlock(paragraphs []string, initial, subsequent string, width int) []string {
	var lines []string
	for i, paragraph := range paragraphs {
		if i > 0 {
			initial = subsequent
		}
		lines = append(lines, wrapParagraph(paragraph, initial, subsequent, width)...)
	}
	return lines
}

// wrapParagraph fills one paragraph of space-normalized text into lines of
// at most width characters, indent included. The first line uses the
// initial indent, continuation lines the subsequent indent. A lone word
// wider than the budget stays unbroken and overflows.
func wrapParagraph(text, initial, subsequent string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	budget := width - len(initial)
	if budget < 1 {
		budget = 1
	}
	wrapped := wordwrap.WrapString(strings.Join(words, " "), uint(budget))
	head, rest, more := strings.Cut(wrapped, "\n")
	lines := []string{initial + head}
	if more {
		budget = width - len(subsequent)
		if budget < 1 {
			budget = 1
		}
		refilled := wordwrap.WrapString(strings.Join(strings.Fields(rest), " "), uint(budget))
		for _, line := range strings.Split(refilled, "\n") {
			lines = append(lines, subsequent+line)
		}
	}
	return lines
}
