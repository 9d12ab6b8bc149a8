package parser

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// TrailingPolicy states how a delimiter after the last element is treated.
type TrailingPolicy int

const (
	// TrailingAccept drops the empty piece left by a single trailing
	// delimiter. The zero value.
	TrailingAccept TrailingPolicy = iota
	// TrailingRequire additionally insists that the payload end with the
	// delimiter.
	TrailingRequire
	// TrailingForbid rejects a trailing delimiter.
	TrailingForbid
)

// SplitParser parses delimiter-separated payloads into a slice, one element
// per piece.
//
// The separator is taken from Pattern when set, otherwise from Separator as a
// literal. An empty payload (after bracket and whitespace handling) parses to
// an empty slice rather than a single empty element, and one trailing
// delimiter is tolerated unless Trailing says otherwise.
//
// Example:
//
//	ports := parser.SplitParser[int]{Separator: ",", Element: parser.Int}
//	// "8080, 8081 ,8082" -> []int{8080, 8081, 8082}
type SplitParser[T any] struct {
	// Separator is the literal delimiter between elements. Ignored when
	// Pattern is set.
	Separator string
	// Pattern, when non-nil, is used to split the payload instead of
	// Separator.
	Pattern *regexp.Regexp
	// Element parses each piece.
	Element Parser[T]
	// Trailing is the trailing-delimiter policy.
	Trailing TrailingPolicy
	// Opener and Closer are literal brackets that must surround the
	// payload when non-empty, and are removed before splitting.
	Opener string
	Closer string
	// KeepSpace keeps surrounding whitespace on the payload and on each
	// piece. By default both are trimmed.
	KeepSpace bool
}

// Parse implements Parser[[]T].
func (p SplitParser[T]) Parse(raw string) ([]T, error) {
	payload, err := unwrap(raw, p.Opener, p.Closer, p.KeepSpace)
	if err != nil {
		return nil, err
	}
	if payload == "" {
		return []T{}, nil
	}

	var pieces []string
	switch {
	case p.Pattern != nil:
		pieces = p.Pattern.Split(payload, -1)
	case p.Separator != "":
		pieces = strings.Split(payload, p.Separator)
	default:
		return nil, errors.New("split parser has neither a separator nor a pattern")
	}
	pieces, err = trimTrailing(pieces, p.Trailing, p.KeepSpace)
	if err != nil {
		return nil, err
	}

	out := make([]T, 0, len(pieces))
	for i, piece := range pieces {
		if !p.KeepSpace {
			piece = strings.TrimSpace(piece)
		}
		value, err := p.Element(piece)
		if err != nil {
			return nil, errors.Wrapf(err, "element %d", i)
		}
		out = append(out, value)
	}
	return out, nil
}

// Split parses separator-delimited payloads, applying element to each piece.
func Split[T any](separator string, element Parser[T]) Parser[[]T] {
	return SplitParser[T]{Separator: separator, Element: element}.Parse
}

// PairsParser parses payloads of the form "k1=v1;k2=v2" into a map.
//
// Pairs are separated by PairPattern or PairSeparator, and each pair is cut
// at the first occurrence of KeySeparator so values may contain it; with
// ValueFirst set, the half before the separator is the value and the half
// after it the key. Values are parsed with the per-key parser from ValueOf
// when one is registered for the key, falling back to Value. A repeated key
// is an error.
type PairsParser[K comparable, V any] struct {
	// PairSeparator is the literal delimiter between pairs. Ignored when
	// PairPattern is set.
	PairSeparator string
	PairPattern   *regexp.Regexp
	// Trailing is the trailing-delimiter policy for the pair delimiter.
	Trailing TrailingPolicy
	// KeySeparator separates a key from its value within one pair.
	KeySeparator string
	// ValueFirst reads each pair as value-then-key instead of
	// key-then-value.
	ValueFirst bool
	// Key parses the key of each pair.
	Key Parser[K]
	// Value parses values with no entry in ValueOf. May be nil if ValueOf
	// covers every key that can occur.
	Value Parser[V]
	// ValueOf holds per-key value parsers.
	ValueOf map[K]Parser[V]
	// Opener and Closer are literal brackets around the whole payload.
	Opener string
	Closer string
	// KeepSpace keeps surrounding whitespace on pairs, keys and values.
	KeepSpace bool
}

// Parse implements Parser[map[K]V].
func (p PairsParser[K, V]) Parse(raw string) (map[K]V, error) {
	payload, err := unwrap(raw, p.Opener, p.Closer, p.KeepSpace)
	if err != nil {
		return nil, err
	}
	out := make(map[K]V)
	if payload == "" {
		return out, nil
	}

	var pairs []string
	switch {
	case p.PairPattern != nil:
		pairs = p.PairPattern.Split(payload, -1)
	case p.PairSeparator != "":
		pairs = strings.Split(payload, p.PairSeparator)
	default:
		return nil, errors.New("pairs parser has neither a pair separator nor a pattern")
	}
	if p.KeySeparator == "" {
		return nil, errors.New("pairs parser has no key separator")
	}
	pairs, err = trimTrailing(pairs, p.Trailing, p.KeepSpace)
	if err != nil {
		return nil, err
	}

	for _, pair := range pairs {
		if !p.KeepSpace {
			pair = strings.TrimSpace(pair)
		}
		rawKey, rawValue, found := strings.Cut(pair, p.KeySeparator)
		if !found {
			return nil, errors.Errorf("pair %q has no %q separator", pair, p.KeySeparator)
		}
		if p.ValueFirst {
			rawKey, rawValue = rawValue, rawKey
		}
		if !p.KeepSpace {
			rawKey = strings.TrimSpace(rawKey)
			rawValue = strings.TrimSpace(rawValue)
		}

		key, err := p.Key(rawKey)
		if err != nil {
			return nil, errors.Wrapf(err, "key %q", rawKey)
		}
		if _, dup := out[key]; dup {
			return nil, errors.Errorf("duplicate key %q", rawKey)
		}

		parseValue := p.Value
		if byKey, ok := p.ValueOf[key]; ok {
			parseValue = byKey
		}
		if parseValue == nil {
			return nil, errors.Errorf("no value parser for key %q", rawKey)
		}
		value, err := parseValue(rawValue)
		if err != nil {
			return nil, errors.Wrapf(err, "value for key %q", rawKey)
		}
		out[key] = value
	}
	return out, nil
}

// Pairs parses pairSeparator-delimited key-value payloads such as "a=1;b=2"
// into a map, rejecting repeated keys.
func Pairs[K comparable, V any](pairSeparator, keySeparator string, key Parser[K], value Parser[V]) Parser[map[K]V] {
	p := PairsParser[K, V]{
		PairSeparator: pairSeparator,
		KeySeparator:  keySeparator,
		Key:           key,
		Value:         value,
	}
	return p.Parse
}

// FindParser parses payloads by repeated application of a regular
// expression. The matches must tile the payload completely: any gap between
// consecutive matches, before the first or after the last is an error.
//
// Element receives the submatches of one match (index 0 is the whole match)
// and produces one output element.
type FindParser[T any] struct {
	Pattern *regexp.Regexp
	Element func(match []string) (T, error)
	// Opener and Closer are literal brackets around the whole payload.
	Opener string
	Closer string
}

// Parse implements Parser[[]T].
func (p FindParser[T]) Parse(raw string) ([]T, error) {
	payload, err := unwrap(raw, p.Opener, p.Closer, true)
	if err != nil {
		return nil, err
	}
	if payload == "" {
		return []T{}, nil
	}

	indices := p.Pattern.FindAllStringSubmatchIndex(payload, -1)
	out := make([]T, 0, len(indices))
	next := 0
	for _, idx := range indices {
		if idx[0] != next {
			return nil, errors.Errorf("unparsed input at offset %d: %q", next, payload[next:idx[0]])
		}
		next = idx[1]

		groups := make([]string, 0, len(idx)/2)
		for g := 0; g < len(idx); g += 2 {
			if idx[g] < 0 {
				groups = append(groups, "")
				continue
			}
			groups = append(groups, payload[idx[g]:idx[g+1]])
		}
		value, err := p.Element(groups)
		if err != nil {
			return nil, errors.Wrapf(err, "match at offset %d", idx[0])
		}
		out = append(out, value)
	}
	if next != len(payload) {
		return nil, errors.Errorf("unparsed input at offset %d: %q", next, payload[next:])
	}
	return out, nil
}

// FindAll parses payloads tiled by pattern, applying element to the
// submatches of each match.
func FindAll[T any](pattern *regexp.Regexp, element func(match []string) (T, error)) Parser[[]T] {
	return FindParser[T]{Pattern: pattern, Element: element}.Parse
}

// trimTrailing applies the trailing-delimiter policy to freshly split
// pieces. A trailing delimiter leaves one empty piece at the end, empty
// after the same whitespace treatment the pieces themselves get.
func trimTrailing(pieces []string, policy TrailingPolicy, keepSpace bool) ([]string, error) {
	last := pieces[len(pieces)-1]
	if !keepSpace {
		last = strings.TrimSpace(last)
	}
	if last != "" {
		if policy == TrailingRequire {
			return nil, errors.New("expected trailing delimiter")
		}
		return pieces, nil
	}
	if policy == TrailingForbid {
		return nil, errors.New("unexpected trailing delimiter")
	}
	return pieces[:len(pieces)-1], nil
}

// unwrap removes the opener and closer brackets and, unless keepSpace is
// set, the surrounding whitespace of the remaining payload.
func unwrap(raw, opener, closer string, keepSpace bool) (string, error) {
	payload := raw
	if !keepSpace {
		payload = strings.TrimSpace(payload)
	}
	if opener != "" {
		if !strings.HasPrefix(payload, opener) {
			return "", errors.Errorf("expected payload to start with %q", opener)
		}
		payload = payload[len(opener):]
	}
	if closer != "" {
		if !strings.HasSuffix(payload, closer) {
			return "", errors.Errorf("expected payload to end with %q", closer)
		}
		payload = payload[:len(payload)-len(closer)]
	}
	if !keepSpace {
		payload = strings.TrimSpace(payload)
	}
	return payload, nil
}
