// Package vdom defines the evaluated document model: VNode trees, semantic
// identity, CSS rules, and the patch operations the differ emits between
// two evaluations of the same document.
package vdom

import "strings"

// SegmentKind classifies one step of a SemanticID path.
type SegmentKind int

const (
	SegComponent SegmentKind = iota
	SegElement
	SegSlot
	SegRepeatItem
	SegConditionalBranch
)

func (k SegmentKind) String() string {
	switch k {
	case SegComponent:
		return "component"
	case SegElement:
		return "element"
	case SegSlot:
		return "slot"
	case SegRepeatItem:
		return "repeat"
	case SegConditionalBranch:
		return "if"
	default:
		return "unknown"
	}
}

// SemanticSegment is one step of a node's identity path: what kind of
// structural position it occupies, and a disambiguating name or key.
//
// RepeatItem segments carry Key (the caller-supplied key expression result,
// stringified) when the repeat has a `key=` clause, or Index as a fallback
// when it doesn't. Index-fallback segments are flagged with IndexKeyed,
// which String renders as "#N" instead of "[key]".
type SemanticSegment struct {
	Kind         SegmentKind
	Name         string // component name, element tag, slot name, or variant/branch name
	Key          string // repeat item key, when present
	Index        int    // repeat item fallback index, or sibling ordinal for elements
	IndexKeyed   bool   // true when Index (not Key) disambiguates a RepeatItem segment
}

// SemanticID is the full structural path identifying a VNode independent of
// its position among siblings. Two evaluations of the same document produce
// identical SemanticIDs for nodes in the "same" structural place, which is
// what lets the differ match nodes across a re-evaluation.
type SemanticID struct {
	Segments []SemanticSegment
}

// String renders the SemanticID as a stable dotted path, used both as the
// differ's match key and as the deterministic input to class-name
// generation.
func (id SemanticID) String() string {
	var b strings.Builder
	for i, seg := range id.Segments {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(seg.Kind.String())
		b.WriteByte(':')
		b.WriteString(seg.Name)
		switch {
		case seg.Kind == SegRepeatItem && !seg.IndexKeyed:
			b.WriteByte('[')
			b.WriteString(seg.Key)
			b.WriteByte(']')
		case seg.Kind == SegRepeatItem && seg.IndexKeyed:
			b.WriteByte('#')
			b.WriteString(itoa(seg.Index))
		case seg.Kind == SegElement && seg.Index > 0:
			b.WriteByte('#')
			b.WriteString(itoa(seg.Index))
		}
	}
	return b.String()
}

// Child derives the SemanticID of a structural child by appending one
// segment. The receiver is never mutated; callers build a path top-down as
// they walk the AST during evaluation.
func (id SemanticID) Child(seg SemanticSegment) SemanticID {
	next := make([]SemanticSegment, len(id.Segments)+1)
	copy(next, id.Segments)
	next[len(id.Segments)] = seg
	return SemanticID{Segments: next}
}

// ClassName derives the CSS class name for this identity, used by the
// evaluator to keep generated class names in lockstep with generated style
// rules and by the differ to recognize a style rule's owning node.
func (id SemanticID) ClassName() string {
	return "pc-" + hashString(id.String())
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
