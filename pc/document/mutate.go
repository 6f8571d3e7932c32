package document

import (
	"math"
	"sort"

	"github.com/c360studio/pcforge/pc/ast"
	"github.com/c360studio/pcforge/pc/eval"
	"github.com/c360studio/pcforge/pc/vdom"
)

// textEdit is a span-local replacement against the document's current
// source text, addressed by byte offset the way ast.Span reports it.
type textEdit struct {
	Start, End  uint32
	Replacement string
}

// translateMutation resolves m against the document's current parsed tree
// and its last evaluation, producing the text edit(s) that implement it.
// It mutates the in-memory AST copy directly (d.ast is about to be
// discarded by the reparse ApplyMutation triggers on success, so this is safe) and
// reserializes just the smallest containing node, leaving everything
// outside that span byte-exact. It never touches the CRDT itself.
func (d *Document) translateMutation(ev *eval.Evaluator, m Mutation) ([]textEdit, *MutationError) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.parseErr != nil {
		return nil, &MutationError{Kind: InvalidTarget, Reason: "document does not currently parse"}
	}

	vdoc, err := ev.EvaluateDocument(d.Path)
	if err != nil {
		return nil, &MutationError{Kind: InvalidTarget, Reason: err.Error()}
	}
	vnodes := indexVNodes(vdoc)
	astIdx := buildASTIndex(d.ast)

	resolve := func(id vdom.SemanticID) *astNode {
		vn, ok := vnodes[id.String()]
		if !ok {
			return nil
		}
		return astIdx[vn.SourceSpan]
	}

	switch m.Kind {
	case MutUpdateText:
		target := resolve(m.Node)
		if target == nil {
			return nil, &MutationError{Kind: InvalidTarget, Reason: "target node not found"}
		}
		text, ok := target.el.(*ast.Text)
		if !ok {
			return nil, &MutationError{Kind: InvalidTarget, Reason: "target is not a text element"}
		}
		text.Content = &ast.Literal{Kind: ast.LitString, Str: m.Content}
		return []textEdit{editForNode(target)}, nil

	case MutSetAttribute:
		target := resolve(m.Node)
		if target == nil {
			return nil, &MutationError{Kind: InvalidTarget, Reason: "target node not found"}
		}
		if m.Name == "" {
			return nil, &MutationError{Kind: InvalidTarget, Reason: "attribute name must not be empty"}
		}
		switch e := target.el.(type) {
		case *ast.Tag:
			if e.Attributes == nil {
				e.Attributes = map[string]ast.Expression{}
			}
			e.Attributes[m.Name] = &ast.Literal{Kind: ast.LitString, Str: m.Value}
		case *ast.Instance:
			if e.Props == nil {
				e.Props = map[string]ast.Expression{}
			}
			e.Props[m.Name] = &ast.Literal{Kind: ast.LitString, Str: m.Value}
		default:
			return nil, &MutationError{Kind: InvalidTarget, Reason: "target is not an element"}
		}
		return []textEdit{editForNode(target)}, nil

	case MutSetInlineStyle, MutDeleteInlineStyle:
		target := resolve(m.Node)
		if target == nil {
			return nil, &MutationError{Kind: InvalidTarget, Reason: "target node not found"}
		}
		tag, ok := target.el.(*ast.Tag)
		if !ok {
			return nil, &MutationError{Kind: InvalidTarget, Reason: "target is not a stylable element"}
		}
		if m.Property == "" {
			return nil, &MutationError{Kind: InvalidTarget, Reason: "style property must not be empty"}
		}
		sb := firstUnconditionalStyle(tag)
		if m.Kind == MutSetInlineStyle {
			if sb == nil {
				sb = &ast.StyleBlock{Properties: map[string]ast.Expression{}}
				tag.Styles = append([]*ast.StyleBlock{sb}, tag.Styles...)
			}
			if sb.Properties == nil {
				sb.Properties = map[string]ast.Expression{}
			}
			if _, exists := sb.Properties[m.Property]; !exists {
				sb.PropertyOrder = append(sb.PropertyOrder, m.Property)
			}
			sb.Properties[m.Property] = &ast.Literal{Kind: ast.LitString, Str: m.Value}
		} else {
			if sb == nil {
				return nil, &MutationError{Kind: InvalidTarget, Reason: "no inline style block to delete from"}
			}
			if _, exists := sb.Properties[m.Property]; !exists {
				return nil, &MutationError{Kind: InvalidTarget, Reason: "property not set"}
			}
			delete(sb.Properties, m.Property)
			sb.PropertyOrder = removeString(sb.PropertyOrder, m.Property)
		}
		return []textEdit{editForNode(target)}, nil

	case MutRemoveNode:
		target := resolve(m.Node)
		if target == nil {
			return nil, &MutationError{Kind: InvalidRemoval, Reason: "target node not found"}
		}
		if target.parent == nil {
			return nil, &MutationError{Kind: InvalidRemoval, Reason: "cannot remove a component's required render root"}
		}
		setElementChildren(target.parent.el, removeElement(elementChildren(target.parent.el), target.span.ID))
		return []textEdit{editForNode(target.parent)}, nil

	case MutMoveElement:
		target := resolve(m.Node)
		if target == nil {
			return nil, &MutationError{Kind: InvalidMove, Reason: "target node not found"}
		}
		if target.parent == nil {
			return nil, &MutationError{Kind: InvalidMove, Reason: "cannot move a component's required render root"}
		}
		newParent := resolve(m.NewParent)
		if newParent == nil {
			return nil, &MutationError{Kind: InvalidMove, Reason: "new parent not found"}
		}
		if isDescendantOrSelf(target, newParent) {
			return nil, &MutationError{Kind: InvalidMove, Reason: "new parent is the target or a descendant of it"}
		}
		if rootOf(target) != rootOf(newParent) {
			return nil, &MutationError{Kind: InvalidMove, Reason: "cannot move an element into a different component"}
		}
		if m.Index < 0 || m.Index > len(elementChildren(newParent.el)) {
			return nil, &MutationError{Kind: InvalidMove, Reason: "index out of range"}
		}

		sameParent := target.parent == newParent
		setElementChildren(target.parent.el, removeElement(elementChildren(target.parent.el), target.span.ID))

		dest := elementChildren(newParent.el)
		idx := m.Index
		if idx > len(dest) {
			idx = len(dest)
		}
		updated := make([]ast.Element, 0, len(dest)+1)
		updated = append(updated, dest[:idx]...)
		updated = append(updated, target.el)
		updated = append(updated, dest[idx:]...)
		setElementChildren(newParent.el, updated)

		if sameParent {
			return []textEdit{editForNode(target.parent)}, nil
		}
		return []textEdit{editForNode(rootOf(target))}, nil

	case MutInsertElement:
		parent := resolve(m.Parent)
		if parent == nil {
			return nil, &MutationError{Kind: InvalidInsert, Reason: "parent not found"}
		}
		children := elementChildren(parent.el)
		if m.Index < 0 || m.Index > len(children) {
			return nil, &MutationError{Kind: InvalidInsert, Reason: "index out of range"}
		}
		fragment, err := parseElementFragment(m.Element)
		if err != nil {
			return nil, &MutationError{Kind: InvalidInsert, Reason: "malformed element: " + err.Error()}
		}
		updated := make([]ast.Element, 0, len(children)+1)
		updated = append(updated, children[:m.Index]...)
		updated = append(updated, fragment)
		updated = append(updated, children[m.Index:]...)
		setElementChildren(parent.el, updated)
		return []textEdit{editForNode(parent)}, nil

	case MutSetFrameBounds:
		target := resolve(m.Node)
		if target == nil || target.comp == nil || target.parent != nil {
			return nil, &MutationError{Kind: InvalidFrame, Reason: "frame not found"}
		}
		if target.comp.Frame == nil {
			return nil, &MutationError{Kind: InvalidFrame, Reason: "component has no frame"}
		}
		for _, v := range []float64{m.Frame.X, m.Frame.Y, m.Frame.Width, m.Frame.Height} {
			if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
				return nil, &MutationError{Kind: InvalidFrame, Reason: "frame bounds must be finite and non-negative"}
			}
		}
		fm := target.comp.Frame
		edit := textEdit{Start: fm.Span.Start, End: fm.Span.End}
		fm.X, fm.Y, fm.Width, fm.Height = m.Frame.X, m.Frame.Y, m.Frame.Width, m.Frame.Height
		edit.Replacement = serializeFrameMeta(fm)
		return []textEdit{edit}, nil

	default:
		return nil, &MutationError{Kind: InvalidTarget, Reason: "unknown mutation kind"}
	}
}

// canResolveMutation reports whether m would still pass translateMutation's
// preconditions against the document's current state, without mutating
// anything. It is the read-only counterpart EditSession.Reject uses to
// decide whether a rebased pending mutation is still applicable: calling
// translateMutation itself for this purpose would mutate the live AST as a
// side effect and leave that edit stranded, never spliced into the CRDT or
// reparsed.
func (d *Document) canResolveMutation(ev *eval.Evaluator, m Mutation) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.parseErr != nil {
		return false
	}
	vdoc, err := ev.EvaluateDocument(d.Path)
	if err != nil {
		return false
	}
	vnodes := indexVNodes(vdoc)
	astIdx := buildASTIndex(d.ast)

	resolve := func(id vdom.SemanticID) *astNode {
		vn, ok := vnodes[id.String()]
		if !ok {
			return nil
		}
		return astIdx[vn.SourceSpan]
	}

	switch m.Kind {
	case MutUpdateText:
		target := resolve(m.Node)
		if target == nil {
			return false
		}
		_, ok := target.el.(*ast.Text)
		return ok

	case MutSetAttribute:
		target := resolve(m.Node)
		if target == nil || m.Name == "" {
			return false
		}
		switch target.el.(type) {
		case *ast.Tag, *ast.Instance:
			return true
		default:
			return false
		}

	case MutSetInlineStyle, MutDeleteInlineStyle:
		target := resolve(m.Node)
		if target == nil || m.Property == "" {
			return false
		}
		tag, ok := target.el.(*ast.Tag)
		if !ok {
			return false
		}
		sb := firstUnconditionalStyle(tag)
		if m.Kind == MutSetInlineStyle {
			return true
		}
		if sb == nil {
			return false
		}
		_, exists := sb.Properties[m.Property]
		return exists

	case MutRemoveNode:
		target := resolve(m.Node)
		return target != nil && target.parent != nil

	case MutMoveElement:
		target := resolve(m.Node)
		if target == nil || target.parent == nil {
			return false
		}
		newParent := resolve(m.NewParent)
		if newParent == nil {
			return false
		}
		if isDescendantOrSelf(target, newParent) {
			return false
		}
		if rootOf(target) != rootOf(newParent) {
			return false
		}
		return m.Index >= 0 && m.Index <= len(elementChildren(newParent.el))

	case MutInsertElement:
		parent := resolve(m.Parent)
		if parent == nil {
			return false
		}
		if m.Index < 0 || m.Index > len(elementChildren(parent.el)) {
			return false
		}
		_, err := parseElementFragment(m.Element)
		return err == nil

	case MutSetFrameBounds:
		target := resolve(m.Node)
		if target == nil || target.comp == nil || target.parent != nil || target.comp.Frame == nil {
			return false
		}
		for _, v := range []float64{m.Frame.X, m.Frame.Y, m.Frame.Width, m.Frame.Height} {
			if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
				return false
			}
		}
		return true

	default:
		return false
	}
}

func editForNode(n *astNode) textEdit {
	return textEdit{Start: n.span.Start, End: n.span.End, Replacement: serializeElement(n.el)}
}

func firstUnconditionalStyle(t *ast.Tag) *ast.StyleBlock {
	for _, sb := range t.Styles {
		if sb.Variant == nil {
			return sb
		}
	}
	return nil
}

func removeString(ss []string, target string) []string {
	out := ss[:0]
	for _, s := range ss {
		if s != target {
			out = append(out, s)
		}
	}
	return out
}

func removeElement(els []ast.Element, spanID string) []ast.Element {
	var out []ast.Element
	for _, el := range els {
		if el.SpanOf().ID != spanID {
			out = append(out, el)
		}
	}
	return out
}

// applyTextEdits splices every edit into text, converting each edit's byte
// offsets (as the parser reports them) to the UTF-8 rune offsets the
// CRDT's Splice expects. Edits are applied in descending byte order so an
// earlier edit's length change never invalidates a later edit's
// already-computed offset.
func (d *Document) applyTextEdits(text string, edits []textEdit) error {
	sorted := append([]textEdit{}, edits...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start > sorted[j].Start })

	for _, e := range sorted {
		startRune := runeOffset(text, e.Start)
		endRune := runeOffset(text, e.End)
		if err := d.crdt.Splice(startRune, endRune-startRune, e.Replacement); err != nil {
			return err
		}
	}
	return nil
}

// runeOffset converts a byte offset into text to the corresponding rune
// offset, matching the CRDT's rune-addressed Splice.
func runeOffset(text string, byteOffset uint32) int {
	count := 0
	for i := range text {
		if uint32(i) >= byteOffset {
			return count
		}
		count++
	}
	return count
}
