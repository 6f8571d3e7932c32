package vdom

// PatchKind classifies one Patch operation in a differ output stream.
type PatchKind int

const (
	PatchInitialize PatchKind = iota
	PatchUpdateText
	PatchUpdateAttributes
	PatchUpdateStyles
	PatchReplaceNode
	PatchCreateNode
	PatchRemoveNode
	PatchMoveNode
	PatchAddStyleRule
	PatchRemoveStyleRule
	PatchUpdateFrame
)

func (k PatchKind) String() string {
	switch k {
	case PatchInitialize:
		return "initialize"
	case PatchUpdateText:
		return "update_text"
	case PatchUpdateAttributes:
		return "update_attributes"
	case PatchUpdateStyles:
		return "update_styles"
	case PatchReplaceNode:
		return "replace_node"
	case PatchCreateNode:
		return "create_node"
	case PatchRemoveNode:
		return "remove_node"
	case PatchMoveNode:
		return "move_node"
	case PatchAddStyleRule:
		return "add_style_rule"
	case PatchRemoveStyleRule:
		return "remove_style_rule"
	case PatchUpdateFrame:
		return "update_frame"
	default:
		return "unknown"
	}
}

// Patch is one step of a diff between two VDocuments, addressed by the
// SemanticID of the node it targets. The differ never emits position-only
// addressing: a node that moved among siblings but kept its SemanticID is a
// MoveNode patch, not a RemoveNode+CreateNode pair.
type Patch struct {
	Kind PatchKind
	ID   SemanticID

	// PatchInitialize carries the whole multi-root VDocument a new
	// subscriber starts from, one VNode per framed public component.
	Doc *VDocument

	// PatchCreateNode, PatchReplaceNode
	Node *VNode

	// PatchUpdateText
	Text string

	// PatchUpdateAttributes
	Attributes map[string]string
	// RemovedAttrs lists attribute keys present before and absent after.
	RemovedAttrs []string

	// PatchUpdateStyles
	ClassNames []string

	// PatchMoveNode: new sibling index under the same parent
	NewIndex int

	// PatchAddStyleRule, PatchRemoveStyleRule
	Rule CssRule

	// PatchUpdateFrame: the root's new canvas bounds.
	Frame *FrameBounds

	// ParentID addresses the parent for CreateNode/MoveNode, where ID alone
	// (the new/moved node's own identity) isn't enough to place it.
	ParentID SemanticID
}
