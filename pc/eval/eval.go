package eval

import (
	"fmt"
	"sort"
	"strings"

	"github.com/c360studio/pcforge/pc/ast"
	"github.com/c360studio/pcforge/pc/bundle"
	"github.com/c360studio/pcforge/pc/vdom"
)

// Evaluator turns a parsed, bundled component tree into a vdom.VDocument.
// It never aborts on a single bad expression or unresolved reference:
// failures become a localized Error VNode and evaluation continues around
// it, so one broken binding in a large document never blanks the page.
type Evaluator struct {
	bundle  *bundle.Bundle
	devMode bool

	// Warnings accumulates non-fatal evaluation notices, currently just
	// index-fallback repeat keys. Cleared at the start of every Evaluate call.
	Warnings []string
}

// New creates an Evaluator over b. devMode enables warnings that are useful
// during authoring (index-fallback repeat keys) but noisy in production.
func New(b *bundle.Bundle, devMode bool) *Evaluator {
	return &Evaluator{bundle: b, devMode: devMode}
}

type pathStep struct {
	name  string
	index int
}

type slotBinding struct {
	elements []ast.Element
	env      *Env
}

// evalCtx carries the state that changes as evaluation descends into a
// component invocation: the active document (for bundle lookups), the
// component whose variants are in scope, slot bindings supplied by the
// caller, and the override set that can still apply to this subtree.
type evalCtx struct {
	ev        *Evaluator
	docPath   string
	comp      *ast.Component
	variants  map[string]bool
	slots     map[string]slotBinding
	pathStack []pathStep
	cssRules  *[]vdom.CssRule
	seenCSS   map[string]bool
}

// EvaluateComponent evaluates the public component name declared in path,
// with props bound as its root scope, and variants marking which trigger
// names are currently active.
func (ev *Evaluator) EvaluateComponent(path, name string, props map[string]Value, variants map[string]bool) (*vdom.VDocument, error) {
	ev.Warnings = nil
	comp, ok := ev.bundle.FindComponent(path, name)
	if !ok {
		errNode := &vdom.VNode{
			Kind: vdom.NodeError, ErrorKind: vdom.ErrUnknownComponent,
			ErrorMessage: "unknown component " + name,
		}
		return &vdom.VDocument{Nodes: []*vdom.VNode{errNode}}, nil
	}

	env := NewEnv()
	for k, v := range props {
		env.Set(k, v)
	}
	if variants == nil {
		variants = map[string]bool{}
	}

	var rules []vdom.CssRule
	ctx := &evalCtx{
		ev: ev, docPath: path, comp: comp, variants: variants,
		cssRules: &rules, seenCSS: map[string]bool{},
	}

	rootID := vdom.SemanticID{}.Child(vdom.SemanticSegment{Kind: vdom.SegComponent, Name: name})
	nodes := ctx.evalChildren(rootID, []ast.Element{comp.Body}, env)
	var root *vdom.VNode
	if len(nodes) > 0 {
		root = nodes[0]
		root.Frame = frameBoundsOf(comp)
	}
	var vnodes []*vdom.VNode
	if root != nil {
		vnodes = []*vdom.VNode{root}
	}
	return &vdom.VDocument{Nodes: vnodes, CssRules: rules}, nil
}

// EvaluateDocument evaluates every public component the document at path
// declares into one multi-root VDocument, one VNode per component, each
// carrying its own canvas frame bounds if it declared one. This is the
// whole-file counterpart to EvaluateComponent, used by subscribers that
// watch a document rather than a single named component.
func (ev *Evaluator) EvaluateDocument(path string) (*vdom.VDocument, error) {
	ev.Warnings = nil
	doc, ok := ev.bundle.Document(path)
	if !ok {
		return nil, fmt.Errorf("document not found: %s", path)
	}

	var rules []vdom.CssRule
	seenCSS := map[string]bool{}
	var nodes []*vdom.VNode
	for _, decl := range doc.Declarations {
		comp, ok := decl.(*ast.Component)
		if !ok || !comp.Public {
			continue
		}

		ctx := &evalCtx{
			ev: ev, docPath: path, comp: comp, variants: map[string]bool{},
			cssRules: &rules, seenCSS: seenCSS,
		}
		rootID := vdom.SemanticID{}.Child(vdom.SemanticSegment{Kind: vdom.SegComponent, Name: comp.Name})
		roots := ctx.evalChildren(rootID, []ast.Element{comp.Body}, NewEnv())
		if len(roots) == 0 {
			continue
		}
		root := roots[0]
		root.Frame = frameBoundsOf(comp)
		nodes = append(nodes, root)
	}
	return &vdom.VDocument{Nodes: nodes, CssRules: rules}, nil
}

func frameBoundsOf(comp *ast.Component) *vdom.FrameBounds {
	if comp.Frame == nil {
		return nil
	}
	return &vdom.FrameBounds{
		X: comp.Frame.X, Y: comp.Frame.Y,
		Width: comp.Frame.Width, Height: comp.Frame.Height,
	}
}

// evalChildren evaluates a sibling list, flattening control-flow elements
// (If, Repeat, SlotInsert) directly into the returned slice so their
// produced nodes become ordinary siblings of whatever surrounds them.
func (c *evalCtx) evalChildren(parentID vdom.SemanticID, elements []ast.Element, env *Env) []*vdom.VNode {
	var out []*vdom.VNode
	counts := map[string]int{}

	for _, el := range elements {
		switch e := el.(type) {
		case *ast.If:
			cond, err := evalExpression(e.Condition, env)
			if err != nil {
				out = append(out, c.errNode(parentID, counts, "if", err))
				continue
			}
			if Truthy(cond) {
				out = append(out, c.evalChildren(parentID, e.Then, env)...)
			}
			// falsy: elided entirely, no placeholder node

		case *ast.Repeat:
			out = append(out, c.evalRepeat(e, parentID, env)...)

		case *ast.SlotInsert:
			out = append(out, c.evalSlotInsert(e, parentID, counts)...)

		case *ast.Comment:
			// comments never reach the evaluated tree

		default:
			if node := c.evalSingleElement(el, parentID, counts, env); node != nil {
				out = append(out, node)
			}
		}
	}
	return out
}

func (c *evalCtx) evalRepeat(e *ast.Repeat, parentID vdom.SemanticID, env *Env) []*vdom.VNode {
	itemsVal, err := evalExpression(e.Items, env)
	if err != nil {
		return []*vdom.VNode{c.errNode(parentID, map[string]int{}, "repeat", err)}
	}
	items, ok := Iterable(itemsVal)
	if !ok {
		return []*vdom.VNode{c.errNode(parentID, map[string]int{}, "repeat", errNonIterable())}
	}

	var out []*vdom.VNode
	for i, item := range items {
		itemEnv := env.Child()
		itemEnv.Set(e.ItemName, item)

		var seg vdom.SemanticSegment
		if e.Key != nil {
			keyVal, err := evalExpression(e.Key, itemEnv)
			if err != nil {
				out = append(out, c.errNode(parentID, map[string]int{}, e.ItemName, err))
				continue
			}
			seg = vdom.SemanticSegment{Kind: vdom.SegRepeatItem, Name: e.ItemName, Key: ToString(keyVal)}
		} else {
			if c.ev.devMode {
				c.ev.Warnings = append(c.ev.Warnings,
					"repeat "+e.ItemName+" has no key= clause; falling back to index identity, which does not survive reordering")
			}
			seg = vdom.SemanticSegment{Kind: vdom.SegRepeatItem, Name: e.ItemName, Index: i, IndexKeyed: true}
		}
		childID := parentID.Child(seg)
		out = append(out, c.evalChildren(childID, e.Body, itemEnv)...)
	}
	return out
}

func (c *evalCtx) evalSlotInsert(e *ast.SlotInsert, parentID vdom.SemanticID, counts map[string]int) []*vdom.VNode {
	if binding, ok := c.slots[e.Name]; ok {
		return c.evalChildren(parentID, binding.elements, binding.env)
	}
	for _, slot := range c.comp.Slots {
		if slot.Name == e.Name && slot.Default != nil {
			return c.evalChildren(parentID, []ast.Element{slot.Default}, NewEnv())
		}
	}
	return []*vdom.VNode{c.errNode(parentID, counts, e.Name, errSlotMismatch(e.Name))}
}

func (c *evalCtx) errNode(parentID vdom.SemanticID, counts map[string]int, name string, err error) *vdom.VNode {
	ee, ok := err.(*EvalError)
	id := parentID.Child(c.nextSegment(vdom.SegElement, name, counts))
	if !ok {
		return &vdom.VNode{Kind: vdom.NodeError, ID: id, ErrorMessage: err.Error()}
	}
	return &vdom.VNode{Kind: vdom.NodeError, ID: id, ErrorKind: ee.Kind, ErrorMessage: ee.Message}
}

func (c *evalCtx) nextSegment(kind vdom.SegmentKind, name string, counts map[string]int) vdom.SemanticSegment {
	idx := counts[name]
	counts[name] = idx + 1
	return vdom.SemanticSegment{Kind: kind, Name: name, Index: idx}
}

func (c *evalCtx) evalSingleElement(el ast.Element, parentID vdom.SemanticID, counts map[string]int, env *Env) *vdom.VNode {
	switch e := el.(type) {
	case *ast.Text:
		id := parentID.Child(c.nextSegment(vdom.SegElement, "text", counts))
		v, err := evalExpression(e.Content, env)
		if err != nil {
			return c.errNode(parentID, counts, "text", err)
		}
		return &vdom.VNode{Kind: vdom.NodeText, ID: id, SourceSpan: e.Span.ID, Text: ToString(v)}

	case *ast.Tag:
		return c.evalTag(e, parentID, counts, env)

	case *ast.Instance:
		return c.evalInstance(e, parentID, counts, env)

	default:
		return nil
	}
}

func (c *evalCtx) pushStep(name string, counts map[string]int) []pathStep {
	idx := counts[name]
	next := make([]pathStep, len(c.pathStack)+1)
	copy(next, c.pathStack)
	next[len(c.pathStack)] = pathStep{name: name, index: idx}
	return next
}

func (c *evalCtx) matchingOverrides(stack []pathStep) []*ast.Override {
	var out []*ast.Override
	for _, path := range c.ev.bundle.Paths() {
		doc, ok := c.ev.bundle.Document(path)
		if !ok {
			continue
		}
		for _, decl := range doc.Declarations {
			if ov, ok := decl.(*ast.Override); ok && pathMatches(ov.Path, stack) {
				out = append(out, ov)
			}
		}
		for _, decl := range doc.Declarations {
			if comp, ok := decl.(*ast.Component); ok {
				for _, ov := range comp.Overrides {
					if pathMatches(ov.Path, stack) {
						out = append(out, ov)
					}
				}
			}
		}
	}
	return out
}

func pathMatches(path []ast.PathSegment, stack []pathStep) bool {
	if len(path) != len(stack) {
		return false
	}
	for i, seg := range path {
		if seg.Name != stack[i].name {
			return false
		}
		if seg.Index != nil && *seg.Index != stack[i].index {
			return false
		}
	}
	return true
}

func (c *evalCtx) evalTag(e *ast.Tag, parentID vdom.SemanticID, counts map[string]int, env *Env) *vdom.VNode {
	id := parentID.Child(c.nextSegment(vdom.SegElement, e.Name, counts))
	stack := c.pushStep(e.Name, counts)
	overrides := c.matchingOverrides(stack)

	attrs := map[string]string{}
	for k, expr := range e.Attributes {
		v, err := evalExpression(expr, env)
		if err != nil {
			continue
		}
		attrs[k] = ToString(v)
	}
	for _, ov := range overrides {
		for k, expr := range ov.Attributes {
			if v, err := evalExpression(expr, env); err == nil {
				attrs[k] = ToString(v)
			}
		}
	}

	styles := append([]*ast.StyleBlock{}, e.Styles...)
	for _, ov := range overrides {
		styles = append(styles, ov.Styles...)
	}
	classNames := c.resolveStyles(id, styles, env)

	childCtx := &evalCtx{ev: c.ev, docPath: c.docPath, comp: c.comp, variants: c.variants,
		slots: c.slots, pathStack: stack, cssRules: c.cssRules, seenCSS: c.seenCSS}
	children := childCtx.evalChildren(id, e.Children, env)

	return &vdom.VNode{
		Kind: vdom.NodeElement, ID: id, SourceSpan: e.Span.ID,
		Tag: e.Name, Attributes: attrs, ClassNames: classNames, Children: children,
	}
}

func (c *evalCtx) evalInstance(e *ast.Instance, parentID vdom.SemanticID, counts map[string]int, env *Env) *vdom.VNode {
	callee, ok := c.ev.bundle.FindComponent(c.docPath, e.Name)
	if !ok {
		return c.errNode(parentID, counts, e.Name, errUnknownComponent(e.Name))
	}

	id := parentID.Child(c.nextSegment(vdom.SegComponent, e.Name, counts))
	stack := c.pushStep(e.Name, counts)

	props := NewEnv()
	for k, expr := range e.Props {
		if v, err := evalExpression(expr, env); err == nil {
			props.Set(k, v)
		}
	}

	slots := map[string]slotBinding{}
	var unnamed []ast.Element
	for _, child := range e.Children {
		if ins, ok := child.(*ast.Insert); ok {
			slots[ins.SlotName] = slotBinding{elements: ins.Children, env: env}
			continue
		}
		unnamed = append(unnamed, child)
	}
	if len(unnamed) > 0 {
		slots["children"] = slotBinding{elements: unnamed, env: env}
	}

	childCtx := &evalCtx{
		ev: c.ev, docPath: c.docPath, comp: callee, variants: c.variants,
		slots: slots, pathStack: stack, cssRules: c.cssRules, seenCSS: c.seenCSS,
	}
	nodes := childCtx.evalChildren(id, []ast.Element{callee.Body}, props)
	if len(nodes) == 0 {
		return nil
	}
	return nodes[0]
}

// resolveStyles merges a Tag's own style blocks (each possibly `extends`ing
// a public style and/or gated by a `variant` combination) into the
// className list for id, registering one CssRule per distinct selector the
// first time it's seen in this evaluation.
func (c *evalCtx) resolveStyles(id vdom.SemanticID, blocks []*ast.StyleBlock, env *Env) []string {
	var classNames []string
	for _, sb := range blocks {
		if sb.Variant != nil && !c.variantsActive(sb.Variant.Names) {
			continue
		}

		props := map[string]string{}
		var order []string
		for _, extendName := range sb.Extends {
			if pub, ok := c.ev.bundle.FindStyle(c.docPath, extendName); ok {
				mergeProps(props, &order, pub.Style.Properties, pub.Style.PropertyOrder)
			}
		}
		localProps := map[string]Value{}
		for k, expr := range sb.Properties {
			v, _ := evalExpression(expr, env)
			localProps[k] = v
		}
		for _, k := range sb.PropertyOrder {
			if _, already := props[k]; !already {
				order = append(order, k)
			}
			props[k] = ToString(localProps[k])
		}

		selector := "." + id.ClassName()
		var media string
		if sb.Variant != nil {
			suffix, m := variantSelector(c, sb.Variant.Names)
			selector += suffix
			media = m
		}
		className := id.ClassName()
		classNames = append(classNames, className)

		ruleKey := media + "|" + selector
		if !c.seenCSS[ruleKey] {
			c.seenCSS[ruleKey] = true
			*c.cssRules = append(*c.cssRules, vdom.CssRule{
				OwnerID: id, Selector: selector, MediaQuery: media, Properties: props, PropertyOrder: order,
			})
		}
	}
	sort.Strings(classNames)
	return classNames
}

func mergeProps(dst map[string]string, order *[]string, src map[string]ast.Expression, srcOrder []string) {
	for _, k := range srcOrder {
		if _, ok := dst[k]; !ok {
			*order = append(*order, k)
		}
		v, _ := evalExpression(src[k], NewEnv())
		dst[k] = ToString(v)
	}
}

func (c *evalCtx) variantsActive(names []string) bool {
	for _, n := range names {
		if !c.variants[n] {
			return false
		}
	}
	return true
}

// variantSelector renders a component's declared triggers for the named
// variant combination into a class-selector suffix and, separately, a
// media-query wrapper. Each trigger branches on its leading character:
// "@" contributes to the media query rather than the selector; ":", ".",
// and "[" concatenate directly onto the element's class (they're already
// a valid selector fragment); anything else is a bare variant name and
// needs a leading "." to become a class selector.
func variantSelector(c *evalCtx, names []string) (suffix, media string) {
	for _, name := range names {
		for _, v := range c.comp.Variants {
			if v.Name != name {
				continue
			}
			for _, t := range v.Triggers {
				switch {
				case strings.HasPrefix(t, "@"):
					media = t
				case strings.HasPrefix(t, ":"), strings.HasPrefix(t, "."), strings.HasPrefix(t, "["):
					suffix += t
				default:
					suffix += "." + t
				}
			}
		}
	}
	return suffix, media
}
