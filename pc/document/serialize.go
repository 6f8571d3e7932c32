package document

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/c360studio/pcforge/pc/ast"
)

// serializeElement renders el (and, recursively, its descendants) back into
// .pc source syntax. It is the inverse of ast.Parse for a single element: a
// mutation mutates the in-memory struct directly, then this renders just
// that node's span so the edit can be spliced over the node's original
// byte range, leaving the rest of the file untouched.
func serializeElement(el ast.Element) string {
	switch e := el.(type) {
	case *ast.Text:
		return "text " + serializeExpr(e.Content)
	case *ast.Comment:
		return "// " + e.Text
	case *ast.SlotInsert:
		return e.Name
	case *ast.Tag:
		return serializeTag(e)
	case *ast.Instance:
		return serializeInstance(e)
	case *ast.If:
		return fmt.Sprintf("if %s { %s }", serializeExpr(e.Condition), serializeElements(e.Then))
	case *ast.Repeat:
		var b strings.Builder
		fmt.Fprintf(&b, "repeat %s in %s", e.ItemName, serializeExpr(e.Items))
		if e.Key != nil {
			fmt.Fprintf(&b, " key = %s", serializeExpr(e.Key))
		}
		fmt.Fprintf(&b, " { %s }", serializeElements(e.Body))
		return b.String()
	case *ast.Insert:
		return fmt.Sprintf("insert %s { %s }", e.SlotName, serializeElements(e.Children))
	default:
		return ""
	}
}

func serializeElements(els []ast.Element) string {
	parts := make([]string, len(els))
	for i, el := range els {
		parts[i] = serializeElement(el)
	}
	return strings.Join(parts, " ")
}

func serializeTag(t *ast.Tag) string {
	var b strings.Builder
	b.WriteString(t.Name)
	if len(t.Attributes) > 0 {
		b.WriteByte('(')
		b.WriteString(serializeAttrs(t.Attributes))
		b.WriteByte(')')
	}
	b.WriteString(" { ")
	for _, sb := range t.Styles {
		b.WriteString(serializeStyleBlock(sb))
		b.WriteString(" ")
	}
	b.WriteString(serializeElements(t.Children))
	b.WriteString(" }")
	return b.String()
}

func serializeInstance(i *ast.Instance) string {
	var b strings.Builder
	b.WriteString(i.Name)
	if len(i.Props) > 0 {
		b.WriteByte('(')
		b.WriteString(serializeAttrs(i.Props))
		b.WriteByte(')')
	}
	if len(i.Children) > 0 {
		b.WriteString(" { ")
		b.WriteString(serializeElements(i.Children))
		b.WriteString(" }")
	}
	return b.String()
}

func serializeAttrs(attrs map[string]ast.Expression) string {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s = %s", k, serializeExpr(attrs[k]))
	}
	return strings.Join(parts, ", ")
}

func serializeStyleBlock(sb *ast.StyleBlock) string {
	var b strings.Builder
	b.WriteString("style ")
	if sb.Variant != nil {
		b.WriteString("variant ")
		b.WriteString(strings.Join(sb.Variant.Names, " + "))
		b.WriteString(" ")
	}
	if len(sb.Extends) > 0 {
		b.WriteString("extends ")
		b.WriteString(strings.Join(sb.Extends, ", "))
		b.WriteString(" ")
	}
	b.WriteString("{ ")
	for _, k := range sb.PropertyOrder {
		expr, ok := sb.Properties[k]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "%s: %s ", k, serializeExpr(expr))
	}
	b.WriteString("}")
	return b.String()
}

func serializeFrameMeta(fm *ast.FrameMeta) string {
	return fmt.Sprintf("@frame { x: %s, y: %s, width: %s, height: %s }",
		formatNum(fm.X), formatNum(fm.Y), formatNum(fm.Width), formatNum(fm.Height))
}

func formatNum(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func serializeExpr(e ast.Expression) string {
	switch v := e.(type) {
	case *ast.Literal:
		switch v.Kind {
		case ast.LitString:
			return strconv.Quote(v.Str)
		case ast.LitNumber:
			return formatNum(v.Num)
		case ast.LitBool:
			return strconv.FormatBool(v.Bool)
		}
		return ""
	case *ast.Variable:
		return v.Name
	case *ast.MemberAccess:
		return serializeExpr(v.Base) + "." + strings.Join(v.Path, ".")
	case *ast.BinaryOp:
		return fmt.Sprintf("%s %s %s", serializeExpr(v.LHS), v.Op, serializeExpr(v.RHS))
	case *ast.Call:
		args := make([]string, len(v.Args))
		for i, a := range v.Args {
			args[i] = serializeExpr(a)
		}
		return fmt.Sprintf("%s(%s)", v.Name, strings.Join(args, ", "))
	case *ast.Template:
		var b strings.Builder
		b.WriteByte('"')
		for i, lit := range v.Literals {
			b.WriteString(lit)
			if i < len(v.Exprs) {
				b.WriteString("${")
				b.WriteString(serializeExpr(v.Exprs[i]))
				b.WriteString("}")
			}
		}
		b.WriteByte('"')
		return b.String()
	default:
		return ""
	}
}
