package ast

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/c360studio/pcforge/pc/token"
)

// Parser is a recursive-descent parser over one file's token stream. It
// does not attempt error recovery: the first syntax error aborts parsing
// with a ParseError, and the embedder re-parses the whole file on the next
// change.
type Parser struct {
	src    []byte
	toks   []token.Token
	pos    int
	idgen  *IDGenerator
	path   string
	docID  string
	assets []AssetReference
}

// assetCallNames maps a Call expression's function name to the asset type
// it references, when used as an attribute value (e.g. src=image("x.png")).
var assetCallNames = map[string]AssetType{
	"image": AssetImage,
	"font":  AssetFont,
	"video": AssetVideo,
	"audio": AssetAudio,
	"asset": AssetOther,
}

// Parse parses src (the contents of path) into a Document AST.
func Parse(path string, src []byte) (*Document, error) {
	toks, err := token.Tokenize(src)
	if err != nil {
		if te, ok := err.(*token.Error); ok {
			return nil, &ParseError{Span: Span{Start: te.Pos, End: te.Pos}, Message: te.Message}
		}
		return nil, err
	}

	docID := DocID(path)
	p := &Parser{
		src:   src,
		toks:  toks,
		idgen: NewIDGenerator(docID),
		path:  path,
		docID: docID,
	}
	return p.parseDocument()
}

// --- token stream helpers ---

func (p *Parser) cur() token.Token  { return p.toks[p.pos] }
func (p *Parser) curKind() token.Kind { return p.toks[p.pos].Kind }

func (p *Parser) advance() token.Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) check(k token.Kind) bool { return p.curKind() == k }

func (p *Parser) expect(k token.Kind) (token.Token, error) {
	if !p.check(k) {
		return token.Token{}, p.errorf("expected %s, found %s %q", k, p.curKind(), p.cur().Text)
	}
	return p.advance(), nil
}

func (p *Parser) errorf(format string, args ...any) error {
	cur := p.cur()
	return &ParseError{
		Span:    Span{Start: cur.Start, End: cur.End},
		Message: fmt.Sprintf(format, args...),
	}
}

// --- document level ---

func (p *Parser) parseDocument() (*Document, error) {
	doc := &Document{Path: p.path, DocID: p.docID}

	var pendingFrame *FrameMeta

	for !p.check(token.EOF) {
		switch p.curKind() {
		case token.At:
			frame, err := p.parseFrameMeta()
			if err != nil {
				return nil, err
			}
			pendingFrame = frame
			continue

		case token.KwImport:
			decl, err := p.parseImport()
			if err != nil {
				return nil, err
			}
			doc.Declarations = append(doc.Declarations, decl)

		case token.KwToken:
			decl, err := p.parseTokenDecl()
			if err != nil {
				return nil, err
			}
			doc.Declarations = append(doc.Declarations, decl)

		case token.KwTrigger:
			decl, err := p.parseTriggerDecl()
			if err != nil {
				return nil, err
			}
			doc.Declarations = append(doc.Declarations, decl)

		case token.KwOverride:
			decl, err := p.parseOverride()
			if err != nil {
				return nil, err
			}
			doc.Declarations = append(doc.Declarations, decl)

		case token.KwPublic:
			// lookahead: `public style` or `public component`
			save := p.pos
			p.advance()
			switch p.curKind() {
			case token.KwStyle:
				decl, err := p.parsePublicStyle()
				if err != nil {
					return nil, err
				}
				doc.Declarations = append(doc.Declarations, decl)
			case token.KwComponent:
				comp, err := p.parseComponent(true, pendingFrame)
				pendingFrame = nil
				if err != nil {
					return nil, err
				}
				doc.Declarations = append(doc.Declarations, comp)
			default:
				p.pos = save
				return nil, p.errorf("expected 'style' or 'component' after 'public'")
			}

		case token.KwComponent:
			comp, err := p.parseComponent(false, pendingFrame)
			pendingFrame = nil
			if err != nil {
				return nil, err
			}
			doc.Declarations = append(doc.Declarations, comp)

		default:
			return nil, p.errorf("unexpected token %s at top level", p.curKind())
		}
	}

	doc.Assets = p.assets
	return doc, nil
}

func (p *Parser) parseFrameMeta() (*FrameMeta, error) {
	start := p.cur().Start
	p.advance() // @
	if _, err := p.expectIdentText("frame"); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LBrace); err != nil {
		return nil, err
	}
	fm := &FrameMeta{}
	for !p.check(token.RBrace) {
		name, err := p.expect(token.Ident)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Colon); err != nil {
			return nil, err
		}
		numTok, err := p.expect(token.Number)
		if err != nil {
			return nil, err
		}
		val := parseNumericPrefix(numTok.Text)
		switch name.Text {
		case "x":
			fm.X = val
		case "y":
			fm.Y = val
		case "width":
			fm.Width = val
		case "height":
			fm.Height = val
		}
		if p.check(token.Comma) {
			p.advance()
		}
	}
	end, err := p.expect(token.RBrace)
	if err != nil {
		return nil, err
	}
	fm.Span = p.idgen.Span(start, end.End)
	return fm, nil
}

func (p *Parser) expectIdentText(text string) (token.Token, error) {
	tok, err := p.expect(token.Ident)
	if err != nil {
		return tok, err
	}
	if tok.Text != text {
		return tok, p.errorf("expected %q, found %q", text, tok.Text)
	}
	return tok, nil
}

func (p *Parser) parseImport() (*Import, error) {
	start := p.cur().Start
	p.advance() // import
	pathTok, err := p.expect(token.String)
	if err != nil {
		return nil, err
	}
	imp := &Import{Path: pathTok.Text}
	if p.check(token.KwAs) {
		p.advance()
		alias, err := p.expect(token.Ident)
		if err != nil {
			return nil, err
		}
		imp.Alias = alias.Text
	}
	imp.Span = p.idgen.Span(start, p.prevEnd())
	return imp, nil
}

func (p *Parser) prevEnd() uint32 {
	if p.pos == 0 {
		return 0
	}
	return p.toks[p.pos-1].End
}

func (p *Parser) parseTokenDecl() (*TokenDecl, error) {
	start := p.cur().Start
	p.advance() // token
	name, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Equals); err != nil {
		return nil, err
	}
	val, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &TokenDecl{Span: p.idgen.Span(start, p.prevEnd()), Name: name.Text, Value: val}, nil
}

func (p *Parser) parseTriggerDecl() (*Trigger, error) {
	start := p.cur().Start
	p.advance() // trigger
	name, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Equals); err != nil {
		return nil, err
	}
	val, err := p.expect(token.String)
	if err != nil {
		return nil, err
	}
	return &Trigger{Span: p.idgen.Span(start, p.prevEnd()), Name: name.Text, Value: val.Text}, nil
}

func (p *Parser) parsePublicStyle() (*PublicStyle, error) {
	start := p.cur().Start
	p.advance() // style
	name, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	style, err := p.parseStyleBody()
	if err != nil {
		return nil, err
	}
	return &PublicStyle{Span: p.idgen.Span(start, p.prevEnd()), Name: name.Text, Style: style}, nil
}

func (p *Parser) parseComponent(public bool, frame *FrameMeta) (*Component, error) {
	start := p.cur().Start
	if public {
		// already consumed 'public'; current token is 'component'
	}
	p.advance() // component
	name, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LBrace); err != nil {
		return nil, err
	}

	comp := &Component{Name: name.Text, Public: public, Frame: frame}

	for !p.check(token.KwRender) {
		switch p.curKind() {
		case token.KwVariant:
			v, err := p.parseVariantDecl()
			if err != nil {
				return nil, err
			}
			comp.Variants = append(comp.Variants, v)
		case token.KwSlot:
			s, err := p.parseSlotDecl()
			if err != nil {
				return nil, err
			}
			comp.Slots = append(comp.Slots, s)
		case token.KwOverride:
			o, err := p.parseOverride()
			if err != nil {
				return nil, err
			}
			comp.Overrides = append(comp.Overrides, o)
		default:
			return nil, p.errorf("expected variant, slot, override, or render inside component %q, found %s", name.Text, p.curKind())
		}
	}

	p.advance() // render
	body, err := p.parseElement()
	if err != nil {
		return nil, err
	}
	comp.Body = body

	end, err := p.expect(token.RBrace)
	if err != nil {
		return nil, err
	}
	comp.Span = p.idgen.Span(start, end.End)
	return comp, nil
}

func (p *Parser) parseVariantDecl() (*VariantDecl, error) {
	start := p.cur().Start
	p.advance() // variant
	name, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LBrace); err != nil {
		return nil, err
	}
	v := &VariantDecl{Name: name.Text}
	for !p.check(token.RBrace) {
		if _, err := p.expect(token.KwTrigger); err != nil {
			return nil, err
		}
		trig, err := p.expect(token.String)
		if err != nil {
			return nil, err
		}
		v.Triggers = append(v.Triggers, trig.Text)
	}
	end, err := p.expect(token.RBrace)
	if err != nil {
		return nil, err
	}
	v.Span = p.idgen.Span(start, end.End)
	return v, nil
}

func (p *Parser) parseSlotDecl() (*SlotDecl, error) {
	start := p.cur().Start
	p.advance() // slot
	name, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LBrace); err != nil {
		return nil, err
	}
	s := &SlotDecl{Name: name.Text}
	if !p.check(token.RBrace) {
		el, err := p.parseElement()
		if err != nil {
			return nil, err
		}
		s.Default = el
	}
	end, err := p.expect(token.RBrace)
	if err != nil {
		return nil, err
	}
	s.Span = p.idgen.Span(start, end.End)
	return s, nil
}

func (p *Parser) parseOverride() (*Override, error) {
	start := p.cur().Start
	p.advance() // override
	path, err := p.parsePath()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LBrace); err != nil {
		return nil, err
	}
	o := &Override{Path: path, Attributes: map[string]Expression{}}
	for !p.check(token.RBrace) {
		if p.check(token.KwStyle) {
			sb, err := p.parseStyleBody()
			if err != nil {
				return nil, err
			}
			o.Styles = append(o.Styles, sb)
			continue
		}
		var name token.Token
		if p.check(token.KwText) {
			name = p.advance()
		} else if name, err = p.expect(token.Ident); err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Equals); err != nil {
			return nil, err
		}
		val, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		o.Attributes[name.Text] = val
	}
	end, err := p.expect(token.RBrace)
	if err != nil {
		return nil, err
	}
	o.Span = p.idgen.Span(start, end.End)
	return o, nil
}

func (p *Parser) parsePath() ([]PathSegment, error) {
	var segs []PathSegment
	for {
		name, err := p.expect(token.Ident)
		if err != nil {
			return nil, err
		}
		seg := PathSegment{Name: name.Text}
		if p.check(token.Dot) {
			// Peek: `.N` is a numeric index on the *previous* segment, not
			// the start of a new dotted segment.
			save := p.pos
			p.advance()
			if p.check(token.Number) {
				n, err := strconv.Atoi(p.cur().Text)
				if err == nil {
					p.advance()
					seg.Index = &n
					segs = append(segs, seg)
					if p.check(token.Dot) {
						p.advance()
						continue
					}
					break
				}
			}
			p.pos = save
		}
		segs = append(segs, seg)
		if p.check(token.Dot) {
			p.advance()
			continue
		}
		break
	}
	return segs, nil
}

// --- style blocks ---

func (p *Parser) parseStyleBody() (*StyleBlock, error) {
	start := p.cur().Start
	if p.check(token.KwStyle) {
		p.advance() // style; a public style's keyword and name are already consumed
	}
	sb := &StyleBlock{Properties: map[string]Expression{}}

	if p.check(token.KwVariant) {
		p.advance()
		comb, err := p.parseVariantCombination()
		if err != nil {
			return nil, err
		}
		sb.Variant = comb
	}

	if p.check(token.KwExtends) {
		p.advance()
		for {
			name, err := p.parseQName()
			if err != nil {
				return nil, err
			}
			sb.Extends = append(sb.Extends, name)
			if p.check(token.Comma) {
				p.advance()
				continue
			}
			break
		}
	}

	if _, err := p.expect(token.LBrace); err != nil {
		return nil, err
	}
	for !p.check(token.RBrace) {
		name, err := p.expect(token.Ident)
		if err != nil {
			return nil, err
		}
		propName := name.Text
		for p.check(token.Minus) {
			p.advance()
			part := p.advance()
			if token.LookupIdent(part.Text) != part.Kind {
				return nil, p.errorf("expected property name part after '-', found %s %q", part.Kind, part.Text)
			}
			propName += "-" + part.Text
		}
		if _, err := p.expect(token.Colon); err != nil {
			return nil, err
		}
		val, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		sb.Properties[propName] = val
		sb.PropertyOrder = append(sb.PropertyOrder, propName)
	}
	end, err := p.expect(token.RBrace)
	if err != nil {
		return nil, err
	}
	sb.Span = p.idgen.Span(start, end.End)
	return sb, nil
}

// parseQName parses a bare name or a dotted ns.name reference, as used by
// `extends` and other cross-file lookups: `alias` (local) or `alias.name`
// (follow the import aliased `alias`).
func (p *Parser) parseQName() (string, error) {
	first, err := p.expect(token.Ident)
	if err != nil {
		return "", err
	}
	name := first.Text
	if p.check(token.Dot) {
		p.advance()
		second, err := p.expect(token.Ident)
		if err != nil {
			return "", err
		}
		name += "." + second.Text
	}
	return name, nil
}

func (p *Parser) parseVariantCombination() (*VariantCombination, error) {
	comb := &VariantCombination{}
	for {
		name, err := p.expect(token.Ident)
		if err != nil {
			return nil, err
		}
		comb.Names = append(comb.Names, name.Text)
		if p.check(token.Plus) {
			p.advance()
			continue
		}
		break
	}
	return comb, nil
}

// --- elements ---

func (p *Parser) parseElement() (Element, error) {
	switch p.curKind() {
	case token.KwText:
		return p.parseText()
	case token.KwIf:
		return p.parseIf()
	case token.KwRepeat:
		return p.parseRepeat()
	case token.KwInsert:
		return p.parseInsert()
	case token.Ident:
		return p.parseTagOrInstanceOrSlotInsert()
	default:
		return nil, p.errorf("expected element, found %s", p.curKind())
	}
}

func (p *Parser) parseText() (*Text, error) {
	start := p.cur().Start
	p.advance() // text
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &Text{Span: p.idgen.Span(start, p.prevEnd()), Content: expr}, nil
}

func (p *Parser) parseIf() (*If, error) {
	start := p.cur().Start
	p.advance() // if
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	body, end, err := p.parseElementBlock()
	if err != nil {
		return nil, err
	}
	return &If{Span: p.idgen.Span(start, end), Condition: cond, Then: body}, nil
}

func (p *Parser) parseRepeat() (*Repeat, error) {
	start := p.cur().Start
	p.advance() // repeat
	item, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.KwIn); err != nil {
		return nil, err
	}
	items, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	rep := &Repeat{ItemName: item.Text, Items: items}
	if p.check(token.KwKey) {
		p.advance()
		if _, err := p.expect(token.Equals); err != nil {
			return nil, err
		}
		keyExpr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		rep.Key = keyExpr
	}
	body, end, err := p.parseElementBlock()
	if err != nil {
		return nil, err
	}
	rep.Body = body
	rep.Span = p.idgen.Span(start, end)
	return rep, nil
}

func (p *Parser) parseInsert() (*Insert, error) {
	start := p.cur().Start
	p.advance() // insert
	name, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	body, end, err := p.parseElementBlock()
	if err != nil {
		return nil, err
	}
	return &Insert{Span: p.idgen.Span(start, end), SlotName: name.Text, Children: body}, nil
}

func (p *Parser) parseElementBlock() ([]Element, uint32, error) {
	if _, err := p.expect(token.LBrace); err != nil {
		return nil, 0, err
	}
	var els []Element
	for !p.check(token.RBrace) {
		el, err := p.parseElement()
		if err != nil {
			return nil, 0, err
		}
		els = append(els, el)
	}
	end, err := p.expect(token.RBrace)
	if err != nil {
		return nil, 0, err
	}
	return els, end.End, nil
}

// parseTagOrInstanceOrSlotInsert disambiguates a bare Ident in element
// position: a capitalized name followed by `(` is an Instance; a name
// followed by `(` or `{` and starting lowercase is a Tag; a bare name with
// neither is a SlotInsert.
func (p *Parser) parseTagOrInstanceOrSlotInsert() (Element, error) {
	start := p.cur().Start
	nameTok := p.advance()
	name := nameTok.Text

	hasParens := p.check(token.LParen)
	var attrs map[string]Expression
	if hasParens {
		a, err := p.parseAttrList()
		if err != nil {
			return nil, err
		}
		attrs = a
	}

	isCapitalized := len(name) > 0 && name[0] >= 'A' && name[0] <= 'Z'

	if !hasParens && !p.check(token.LBrace) {
		return &SlotInsert{Span: p.idgen.Span(start, p.prevEnd()), Name: name}, nil
	}

	if isCapitalized {
		inst := &Instance{Name: name, Props: attrs}
		if p.check(token.LBrace) {
			p.advance()
			for !p.check(token.RBrace) {
				if p.check(token.KwInsert) {
					ins, err := p.parseInsert()
					if err != nil {
						return nil, err
					}
					inst.Children = append(inst.Children, ins)
					continue
				}
				el, err := p.parseElement()
				if err != nil {
					return nil, err
				}
				inst.Children = append(inst.Children, el)
			}
			end, err := p.expect(token.RBrace)
			if err != nil {
				return nil, err
			}
			inst.Span = p.idgen.Span(start, end.End)
		} else {
			inst.Span = p.idgen.Span(start, p.prevEnd())
		}
		return inst, nil
	}

	// Tag
	tag := &Tag{Name: name, Attributes: attrs}
	if p.check(token.LBrace) {
		p.advance()
		for !p.check(token.RBrace) {
			if p.check(token.KwStyle) {
				sb, err := p.parseStyleBody()
				if err != nil {
					return nil, err
				}
				tag.Styles = append(tag.Styles, sb)
				continue
			}
			el, err := p.parseElement()
			if err != nil {
				return nil, err
			}
			tag.Children = append(tag.Children, el)
		}
		end, err := p.expect(token.RBrace)
		if err != nil {
			return nil, err
		}
		tag.Span = p.idgen.Span(start, end.End)
	} else {
		tag.Span = p.idgen.Span(start, p.prevEnd())
	}
	return tag, nil
}

func (p *Parser) parseAttrList() (map[string]Expression, error) {
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	attrs := map[string]Expression{}
	for !p.check(token.RParen) {
		name, err := p.expect(token.Ident)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Equals); err != nil {
			return nil, err
		}
		val, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		attrs[name.Text] = val
		p.collectAsset(val)
		if p.check(token.Comma) {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	return attrs, nil
}

func (p *Parser) collectAsset(expr Expression) {
	call, ok := expr.(*Call)
	if !ok {
		return
	}
	kind, ok := assetCallNames[call.Name]
	if !ok || len(call.Args) != 1 {
		return
	}
	lit, ok := call.Args[0].(*Literal)
	if !ok || lit.Kind != LitString {
		return
	}
	p.assets = append(p.assets, AssetReference{
		LogicalPath: lit.Str,
		AssetType:   kind,
		SourceFile:  p.path,
	})
}

// --- expressions (precedence climbing) ---

var binaryPrecedence = map[token.Kind]int{
	token.OrOr:   1,
	token.AndAnd: 2,
	token.EqEq:   3, token.NotEq: 3,
	token.Lt: 4, token.LtEq: 4, token.Gt: 4, token.GtEq: 4,
	token.Plus: 5, token.Minus: 5,
	token.Star: 6, token.Slash: 6,
}

var opText = map[token.Kind]string{
	token.OrOr: "||", token.AndAnd: "&&",
	token.EqEq: "==", token.NotEq: "!=",
	token.Lt: "<", token.LtEq: "<=", token.Gt: ">", token.GtEq: ">=",
	token.Plus: "+", token.Minus: "-", token.Star: "*", token.Slash: "/",
}

func (p *Parser) parseExpression() (Expression, error) {
	return p.parseBinary(0)
}

func (p *Parser) parseBinary(minPrec int) (Expression, error) {
	lhs, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		prec, ok := binaryPrecedence[p.curKind()]
		if !ok || prec < minPrec {
			return lhs, nil
		}
		opTok := p.advance()
		rhs, err := p.parseBinary(prec + 1)
		if err != nil {
			return nil, err
		}
		lhs = &BinaryOp{
			Span: p.idgen.Span(lhs.SpanOf().Start, p.prevEnd()),
			Op:   opText[opTok.Kind],
			LHS:  lhs, RHS: rhs,
		}
	}
}

func (p *Parser) parseUnary() (Expression, error) {
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (Expression, error) {
	start := p.cur().Start
	switch p.curKind() {
	case token.Number:
		tok := p.advance()
		return &Literal{Span: p.idgen.Span(start, tok.End), Kind: LitNumber, Num: parseNumericPrefix(tok.Text)}, nil

	case token.String:
		tok := p.advance()
		if segs, exprs, ok := p.maybeTemplate(tok); ok {
			return &Template{Span: p.idgen.Span(start, tok.End), Literals: segs, Exprs: exprs}, nil
		}
		return &Literal{Span: p.idgen.Span(start, tok.End), Kind: LitString, Str: tok.Text}, nil

	case token.Ident:
		tok := p.advance()
		if tok.Text == "true" || tok.Text == "false" {
			return &Literal{Span: p.idgen.Span(start, tok.End), Kind: LitBool, Bool: tok.Text == "true"}, nil
		}
		if p.check(token.LParen) {
			args, end, err := p.parseCallArgs()
			if err != nil {
				return nil, err
			}
			return &Call{Span: p.idgen.Span(start, end), Name: tok.Text, Args: args}, nil
		}
		var expr Expression = &Variable{Span: p.idgen.Span(start, tok.End), Name: tok.Text}
		if p.check(token.Dot) {
			var path []string
			for p.check(token.Dot) {
				p.advance()
				field, err := p.expect(token.Ident)
				if err != nil {
					return nil, err
				}
				path = append(path, field.Text)
			}
			expr = &MemberAccess{Span: p.idgen.Span(start, p.prevEnd()), Base: expr, Path: path}
		}
		return expr, nil

	case token.LParen:
		p.advance()
		inner, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RParen); err != nil {
			return nil, err
		}
		return inner, nil

	default:
		return nil, p.errorf("expected expression, found %s", p.curKind())
	}
}

func (p *Parser) parseCallArgs() ([]Expression, uint32, error) {
	p.advance() // (
	var args []Expression
	for !p.check(token.RParen) {
		arg, err := p.parseExpression()
		if err != nil {
			return nil, 0, err
		}
		args = append(args, arg)
		if p.check(token.Comma) {
			p.advance()
			continue
		}
		break
	}
	end, err := p.expect(token.RParen)
	if err != nil {
		return nil, 0, err
	}
	return args, end.End, nil
}

// maybeTemplate scans a string literal's raw source text for `${expr}`
// interpolations. It returns ok=false for a plain string so the caller can
// fall back to a Literal.
func (p *Parser) maybeTemplate(tok token.Token) ([]string, []Expression, bool) {
	raw := string(p.src[tok.Start+1 : tok.End-1]) // strip surrounding quotes
	if !strings.Contains(raw, "${") {
		return nil, nil, false
	}

	var literals []string
	var exprs []Expression
	rest := raw
	for {
		idx := strings.Index(rest, "${")
		if idx < 0 {
			literals = append(literals, rest)
			break
		}
		literals = append(literals, rest[:idx])
		rest = rest[idx+2:]
		end := strings.Index(rest, "}")
		if end < 0 {
			literals[len(literals)-1] += "${" + rest
			break
		}
		inner := rest[:end]
		rest = rest[end+1:]

		innerToks, err := token.Tokenize([]byte(inner))
		if err != nil {
			literals[len(literals)-1] += "${" + inner + "}"
			continue
		}
		sub := &Parser{src: []byte(inner), toks: innerToks, idgen: p.idgen, path: p.path, docID: p.docID}
		expr, err := sub.parseExpression()
		if err != nil {
			literals[len(literals)-1] += "${" + inner + "}"
			continue
		}
		exprs = append(exprs, expr)
	}
	return literals, exprs, true
}

func parseNumericPrefix(s string) float64 {
	i := 0
	for i < len(s) && (s[i] == '.' || (s[i] >= '0' && s[i] <= '9')) {
		i++
	}
	v, _ := strconv.ParseFloat(s[:i], 64)
	return v
}
