package token

import "testing"

func TestTokenizeSimpleButton(t *testing.T) {
	src := `public component Button {
  render button { style { padding: 8px } text "Click me" }
}`
	toks, err := Tokenize([]byte(src))
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}

	var kinds []Kind
	for _, tok := range toks {
		if tok.Kind != EOF {
			kinds = append(kinds, tok.Kind)
		}
	}

	want := []Kind{
		KwPublic, KwComponent, Ident, LBrace,
		KwRender, Ident, LBrace,
		KwStyle, LBrace, Ident, Colon, Number, RBrace,
		KwText, String,
		RBrace,
		RBrace,
	}

	if len(kinds) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(kinds), len(want), kinds)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("token %d: got %s want %s", i, kinds[i], want[i])
		}
	}
}

func TestTokenizeByteSpans(t *testing.T) {
	src := "abc def"
	toks, err := Tokenize([]byte(src))
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	if toks[0].Start != 0 || toks[0].End != 3 {
		t.Errorf("first token span = %d:%d, want 0:3", toks[0].Start, toks[0].End)
	}
	if toks[1].Start != 4 || toks[1].End != 7 {
		t.Errorf("second token span = %d:%d, want 4:7", toks[1].Start, toks[1].End)
	}
}

func TestTokenizeCRIsWhitespace(t *testing.T) {
	toks, err := Tokenize([]byte("a\r\nb"))
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	if len(toks) != 3 { // a, b, EOF
		t.Fatalf("got %d tokens, want 3", len(toks))
	}
}

func TestTokenizeUnterminatedString(t *testing.T) {
	_, err := Tokenize([]byte(`text "unterminated`))
	if err == nil {
		t.Fatal("expected error for unterminated string")
	}
}

func TestTokenizeStringEscapes(t *testing.T) {
	toks, err := Tokenize([]byte(`"a\nb\"c"`))
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	if toks[0].Text != "a\nb\"c" {
		t.Errorf("got %q", toks[0].Text)
	}
}

func TestTokenizeOperators(t *testing.T) {
	toks, err := Tokenize([]byte("== != <= >= && || < >"))
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	want := []Kind{EqEq, NotEq, LtEq, GtEq, AndAnd, OrOr, Lt, Gt}
	for i, k := range want {
		if toks[i].Kind != k {
			t.Errorf("token %d: got %s want %s", i, toks[i].Kind, k)
		}
	}
}
