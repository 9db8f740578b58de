package token_test

import (
	"testing"

	"drai/internal/source"
	"drai/internal/token"
)

func tok(k token.Kind) token.Token {
	return token.Token{Kind: k, Span: source.Span{Start: 0, End: 0}}
}

func TestIsLiteral(t *testing.T) {
	for _, k := range []token.Kind{token.Number, token.StringLit, token.CharLit} {
		if !tok(k).IsLiteral() {
			t.Fatalf("%v should be literal", k)
		}
	}
	for _, k := range []token.Kind{token.Ident, token.KwTemplate, token.Plus, token.LParen} {
		if tok(k).IsLiteral() {
			t.Fatalf("%v must NOT be literal", k)
		}
	}
}

func TestPunctRange(t *testing.T) {
	for _, k := range []token.Kind{token.Plus, token.LtLtLt, token.GtGtGt, token.HashHash, token.Backslash} {
		if !tok(k).IsPunctOrOp() {
			t.Errorf("%v should be punct", k)
		}
	}
	if tok(token.KwConst).IsPunctOrOp() || tok(token.Number).IsPunctOrOp() {
		t.Error("keywords and literals are not punct")
	}
}

func TestLookupKeyword(t *testing.T) {
	cases := map[string]token.Kind{
		"template":  token.KwTemplate,
		"typename":  token.KwTypename,
		"namespace": token.KwNamespace,
		"extern":    token.KwExtern,
		"const":     token.KwConst,
	}
	for lexeme, want := range cases {
		got, ok := token.LookupKeyword(lexeme)
		if !ok || got != want {
			t.Fatalf("LookupKeyword(%q) = %v,%v; want %v", lexeme, got, ok, want)
		}
	}
	// встроенные типы остаются идентификаторами
	for _, s := range []string{"int", "unsigned", "void", "Template", "__global__"} {
		if _, ok := token.LookupKeyword(s); ok {
			t.Fatalf("LookupKeyword(%q) returned ok=true", s)
		}
	}
}

func TestKindString(t *testing.T) {
	if got := token.LtLtLt.String(); got != "<<<" {
		t.Errorf("LtLtLt.String() = %q", got)
	}
	if got := token.KwTypename.String(); got != "typename" {
		t.Errorf("KwTypename.String() = %q", got)
	}
}

func TestIsWord(t *testing.T) {
	id := token.Token{Kind: token.Ident, Text: "k"}
	if !id.Is("k") || id.Is("x") {
		t.Error("Is mismatch on ident")
	}
	kw := token.Token{Kind: token.KwConst, Text: "const"}
	if !kw.IsWord() || !kw.Is("const") {
		t.Error("keywords are words")
	}
}
