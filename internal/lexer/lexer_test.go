package lexer_test

import (
	"fmt"
	"strings"
	"testing"

	"drai/internal/diag"
	"drai/internal/lexer"
	"drai/internal/source"
	"drai/internal/token"
)

// makeTestLexer создаёт лексер для тестовой строки
func makeTestLexer(input string) (*lexer.Lexer, *diag.Bag) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("test.cpp", []byte(input))
	bag := diag.NewBag(100)
	lx := lexer.New(fs.Get(fileID), lexer.Options{Reporter: diag.BagReporter{Bag: bag}})
	return lx, bag
}

func collectAllTokens(lx *lexer.Lexer) []token.Token {
	var tokens []token.Token
	for {
		tok := lx.Next()
		if tok.Kind == token.EOF {
			return tokens
		}
		tokens = append(tokens, tok)
	}
}

func tokensToString(tokens []token.Token) string {
	parts := make([]string, len(tokens))
	for i, tok := range tokens {
		parts[i] = fmt.Sprintf("%v(%q)", tok.Kind, tok.Text)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func expectTokens(t *testing.T, input string, expected ...token.Kind) []token.Token {
	t.Helper()
	lx, bag := makeTestLexer(input)
	tokens := collectAllTokens(lx)
	if len(tokens) != len(expected) {
		t.Fatalf("expected %d tokens, got %d\ninput: %q\ntokens: %v\ndiags: %v",
			len(expected), len(tokens), input, tokensToString(tokens), bag.Items())
	}
	for i, tok := range tokens {
		if tok.Kind != expected[i] {
			t.Errorf("token %d: expected %v, got %v (text %q)", i, expected[i], tok.Kind, tok.Text)
		}
	}
	return tokens
}

func TestKernelLaunchBrackets(t *testing.T) {
	tokens := expectTokens(t, "k<<<g, 4>>>(a, b);",
		token.Ident, token.LtLtLt, token.Ident, token.Comma, token.Number, token.GtGtGt,
		token.LParen, token.Ident, token.Comma, token.Ident, token.RParen, token.Semicolon)
	if tokens[1].Span.Start != 1 || tokens[1].Span.End != 4 {
		t.Errorf("<<< span = %v", tokens[1].Span)
	}
}

func TestTemplateCallBeforeLaunch(t *testing.T) {
	expectTokens(t, "k<int><<<g>>>(p)",
		token.Ident, token.Lt, token.Ident, token.Gt, token.LtLtLt, token.Ident, token.GtGtGt,
		token.LParen, token.Ident, token.RParen)
}

func TestOperatorsLongestMatch(t *testing.T) {
	expectTokens(t, "a <<= b >>= c <=> d -> e ->* f :: g ... ## # x++ --y",
		token.Ident, token.ShlAssign, token.Ident, token.ShrAssign, token.Ident, token.Spaceship,
		token.Ident, token.Arrow, token.Ident, token.ArrowStar, token.Ident, token.ColonColon,
		token.Ident, token.Ellipsis, token.HashHash, token.Hash, token.Ident, token.PlusPlus,
		token.MinusMinus, token.Ident)
}

func TestKeywordsAndBuiltinTypes(t *testing.T) {
	tokens := expectTokens(t, "template <typename T> void k(const unsigned int* p)",
		token.KwTemplate, token.Lt, token.KwTypename, token.Ident, token.Gt, token.Ident, token.Ident,
		token.LParen, token.KwConst, token.Ident, token.Ident, token.Star, token.Ident, token.RParen)
	if tokens[5].Text != "void" {
		t.Errorf("void should lex as identifier, got %q", tokens[5].Text)
	}
}

func TestNumbers(t *testing.T) {
	cases := []string{"0", "42u", "0x1Fu", "1.5f", ".5", "1e-3", "0x1p+4", "1'000'000", "3.14_km"}
	for _, in := range cases {
		tokens := expectTokens(t, in, token.Number)
		if tokens[0].Text != in {
			t.Errorf("number %q lexed as %q", in, tokens[0].Text)
		}
	}
}

func TestStringAndCharLiterals(t *testing.T) {
	cases := []struct {
		in   string
		kind token.Kind
	}{
		{`"a\"b"`, token.StringLit},
		{`u8"x"`, token.StringLit},
		{`L"w"`, token.StringLit},
		{`'a'`, token.CharLit},
		{`'\''`, token.CharLit},
		{`U'x'`, token.CharLit},
		{`"s"_sv`, token.StringLit},
		{"R\"d(a)\"\n)d\"", token.StringLit},
	}
	for _, tc := range cases {
		tokens := expectTokens(t, tc.in, tc.kind)
		if tokens[0].Text != tc.in {
			t.Errorf("literal %q lexed as %q", tc.in, tokens[0].Text)
		}
	}
}

func TestUnterminatedLiterals(t *testing.T) {
	for _, in := range []string{"\"abc\nx", "'a", "R\"(abc"} {
		lx, bag := makeTestLexer(in)
		collectAllTokens(lx)
		if !bag.HasErrors() {
			t.Errorf("%q: expected a diagnostic", in)
		}
	}
}

func TestQuietSuppressesDiagnostics(t *testing.T) {
	lx, bag := makeTestLexer("don't")
	lx.SetQuiet(true)
	collectAllTokens(lx)
	if bag.Len() != 0 {
		t.Fatalf("quiet lexer reported %v", bag.Items())
	}
}

func TestBOLAndSplices(t *testing.T) {
	lx, _ := makeTestLexer("#define A \\\n  1\nint x; // c\n  /* b */ y")
	tokens := collectAllTokens(lx)
	bol := make([]string, 0)
	for _, tok := range tokens {
		if tok.BOL {
			bol = append(bol, tok.Text)
		}
	}
	if got := strings.Join(bol, ","); got != "#,int,y" {
		t.Fatalf("BOL tokens = %q, want %q (tokens %v)", got, "#,int,y", tokensToString(tokens))
	}
	// "1" follows a splice: same logical line, but separated by space
	one := tokens[3]
	if one.Text != "1" || !one.HasSpace() || one.BOL {
		t.Errorf("token after splice = %+v", one)
	}
}

func TestCommentsAreTrivia(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("c.cpp", []byte("/* a */ x // tail\ny"))
	lx := lexer.New(fs.Get(id), lexer.Options{KeepComments: true})
	x := lx.Next()
	if x.Text != "x" || len(x.Leading) != 2 || x.Leading[0].Kind != token.TriviaBlockComment || x.Leading[0].Text != "/* a */" {
		t.Fatalf("unexpected leading trivia %+v", x.Leading)
	}
	y := lx.Next()
	if y.Leading[0].Kind != token.TriviaSpace || y.Leading[1].Kind != token.TriviaLineComment {
		t.Fatalf("unexpected trivia before y: %+v", y.Leading)
	}
}

func TestNonNFCIdentifierWarns(t *testing.T) {
	// "é" spelled as e + COMBINING ACUTE ACCENT
	lx, bag := makeTestLexer("cafe\u0301")
	tokens := collectAllTokens(lx)
	if len(tokens) != 1 || tokens[0].Kind != token.Ident {
		t.Fatalf("tokens = %v", tokensToString(tokens))
	}
	if bag.Len() != 1 || bag.Items()[0].Code != diag.LexNonNFCIdentifier || bag.Items()[0].Severity != diag.SevWarning {
		t.Fatalf("diags = %v", bag.Items())
	}

	lx, bag = makeTestLexer("caf\u00e9")
	collectAllTokens(lx)
	if bag.Len() != 0 {
		t.Fatalf("NFC identifier reported: %v", bag.Items())
	}
}

func TestPeekDoesNotConsume(t *testing.T) {
	lx, _ := makeTestLexer("a b")
	if p := lx.Peek(); p.Text != "a" {
		t.Fatalf("Peek = %q", p.Text)
	}
	if n := lx.Next(); n.Text != "a" {
		t.Fatalf("Next after Peek = %q", n.Text)
	}
	if n := lx.Next(); n.Text != "b" {
		t.Fatalf("second Next = %q", n.Text)
	}
}
