package lexer

import (
	"drai/internal/diag"
	"drai/internal/token"
)

type punct struct {
	text string
	kind token.Kind
}

// Жадность: сначала 3-символьные, затем 2-символьные, затем 1-символьные.
// "<<<" и ">>>" - скобки запуска ядра; разбор шаблонов сам делит ">>>".
var puncts = []punct{
	{"...", token.Ellipsis}, {"<=>", token.Spaceship}, {"<<<", token.LtLtLt}, {">>>", token.GtGtGt},
	{"<<=", token.ShlAssign}, {">>=", token.ShrAssign}, {"->*", token.ArrowStar},

	{"::", token.ColonColon}, {"->", token.Arrow}, {".*", token.DotStar}, {"##", token.HashHash},
	{"&&", token.AndAnd}, {"||", token.OrOr}, {"==", token.EqEq}, {"!=", token.BangEq},
	{"<=", token.LtEq}, {">=", token.GtEq}, {"<<", token.Shl}, {">>", token.Shr},
	{"++", token.PlusPlus}, {"--", token.MinusMinus}, {"+=", token.PlusAssign}, {"-=", token.MinusAssign},
	{"*=", token.StarAssign}, {"/=", token.SlashAssign}, {"%=", token.PercentAssign},
	{"&=", token.AmpAssign}, {"|=", token.PipeAssign}, {"^=", token.CaretAssign},

	{"+", token.Plus}, {"-", token.Minus}, {"*", token.Star}, {"/", token.Slash}, {"%", token.Percent},
	{"=", token.Assign}, {"!", token.Bang}, {"<", token.Lt}, {">", token.Gt}, {"&", token.Amp},
	{"|", token.Pipe}, {"^", token.Caret}, {"~", token.Tilde}, {"?", token.Question},
	{":", token.Colon}, {";", token.Semicolon}, {",", token.Comma}, {".", token.Dot},
	{"(", token.LParen}, {")", token.RParen}, {"{", token.LBrace}, {"}", token.RBrace},
	{"[", token.LBracket}, {"]", token.RBracket}, {"#", token.Hash}, {"\\", token.Backslash},
}

func (lx *Lexer) scanOperatorOrPunct() token.Token {
	start := lx.cursor.Mark()
	for _, p := range puncts {
		if lx.cursor.EatString(p.text) {
			return lx.emit(p.kind, start)
		}
	}
	ch := lx.cursor.Bump()
	tok := lx.emit(token.Invalid, start)
	lx.errLex(diag.LexUnknownChar, tok.Span, "unexpected character "+quoteRune(rune(ch)))
	return tok
}
