package lexer

import (
	"strings"

	"drai/internal/diag"
	"drai/internal/token"
)

// scanQuoted сканирует "..." или '...' начиная с cursor (префикс, если был,
// уже съеден с меткой start). Escape-последовательности пропускаются, но не
// проверяются. Пользовательский суффикс (""_sv) входит в токен.
func (lx *Lexer) scanQuoted(start Mark, quote byte) token.Token {
	kind, code, what := token.StringLit, diag.LexUnterminatedString, "string literal"
	if quote == '\'' {
		kind, code, what = token.CharLit, diag.LexUnterminatedChar, "character literal"
	}

	lx.cursor.Bump() // opening quote
	for !lx.cursor.EOF() {
		b := lx.cursor.Peek()
		switch b {
		case quote:
			lx.cursor.Bump()
			lx.scanUDSuffix()
			return lx.emit(kind, start)
		case '\\':
			lx.cursor.Bump()
			if lx.cursor.Peek() == '\r' {
				lx.cursor.Bump()
			}
			lx.cursor.Bump()
			continue
		case '\n':
			tok := lx.emit(token.Invalid, start)
			lx.errLex(code, tok.Span, "missing terminating "+string(quote)+" in "+what)
			return tok
		}
		lx.cursor.Bump()
	}
	tok := lx.emit(token.Invalid, start)
	lx.errLex(code, tok.Span, "unterminated "+what)
	return tok
}

// scanRawString сканирует R"delim( ... )delim" - переводы строк внутри разрешены.
func (lx *Lexer) scanRawString(start Mark) token.Token {
	lx.cursor.Bump() // '"'
	delimStart := lx.cursor.Off
	for !lx.cursor.EOF() && lx.cursor.Peek() != '(' {
		b := lx.cursor.Peek()
		if b == '"' || b == '\n' || b == ')' || b == '\\' || isHSpace(b) || lx.cursor.Off-delimStart > 16 {
			tok := lx.emit(token.Invalid, start)
			lx.errLex(diag.LexUnterminatedRawString, tok.Span, "invalid raw string delimiter")
			return tok
		}
		lx.cursor.Bump()
	}
	delim := string(lx.file.Content[delimStart:lx.cursor.Off])
	closing := ")" + delim + "\""
	rest := string(lx.file.Content[lx.cursor.Off:])
	idx := strings.Index(rest, closing)
	if lx.cursor.EOF() || idx < 0 {
		lx.cursor.Off = uint32(len(lx.file.Content)) // #nosec G115 -- bounded by Cursor limit
		tok := lx.emit(token.Invalid, start)
		lx.errLex(diag.LexUnterminatedRawString, tok.Span, "unterminated raw string literal")
		return tok
	}
	lx.cursor.Off += uint32(idx + len(closing)) // #nosec G115
	lx.scanUDSuffix()
	return lx.emit(token.StringLit, start)
}

func (lx *Lexer) scanUDSuffix() {
	if !isIdentStartByte(lx.cursor.Peek()) {
		return
	}
	for isIdentContinueByte(lx.cursor.Peek()) {
		lx.cursor.Bump()
	}
}
