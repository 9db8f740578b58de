package lexer

import (
	"drai/internal/diag"
	"drai/internal/token"

	"golang.org/x/text/unicode/norm"
)

const utf8RuneSelf = 0x80

var stringPrefixes = map[string]bool{"u8": true, "u": true, "U": true, "L": true}

// scanIdentOrLiteral сканирует идентификатор; если это префикс литерала
// (u8"", L'', R"()"), переключается на сканирование литерала.
func (lx *Lexer) scanIdentOrLiteral() token.Token {
	start := lx.cursor.Mark()

	r, sz := lx.peekRune()
	if sz == 0 || (r >= utf8RuneSelf && !isIdentStartRune(r)) {
		lx.bumpRune()
		tok := lx.emit(token.Invalid, start)
		lx.errLex(diag.LexUnknownChar, tok.Span, "unexpected character "+quoteRune(r))
		return tok
	}

	unicode := false
	for {
		r, sz := lx.peekRune()
		if sz == 0 {
			break
		}
		if r < utf8RuneSelf {
			if !isIdentContinueByte(byte(r)) {
				break
			}
			lx.cursor.Bump()
			continue
		}
		if !isIdentContinueRune(r) {
			break
		}
		unicode = true
		lx.bumpRune()
	}

	sp := lx.cursor.SpanFrom(start)
	text := string(lx.file.Content[sp.Start:sp.End])

	switch next := lx.cursor.Peek(); {
	case next == '"' && stringPrefixes[text]:
		return lx.scanQuoted(start, '"')
	case next == '\'' && stringPrefixes[text]:
		return lx.scanQuoted(start, '\'')
	case next == '"' && len(text) > 0 && text[len(text)-1] == 'R' && (text == "R" || stringPrefixes[text[:len(text)-1]]):
		return lx.scanRawString(start)
	}

	if unicode && !norm.NFC.IsNormalString(text) {
		lx.warnLex(diag.LexNonNFCIdentifier, sp, "identifier '"+text+"' is not in Normalization Form C")
	}

	if k, ok := token.LookupKeyword(text); ok {
		return token.Token{Kind: k, Span: sp, Text: text}
	}
	return token.Token{Kind: token.Ident, Span: sp, Text: text}
}
