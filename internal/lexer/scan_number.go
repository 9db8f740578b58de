package lexer

import (
	"drai/internal/token"
)

// scanNumber сканирует pp-number: цифра или .цифра, затем
// [0-9A-Za-z_.], экспоненты e+ e- p+ p- и разделители ' между цифрами.
// Суффиксы (u, ul, f, _km) остаются частью токена; значение разбирает потребитель.
func (lx *Lexer) scanNumber() token.Token {
	start := lx.cursor.Mark()
	lx.cursor.Bump()
	for !lx.cursor.EOF() {
		b := lx.cursor.Peek()
		switch {
		case (b == '+' || b == '-') && isExponent(lx.cursor.File.Content[lx.cursor.Off-1]):
			lx.cursor.Bump()
		case b == '\'' && isIdentContinueByte(lx.cursor.At(1)):
			lx.cursor.Off += 2
		case isIdentContinueByte(b) || b == '.':
			lx.cursor.Bump()
		default:
			return lx.emit(token.Number, start)
		}
	}
	return lx.emit(token.Number, start)
}

func isExponent(b byte) bool {
	return b == 'e' || b == 'E' || b == 'p' || b == 'P'
}
