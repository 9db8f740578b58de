package lexer

import (
	"drai/internal/diag"
	"drai/internal/token"
)

// collectLeadingTrivia собирает подряд идущие trivia перед значимым токеном
// и сообщает, был ли среди них перевод строки.
//   - ' ', '\t', '\r', '\f', '\v' коалесцируются в один TriviaSpace
//   - последовательные '\n' коалесцируются в один TriviaNewline
//   - '\\' + '\n' -> TriviaSplice (строка продолжается)
//   - //... до \n -> TriviaLineComment
//   - /* ... */ -> TriviaBlockComment (в C++ не вкладываются)
func (lx *Lexer) collectLeadingTrivia() bool {
	lx.hold = lx.hold[:0]
	sawNewline := false
	for !lx.cursor.EOF() {
		start := lx.cursor.Mark()
		b := lx.cursor.Peek()

		switch {
		case isHSpace(b):
			for isHSpace(lx.cursor.Peek()) {
				lx.cursor.Bump()
			}
			lx.push(token.TriviaSpace, start)
			continue

		case b == '\n':
			for lx.cursor.Peek() == '\n' {
				lx.cursor.Bump()
			}
			lx.push(token.TriviaNewline, start)
			sawNewline = true
			continue

		case b == '\\' && lx.spliceLen() > 0:
			lx.cursor.Off += lx.spliceLen()
			lx.push(token.TriviaSplice, start)
			continue

		case b == '/' && lx.cursor.At(1) == '/':
			for !lx.cursor.EOF() {
				if lx.cursor.Peek() == '\n' {
					break
				}
				if n := lx.spliceLen(); lx.cursor.Peek() == '\\' && n > 0 {
					lx.cursor.Off += n
					continue
				}
				lx.cursor.Bump()
			}
			lx.push(token.TriviaLineComment, start)
			continue

		case b == '/' && lx.cursor.At(1) == '*':
			lx.cursor.Off += 2
			closed := false
			for !lx.cursor.EOF() {
				if lx.cursor.Peek() == '*' && lx.cursor.At(1) == '/' {
					lx.cursor.Off += 2
					closed = true
					break
				}
				lx.cursor.Bump()
			}
			if !closed {
				lx.errLex(diag.LexUnterminatedBlockComment, lx.cursor.SpanFrom(start), "unterminated /* comment")
			}
			lx.push(token.TriviaBlockComment, start)
			continue
		}
		break
	}
	return sawNewline
}

// spliceLen returns the length of a backslash-newline at the cursor, 0 if none.
// Trailing horizontal space between the backslash and the newline is accepted.
func (lx *Lexer) spliceLen() uint32 {
	if lx.cursor.Peek() != '\\' {
		return 0
	}
	n := uint32(1)
	for isHSpace(lx.cursor.At(n)) {
		n++
	}
	if lx.cursor.At(n) != '\n' {
		return 0
	}
	return n + 1
}

func (lx *Lexer) push(kind token.TriviaKind, start Mark) {
	sp := lx.cursor.SpanFrom(start)
	tr := token.Trivia{Kind: kind, Span: sp}
	if lx.opts.KeepComments || kind == token.TriviaNewline {
		tr.Text = string(lx.file.Content[sp.Start:sp.End])
	}
	lx.hold = append(lx.hold, tr)
}
