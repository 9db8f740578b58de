package lexer

import (
	"drai/internal/source"
	"drai/internal/token"
)

type Lexer struct {
	file   *source.File
	cursor Cursor
	opts   Options
	look   *token.Token   // 1 элементный буфер для токена
	hold   []token.Trivia // накопленные leading trivia
	first  bool
	quiet  bool
}

func New(file *source.File, opts Options) *Lexer {
	return &Lexer{
		file:   file,
		cursor: NewCursor(file),
		opts:   opts,
		first:  true,
	}
}

// File returns the file being lexed.
func (lx *Lexer) File() *source.File { return lx.file }

// SetQuiet suppresses diagnostics while set. The preprocessor lexes skipped
// conditional groups quietly: their text need not be valid tokens.
func (lx *Lexer) SetQuiet(q bool) { lx.quiet = q }

// Next возвращает следующий **значимый** токен с уже собранным Leading.
// После EOF всегда возвращает EOF.
func (lx *Lexer) Next() token.Token {
	if lx.look != nil {
		tok := *lx.look
		lx.look = nil
		return tok
	}

	bol := lx.collectLeadingTrivia()
	if lx.first {
		bol = true
		lx.first = false
	}

	if lx.cursor.EOF() {
		return token.Token{Kind: token.EOF, Span: lx.emptySpan(), BOL: true}
	}

	ch := lx.cursor.Peek()
	var tok token.Token

	switch {
	case isIdentStartByte(ch) || ch >= utf8RuneSelf:
		tok = lx.scanIdentOrLiteral()
	case isDec(ch), ch == '.' && isDec(lx.cursor.At(1)):
		tok = lx.scanNumber()
	case ch == '"':
		tok = lx.scanQuoted(lx.cursor.Mark(), '"')
	case ch == '\'':
		tok = lx.scanQuoted(lx.cursor.Mark(), '\'')
	default:
		tok = lx.scanOperatorOrPunct()
	}

	tok.Leading = lx.hold
	tok.BOL = bol
	lx.hold = nil
	return tok
}

// Peek возвращает следующий токен, не потребляя его.
func (lx *Lexer) Peek() token.Token {
	t := lx.Next()
	lx.look = &t
	return t
}

// RestOfLine returns the raw text from the current position up to the next
// unspliced newline, without consuming it. Used for #error and #warning
// payloads, which are not required to be valid tokens.
func (lx *Lexer) RestOfLine(after token.Token) string {
	content := lx.file.Content
	end := after.Span.End
	for int(end) < len(content) {
		if content[end] == '\n' && (end == 0 || content[end-1] != '\\') {
			break
		}
		end++
	}
	return string(content[after.Span.End:end])
}

func (lx *Lexer) emptySpan() source.Span {
	return source.Span{File: lx.file.ID, Start: lx.cursor.Off, End: lx.cursor.Off}
}

func (lx *Lexer) emit(kind token.Kind, start Mark) token.Token {
	sp := lx.cursor.SpanFrom(start)
	return token.Token{Kind: kind, Span: sp, Text: string(lx.file.Content[sp.Start:sp.End])}
}
