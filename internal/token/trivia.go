package token

import "drai/internal/source"

type TriviaKind uint8

const (
	TriviaSpace TriviaKind = iota
	TriviaNewline
	TriviaLineComment
	TriviaBlockComment
	// TriviaSplice is a backslash-newline pair; it joins lines without ending a directive.
	TriviaSplice
)

type Trivia struct {
	Kind TriviaKind
	Span source.Span
	Text string
}

func (k TriviaKind) String() string {
	switch k {
	case TriviaSpace:
		return "space"
	case TriviaNewline:
		return "newline"
	case TriviaLineComment:
		return "line-comment"
	case TriviaBlockComment:
		return "block-comment"
	case TriviaSplice:
		return "splice"
	}
	return "unknown"
}
