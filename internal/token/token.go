package token

import (
	"drai/internal/source"
)

// Token represents a single source token with its location and trivia.
type Token struct {
	Kind    Kind
	Span    source.Span
	Text    string
	Leading []Trivia
	// BOL is set for the first token on a physical line (after splices are joined).
	BOL bool
}

// HasSpace reports whether any trivia separates the token from its predecessor.
func (t Token) HasSpace() bool { return len(t.Leading) > 0 }

// IsLiteral reports whether the token is a numeric, character, or string literal.
func (t Token) IsLiteral() bool {
	switch t.Kind {
	case Number, StringLit, CharLit:
		return true
	default:
		return false
	}
}

// IsKeyword reports whether the token is one of the dispatch keywords.
func (t Token) IsKeyword() bool {
	return t.Kind >= KwTemplate && t.Kind <= KwOperator
}

// IsWord reports whether the token is spelled like an identifier.
func (t Token) IsWord() bool { return t.Kind == Ident || t.IsKeyword() }

// IsPunctOrOp reports whether the token is a punctuation or operator.
func (t Token) IsPunctOrOp() bool {
	return t.Kind >= Plus && t.Kind <= Backslash
}

// IsIdent reports whether the token is an identifier.
func (t Token) IsIdent() bool { return t.Kind == Ident }

// Is reports whether the token is a word spelled exactly text.
func (t Token) Is(text string) bool { return t.IsWord() && t.Text == text }
