package diagfmt

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"drai/internal/source"
	"drai/internal/token"
)

// TokenOutput is one token of a JSON token dump.
type TokenOutput struct {
	Kind    string   `json:"kind"`
	Text    string   `json:"text,omitempty"`
	Start   uint32   `json:"start"`
	End     uint32   `json:"end"`
	BOL     bool     `json:"bol,omitempty"`
	Leading []string `json:"leading,omitempty"`
}

func triviaKinds(tok token.Token) []string {
	var out []string
	for _, tr := range tok.Leading {
		out = append(out, tr.Kind.String())
	}
	return out
}

// FormatTokensPretty выводит токены в человекочитаемом формате, по одному на строку.
func FormatTokensPretty(w io.Writer, tokens []token.Token, fs *source.FileSet) error {
	for i, tok := range tokens {
		start, end := fs.Resolve(tok.Span)
		var b strings.Builder
		fmt.Fprintf(&b, "%4d: %-14s", i+1, tok.Kind.String())
		if tok.Text != "" {
			fmt.Fprintf(&b, " %q", tok.Text)
		}
		fmt.Fprintf(&b, " at %d:%d-%d:%d", start.Line, start.Col, end.Line, end.Col)
		if tok.BOL {
			b.WriteString(" bol")
		}
		if leading := triviaKinds(tok); len(leading) > 0 {
			fmt.Fprintf(&b, " (leading: %s)", strings.Join(leading, ", "))
		}
		b.WriteByte('\n')
		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}
		if tok.Kind == token.EOF {
			break
		}
	}
	return nil
}

// FormatTokensJSON выводит токены в JSON формате.
func FormatTokensJSON(w io.Writer, tokens []token.Token) error {
	output := make([]TokenOutput, 0, len(tokens))
	for _, tok := range tokens {
		output = append(output, TokenOutput{
			Kind:    tok.Kind.String(),
			Text:    tok.Text,
			Start:   tok.Span.Start,
			End:     tok.Span.End,
			BOL:     tok.BOL,
			Leading: triviaKinds(tok),
		})
		if tok.Kind == token.EOF {
			break
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}
