// Package token defines lexical token kinds and trivia for C++ kernel sources.
// Invariants:
//   - Token.Text is a slice of the original source (no copies).
//   - Token.Span matches Text exactly (Begin..End).
//   - Kernel launch brackets are lexed as LtLtLt / GtGtGt. Consumers that see
//     GtGtGt while closing nested template argument lists split it themselves.
//   - Built-in type names (int, unsigned, float, ...) are identifiers.
//     They are recognized by the parser, not the lexer.
//   - Comments and whitespace are attached to the following token as Leading
//     trivia and never appear in the main token stream.
package token
