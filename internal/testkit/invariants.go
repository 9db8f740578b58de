package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"drai/internal/ast"
	"drai/internal/source"
)

// CheckSpanInvariants runs a minimal set of span invariants on a parsed file:
// 1) every declaration and call span is non-empty and within file content bounds
// 2) name, body and parameter spans lie inside their declaration span
// 3) callee, config and argument spans lie inside their call span, in order
func CheckSpanInvariants(f *ast.File, sf *source.File) error {
	if f == nil || sf == nil {
		return fmt.Errorf("nil file")
	}
	lenContent, err := safecast.Conv[uint32](len(sf.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}
	inFile := func(what string, sp source.Span) error {
		if sp.File != sf.ID {
			return fmt.Errorf("%s span points to different file id: got=%d want=%d", what, sp.File, sf.ID)
		}
		if sp.End <= sp.Start {
			return fmt.Errorf("empty %s span: %v", what, sp)
		}
		if sp.End > lenContent {
			return fmt.Errorf("%s span end beyond content: %d > %d", what, sp.End, lenContent)
		}
		return nil
	}

	// 1) + 2) declarations
	for _, fn := range f.Funcs {
		if err := inFile("decl "+fn.Name, fn.Span); err != nil {
			return err
		}
		if !fn.Span.Contains(fn.NameSpan) {
			return fmt.Errorf("name span of %s outside declaration: %v !⊂ %v", fn.Name, fn.NameSpan, fn.Span)
		}
		if fn.HasBody && !fn.Span.Contains(fn.Body) {
			return fmt.Errorf("body of %s outside declaration: %v !⊂ %v", fn.Name, fn.Body, fn.Span)
		}
		for _, p := range fn.Params {
			if !fn.Span.Contains(p.Span) {
				return fmt.Errorf("parameter %q of %s outside declaration", p.Name, fn.Name)
			}
		}
	}

	// 3) calls
	for _, c := range f.Calls {
		if err := inFile("call", c.Span); err != nil {
			return err
		}
		if c.Malformed != "" {
			continue
		}
		prev := c.Callee
		if !c.Span.Contains(prev) {
			return fmt.Errorf("callee outside call: %v !⊂ %v", prev, c.Span)
		}
		for _, group := range [][]source.Span{c.Config, c.Args} {
			for _, sp := range group {
				if !c.Span.Contains(sp) {
					return fmt.Errorf("operand outside call: %v !⊂ %v", sp, c.Span)
				}
				if sp.Start < prev.End {
					return fmt.Errorf("operands out of order: %v before %v", sp, prev)
				}
				prev = sp
			}
		}
	}
	return nil
}
