package lexer

import (
	"drai/internal/diag"
	"drai/internal/source"
)

type Options struct {
	Reporter diag.Reporter // может быть nil - тогда ошибки игнорируем (но продолжаем лексить)
	// KeepComments keeps comment trivia text; the preprocessor drops it, tests look at it.
	KeepComments bool
}

func (lx *Lexer) errLex(code diag.Code, sp source.Span, msg string) {
	if lx.opts.Reporter != nil && !lx.quiet {
		lx.opts.Reporter.Report(code, diag.SevError, sp, msg, nil)
	}
}

func (lx *Lexer) warnLex(code diag.Code, sp source.Span, msg string) {
	if lx.opts.Reporter != nil && !lx.quiet {
		lx.opts.Reporter.Report(code, diag.SevWarning, sp, msg, nil)
	}
}
