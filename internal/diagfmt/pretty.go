// Package diagfmt renders diagnostics and token dumps for the terminal.
package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"drai/internal/diag"
	"drai/internal/source"
)

type palette struct {
	err, warn, note, loc, gutter, caret *color.Color
}

func newPalette(enabled bool) palette {
	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}
	return palette{
		err:    mk(color.FgRed, color.Bold),
		warn:   mk(color.FgYellow, color.Bold),
		note:   mk(color.FgBlue, color.Bold),
		loc:    mk(color.Bold),
		gutter: mk(color.FgBlue),
		caret:  mk(color.FgGreen, color.Bold),
	}
}

func (p palette) severity(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.note
	}
}

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее).
// Для каждого diag печатает:
// <path>:<line>:<col>: <SEV> <CODE>: <Message>
// затем контекст строки с подчёркиванием ^~~~ по Span, затем Notes.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	if bag == nil || fs == nil {
		return
	}
	p := newPalette(opts.Color)
	for _, d := range bag.Items() {
		if d.Severity < opts.MinSeverity {
			continue
		}
		fmt.Fprintf(w, "%s: %s %s: %s\n",
			p.loc.Sprint(location(fs, d.Primary, opts.PathMode)),
			p.severity(d.Severity).Sprint(d.Severity.String()),
			d.Code.ID(),
			d.Message)
		if opts.Context >= 0 {
			writeContext(w, fs, d.Primary, int(opts.Context), p)
		}
		if !opts.ShowNotes {
			continue
		}
		for _, n := range d.Notes {
			fmt.Fprintf(w, "  %s %s: %s\n", p.note.Sprint("note:"), location(fs, n.Span, opts.PathMode), n.Msg)
		}
	}
}

func validSpan(fs *source.FileSet, sp source.Span) bool {
	return int(sp.File) < fs.Len()
}

func location(fs *source.FileSet, sp source.Span, mode PathMode) string {
	if !validSpan(fs, sp) {
		return "<unknown>"
	}
	return fs.Locate(sp, mode.String()).String()
}

// writeContext prints the primary line with up to ctx lines around it and
// underlines the span on the primary line.
func writeContext(w io.Writer, fs *source.FileSet, sp source.Span, ctx int, p palette) {
	if !validSpan(fs, sp) {
		return
	}
	f := fs.Get(sp.File)
	start, end := fs.Resolve(sp)
	// номера строк в gutter берутся из маркеров # N "file", текст физический
	shift := int(f.Position(sp.Start).Line) - int(start.Line)
	first := max(int(start.Line)-ctx, 1)
	last := int(start.Line) + ctx
	width := len(fmt.Sprint(last + shift))
	for ln := first; ln <= last; ln++ {
		line := f.GetLine(uint32(ln)) // #nosec G115 -- ln is a positive line number
		if ln > int(start.Line) && line == "" && ln > int(end.Line) {
			break
		}
		fmt.Fprintf(w, "%s %s\n", p.gutter.Sprintf("%*d |", width, ln+shift), line)
		if ln != int(start.Line) {
			continue
		}
		col := int(start.Col)
		n := 1
		if end.Line == start.Line && end.Col > start.Col {
			n = int(end.Col - start.Col)
		}
		marker := "^" + strings.Repeat("~", n-1)
		pad := strings.Repeat(" ", max(col-1, 0))
		fmt.Fprintf(w, "%s %s%s\n", p.gutter.Sprintf("%*s |", width, ""), pad, p.caret.Sprint(marker))
	}
}
