package diagfmt

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"drai/internal/ast"
	"drai/internal/mangle"
	"drai/internal/source"
)

// DeclOutput is one function declaration of a dump.
type DeclOutput struct {
	Name     string   `json:"name"`
	Kernel   bool     `json:"kernel"`
	Template string   `json:"template"`
	Params   []string `json:"params"`
	Linkage  string   `json:"linkage,omitempty"`
	Body     bool     `json:"body"`
	Location string   `json:"location"`
}

// CallOutput is one kernel launch of a dump.
type CallOutput struct {
	Callee    string `json:"callee"`
	Config    int    `json:"config"`
	Args      int    `json:"args"`
	Malformed string `json:"malformed,omitempty"`
	Location  string `json:"location"`
}

// FileOutput is the structural dump of a parsed file.
type FileOutput struct {
	Decls []DeclOutput `json:"decls"`
	Calls []CallOutput `json:"calls"`
}

// DescribeFile collects what the rewriter will see in f. Linkage names are
// filled in for non-generic declarations the mangler supports.
func DescribeFile(f *ast.File, fs *source.FileSet) FileOutput {
	res := mangle.NewResolver(f)
	out := FileOutput{Decls: []DeclOutput{}, Calls: []CallOutput{}}
	for _, fn := range f.Funcs {
		d := DeclOutput{
			Name:     fn.QualifiedName(),
			Kernel:   fn.Kernel,
			Template: fn.Template.String(),
			Body:     fn.HasBody,
			Location: location(fs, fn.NameSpan, PathModeAuto),
		}
		for _, p := range fn.Params {
			d.Params = append(d.Params, strings.TrimSpace(p.Type.String()+" "+p.Name))
		}
		if fn.Template == ast.TemplateNone {
			if name, err := mangle.Name(fn, nil, res); err == nil {
				d.Linkage = name
			}
		}
		out.Decls = append(out.Decls, d)
	}
	for _, c := range f.Calls {
		out.Calls = append(out.Calls, CallOutput{
			Callee:    strings.TrimSpace(string(f.Source.Slice(c.Callee))),
			Config:    len(c.Config),
			Args:      len(c.Args),
			Malformed: c.Malformed,
			Location:  location(fs, c.Span, PathModeAuto),
		})
	}
	return out
}

// FormatFilePretty prints the dump one entry per line.
func FormatFilePretty(w io.Writer, f *ast.File, fs *source.FileSet) error {
	dump := DescribeFile(f, fs)
	for _, d := range dump.Decls {
		kind := "func"
		if d.Kernel {
			kind = "kernel"
		}
		if d.Template != ast.TemplateNone.String() {
			kind += " " + d.Template
		}
		if !d.Body {
			kind += " decl"
		}
		if _, err := fmt.Fprintf(w, "%-24s %s(%s)", kind, d.Name, strings.Join(d.Params, ", ")); err != nil {
			return err
		}
		if d.Linkage != "" {
			fmt.Fprintf(w, " => %s", d.Linkage)
		}
		fmt.Fprintf(w, "  at %s\n", d.Location)
	}
	for _, c := range dump.Calls {
		fmt.Fprintf(w, "%-24s %s<<<%d>>>(%d)", "launch", c.Callee, c.Config, c.Args)
		if c.Malformed != "" {
			fmt.Fprintf(w, " malformed: %s", c.Malformed)
		}
		fmt.Fprintf(w, "  at %s\n", c.Location)
	}
	return nil
}

// FormatFileJSON writes the dump as indented JSON.
func FormatFileJSON(w io.Writer, f *ast.File, fs *source.FileSet) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(DescribeFile(f, fs))
}
