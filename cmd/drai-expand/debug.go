package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"drai/internal/diag"
	"drai/internal/diagfmt"
	"drai/internal/lexer"
	"drai/internal/parser"
	"drai/internal/source"
	"drai/internal/token"
)

var tokenizeCmd = &cobra.Command{
	Use:   "tokenize [flags] file",
	Short: "Print the tokens of a source file",
	Long:  `Tokenize lexes a file without preprocessing it and prints every token with its trivia.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runTokenize,
}

var declsCmd = &cobra.Command{
	Use:   "decls [flags] file",
	Short: "Print the kernels and launches the parser finds",
	Long: `Decls parses a file without preprocessing it and lists kernel declarations
with their linkage names and every kernel launch. Run it on the file written
by --keep-ii to see what the expansion pass sees.`,
	Args: cobra.ExactArgs(1),
	RunE: runDecls,
}

func init() {
	tokenizeCmd.Flags().String("format", "pretty", "output format (pretty|json)")
	declsCmd.Flags().String("format", "pretty", "output format (pretty|json)")
	declsCmd.Flags().StringArray("kernel-attribute", nil, "additional kernel attribute spelling")
}

// debugSource loads path into a fresh file set with a diagnostics bag.
func debugSource(cmd *cobra.Command, path string) (*source.FileSet, *source.File, *diag.Bag, error) {
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	fs := source.NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		return nil, nil, nil, err
	}
	return fs, fs.Get(id), diag.NewBag(maxDiagnostics), nil
}

// printDebugDiags выводит диагностику в stderr, если есть
func printDebugDiags(cmd *cobra.Command, bag *diag.Bag, fs *source.FileSet) {
	if !bag.HasErrors() && !bag.HasWarnings() {
		return
	}
	minSev, _ := minSeverity(cmd)
	diagfmt.Pretty(os.Stderr, bag, fs, diagfmt.PrettyOpts{
		Color:       useColor(cmd, os.Stderr),
		Context:     2,
		ShowNotes:   true,
		MinSeverity: minSev,
	})
}

func runTokenize(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	fs, file, bag, err := debugSource(cmd, args[0])
	if err != nil {
		return err
	}

	lx := lexer.New(file, lexer.Options{Reporter: diag.BagReporter{Bag: bag}, KeepComments: true})
	var toks []token.Token
	for {
		tok := lx.Next()
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	printDebugDiags(cmd, bag, fs)

	switch format {
	case "pretty":
		return diagfmt.FormatTokensPretty(cmd.OutOrStdout(), toks, fs)
	case "json":
		return diagfmt.FormatTokensJSON(cmd.OutOrStdout(), toks)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

func runDecls(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	attrs, err := cmd.Flags().GetStringArray("kernel-attribute")
	if err != nil {
		return err
	}
	fs, file, bag, err := debugSource(cmd, args[0])
	if err != nil {
		return err
	}

	f, _ := parser.ParseFile(file, parser.Options{
		KernelAttributes: attrs,
		Reporter:         diag.BagReporter{Bag: bag},
	})
	printDebugDiags(cmd, bag, fs)

	switch format {
	case "pretty":
		return diagfmt.FormatFilePretty(cmd.OutOrStdout(), f, fs)
	case "json":
		return diagfmt.FormatFileJSON(cmd.OutOrStdout(), f, fs)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}
