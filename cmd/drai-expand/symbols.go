package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"drai/internal/objfile"
)

var symbolsCmd = &cobra.Command{
	Use:   "symbols [flags] artifact",
	Short: "List the symbol table of a compiled artifact",
	Long: `Symbols prints the symbols of an ELF artifact as the expansion pass sees
them, to check the linkage names kernels are looked up by.`,
	Args: cobra.ExactArgs(1),
	RunE: runSymbols,
}

func init() {
	symbolsCmd.Flags().String("format", "pretty", "output format (pretty|json|msgpack)")
	symbolsCmd.Flags().String("kind", "", "only list symbols of this kind (func|object|section|file|undef|other)")
	symbolsCmd.Flags().String("match", "", "only list symbols whose name contains this string")
	symbolsCmd.Flags().StringP("output", "o", "", "write the msgpack dump to this file instead of stdout")
}

func runSymbols(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()
	format, err := f.GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	kindStr, err := f.GetString("kind")
	if err != nil {
		return err
	}
	match, err := f.GetString("match")
	if err != nil {
		return err
	}
	output, err := f.GetString("output")
	if err != nil {
		return err
	}

	var (
		kind    objfile.Kind
		anyKind = kindStr == ""
	)
	if !anyKind {
		var ok bool
		if kind, ok = objfile.ParseKind(kindStr); !ok {
			return fmt.Errorf("unknown symbol kind %q", kindStr)
		}
	}

	store, err := objfile.Open(args[0])
	if err != nil {
		return err
	}
	defer store.Close()

	dump := store.Dump(func(sym objfile.Symbol) bool {
		if !anyKind && sym.Kind != kind {
			return false
		}
		return match == "" || strings.Contains(sym.Name, match)
	})

	out := cmd.OutOrStdout()
	switch format {
	case "pretty":
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "VALUE\tSIZE\tKIND\tSECTION\tNAME")
		for _, e := range dump.Symbols {
			name := e.Name
			if e.Dynamic {
				name += " (dynamic)"
			}
			fmt.Fprintf(tw, "%016x\t%d\t%s\t%s\t%s\n", e.Value, e.Size, e.Kind, e.Section, name)
		}
		return tw.Flush()
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(dump)
	case "msgpack":
		if output != "" {
			return objfile.WriteDumpFile(output, dump)
		}
		return objfile.EncodeDump(out, dump)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}
