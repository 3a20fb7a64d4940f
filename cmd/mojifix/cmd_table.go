package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mojifix/internal/mojibake"
)

// tableCmd prints the replacement table for inspection.
var tableCmd = &cobra.Command{
	Use:   "table",
	Short: "Print the replacement table",
	Long: `Print every corrupted pattern the fixer recognizes and the clean form it
is replaced with, in the order replacements are attempted.`,
	RunE: runTable,
}

func runTable(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	table := mojibake.Default()

	fmt.Fprintln(out, "Replacement table (longest corrupted form first):")
	fmt.Fprintln(out, strings.Repeat("=", 56))
	for _, e := range table.Entries() {
		fmt.Fprintf(out, "  %s -> %s  (unit %s, utf-8 % X)\n",
			e.Corrupt, e.Fixed, e.Unit, []byte(e.Fixed))
	}
	fmt.Fprintln(out, strings.Repeat("=", 56))
	fmt.Fprintf(out, "%s encodes to %X in UTF-8; CP437 renders those bytes as %s.\n",
		mojibake.SuperscriptTwo,
		[]byte(mojibake.SuperscriptTwo),
		mojibake.CorruptForm(mojibake.SuperscriptTwo))
	return nil
}
