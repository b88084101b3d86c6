package main

import (
	"fmt"
	"io"
	"os"

	"github.com/dhakehurst/sppf/driver/parser"
	"github.com/spf13/cobra"
)

var expectedFlags = struct {
	name     *string
	goal     *string
	source   *string
	position *int
}{}

func init() {
	cmd := &cobra.Command{
		Use:     "expected <grammar file path>",
		Short:   "Print the terminals a parse can continue with at a position",
		Example: `  printf 'a+' | agl expected expr.agl -g S -p 2`,
		Args:    cobra.ExactArgs(1),
		RunE:    runExpected,
	}
	expectedFlags.name = cmd.Flags().StringP("name", "n", "", "grammar name (default the last grammar of the file)")
	expectedFlags.goal = cmd.Flags().StringP("goal", "g", "", "goal rule")
	expectedFlags.source = cmd.Flags().StringP("source", "s", "", "source file path (default stdin)")
	expectedFlags.position = cmd.Flags().IntP("position", "p", -1, "byte offset (default the end of the text)")
	cmd.MarkFlagRequired("goal")
	rootCmd.AddCommand(cmd)
}

func runExpected(cmd *cobra.Command, args []string) (retErr error) {
	defer recoverPanic(&retErr)

	set, err := readGrammar(args[0], *expectedFlags.name)
	if err != nil {
		return fmt.Errorf("Cannot read a grammar: %w", err)
	}

	var src []byte
	if *expectedFlags.source != "" {
		src, err = os.ReadFile(*expectedFlags.source)
		if err != nil {
			return fmt.Errorf("Cannot read the source file %s: %w", *expectedFlags.source, err)
		}
	} else {
		src, err = io.ReadAll(os.Stdin)
		if err != nil {
			return err
		}
	}

	pos := *expectedFlags.position
	if pos < 0 {
		pos = len(src)
	}
	ts, err := parser.ExpectedAt(set, *expectedFlags.goal, string(src), pos, parseOptions(0, false)...)
	if err != nil {
		return err
	}
	for _, t := range ts {
		fmt.Fprintln(os.Stdout, t.Name)
	}
	return nil
}
