package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dhakehurst/sppf/driver/parser"
	"github.com/dhakehurst/sppf/driver/sppf"
	"github.com/dhakehurst/sppf/semantic"
	"github.com/spf13/cobra"
)

var parseFlags = struct {
	name           *string
	goal           *string
	output         *string
	maxGenerations *int
	disableSkip    *bool
	stats          *bool
}{}

func init() {
	cmd := &cobra.Command{
		Use:   "parse <grammar file path> [<source file path>...]",
		Short: "Parse texts and print their forests",
		Example: `  cat src | agl parse expr.agl -g S
  agl parse expr.agl -g S -o ast a.txt b.txt`,
		Args: cobra.MinimumNArgs(1),
		RunE: runParse,
	}
	parseFlags.name = cmd.Flags().StringP("name", "n", "", "grammar name (default the last grammar of the file)")
	parseFlags.goal = cmd.Flags().StringP("goal", "g", "", "goal rule")
	parseFlags.output = cmd.Flags().StringP("output", "o", "tree", "output form: tree, compact, ast, cst, or json")
	parseFlags.maxGenerations = cmd.Flags().Int("max-generations", 0, "stop a parse after this many generations (0 means no limit)")
	parseFlags.disableSkip = cmd.Flags().Bool("disable-skip", false, "do not match the skip rules of the grammar")
	parseFlags.stats = cmd.Flags().Bool("stats", false, "print parse statistics to stderr")
	cmd.MarkFlagRequired("goal")
	rootCmd.AddCommand(cmd)
}

func runParse(cmd *cobra.Command, args []string) (retErr error) {
	defer recoverPanic(&retErr)

	switch *parseFlags.output {
	case "tree", "compact", "ast", "cst", "json":
	default:
		return fmt.Errorf("unknown output form: %v", *parseFlags.output)
	}

	set, err := readGrammar(args[0], *parseFlags.name)
	if err != nil {
		return fmt.Errorf("Cannot read a grammar: %w", err)
	}

	srcPaths := args[1:]
	var texts []string
	if len(srcPaths) == 0 {
		src, err := io.ReadAll(os.Stdin)
		if err != nil {
			return err
		}
		texts = append(texts, string(src))
	} else {
		for _, p := range srcPaths {
			src, err := os.ReadFile(p)
			if err != nil {
				return fmt.Errorf("Cannot read the source file %s: %w", p, err)
			}
			texts = append(texts, string(src))
		}
	}

	opts := parseOptions(*parseFlags.maxGenerations, *parseFlags.disableSkip)

	ctx := context.Background()
	if err := set.Warm(ctx); err != nil {
		return err
	}
	rs, err := parser.ParseAll(ctx, set, *parseFlags.goal, texts, opts...)
	if err != nil {
		return err
	}

	failed := false
	for i, r := range rs {
		name := "stdin"
		if len(srcPaths) > 0 {
			name = srcPaths[i]
		}
		if len(rs) > 1 {
			fmt.Fprintf(os.Stdout, "# %v\n", name)
		}
		if *parseFlags.stats {
			fmt.Fprintf(os.Stderr, "%v: generations: %v, growing nodes: %v, completed nodes: %v\n", name, r.Stats.Generations, r.Stats.GrowingNodes, r.Stats.Completes)
		}
		if !r.OK() {
			fmt.Fprintf(os.Stderr, "%v: %v\n", name, r.Failure)
			failed = true
			continue
		}
		if r.Tree.IsAmbiguous() {
			logger.Info("ambiguous forest", "source", name)
		}
		if err := writeTree(os.Stdout, r.Tree, *parseFlags.output); err != nil {
			return err
		}
	}
	if failed {
		return errors.New("Parse failed")
	}
	return nil
}

func parseOptions(maxGenerations int, disableSkip bool) []parser.ParserOption {
	opts := []parser.ParserOption{
		parser.Logger(logger),
	}
	if maxGenerations > 0 {
		opts = append(opts, parser.MaxGenerations(maxGenerations))
	}
	if disableSkip {
		opts = append(opts, parser.DisableSkip())
	}
	return opts
}

func writeTree(w io.Writer, tree *sppf.Tree, form string) error {
	switch form {
	case "tree":
		sppf.PrintTree(w, tree.Root)
	case "compact":
		fmt.Fprintln(w, tree)
	case "ast", "json":
		ast, err := semantic.NewASTTransformer().Transform(tree)
		if err != nil {
			return err
		}
		if form == "ast" {
			semantic.PrintTree(w, ast)
			return nil
		}
		b, err := json.MarshalIndent(ast, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(b))
	case "cst":
		cst, err := semantic.NewCSTTransformer().Transform(tree)
		if err != nil {
			return err
		}
		semantic.PrintTree(w, cst)
	}
	return nil
}
