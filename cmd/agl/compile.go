package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dhakehurst/sppf/grammar"
	"github.com/dhakehurst/sppf/grammar/rule"
	gspec "github.com/dhakehurst/sppf/spec/grammar"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var compileFlags = struct {
	name   *string
	format *string
	output *string
}{}

func init() {
	cmd := &cobra.Command{
		Use:     "compile [<grammar file path>]",
		Short:   "Compile a grammar and print a description of its rules",
		Example: `  agl compile expr.agl --format yaml -o expr.yaml`,
		Args:    cobra.MaximumNArgs(1),
		RunE:    runCompile,
	}
	compileFlags.name = cmd.Flags().StringP("name", "n", "", "grammar name (default the last grammar of the file)")
	compileFlags.format = cmd.Flags().StringP("format", "f", "json", "output format: json or yaml")
	compileFlags.output = cmd.Flags().StringP("output", "o", "", "output file path (default stdout)")
	rootCmd.AddCommand(cmd)
}

func runCompile(cmd *cobra.Command, args []string) (retErr error) {
	defer recoverPanic(&retErr)

	var grmPath string
	if len(args) > 0 {
		grmPath = args[0]
	}
	set, err := readGrammar(grmPath, *compileFlags.name)
	if err != nil {
		return err
	}

	var data []byte
	desc := gspec.Describe(set)
	switch *compileFlags.format {
	case "json":
		data, err = json.MarshalIndent(desc, "", "  ")
		data = append(data, '\n')
	case "yaml":
		data, err = yaml.Marshal(desc)
	default:
		return fmt.Errorf("unknown format: %v", *compileFlags.format)
	}
	if err != nil {
		return err
	}

	if *compileFlags.output == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(*compileFlags.output, data, 0644)
}

// readGrammar compiles the grammar named name in the file at path, or in stdin when path is empty.
func readGrammar(path string, name string) (*rule.Set, error) {
	if path != "" {
		return grammar.CompileFile(path, name)
	}
	set, err := grammar.CompileSource(os.Stdin, name)
	if err != nil {
		grammar.SetSource(err, "", "stdin")
		return nil, err
	}
	return set, nil
}
