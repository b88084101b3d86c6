package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"
)

var rootFlags = struct {
	debug       *bool
	showVersion *bool
}{}

// logger is configured by the root command before any subcommand runs.
var logger = slog.New(slog.DiscardHandler)

var rootCmd = &cobra.Command{
	Use:   "agl",
	Short: "Compile grammars and parse texts into shared packed parse forests",
	Long: `agl provides the following features:
- Compiles a grammar and prints a description of its rules.
- Parses texts against a goal rule and prints every derivation as one forest.
- Runs YAML test suites against grammars.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelWarn
		if *rootFlags.debug {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		}))

		if *rootFlags.showVersion {
			fmt.Fprintf(os.Stderr, "agl: version %q\n", version.Core())
		}
		return nil
	},
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	rootFlags.debug = rootCmd.PersistentFlags().Bool("debug", false, "log debugging information, such as the generations of a parse")
	rootFlags.showVersion = rootCmd.PersistentFlags().Bool("show-version", false, "show version")
}

func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return err
	}
	return nil
}

// recoverPanic turns a panic of a command into its error and prints the stack trace.
func recoverPanic(retErr *error) {
	v := recover()
	if v == nil {
		return
	}
	err, ok := v.(error)
	if !ok {
		err = fmt.Errorf("an unexpected error occurred: %v", v)
	}
	fmt.Fprintf(os.Stderr, "%v:\n%v", err, string(debug.Stack()))
	*retErr = err
}
