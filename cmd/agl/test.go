package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/dhakehurst/sppf/tester"
	"github.com/spf13/cobra"
)

var testFlags = struct {
	pattern        *string
	maxGenerations *int
}{}

func init() {
	cmd := &cobra.Command{
		Use:     "test <test directory path>",
		Short:   "Run the test suites under a directory",
		Example: `  agl test testdata --pattern '**/*.test.yaml'`,
		Args:    cobra.ExactArgs(1),
		RunE:    runTest,
	}
	testFlags.pattern = cmd.Flags().String("pattern", "**/*.test.yaml", "glob pattern of the suite files, relative to the directory")
	testFlags.maxGenerations = cmd.Flags().Int("max-generations", 0, "stop a parse after this many generations (0 means no limit)")
	rootCmd.AddCommand(cmd)
}

func runTest(cmd *cobra.Command, args []string) (retErr error) {
	defer recoverPanic(&retErr)

	var suites []*tester.SuiteWithMetadata
	{
		suites = tester.ListSuites(args[0], *testFlags.pattern)
		errOccurred := false
		for _, s := range suites {
			if s.Error != nil {
				fmt.Fprintf(os.Stderr, "Failed to read a test suite: %v\n%v\n", s.FilePath, s.Error)
				errOccurred = true
			}
		}
		if errOccurred {
			return errors.New("Cannot run test")
		}
		if len(suites) == 0 {
			return fmt.Errorf("No test suite matches %v in %v", *testFlags.pattern, args[0])
		}
	}

	t := &tester.Tester{
		Suites:  suites,
		Options: parseOptions(*testFlags.maxGenerations, false),
	}
	rs := t.Run()
	testFailed := false
	for _, r := range rs {
		fmt.Fprintln(os.Stdout, r)
		if r.Error != nil {
			testFailed = true
		}
	}
	if testFailed {
		return errors.New("Test failed")
	}
	return nil
}
