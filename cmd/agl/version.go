package main

import (
	"fmt"

	"github.com/maloquacious/semver"
	"github.com/spf13/cobra"
)

var (
	version = semver.Version{
		Major: 0,
		Minor: 1,
		Patch: 0,
		Build: semver.Commit(),
	}
)

var versionFlags = struct {
	buildInfo *bool
}{}

func init() {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Args:  cobra.NoArgs,
		RunE:  runVersion,
	}
	versionFlags.buildInfo = cmd.Flags().Bool("build-info", false, "print build information too")
	rootCmd.AddCommand(cmd)
}

func runVersion(cmd *cobra.Command, args []string) error {
	if *versionFlags.buildInfo {
		fmt.Fprintln(cmd.OutOrStdout(), version.String())
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), version.Core())
	return nil
}
