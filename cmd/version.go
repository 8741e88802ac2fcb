/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"io"

	"github.com/longkey1/flowprobe/internal/version"
	"github.com/spf13/cobra"
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long: `Show the flowprobe build and the User-Agent it sends with each probe.

Servers that log request headers can use the User-Agent to tell probe
traffic apart from real chat clients.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		short, _ := cmd.Flags().GetBool("short")
		return writeVersion(cmd.OutOrStdout(), short)
	},
}

// writeVersion prints the build info, or only the version number when short is set
func writeVersion(w io.Writer, short bool) error {
	if short {
		_, err := fmt.Fprintln(w, version.Short())
		return err
	}
	_, err := fmt.Fprintf(w, "%s\nUser-Agent: %s\n", version.Info(), version.UserAgent())
	return err
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolP("short", "s", false, "Show only version number")
}
