package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Neumenon/xmlserial/transcode"
)

// version can be overridden at build time via -ldflags.
var version = "0.1.0"

var versionColor = color.New(color.FgGreen, color.Bold)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version info",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "xmlserial %s\n", versionColor.Sprint(version))
			fmt.Fprintf(out, "transcoders: %v\n", transcode.Names())
			return nil
		},
	}
}
