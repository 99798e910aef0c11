package repomirror

import "github.com/spf13/cobra"

const (
	noHeadersUsage = "do not print table headers"
	targetUsage    = "target to download (release tag or branch); defaults to the newest release"
)

func addNoHeadersFlag(cmd *cobra.Command) {
	cmd.Flags().Bool("no-headers", false, noHeadersUsage)
}
