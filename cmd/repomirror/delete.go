package repomirror

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skaphos/repomirror/internal/cliio"
	"github.com/skaphos/repomirror/internal/mirror"
	"github.com/skaphos/repomirror/internal/registry"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Remove a repository from the registry",
	Long:  "Removes a repository from the registry. Files already mirrored are left in place.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := loadSession()
		if err != nil {
			return err
		}
		name := registry.NormalizeName(args[0])
		if _, ok := sess.store.Get(name); !ok {
			return fmt.Errorf("%w: %s", mirror.ErrRepositoryNotFound, name)
		}

		yes, _ := cmd.Flags().GetBool("yes")
		ok, err := cliio.Confirm(cmd.ErrOrStderr(), cmd.InOrStdin(), yes, "Delete repository %s?", name)
		if err != nil {
			return err
		}
		if !ok {
			infof(cmd, "aborted")
			raiseExitCode(1)
			return nil
		}

		sess.store.Delete(name)
		if err := sess.store.Save(); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", name)
		return nil
	},
}

func init() {
	deleteCmd.Flags().BoolP("yes", "y", false, "do not prompt for confirmation")
	rootCmd.AddCommand(deleteCmd)
}
