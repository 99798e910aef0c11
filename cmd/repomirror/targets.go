// SPDX-License-Identifier: MIT
package repomirror

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skaphos/repomirror/internal/cliio"
	"github.com/skaphos/repomirror/internal/mirror"
	"github.com/skaphos/repomirror/internal/model"
	"github.com/skaphos/repomirror/internal/registry"
	"github.com/skaphos/repomirror/internal/termstyle"
)

var targetsCmd = &cobra.Command{
	Use:   "targets <name>",
	Short: "List the releases and branches of a repository",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := loadSession()
		if err != nil {
			return err
		}
		name := registry.NormalizeName(args[0])
		repo, ok := sess.store.Get(name)
		if !ok {
			return fmt.Errorf("%w: %s", mirror.ErrRepositoryNotFound, name)
		}
		eng, err := sess.newEngine(cmd)
		if err != nil {
			return err
		}
		targets, err := eng.Discover(commandContext(cmd), repo)
		if err != nil {
			return err
		}
		if len(targets) == 0 {
			infof(cmd, "no targets found for %s", name)
			raiseExitCode(1)
			return nil
		}
		setColorOutputMode(cmd)
		noHeaders, _ := cmd.Flags().GetBool("no-headers")
		return writeTargetTable(cmd, repo, targets, noHeaders)
	},
}

func writeTargetTable(cmd *cobra.Command, repo model.Repository, targets []model.Target, noHeaders bool) error {
	rows := make([][]string, 0, len(targets))
	for _, t := range targets {
		name := t.Name
		if name == repo.LastTarget {
			name = termstyle.Colorize(colorOutputEnabled, name, termstyle.Written)
		}
		rows = append(rows, []string{name, string(t.Kind), t.Date, t.Commit})
	}
	return cliio.WriteTable(cmd.OutOrStdout(), colorOutputEnabled, noHeaders, []string{"TARGET", "KIND", "DATE", "COMMIT"}, rows)
}

func init() {
	addNoHeadersFlag(targetsCmd)
	rootCmd.AddCommand(targetsCmd)
}
