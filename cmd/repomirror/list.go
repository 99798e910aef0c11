// SPDX-License-Identifier: MIT
package repomirror

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/skaphos/repomirror/internal/cliio"
	"github.com/skaphos/repomirror/internal/model"
	"github.com/skaphos/repomirror/internal/sortutil"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List registered repositories",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := loadSession()
		if err != nil {
			return err
		}
		noHeaders, _ := cmd.Flags().GetBool("no-headers")
		repos := sess.store.List()
		sortutil.SortRepositories(repos)
		if len(repos) == 0 {
			infof(cmd, "no repositories registered")
		}
		return writeRepositoryTable(cmd, repos, noHeaders)
	},
}

func writeRepositoryTable(cmd *cobra.Command, repos []model.Repository, noHeaders bool) error {
	rows := make([][]string, 0, len(repos))
	for _, repo := range repos {
		rows = append(rows, []string{
			repo.Name,
			repo.Owner + "/" + repo.Project,
			repo.DefaultBranch,
			repo.LastTarget,
			repo.Subdir,
			strings.Join(repo.Exclude, ","),
		})
	}
	headers := []string{"NAME", "PROJECT", "DEFAULT_BRANCH", "LAST_TARGET", "SUBDIR", "EXCLUDE"}
	return cliio.WriteTable(cmd.OutOrStdout(), false, noHeaders, headers, rows)
}

func init() {
	addNoHeadersFlag(listCmd)
	rootCmd.AddCommand(listCmd)
}
