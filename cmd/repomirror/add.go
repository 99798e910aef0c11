// SPDX-License-Identifier: MIT
package repomirror

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/skaphos/repomirror/internal/model"
	"github.com/skaphos/repomirror/internal/registry"
	"github.com/skaphos/repomirror/internal/strutil"
)

// ErrRepositoryExists is returned when adding a name that is already registered.
var ErrRepositoryExists = registry.ErrExists

var addCmd = &cobra.Command{
	Use:   "add <name> <owner> <project>",
	Short: "Register a repository to mirror",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := loadSession()
		if err != nil {
			return err
		}
		defaultBranch, _ := cmd.Flags().GetString("default-branch")
		subdir, _ := cmd.Flags().GetString("subdir")
		excludes, _ := cmd.Flags().GetStringArray("exclude")
		excludes = strutil.SplitCSVAll(excludes)

		repo, err := newRepository(args[0], args[1], args[2], defaultBranch, subdir, excludes)
		if err != nil {
			return err
		}
		if _, exists := sess.store.Get(repo.Name); exists {
			return fmt.Errorf("%w: %s", ErrRepositoryExists, repo.Name)
		}
		if err := sess.store.Put(repo); err != nil {
			return err
		}
		if err := sess.store.Save(); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "added %s (%s/%s)\n", repo.Name, repo.Owner, repo.Project)
		return nil
	},
}

func newRepository(name, owner, project, defaultBranch, subdir string, excludes []string) (model.Repository, error) {
	repo := model.Repository{
		Name:          registry.NormalizeName(name),
		Owner:         strings.TrimSpace(owner),
		Project:       strings.TrimSpace(project),
		DefaultBranch: strings.TrimSpace(defaultBranch),
		Subdir:        strings.Trim(strings.TrimSpace(subdir), "/"),
		LastTarget:    model.UnknownTarget,
		AddedAt:       time.Now(),
	}
	if repo.Name == "" {
		return model.Repository{}, registry.ErrInvalidName
	}
	if repo.Owner == "" || repo.Project == "" {
		return model.Repository{}, errors.New("owner and project are required")
	}
	if strings.Contains(repo.Subdir, "..") {
		return model.Repository{}, fmt.Errorf("invalid subdir %q", subdir)
	}
	for _, pattern := range excludes {
		if !doublestar.ValidatePattern(pattern) {
			return model.Repository{}, fmt.Errorf("invalid exclude pattern %q", pattern)
		}
		repo.Exclude = append(repo.Exclude, pattern)
	}
	return repo, nil
}

func init() {
	addCmd.Flags().String("default-branch", "main", "branch used when unstable targets are preferred")
	addCmd.Flags().String("subdir", "", "local subdirectory under the mirror root")
	addCmd.Flags().StringArray("exclude", nil, "glob patterns of paths to skip (repeatable or comma-separated)")

	rootCmd.AddCommand(addCmd)
}
