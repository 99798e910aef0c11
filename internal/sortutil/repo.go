// Package sortutil provides deterministic orderings for CLI and registry
// output.
package sortutil

import (
	"sort"

	"github.com/skaphos/repomirror/internal/model"
)

// LessNameTarget orders by repository name first, then by target.
func LessNameTarget(nameI, targetI, nameJ, targetJ string) bool {
	if nameI == nameJ {
		return targetI < targetJ
	}
	return nameI < nameJ
}

// SortRepositories orders repositories by name.
func SortRepositories(repos []model.Repository) {
	sort.SliceStable(repos, func(i, j int) bool {
		return repos[i].Name < repos[j].Name
	})
}

// SortFileResults orders file outcomes by repository, then path.
func SortFileResults(results []model.FileResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return LessNameTarget(results[i].Repository, results[i].Path, results[j].Repository, results[j].Path)
	})
}
