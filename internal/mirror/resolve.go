package mirror

import "github.com/skaphos/repomirror/internal/model"

// Resolve picks the target to crawl using the engine's PreferUnstable
// setting. See ResolveTarget.
func (e *Engine) Resolve(repo model.Repository, requested string, targets []model.Target) (string, error) {
	return ResolveTarget(repo, requested, targets, e.cfg.PreferUnstable)
}

// ResolveTarget picks the target to crawl. A non-empty requested name wins.
// Otherwise preferUnstable selects the repository's default branch and the
// first discovered target is used when it is false. The chosen name must
// match a discovered target byte for byte.
func ResolveTarget(repo model.Repository, requested string, targets []model.Target, preferUnstable bool) (string, error) {
	name := requested
	if name == "" {
		switch {
		case preferUnstable:
			name = repo.DefaultBranch
		case len(targets) > 0:
			name = targets[0].Name
		}
	}
	for _, t := range targets {
		if t.Name == name {
			return name, nil
		}
	}
	return "", &TargetNotFoundError{Name: name, Repository: repo.Name}
}
