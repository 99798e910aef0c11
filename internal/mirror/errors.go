// SPDX-License-Identifier: MIT
package mirror

import (
	"errors"
	"fmt"
)

var (
	// ErrTargetNotFound matches every *TargetNotFoundError.
	ErrTargetNotFound = errors.New("target not found")
	// ErrJobActive is returned when a repository already has a running job.
	ErrJobActive = errors.New("job already active")
	// ErrRepositoryNotFound is returned for names missing from the store.
	ErrRepositoryNotFound = errors.New("repository not found")
)

// TargetNotFoundError reports a requested target that is not among the
// discovered targets of a repository.
type TargetNotFoundError struct {
	Name       string
	Repository string
}

func (e *TargetNotFoundError) Error() string {
	return fmt.Sprintf("target %q not found for repository %q", e.Name, e.Repository)
}

func (e *TargetNotFoundError) Is(target error) bool {
	return target == ErrTargetNotFound
}
