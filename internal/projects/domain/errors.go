package domain

import "errors"

var (
	// ErrProjectNotFound is returned when a project id does not exist.
	ErrProjectNotFound = errors.New("project not found")

	// ErrDuplicateProject is returned when a project name is already taken.
	ErrDuplicateProject = errors.New("project name already registered")

	// ErrTableNotFound is returned when a project's data table is missing.
	ErrTableNotFound = errors.New("associated table not found")
)
