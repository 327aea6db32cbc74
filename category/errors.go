package category

import "errors"

var (
	// ErrNotFound: the requested category (or a referenced parent) does not exist.
	ErrNotFound = errors.New("category not found")

	// ErrSelfParent: a category may not be its own parent.
	ErrSelfParent = errors.New("category cannot be its own parent")

	// ErrCycle: the requested parent is a descendant of the category being moved.
	ErrCycle = errors.New("category cannot be moved under one of its descendants")

	// ErrIntegrity: an ancestor walk exceeded the total category count. The
	// stored tree contains a cycle and needs operator attention; this is
	// deliberately distinct from ErrNotFound.
	ErrIntegrity = errors.New("category tree is corrupted")
)
