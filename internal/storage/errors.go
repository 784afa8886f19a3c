package storage

import "errors"

// Validation failures reject the operation before any write.
var (
	ErrAccountExists = errors.New("account already exists")
	ErrDuplicateName = errors.New("name already in use")
	ErrEmptyName     = errors.New("name must not be empty")
)

// ErrNotFound reports an id absent from its expected collection. Leaf
// mutators surface it; cascades treat it as a benign no-op so destructive
// operations stay idempotent against partially-cleaned state.
var ErrNotFound = errors.New("not found")
