package repositories

import (
	"context"
)

// UnitOfWork scopes a set of repository calls to one transaction. Rotation
// relies on it to serialize against concurrent suspend/resume/delete on the
// same key row.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
	// WithLock marks the context so single-row reads inside the
	// transaction hold a row lock until commit. Read-modify-write
	// sequences use it to keep a concurrent writer from slipping in
	// between the read and the write.
	WithLock(ctx context.Context) context.Context
}
