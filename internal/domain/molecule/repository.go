package molecule

import "context"

// Repository is the persistence contract for imported molecule records.
// Implementations live under internal/infrastructure.
type Repository interface {
	// Save persists a record.  Saving a record whose canonical key already
	// exists returns an ErrCodeMoleculeAlreadyExists error.
	Save(ctx context.Context, rec *Record) error

	// ExistsByCanonicalKey reports whether a record with the given canonical
	// key is already persisted.
	ExistsByCanonicalKey(ctx context.Context, key string) (bool, error)

	// GetByCanonicalKey fetches a record by canonical key, returning an
	// ErrCodeMoleculeNotFound error when absent.
	GetByCanonicalKey(ctx context.Context, key string) (*Record, error)

	// CountByImport returns the number of records persisted by one import
	// session.
	CountByImport(ctx context.Context, importID string) (int64, error)
}
