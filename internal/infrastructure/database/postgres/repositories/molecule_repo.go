// Package repositories contains the PostgreSQL implementations of the domain
// repository interfaces.
package repositories

import (
	"context"
	"encoding/json"
	stderrors "errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chemlattice/molimport/internal/domain/molecule"
	"github.com/chemlattice/molimport/internal/infrastructure/monitoring/logging"
	"github.com/chemlattice/molimport/pkg/errors"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique-constraint failures.
const uniqueViolation = "23505"

// MoleculeRepository is the PostgreSQL implementation of molecule.Repository.
// Property bags are stored as JSONB.
type MoleculeRepository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewMoleculeRepository constructs a ready-to-use MoleculeRepository.
func NewMoleculeRepository(pool *pgxpool.Pool, logger logging.Logger) *MoleculeRepository {
	return &MoleculeRepository{pool: pool, logger: logger.Named("repo.molecule")}
}

var _ molecule.Repository = (*MoleculeRepository)(nil)

// Save persists a record.  A canonical-key collision surfaces as
// ErrCodeMoleculeAlreadyExists so callers can treat it as a duplicate rather
// than an infrastructure failure.
func (r *MoleculeRepository) Save(ctx context.Context, rec *molecule.Record) error {
	propsJSON, err := json.Marshal(rec.Properties)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode properties")
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO molecules (
			id, notation, canonical_key, atom_count,
			properties, source_row, import_id, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		rec.ID, rec.Notation, rec.CanonicalKey, rec.AtomCount,
		propsJSON, rec.SourceRow, rec.ImportID, rec.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if stderrors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return errors.New(errors.ErrCodeMoleculeAlreadyExists, "canonical key already persisted").
				WithDetail(rec.CanonicalKey)
		}
		r.logger.Error("molecule insert failed",
			logging.String("canonical_key", rec.CanonicalKey),
			logging.Err(err))
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to insert molecule")
	}
	return nil
}

// ExistsByCanonicalKey reports whether a record with the given key exists.
func (r *MoleculeRepository) ExistsByCanonicalKey(ctx context.Context, key string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM molecules WHERE canonical_key = $1)`, key,
	).Scan(&exists)
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeDatabaseError, "exists check failed")
	}
	return exists, nil
}

// GetByCanonicalKey fetches one record by canonical key.
func (r *MoleculeRepository) GetByCanonicalKey(ctx context.Context, key string) (*molecule.Record, error) {
	var (
		rec       molecule.Record
		propsJSON []byte
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id, notation, canonical_key, atom_count,
		       properties, source_row, import_id, created_at
		FROM molecules WHERE canonical_key = $1`, key,
	).Scan(&rec.ID, &rec.Notation, &rec.CanonicalKey, &rec.AtomCount,
		&propsJSON, &rec.SourceRow, &rec.ImportID, &rec.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, errors.New(errors.ErrCodeMoleculeNotFound, "no molecule for canonical key").
				WithDetail(key)
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "molecule lookup failed")
	}

	if len(propsJSON) > 0 {
		if err := json.Unmarshal(propsJSON, &rec.Properties); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode properties")
		}
	}
	return &rec, nil
}

// CountByImport returns the number of records one import session persisted.
func (r *MoleculeRepository) CountByImport(ctx context.Context, importID string) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM molecules WHERE import_id = $1`, importID,
	).Scan(&n)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "import count failed")
	}
	return n, nil
}
