package importer

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/chemlattice/molimport/internal/domain/molecule"
	"github.com/chemlattice/molimport/internal/infrastructure/monitoring/logging"
	mtypes "github.com/chemlattice/molimport/pkg/types/molecule"
)

// ImportCompletedEvent is emitted after an import run finishes, for
// downstream consumers (notification service, audit trail).
type ImportCompletedEvent struct {
	ImportID   uuid.UUID `json:"import_id"`
	Filename   string    `json:"filename,omitempty"`
	ObjectPath string    `json:"object_path,omitempty"`
	TotalRows  int       `json:"total_rows"`
	Successful int       `json:"successful"`
	Failed     int       `json:"failed"`
	Duplicates int       `json:"duplicates"`
	Cancelled  bool      `json:"cancelled"`
	FinishedAt time.Time `json:"finished_at"`
}

// EventPublisher emits import-lifecycle events.  The Kafka implementation
// lives under internal/infrastructure/messaging.
type EventPublisher interface {
	ImportCompleted(ctx context.Context, ev ImportCompletedEvent) error
}

// UploadArchiver stores the raw uploaded file for audit purposes and returns
// the stored object path.  The MinIO implementation lives under
// internal/infrastructure/storage.
type UploadArchiver interface {
	Archive(ctx context.Context, importID uuid.UUID, filename string, data []byte) (string, error)
}

// SessionService runs a full import session: archive the upload, run the
// orchestrator with the repository as sink, and publish the completion event.
// Publisher and archiver are optional; a nil collaborator skips that step.
type SessionService struct {
	svc       *Service
	repo      molecule.Repository
	publisher EventPublisher
	archiver  UploadArchiver
	logger    logging.Logger
}

// NewSessionService constructs a SessionService around the core import
// service.
func NewSessionService(svc *Service, repo molecule.Repository, publisher EventPublisher, archiver UploadArchiver, logger logging.Logger) *SessionService {
	return &SessionService{
		svc:       svc,
		repo:      repo,
		publisher: publisher,
		archiver:  archiver,
		logger:    logger.Named("importer.session"),
	}
}

// Run executes one import session.  rawFile and filename describe the
// original upload and may be empty when archiving is disabled.  Archive and
// publish failures are logged but do not fail the import: the validated
// records are already persisted and the result is authoritative.
func (s *SessionService) Run(ctx context.Context, table mtypes.Table, mapping *mtypes.ColumnMapping, rawFile []byte, filename string) (*ImportResult, error) {
	var objectPath string
	if s.archiver != nil && len(rawFile) > 0 {
		// Archive under a provisional ID; the import has not produced its own
		// ID yet and the audit copy must survive even a failed run.
		archiveID := uuid.New()
		path, err := s.archiver.Archive(ctx, archiveID, filename, rawFile)
		if err != nil {
			s.logger.Warn("upload archive failed",
				logging.String("filename", filename),
				logging.Err(err))
		} else {
			objectPath = path
		}
	}

	result, err := s.svc.Import(ctx, table, mapping, func(ctx context.Context, rec *molecule.Record) error {
		return s.repo.Save(ctx, rec)
	})
	if err != nil {
		return result, err
	}

	if s.publisher != nil {
		ev := ImportCompletedEvent{
			ImportID:   result.ImportID,
			Filename:   filename,
			ObjectPath: objectPath,
			TotalRows:  result.TotalRows,
			Successful: result.Successful,
			Failed:     result.Failed,
			Duplicates: result.Duplicates,
			Cancelled:  result.Cancelled,
			FinishedAt: time.Now().UTC(),
		}
		if perr := s.publisher.ImportCompleted(ctx, ev); perr != nil {
			s.logger.Warn("import event publish failed",
				logging.String("import_id", result.ImportID.String()),
				logging.Err(perr))
		}
	}

	return result, nil
}

// Validate runs only the configuration stage: mapping validation against the
// catalog, without touching any row.  Used by the pre-flight endpoint so the
// UI can verify a mapping before uploading a large file.
func (s *SessionService) Validate(mapping *mtypes.ColumnMapping) (bool, []string) {
	res := s.svc.mappings.Validate(mapping)
	return res.Valid, res.Errors
}
