package minio

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"

	"github.com/chemlattice/molimport/internal/application/importer"
	"github.com/chemlattice/molimport/internal/infrastructure/monitoring/logging"
	"github.com/chemlattice/molimport/pkg/errors"
)

// Archiver stores raw CSV uploads under a date-partitioned object path so
// operators can audit exactly what was imported.  It implements
// importer.UploadArchiver.
type Archiver struct {
	client *Client
}

var _ importer.UploadArchiver = (*Archiver)(nil)

// NewArchiver wraps client as an upload archiver.
func NewArchiver(client *Client) *Archiver {
	return &Archiver{client: client}
}

// Archive stores data under imports/<yyyy>/<mm>/<importID>/<filename> and
// returns the object path.
func (a *Archiver) Archive(ctx context.Context, importID uuid.UUID, filename string, data []byte) (string, error) {
	if filename == "" {
		filename = "upload.csv"
	}

	now := time.Now().UTC()
	objectPath := path.Join(
		"imports",
		fmt.Sprintf("%04d", now.Year()),
		fmt.Sprintf("%02d", now.Month()),
		importID.String(),
		path.Base(filename),
	)

	opts := minio.PutObjectOptions{
		ContentType: "text/csv",
		UserMetadata: map[string]string{
			"import-id": importID.String(),
		},
	}
	_, err := a.client.api.PutObject(ctx, a.client.bucket, objectPath,
		bytes.NewReader(data), int64(len(data)), opts)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeArchiveFailed, "failed to archive upload").
			WithDetail(objectPath)
	}

	a.client.logger.Debug("upload archived",
		logging.String("object", objectPath),
		logging.Int("bytes", len(data)))
	return objectPath, nil
}
