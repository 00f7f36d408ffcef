package importer

import "github.com/google/uuid"

// RowError is one per-row diagnostic.  Row is the 0-based data-row index
// (headers excluded).  Property errors for one row are concatenated into a
// single message.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportResult is the auditable summary of one import run.
//
// Every processed row lands in exactly one bucket, so
// TotalRows == Successful + Failed + Duplicates always holds.  When the run
// is cancelled mid-batch, rows never reached are excluded from TotalRows and
// Cancelled is set.
type ImportResult struct {
	ImportID   uuid.UUID  `json:"import_id"`
	TotalRows  int        `json:"total_rows"`
	Successful int        `json:"successful"`
	Failed     int        `json:"failed"`
	Duplicates int        `json:"duplicates"`
	Cancelled  bool       `json:"cancelled,omitempty"`
	Errors     []RowError `json:"errors"`
	DurationMs int64      `json:"duration_ms"`
}
