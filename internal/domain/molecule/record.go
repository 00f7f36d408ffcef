package molecule

import (
	"time"

	"github.com/google/uuid"
)

// Record is an imported molecule as persisted by the pipeline: the raw
// notation, its canonical key, and the validated property values keyed by
// property name.
type Record struct {
	ID           uuid.UUID              `json:"id"`
	Notation     string                 `json:"notation"`
	CanonicalKey string                 `json:"canonical_key"`
	AtomCount    int                    `json:"atom_count"`
	Properties   map[string]interface{} `json:"properties"`

	// SourceRow is the 1-based data-row index the record came from.
	SourceRow int `json:"source_row"`

	// ImportID identifies the import session that produced the record.
	ImportID uuid.UUID `json:"import_id"`

	CreatedAt time.Time `json:"created_at"`
}

// NewRecord constructs a Record with a fresh identifier and creation
// timestamp.  The properties map is stored as-is; callers pass only validated
// values.
func NewRecord(importID uuid.UUID, sourceRow int, parsed ParseResult, notation string, props map[string]interface{}) *Record {
	return &Record{
		ID:           uuid.New(),
		Notation:     notation,
		CanonicalKey: parsed.CanonicalKey,
		AtomCount:    parsed.AtomCount,
		Properties:   props,
		SourceRow:    sourceRow,
		ImportID:     importID,
		CreatedAt:    time.Now().UTC(),
	}
}
