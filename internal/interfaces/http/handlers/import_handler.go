package handlers

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/chemlattice/molimport/internal/application/importer"
	"github.com/chemlattice/molimport/internal/infrastructure/monitoring/logging"
	"github.com/chemlattice/molimport/pkg/errors"
	mtypes "github.com/chemlattice/molimport/pkg/types/molecule"
)

// mappingRequest is the wire shape of a column mapping.
type mappingRequest struct {
	Columns []mappingColumn `json:"columns"`
}

type mappingColumn struct {
	CSVColumn    string `json:"csv_column"`
	PropertyName string `json:"property_name"`
	PropertyType string `json:"property_type,omitempty"`
}

func (r *mappingRequest) toMapping() *mtypes.ColumnMapping {
	if r == nil {
		return nil
	}
	entries := make([]mtypes.ColumnMappingEntry, 0, len(r.Columns))
	for _, c := range r.Columns {
		entries = append(entries, mtypes.ColumnMappingEntry{
			CSVColumn:    c.CSVColumn,
			PropertyName: c.PropertyName,
			PropertyType: mtypes.PropertyType(strings.ToUpper(c.PropertyType)),
		})
	}
	return &mtypes.ColumnMapping{Entries: entries}
}

// validateMappingResponse is the body of the pre-flight mapping check.
type validateMappingResponse struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// ImportHandler serves CSV upload and mapping pre-flight endpoints.
type ImportHandler struct {
	session *importer.SessionService
	maxRows int
	logger  logging.Logger
}

// NewImportHandler constructs an ImportHandler.  maxRows of 0 disables the
// per-upload row cap.
func NewImportHandler(session *importer.SessionService, maxRows int, logger logging.Logger) *ImportHandler {
	return &ImportHandler{
		session: session,
		maxRows: maxRows,
		logger:  logger.Named("handler.import"),
	}
}

// Import handles POST /api/v1/imports.  The request is multipart/form-data
// with a "file" part holding the CSV and a "mapping" part holding the column
// mapping JSON.
func (h *ImportHandler) Import(c *gin.Context) {
	mapping, ok := h.readMapping(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondBadRequest(c, "multipart field 'file' is required")
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		respondError(c, errors.Wrap(err, errors.ErrCodeTableUnreadable, "failed to open uploaded file"))
		return
	}
	defer f.Close()

	raw, err := io.ReadAll(f)
	if err != nil {
		respondError(c, errors.Wrap(err, errors.ErrCodeTableUnreadable, "failed to read uploaded file"))
		return
	}

	table, err := parseCSV(raw, h.maxRows)
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := h.session.Run(c.Request.Context(), table, mapping, raw, fileHeader.Filename)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ValidateMapping handles POST /api/v1/imports/validate-mapping: a pre-flight
// check so clients can verify a mapping before uploading a large file.
func (h *ImportHandler) ValidateMapping(c *gin.Context) {
	var req mappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "request body must be valid mapping JSON")
		return
	}

	valid, errs := h.session.Validate(req.toMapping())
	c.JSON(http.StatusOK, validateMappingResponse{Valid: valid, Errors: errs})
}

// readMapping extracts and decodes the "mapping" multipart field.
func (h *ImportHandler) readMapping(c *gin.Context) (*mtypes.ColumnMapping, bool) {
	raw := c.PostForm("mapping")
	if raw == "" {
		respondBadRequest(c, "multipart field 'mapping' is required")
		return nil, false
	}

	var req mappingRequest
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		respondBadRequest(c, "mapping field must be valid JSON")
		return nil, false
	}
	return req.toMapping(), true
}

// parseCSV decodes raw CSV bytes into a Table.  Rows may be shorter than the
// header; missing trailing cells read as blank downstream.
func parseCSV(raw []byte, maxRows int) (mtypes.Table, error) {
	r := csv.NewReader(strings.NewReader(string(raw)))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return mtypes.Table{}, errors.Wrap(err, errors.ErrCodeTableUnreadable, "failed to parse CSV")
	}
	if len(records) == 0 {
		return mtypes.Table{}, errors.New(errors.ErrCodeTableUnreadable, "CSV file is empty")
	}

	table := mtypes.Table{Headers: records[0], Rows: records[1:]}
	if maxRows > 0 && len(table.Rows) > maxRows {
		return mtypes.Table{}, errors.New(errors.ErrCodeTableUnreadable, "CSV exceeds the row limit").
			WithDetail(fmt.Sprintf("%d rows, limit %d", len(table.Rows), maxRows))
	}
	return table, nil
}
