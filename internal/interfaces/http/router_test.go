package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chemlattice/molimport/internal/application/importer"
	"github.com/chemlattice/molimport/internal/domain/catalog"
	"github.com/chemlattice/molimport/internal/domain/molecule"
	"github.com/chemlattice/molimport/internal/infrastructure/monitoring/logging"
	"github.com/chemlattice/molimport/internal/interfaces/http/handlers"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type memoryRepo struct {
	mu      sync.Mutex
	records []*molecule.Record
}

func (r *memoryRepo) Save(_ context.Context, rec *molecule.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	return nil
}

func (r *memoryRepo) ExistsByCanonicalKey(_ context.Context, key string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.CanonicalKey == key {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryRepo) GetByCanonicalKey(_ context.Context, key string) (*molecule.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.CanonicalKey == key {
			return rec, nil
		}
	}
	return nil, fmt.Errorf("not found")
}

func (r *memoryRepo) CountByImport(_ context.Context, _ string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.records)), nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *memoryRepo) {
	t.Helper()
	log := logging.NewNopLogger()
	svc := importer.NewService(catalog.Default(), molecule.NewNotationParser(), log)
	repo := &memoryRepo{}
	session := importer.NewSessionService(svc, repo, nil, nil, log)

	router := NewRouter(RouterConfig{
		ImportHandler: handlers.NewImportHandler(session, 0, log),
		HealthHandler: handlers.NewHealthHandler(nil),
		Mode:          gin.TestMode,
		Logger:        log,
	})
	return router, repo
}

// multipartUpload builds a multipart body with a mapping JSON part and a CSV
// file part.
func multipartUpload(t *testing.T, mappingJSON, csvBody string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("mapping", mappingJSON))
	fw, err := w.CreateFormFile("file", "molecules.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte(csvBody))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

const standardMappingJSON = `{"columns":[
	{"csv_column":"SMILES","property_name":"smiles"},
	{"csv_column":"Name","property_name":"name"},
	{"csv_column":"MW","property_name":"molecular_weight"}
]}`

func TestImportEndpoint_Success(t *testing.T) {
	router, repo := newTestRouter(t)

	body, contentType := multipartUpload(t, standardMappingJSON,
		"SMILES,Name,MW\nCCO,Ethanol,46.07\nCC(=O)O,Acetic acid,60.05\n")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/imports", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res importer.ImportResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 2, res.TotalRows)
	assert.Equal(t, 2, res.Successful)
	assert.Zero(t, res.Failed)
	assert.Len(t, repo.records, 2)
}

func TestImportEndpoint_RowErrorsReported(t *testing.T) {
	router, _ := newTestRouter(t)

	body, contentType := multipartUpload(t, standardMappingJSON,
		"SMILES,Name,MW\nCCO,Ethanol,46.07\nCCO,Dup,46.07\nC1CC,Broken ring,42\n")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/imports", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res importer.ImportResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 3, res.TotalRows)
	assert.Equal(t, 1, res.Successful)
	assert.Equal(t, 1, res.Duplicates)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Errors, 2)
}

func TestImportEndpoint_InvalidMappingIs400(t *testing.T) {
	router, _ := newTestRouter(t)

	// No structure column mapped.
	mapping := `{"columns":[{"csv_column":"Name","property_name":"name"}]}`
	body, contentType := multipartUpload(t, mapping, "Name\nEthanol\n")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/imports", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "IMP_001")
}

func TestImportEndpoint_MissingFileIs400(t *testing.T) {
	router, _ := newTestRouter(t)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("mapping", standardMappingJSON))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/imports", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImportEndpoint_EmptyCSVIs400(t *testing.T) {
	router, _ := newTestRouter(t)

	body, contentType := multipartUpload(t, standardMappingJSON, "")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/imports", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "IMP_003")
}

func TestValidateMappingEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	tests := []struct {
		name      string
		body      string
		wantValid bool
	}{
		{
			name:      "valid mapping",
			body:      standardMappingJSON,
			wantValid: true,
		},
		{
			name:      "unknown property",
			body:      `{"columns":[{"csv_column":"SMILES","property_name":"smiles"},{"csv_column":"X","property_name":"flavor"}]}`,
			wantValid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/imports/validate-mapping",
				bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			require.Equal(t, http.StatusOK, rec.Code)
			var res struct {
				Valid  bool     `json:"valid"`
				Errors []string `json:"errors"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
			assert.Equal(t, tt.wantValid, res.Valid)
			if !tt.wantValid {
				assert.NotEmpty(t, res.Errors)
			}
		})
	}
}

func TestHealthEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}
