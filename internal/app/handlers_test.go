package app

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alexvc23/ETL-vacantions-France-and-neighboors/internal/matrix"
)

func testServer(t *testing.T, auth *Credentials) (*Server, *int) {
	t.Helper()
	builds := 0
	s, err := NewServer(func() (*matrix.Table, matrix.Stats, error) {
		builds++
		m := exportMatrix()
		return m, matrix.Stats{Rows: len(m.Rows)}, nil
	}, auth)
	require.NoError(t, err)
	s.Now = func() time.Time { return time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC) }
	return s, &builds
}

func serve(s *Server, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestHandleZones(t *testing.T) {
	s, _ := testServer(t, nil)

	rec := serve(s, http.MethodGet, "/api/zones")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Version string `json:"version"`
		Columns []struct {
			Name string `json:"name"`
			Code string `json:"code"`
			Kind string `json:"kind"`
		} `json:"columns"`
		Rows  int    `json:"rows"`
		First string `json:"first"`
		Last  string `json:"last"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "t1", resp.Version)
	assert.Equal(t, 5, resp.Rows)
	assert.Equal(t, "2025-10-18", resp.First)
	assert.Equal(t, "2025-10-28", resp.Last)
	require.Len(t, resp.Columns, 4)
	assert.Equal(t, "date", resp.Columns[0].Kind)
	assert.Equal(t, "bel", resp.Columns[2].Code)
	assert.Equal(t, "flag", resp.Columns[2].Kind)
	assert.Equal(t, "text", resp.Columns[3].Kind)
}

func TestHandleMatrixWindow(t *testing.T) {
	s, _ := testServer(t, nil)

	rec := serve(s, http.MethodGet, "/api/matrix?from=2025-10-19&to=2025-10-28")
	require.Equal(t, http.StatusOK, rec.Code)

	var doc matrixDocument
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	require.Len(t, doc.Rows, 3)
	assert.Equal(t, "2025-10-19", doc.Rows[0][0])
	assert.Equal(t, "2025-10-27", doc.Rows[2][0])

	rec = serve(s, http.MethodGet, "/api/matrix?from=19/10/2025")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(s, http.MethodPost, "/api/matrix")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleDownload(t *testing.T) {
	s, _ := testServer(t, nil)

	tests := []struct {
		name        string
		target      string
		status      int
		contentType string
		contains    string
	}{
		{name: "csv", target: "/api/download?format=csv", status: http.StatusOK, contentType: "text/csv; charset=utf-8", contains: "date;fr_zone_a;bel;school_year"},
		{name: "json", target: "/api/download?format=json&to=2025-10-19", status: http.StatusOK, contentType: "application/json; charset=utf-8", contains: `"rows":[["2025-10-18",1,0,"2025-2026"]]`},
		{name: "ics by code", target: "/api/download?format=ics&zone=bel&reminder=1@18:00", status: http.StatusOK, contentType: "text/calendar; charset=utf-8", contains: "TRIGGER:-P0DT6H0M"},
		{name: "ics unknown zone", target: "/api/download?format=ics&zone=sui", status: http.StatusNotFound},
		{name: "ics bad reminder", target: "/api/download?format=ics&zone=bel&reminder=tomorrow", status: http.StatusBadRequest},
		{name: "unknown format", target: "/api/download?format=xlsx", status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(s, http.MethodGet, tt.target)
			assert.Equal(t, tt.status, rec.Code)
			if tt.contentType != "" {
				assert.Equal(t, tt.contentType, rec.Header().Get("Content-Type"))
			}
			if tt.contains != "" {
				assert.Contains(t, rec.Body.String(), tt.contains)
			}
		})
	}
}

func TestHandleSubscribe(t *testing.T) {
	s, _ := testServer(t, nil)

	rec := serve(s, http.MethodGet, "/api/subscribe/fr_zone_a")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "METHOD:PUBLISH")
	assert.Equal(t, 1, strings.Count(body, "BEGIN:VEVENT"))
	assert.Contains(t, body, "DTEND;VALUE=DATE:20251021")

	// periods that ended before last January are dropped
	s.Now = func() time.Time { return time.Date(2027, 3, 1, 0, 0, 0, 0, time.UTC) }
	rec = serve(s, http.MethodGet, "/api/subscribe/fr_zone_a")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "BEGIN:VEVENT")

	rec = serve(s, http.MethodGet, "/api/subscribe/nowhere")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleReload(t *testing.T) {
	hash, err := HashPassword(testPassword)
	require.NoError(t, err)
	s, builds := testServer(t, &Credentials{User: "admin", Hash: hash})
	require.Equal(t, 1, *builds)

	rec := serve(s, http.MethodPost, "/api/reload")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 1, *builds)

	req := httptest.NewRequest(http.MethodPost, "/api/reload", nil)
	req.SetBasicAuth("admin", testPassword)
	rec = httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, *builds)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	req = httptest.NewRequest(http.MethodGet, "/api/reload", nil)
	req.SetBasicAuth("admin", testPassword)
	rec = httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestReloadKeepsMatrixOnError(t *testing.T) {
	fail := false
	s, err := NewServer(func() (*matrix.Table, matrix.Stats, error) {
		if fail {
			return nil, matrix.Stats{}, errors.New("feed unavailable")
		}
		return exportMatrix(), matrix.Stats{}, nil
	}, nil)
	require.NoError(t, err)

	fail = true
	rec := serve(s, http.MethodPost, "/api/reload")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = serve(s, http.MethodGet, "/api/zones")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"rows":5`)
}

func TestNewServerFailsWithoutMatrix(t *testing.T) {
	_, err := NewServer(func() (*matrix.Table, matrix.Stats, error) {
		return nil, matrix.Stats{}, errors.New("no input files")
	}, nil)
	assert.Error(t, err)
}
