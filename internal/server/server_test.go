package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/ginjaninja78/plan-of-study-converter/internal/config"
	"github.com/ginjaninja78/plan-of-study-converter/internal/logging"
	"github.com/ginjaninja78/plan-of-study-converter/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const civilCSV = "Bachelor of Science in Civil (TENG)-7\n" +
	",,,,\"Major Title: Civil\nDegree: BSc\nMajor Code: TENG5\"\n" +
	"Code,Title,Credits,Prerequisites,Corequisites,Type,Semesters\n" +
	"CIVL100,Statics,3,,,Major,Fall\n" +
	"CIVL200,Dynamics,3,CIVL100,,Major,Spring\n"

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T, configure func(*config.MainConfig)) (*Server, *store.MemoryStore) {
	t.Helper()
	cfg := config.Default()
	if configure != nil {
		configure(cfg)
	}
	plans := store.NewMemoryStore()
	return New(cfg, nil, plans, logging.Nop{}), plans
}

func upload(t *testing.T, target, name, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile(uploadField, name)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestHealthAndRequestID(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = serve(s, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestPreviewStoresNothing(t *testing.T) {
	s, plans := newTestServer(t, nil)

	rec := serve(s, upload(t, "/api/plans/preview", "civil.csv", civilCSV+"CIVL300,Design,3,MATH101,,Major,Fall\n"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var report Report
	decode(t, rec, &report)
	assert.Equal(t, 7, report.Plan.Department.ID)
	assert.Len(t, report.Plan.Courses, 3)
	assert.Empty(t, report.FieldErrors)
	require.Len(t, report.ReferenceIssues, 1)
	assert.Equal(t, "MATH101", report.ReferenceIssues[0].Value)

	list, err := plans.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestPreviewRejectsBadUploads(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := serve(s, upload(t, "/api/plans/preview", "civil.csv", "nothing useful\n"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "department code")

	rec = serve(s, httptest.NewRequest(http.MethodPost, "/api/plans/preview", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateFromUpload(t *testing.T) {
	s, plans := newTestServer(t, nil)

	rec := serve(s, upload(t, "/api/plans", "civil.csv", civilCSV))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		ID   string `json:"id"`
		Plan struct {
			Department struct {
				ID int `json:"id"`
			} `json:"department"`
		} `json:"plan"`
	}
	decode(t, rec, &created)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, 7, created.Plan.Department.ID)

	stored, err := plans.Get(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "Civil", stored.Plan.Department.Name)
	assert.Equal(t, created.ID, stored.ID.String())
}

func TestCreateFieldErrors(t *testing.T) {
	s, _ := newTestServer(t, nil)
	broken := civilCSV + "CIVL300,Fluids,three,,,Major,Fall\n"

	rec := serve(s, upload(t, "/api/plans", "civil.csv", broken))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body struct {
		Report Report `json:"report"`
	}
	decode(t, rec, &body)
	require.Len(t, body.Report.FieldErrors, 1)
	assert.Equal(t, FieldIssue{Row: 6, Code: "CIVL300", Field: "credits", Value: "three", Message: body.Report.FieldErrors[0].Message}, body.Report.FieldErrors[0])

	rec = serve(s, upload(t, "/api/plans?force=true", "civil.csv", broken))
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCreateStrictReferences(t *testing.T) {
	s, _ := newTestServer(t, func(c *config.MainConfig) { c.StrictReferences = true })

	rec := serve(s, upload(t, "/api/plans", "civil.csv", civilCSV+"CIVL300,Design,3,MATH101,,Major,Fall\n"))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "unresolved references")

	rec = serve(s, upload(t, "/api/plans", "civil.csv", civilCSV))
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCreateFromJSON(t *testing.T) {
	s, _ := newTestServer(t, nil)

	legacy := `{"departmentId": 43, "departmentName": "Comm Eng", "courses": [
		{"code": "COMM101", "title": "COMM101: Intro", "credits": 3, "type": "Core", "semesters": "Fall"}],
		"prerequisitesCorequisites": []}`
	req := httptest.NewRequest(http.MethodPost, "/api/plans", strings.NewReader(legacy))
	req.Header.Set("Content-Type", "application/json")

	rec := serve(s, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"schemaVersion":3`)

	req = httptest.NewRequest(http.MethodPost, "/api/plans", strings.NewReader(`{"schemaVersion": 3, "department": {"id": 1}}`))
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusBadRequest, serve(s, req).Code)

	req = httptest.NewRequest(http.MethodPost, "/api/plans", strings.NewReader(`not json`))
	assert.Equal(t, http.StatusBadRequest, serve(s, req).Code)
}

func TestCreateBodyTooLarge(t *testing.T) {
	s, _ := newTestServer(t, func(c *config.MainConfig) { c.Server.MaxUploadMB = 1 })

	req := httptest.NewRequest(http.MethodPost, "/api/plans", bytes.NewReader(make([]byte, 2<<20)))
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusRequestEntityTooLarge, serve(s, req).Code)
}

func TestListGetDelete(t *testing.T) {
	s, _ := newTestServer(t, nil)
	require.Equal(t, http.StatusCreated, serve(s, upload(t, "/api/plans", "civil.csv", civilCSV)).Code)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/plans", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Count int `json:"count"`
	}
	decode(t, rec, &list)
	assert.Equal(t, 1, list.Count)

	assert.Equal(t, http.StatusOK, serve(s, httptest.NewRequest(http.MethodGet, "/api/plans/7", nil)).Code)
	assert.Equal(t, http.StatusNotFound, serve(s, httptest.NewRequest(http.MethodGet, "/api/plans/8", nil)).Code)
	assert.Equal(t, http.StatusBadRequest, serve(s, httptest.NewRequest(http.MethodGet, "/api/plans/civil", nil)).Code)

	assert.Equal(t, http.StatusNoContent, serve(s, httptest.NewRequest(http.MethodDelete, "/api/plans/7", nil)).Code)
	assert.Equal(t, http.StatusNotFound, serve(s, httptest.NewRequest(http.MethodDelete, "/api/plans/7", nil)).Code)
	assert.Equal(t, http.StatusBadRequest, serve(s, httptest.NewRequest(http.MethodDelete, "/api/plans/x", nil)).Code)
}
