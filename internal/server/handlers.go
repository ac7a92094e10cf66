package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ginjaninja78/plan-of-study-converter/internal/converter"
	"github.com/ginjaninja78/plan-of-study-converter/internal/plan"
	"github.com/ginjaninja78/plan-of-study-converter/internal/posparser"
	"github.com/ginjaninja78/plan-of-study-converter/internal/store"
	"github.com/ginjaninja78/plan-of-study-converter/internal/validation"
)

// uploadField is the multipart field holding the spreadsheet.
const uploadField = "file"

// errTooLarge is reported when a body exceeds max_upload_mb.
var errTooLarge = errors.New("request body too large")

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// Report is a parsed plan together with everything found wrong with it.
type Report struct {
	Plan            *plan.PlanOfStudy             `json:"plan"`
	FieldErrors     []FieldIssue                  `json:"fieldErrors"`
	Warnings        []DuplicateIssue              `json:"warnings"`
	ReferenceIssues []*validation.ValidationError `json:"referenceIssues"`
}

// FieldIssue is a rejected row.
type FieldIssue struct {
	Row     int    `json:"row"`
	Code    string `json:"code"`
	Field   string `json:"field"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

// DuplicateIssue is a course code seen on more than one row.
type DuplicateIssue struct {
	Code        string `json:"code"`
	FirstRow    int    `json:"firstRow"`
	Row         int    `json:"row"`
	Conflicting bool   `json:"conflicting"`
	Message     string `json:"message"`
}

type createResponse struct {
	*store.StoredPlan
	FieldErrors     []FieldIssue                  `json:"fieldErrors"`
	Warnings        []DuplicateIssue              `json:"warnings"`
	ReferenceIssues []*validation.ValidationError `json:"referenceIssues"`
}

func newReport(p *plan.PlanOfStudy, parsed *posparser.Result, check *validation.ValidationResult) *Report {
	r := &Report{
		Plan:            p,
		FieldErrors:     []FieldIssue{},
		Warnings:        []DuplicateIssue{},
		ReferenceIssues: check.Errors,
	}
	if r.ReferenceIssues == nil {
		r.ReferenceIssues = []*validation.ValidationError{}
	}
	if parsed == nil {
		return r
	}

	for _, err := range parsed.FieldErrors {
		issue := FieldIssue{Message: err.Error()}
		var credits *posparser.MalformedCreditsError
		var semesters *posparser.MalformedSemesterError
		switch {
		case errors.As(err, &credits):
			issue.Row, issue.Code, issue.Field, issue.Value = credits.Row, credits.Code, "credits", credits.Value
		case errors.As(err, &semesters):
			issue.Row, issue.Code, issue.Field, issue.Value = semesters.Row, semesters.Code, "semesters", semesters.Value
		}
		r.FieldErrors = append(r.FieldErrors, issue)
	}

	for _, w := range parsed.Warnings {
		r.Warnings = append(r.Warnings, DuplicateIssue{
			Code:        w.Code,
			FirstRow:    w.FirstRow,
			Row:         w.Row,
			Conflicting: w.Conflicting(),
			Message:     w.Error(),
		})
	}
	return r
}

// =============================================================================
// HANDLERS
// =============================================================================

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handlePreview(c *gin.Context) {
	name, data, err := readUpload(c)
	if err != nil {
		s.respondError(c, uploadStatus(err), err)
		return
	}

	parsed, err := s.parse(name, data)
	if err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	check := s.validator().ValidateAll(parsed.Plan)
	c.JSON(http.StatusOK, newReport(parsed.Plan, parsed, check))
}

func (s *Server) handleCreate(c *gin.Context) {
	force, _ := strconv.ParseBool(c.Query("force"))

	var (
		p      *plan.PlanOfStudy
		parsed *posparser.Result
	)

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		name, data, err := readUpload(c)
		if err != nil {
			s.respondError(c, uploadStatus(err), err)
			return
		}
		if parsed, err = s.parse(name, data); err != nil {
			s.respondError(c, http.StatusBadRequest, err)
			return
		}
		p = parsed.Plan
	} else {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			s.respondError(c, uploadStatus(bodyError(err)), bodyError(err))
			return
		}
		if p, err = plan.DecodeJSON(body); err != nil {
			s.respondError(c, http.StatusBadRequest, fmt.Errorf("invalid plan JSON: %w", err))
			return
		}
	}

	check := s.validator().ValidateAll(p)
	report := newReport(p, parsed, check)

	if parsed != nil && parsed.HasFieldErrors() && !force {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": converter.ErrFieldErrors.Error(), "report": report})
		return
	}
	if s.config.StrictReferences && !check.IsValid {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": converter.ErrReferenceErrors.Error(), "report": report})
		return
	}

	stored, err := s.store.Create(c.Request.Context(), p)
	if errors.Is(err, store.ErrInvalidPlan) {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}

	s.logger.Info("Stored plan for department %d (%s)", p.Department.ID, p.Department.Name)
	c.JSON(http.StatusCreated, createResponse{
		StoredPlan:      stored,
		FieldErrors:     report.FieldErrors,
		Warnings:        report.Warnings,
		ReferenceIssues: report.ReferenceIssues,
	})
}

func (s *Server) handleList(c *gin.Context) {
	plans, err := s.store.List(c.Request.Context())
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"plans": plans, "count": len(plans)})
}

func (s *Server) handleGet(c *gin.Context) {
	id, ok := s.departmentID(c)
	if !ok {
		return
	}

	stored, err := s.store.Get(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		s.respondError(c, http.StatusNotFound, err)
		return
	}
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, stored)
}

func (s *Server) handleDelete(c *gin.Context) {
	id, ok := s.departmentID(c)
	if !ok {
		return
	}

	err := s.store.Delete(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		s.respondError(c, http.StatusNotFound, err)
		return
	}
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func (s *Server) parse(name string, data []byte) (*posparser.Result, error) {
	settings, _ := s.config.ParserFor(name, s.profiles)
	return posparser.ParseFile(name, data, converter.ParserOptions(settings))
}

func (s *Server) validator() *validation.Validator {
	return validation.NewValidator(validation.ValidationOptions{
		Strict:              s.config.StrictReferences,
		MatchCatalogNumbers: true,
	})
}

func (s *Server) departmentID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("departmentId"))
	if err != nil {
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("invalid department id %q", c.Param("departmentId")))
		return 0, false
	}
	return id, true
}

func (s *Server) respondError(c *gin.Context, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("[%s] %v", c.GetString(requestIDKey), err)
	}
	c.JSON(status, gin.H{"error": err.Error(), "requestId": c.GetString(requestIDKey)})
}

// readUpload returns the name and contents of the uploaded file.
func readUpload(c *gin.Context) (string, []byte, error) {
	header, err := c.FormFile(uploadField)
	if err != nil {
		if bodyErr := bodyError(err); errors.Is(bodyErr, errTooLarge) {
			return "", nil, bodyErr
		}
		return "", nil, fmt.Errorf("missing %q upload: %w", uploadField, err)
	}

	f, err := header.Open()
	if err != nil {
		return "", nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read upload: %w", err)
	}
	return header.Filename, data, nil
}

// bodyError maps http.MaxBytesReader failures onto errTooLarge.
func bodyError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return fmt.Errorf("%w: limit is %d bytes", errTooLarge, maxErr.Limit)
	}
	return err
}

func uploadStatus(err error) int {
	if errors.Is(err, errTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}
