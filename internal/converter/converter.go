// =============================================================================
// Plan of Study Converter - Converter Module
// =============================================================================
//
// This module contains the conversion pipeline for a single spreadsheet,
// from raw bytes to a written plan file.
//
// CONVERSION PIPELINE:
//   1. Read the input file
//   2. Pick the parser settings (department profile or main config)
//   3. Parse the spreadsheet into a PlanOfStudy
//   4. Report row-level errors and duplicate warnings
//   5. Check link references against the course list
//   6. Render the plan (JSON or XML)
//   7. Write the output file
//   8. Archive the input file
//
// CONCURRENCY:
//   A Converter handles one file and shares nothing with other Converters,
//   so RunBatch can run any number of them side by side.
//
// =============================================================================

package converter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ginjaninja78/plan-of-study-converter/internal/config"
	"github.com/ginjaninja78/plan-of-study-converter/internal/csvparser"
	"github.com/ginjaninja78/plan-of-study-converter/internal/logging"
	"github.com/ginjaninja78/plan-of-study-converter/internal/plan"
	"github.com/ginjaninja78/plan-of-study-converter/internal/posparser"
	"github.com/ginjaninja78/plan-of-study-converter/internal/types"
	"github.com/ginjaninja78/plan-of-study-converter/internal/validation"
	"github.com/ginjaninja78/plan-of-study-converter/internal/xmlwriter"
	"github.com/ginjaninja78/plan-of-study-converter/pkg/utils"
)

// Failure reasons that are not parse errors.
var (
	// ErrFieldErrors means rows were rejected and continue_on_error is off.
	ErrFieldErrors = errors.New("plan has row-level errors")

	// ErrReferenceErrors means strict_references is on and links point at
	// courses that do not exist.
	ErrReferenceErrors = errors.New("plan has unresolved references")
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of converting a single file.
type Result struct {
	// FilePath is the input file.
	FilePath string

	// OutputFile is the written plan. Empty if conversion failed or in a
	// dry run.
	OutputFile string

	// ArchivePath is where the input was moved, if archiving is enabled.
	ArchivePath string

	// Profile is the department profile that matched the file, if any.
	Profile string

	Success bool
	Error   error

	// Plan is the parsed plan. It is set whenever parsing got past the
	// structural checks, even if the conversion then failed.
	Plan *plan.PlanOfStudy

	FieldErrors     []error
	Warnings        []*posparser.DuplicateCourseCodeWarning
	ReferenceIssues []*validation.ValidationError

	Stats ProcessingStats
}

// ProcessingStats contains statistics about the conversion.
type ProcessingStats struct {
	Courses           int
	Links             int
	FieldErrors       int
	DuplicateWarnings int
	ReferenceErrors   int
	ReferenceWarnings int
	ProcessingTime    time.Duration
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Converter handles the conversion of a single spreadsheet.
type Converter struct {
	inputPath  string
	mainConfig *config.MainConfig
	profiles   []*config.DepartmentProfile
	files      *utils.FileManager
	logger     logging.Logger

	// dryRun skips writing and archiving.
	dryRun bool
}

// New creates a new Converter instance.
//
// PARAMETERS:
//   - inputPath: The spreadsheet to convert.
//   - mainConfig: The main application configuration.
//   - profiles: Department profiles; the first one matching the file name
//     overrides the parser settings.
func New(inputPath string, mainConfig *config.MainConfig, profiles []*config.DepartmentProfile) *Converter {
	return &Converter{
		inputPath:  inputPath,
		mainConfig: mainConfig,
		profiles:   profiles,
		files:      utils.NewFileManager(mainConfig.InputDir, mainConfig.OutputDir, mainConfig.ArchiveDir),
		logger:     logging.Default(),
	}
}

// WithLogger replaces the logger.
func (c *Converter) WithLogger(l logging.Logger) *Converter {
	c.logger = l
	return c
}

// WithDryRun parses and checks without writing or archiving anything.
func (c *Converter) WithDryRun(dryRun bool) *Converter {
	c.dryRun = dryRun
	return c
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the conversion pipeline for the file.
func (c *Converter) Run(ctx context.Context) (result Result) {
	startTime := time.Now()
	result = Result{FilePath: c.inputPath}
	defer func() { result.Stats.ProcessingTime = time.Since(startTime) }()

	c.logger.Info("Processing file: %s", c.inputPath)

	// =========================================================================
	// STEP 1: READ INPUT
	// =========================================================================

	if err := ctx.Err(); err != nil {
		result.Error = err
		return result
	}

	data, err := os.ReadFile(c.inputPath)
	if err != nil {
		result.Error = fmt.Errorf("failed to read input: %w", err)
		return result
	}

	// =========================================================================
	// STEP 2-3: PARSE
	// =========================================================================

	settings, profile := c.mainConfig.ParserFor(c.inputPath, c.profiles)
	result.Profile = profile
	if profile != "" {
		c.logger.Debug("Using department profile %q", profile)
	}

	parsed, err := posparser.ParseFile(c.inputPath, data, ParserOptions(settings))
	if err != nil {
		result.Error = fmt.Errorf("failed to parse: %w", err)
		return result
	}

	result.Plan = parsed.Plan
	result.FieldErrors = parsed.FieldErrors
	result.Warnings = parsed.Warnings
	result.Stats.Courses = len(parsed.Plan.Courses)
	result.Stats.Links = len(parsed.Plan.Links)
	result.Stats.FieldErrors = len(parsed.FieldErrors)
	result.Stats.DuplicateWarnings = len(parsed.Warnings)

	c.logger.Debug("Parsed department %d (%s): %d courses, %d links",
		parsed.Plan.Department.ID, parsed.Plan.Department.Name, len(parsed.Plan.Courses), len(parsed.Plan.Links))

	// =========================================================================
	// STEP 4: ROW-LEVEL ISSUES
	// =========================================================================

	for _, w := range parsed.Warnings {
		c.logger.Warn("%s: %s", filepath.Base(c.inputPath), w.Error())
	}
	for _, fe := range parsed.FieldErrors {
		c.logger.Warn("%s: %s", filepath.Base(c.inputPath), fe.Error())
	}
	if parsed.HasFieldErrors() && !c.mainConfig.ContinueOnError {
		result.Error = fmt.Errorf("%w: %d row(s) rejected", ErrFieldErrors, len(parsed.FieldErrors))
		return result
	}

	// =========================================================================
	// STEP 5: REFERENCE CHECK
	// =========================================================================

	validator := validation.NewValidator(validation.ValidationOptions{
		Strict:              c.mainConfig.StrictReferences,
		MatchCatalogNumbers: true,
	})
	check := validator.ValidateAll(parsed.Plan)
	result.ReferenceIssues = check.Errors
	result.Stats.ReferenceErrors = check.ErrorCount
	result.Stats.ReferenceWarnings = check.WarningCount

	for _, issue := range check.Errors {
		c.logger.Debug("%s: %s", filepath.Base(c.inputPath), issue.Error())
	}
	if c.mainConfig.StrictReferences && !check.IsValid {
		result.Error = fmt.Errorf("%w: %d error(s)", ErrReferenceErrors, check.ErrorCount)
		return result
	}

	// =========================================================================
	// STEP 6: RENDER
	// =========================================================================

	body, ext, err := Render(parsed.Plan, c.mainConfig.OutputFormat)
	if err != nil {
		result.Error = err
		return result
	}

	if c.dryRun {
		result.Success = true
		return result
	}

	// =========================================================================
	// STEP 7: WRITE OUTPUT FILE
	// =========================================================================

	outputPath, err := c.writeOutput(parsed.Plan, body, ext)
	if err != nil {
		result.Error = fmt.Errorf("failed to write output: %w", err)
		return result
	}
	result.OutputFile = outputPath
	c.logger.Info("Wrote output to: %s", outputPath)

	// =========================================================================
	// STEP 8: ARCHIVE INPUT
	// =========================================================================

	archived, err := c.files.ArchiveInputFile(c.inputPath)
	if err != nil {
		// Archiving is best effort; the output is already written.
		c.logger.Warn("Failed to archive %s: %v", c.inputPath, err)
	} else if archived != c.inputPath {
		result.ArchivePath = archived
	}

	result.Success = true
	return result
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// ParserOptions maps configured parser settings onto parser options.
func ParserOptions(settings config.ParserConfig) posparser.Options {
	return posparser.Options{
		MajorCodePrefix: settings.MajorCodePrefix,
		CSV:             csvparser.Settings{Delimiter: settings.CSVDelimiter},
	}
}

// Render encodes a plan in the given output format and returns the bytes
// together with the file extension to use.
func Render(p *plan.PlanOfStudy, format string) ([]byte, string, error) {
	switch strings.ToLower(format) {
	case "", config.FormatJSON:
		body, err := plan.EncodeJSON(p, true)
		if err != nil {
			return nil, "", fmt.Errorf("failed to encode JSON: %w", err)
		}
		return body, ".json", nil
	case config.FormatXML:
		body, err := xmlwriter.Generate(p)
		if err != nil {
			return nil, "", fmt.Errorf("failed to generate XML: %w", err)
		}
		return body, ".xml", nil
	default:
		return nil, "", fmt.Errorf("unknown output format %q", format)
	}
}

// writeOutput writes the rendered plan into the output directory.
//
// NAMING:
//   The file name comes from output_name_format:
//   - {uuid}: A random UUID
//   - {timestamp}: Current timestamp
//   - {dept}: Department id
//   - {name}: Input file name without extension
func (c *Converter) writeOutput(p *plan.PlanOfStudy, body []byte, ext string) (string, error) {
	if err := os.MkdirAll(c.mainConfig.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	base := filepath.Base(c.inputPath)
	fileName := utils.GenerateOutputFileName(c.mainConfig.OutputNameFormat, ext, map[string]string{
		"dept": strconv.Itoa(p.Department.ID),
		"name": strings.TrimSuffix(base, filepath.Ext(base)),
	})
	outputPath := filepath.Join(c.mainConfig.OutputDir, fileName)

	if err := os.WriteFile(outputPath, body, 0644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return outputPath, nil
}

// =============================================================================
// ERROR LOG ENTRIES
// =============================================================================

// ErrorLogEntries flattens the result's problems into error log entries:
// the failure itself, every rejected row and every reference error.
// Duplicate warnings and reference warnings are left to the console log.
func (r *Result) ErrorLogEntries() []utils.ErrorLogEntry {
	now := time.Now()
	file := filepath.Base(r.FilePath)
	var entries []utils.ErrorLogEntry

	if r.Error != nil {
		entries = append(entries, utils.ErrorLogEntry{
			Timestamp:    now,
			FileName:     file,
			ErrorType:    errorType(r.Error),
			ErrorMessage: r.Error.Error(),
		})
	}

	for _, fe := range r.FieldErrors {
		entry := utils.ErrorLogEntry{Timestamp: now, FileName: file, ErrorType: "field", ErrorMessage: fe.Error()}
		var credits *posparser.MalformedCreditsError
		var semesters *posparser.MalformedSemesterError
		switch {
		case errors.As(fe, &credits):
			entry.RowNumber, entry.FieldName, entry.FieldValue = credits.Row, "credits", credits.Value
		case errors.As(fe, &semesters):
			entry.RowNumber, entry.FieldName, entry.FieldValue = semesters.Row, "semesters", semesters.Value
		}
		entries = append(entries, entry)
	}

	for _, issue := range r.ReferenceIssues {
		if issue.Severity != validation.SeverityError {
			continue
		}
		entries = append(entries, utils.ErrorLogEntry{
			Timestamp:    now,
			FileName:     file,
			ErrorType:    "reference",
			ErrorMessage: issue.Message,
			FieldName:    issue.Field,
			FieldValue:   issue.Value,
		})
	}

	return entries
}

// errorType classifies a conversion failure for the error log.
func errorType(err error) string {
	var decodeErr *types.DecodeError
	switch {
	case errors.Is(err, posparser.ErrMissingDepartmentCode),
		errors.Is(err, posparser.ErrMissingMetadata),
		errors.Is(err, posparser.ErrMissingHeader):
		return "structural"
	case errors.Is(err, ErrFieldErrors):
		return "field"
	case errors.Is(err, ErrReferenceErrors):
		return "reference"
	case errors.As(err, &decodeErr):
		return "decode"
	}
	return "io"
}
