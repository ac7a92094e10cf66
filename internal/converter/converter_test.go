package converter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ginjaninja78/plan-of-study-converter/internal/config"
	"github.com/ginjaninja78/plan-of-study-converter/internal/logging"
	"github.com/ginjaninja78/plan-of-study-converter/internal/plan"
	"github.com/ginjaninja78/plan-of-study-converter/internal/posparser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const civilCSV = "Bachelor of Science in Civil (TENG)-7\n" +
	",,,,\"Major Title: Civil\nDegree: BSc\nMajor Code: TENG5\"\n" +
	"Code,Title,Credits,Prerequisites,Corequisites,Type,Semesters\n" +
	"CIVL100,Statics,3,,,Major,Fall\n" +
	"CIVL200,Dynamics,3,CIVL100,,Major,Spring\n"

const brokenRowCSV = civilCSV + "CIVL300,Fluids,three,CIVL200,,Major,Fall\n"

const danglingCSV = civilCSV + "CIVL400,Design,3,MATH101,,Major,Fall\n"

// setup returns a config rooted in a temp dir.
func setup(t *testing.T) *config.MainConfig {
	t.Helper()
	root := t.TempDir()

	cfg := config.Default()
	cfg.InputDir = filepath.Join(root, "input")
	cfg.OutputDir = filepath.Join(root, "output")
	cfg.ArchiveDir = filepath.Join(root, "archive")
	cfg.OutputNameFormat = "{dept}_{name}"
	require.NoError(t, os.MkdirAll(cfg.InputDir, 0755))
	return cfg
}

func writeInput(t *testing.T, cfg *config.MainConfig, name, content string) string {
	t.Helper()
	path := filepath.Join(cfg.InputDir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func run(cfg *config.MainConfig, path string, profiles ...*config.DepartmentProfile) Result {
	return New(path, cfg, profiles).WithLogger(logging.Nop{}).Run(context.Background())
}

func TestRunWritesJSONAndArchives(t *testing.T) {
	cfg := setup(t)
	input := writeInput(t, cfg, "civil.csv", civilCSV)

	result := run(cfg, input)
	require.NoError(t, result.Error)
	assert.True(t, result.Success)
	assert.Equal(t, filepath.Join(cfg.OutputDir, "7_civil.json"), result.OutputFile)
	assert.Equal(t, filepath.Join(cfg.ArchiveDir, "civil.csv"), result.ArchivePath)
	assert.Equal(t, 2, result.Stats.Courses)
	assert.Equal(t, 1, result.Stats.Links)

	assert.NoFileExists(t, input)
	assert.FileExists(t, result.ArchivePath)

	body, err := os.ReadFile(result.OutputFile)
	require.NoError(t, err)
	written, err := plan.DecodeJSON(body)
	require.NoError(t, err)
	assert.Equal(t, plan.Department{ID: 7, Name: "Civil"}, written.Department)
	assert.Equal(t, "TENG5", written.MajorCode)
	assert.Equal(t, []plan.CourseLink{{CourseCode: "CIVL200", PrerequisiteCode: plan.Code("CIVL100")}}, written.Links)
}

func TestRunWorkbookToXML(t *testing.T) {
	cfg := setup(t)
	cfg.OutputFormat = config.FormatXML
	cfg.ArchiveDir = ""

	f := excelize.NewFile()
	defer f.Close()
	rows := [][]interface{}{
		{"Bachelor of Science in Civil (TENG)-7"},
		{nil, nil, nil, nil, "Major Title: Civil\nDegree: BSc\nMajor Code: TENG5"},
		{"Code", "Title", "Credits", "Prerequisites", "Corequisites", "Type", "Semesters"},
		{"CIVL100", "Statics", 3, nil, nil, "Major", "Fall"},
	}
	for i, values := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &values))
	}
	input := filepath.Join(cfg.InputDir, "civil.xlsx")
	require.NoError(t, f.SaveAs(input))

	result := run(cfg, input)
	require.NoError(t, result.Error)
	assert.Equal(t, filepath.Join(cfg.OutputDir, "7_civil.xml"), result.OutputFile)
	assert.Empty(t, result.ArchivePath)
	assert.FileExists(t, input)

	body, err := os.ReadFile(result.OutputFile)
	require.NoError(t, err)
	assert.Contains(t, string(body), `<department id="7">`)
	assert.Contains(t, string(body), `<name>Civil</name>`)
	assert.Contains(t, string(body), `code="CIVL100"`)
}

func TestRunDryRunWritesNothing(t *testing.T) {
	cfg := setup(t)
	input := writeInput(t, cfg, "civil.csv", civilCSV)

	result := New(input, cfg, nil).WithLogger(logging.Nop{}).WithDryRun(true).Run(context.Background())
	require.NoError(t, result.Error)
	assert.True(t, result.Success)
	assert.Empty(t, result.OutputFile)
	assert.FileExists(t, input)
	assert.NoDirExists(t, cfg.OutputDir)
}

func TestRunFieldErrors(t *testing.T) {
	t.Run("continue on error", func(t *testing.T) {
		cfg := setup(t)
		input := writeInput(t, cfg, "civil.csv", brokenRowCSV)

		result := run(cfg, input)
		require.NoError(t, result.Error)
		assert.Equal(t, 2, result.Stats.Courses)
		assert.Equal(t, 1, result.Stats.FieldErrors)
		// The rejected row keeps its link.
		assert.Equal(t, 2, result.Stats.Links)
	})

	t.Run("stop on error", func(t *testing.T) {
		cfg := setup(t)
		cfg.ContinueOnError = false
		input := writeInput(t, cfg, "civil.csv", brokenRowCSV)

		result := run(cfg, input)
		assert.False(t, result.Success)
		assert.ErrorIs(t, result.Error, ErrFieldErrors)
		assert.NotNil(t, result.Plan)
		assert.FileExists(t, input)

		entries := result.ErrorLogEntries()
		require.Len(t, entries, 2)
		assert.Equal(t, "field", entries[0].ErrorType)
		assert.Equal(t, "credits", entries[1].FieldName)
		assert.Equal(t, "three", entries[1].FieldValue)
		assert.Equal(t, 6, entries[1].RowNumber)
	})
}

func TestRunReferences(t *testing.T) {
	t.Run("lenient", func(t *testing.T) {
		cfg := setup(t)
		input := writeInput(t, cfg, "civil.csv", danglingCSV)

		result := run(cfg, input)
		require.NoError(t, result.Error)
		assert.Equal(t, 1, result.Stats.ReferenceWarnings)
		assert.Zero(t, result.Stats.ReferenceErrors)
		assert.Empty(t, result.ErrorLogEntries())
	})

	t.Run("strict", func(t *testing.T) {
		cfg := setup(t)
		cfg.StrictReferences = true
		input := writeInput(t, cfg, "civil.csv", danglingCSV)

		result := run(cfg, input)
		assert.ErrorIs(t, result.Error, ErrReferenceErrors)
		assert.Equal(t, 1, result.Stats.ReferenceErrors)

		entries := result.ErrorLogEntries()
		require.Len(t, entries, 2)
		assert.Equal(t, "reference", entries[0].ErrorType)
		assert.Equal(t, "MATH101", entries[1].FieldValue)
	})
}

func TestRunStructuralFailure(t *testing.T) {
	cfg := setup(t)
	input := writeInput(t, cfg, "civil.csv", "no department here\n")

	result := run(cfg, input)
	assert.False(t, result.Success)
	assert.ErrorIs(t, result.Error, posparser.ErrMissingDepartmentCode)
	assert.Nil(t, result.Plan)

	entries := result.ErrorLogEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, "structural", entries[0].ErrorType)
	assert.Equal(t, "civil.csv", entries[0].FileName)
}

func TestRunMissingFile(t *testing.T) {
	cfg := setup(t)
	result := run(cfg, filepath.Join(cfg.InputDir, "missing.csv"))
	require.Error(t, result.Error)
	assert.Equal(t, "io", errorType(result.Error))
}

func TestRunUsesDepartmentProfile(t *testing.T) {
	cfg := setup(t)
	input := writeInput(t, cfg, "civil_plan.csv", strings.ReplaceAll(civilCSV, ",", ";"))

	profile := &config.DepartmentProfile{
		Name:                 "civil",
		FileMatchingPatterns: []string{"civil_*"},
		Parser:               config.ParserConfig{CSVDelimiter: ";"},
	}

	result := run(cfg, input, profile)
	require.NoError(t, result.Error)
	assert.Equal(t, "civil", result.Profile)
	assert.Equal(t, 2, result.Stats.Courses)
}

func TestRender(t *testing.T) {
	p := plan.New(plan.Department{ID: 1, Name: "X"}, "TENG000", nil, nil)

	body, ext, err := Render(p, "JSON")
	require.NoError(t, err)
	assert.Equal(t, ".json", ext)
	assert.Contains(t, string(body), `"schemaVersion": 3`)

	body, ext, err = Render(p, config.FormatXML)
	require.NoError(t, err)
	assert.Equal(t, ".xml", ext)
	assert.True(t, strings.HasPrefix(string(body), "<?xml"))

	_, _, err = Render(p, "yaml")
	assert.Error(t, err)
}

func TestRunBatchKeepsOrder(t *testing.T) {
	cfg := setup(t)
	cfg.ArchiveDir = ""

	var paths []string
	for i := 1; i <= 6; i++ {
		content := strings.Replace(civilCSV, "(TENG)-7", fmt.Sprintf("(TENG)-%d", i), 1)
		paths = append(paths, writeInput(t, cfg, fmt.Sprintf("plan%d.csv", i), content))
	}
	paths = append(paths, filepath.Join(cfg.InputDir, "missing.csv"))

	results := RunBatch(context.Background(), paths, 3, func(path string) *Converter {
		return New(path, cfg, nil).WithLogger(logging.Nop{})
	})

	require.Len(t, results, len(paths))
	for i, r := range results[:6] {
		assert.Equal(t, paths[i], r.FilePath)
		require.NoError(t, r.Error)
		assert.Equal(t, i+1, r.Plan.Department.ID)
	}
	assert.False(t, results[6].Success)

	summary := Summarize(results)
	assert.Equal(t, 7, summary.TotalFiles)
	assert.Equal(t, 6, summary.SuccessfulFiles)
	assert.Equal(t, 1, summary.FailedFiles)
	assert.Equal(t, 12, summary.TotalCourses)
	assert.Equal(t, "Civil", summary.ProcessedFiles[0].Department)
	require.Len(t, summary.FailedFilesList, 1)
	assert.Equal(t, paths[6], summary.FailedFilesList[0].InputFile)
}

func TestRunBatchCancelled(t *testing.T) {
	cfg := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := RunBatch(ctx, []string{"a.csv", "b.csv"}, 1, func(path string) *Converter {
		return New(path, cfg, nil).WithLogger(logging.Nop{})
	})

	require.Len(t, results, 2)
	for _, r := range results {
		assert.ErrorIs(t, r.Error, context.Canceled)
	}
}
