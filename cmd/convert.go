// =============================================================================
// Plan of Study Converter - Convert Command
// =============================================================================
//
// This file defines the 'convert' command, which converts every spreadsheet
// in the input directory.
//
// COMMAND USAGE:
//   posconv convert [flags]
//
// FLAGS:
//   --dry-run : Parse and check without writing or archiving anything
//   --file    : Convert only this file instead of scanning input_dir
//   --xsd     : Also write plan.xsd next to the output (xml format only)
//
// PROCESSING PIPELINE:
//   1. Load department profiles
//   2. Discover spreadsheets in the input directory
//   3. Convert files concurrently (max_concurrency at a time)
//   4. Print results and a summary
//   5. Write the summary and error logs to the output directory
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ginjaninja78/plan-of-study-converter/internal/config"
	"github.com/ginjaninja78/plan-of-study-converter/internal/converter"
	"github.com/ginjaninja78/plan-of-study-converter/internal/xmlwriter"
	"github.com/ginjaninja78/plan-of-study-converter/pkg/utils"
	"github.com/spf13/cobra"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	dryRun    bool
	inputFile string
	writeXSD  bool
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert every spreadsheet in the input directory",
	Long: `The convert command scans the input directory for Plan of Study spreadsheets
(.xlsx, .xlsm, .csv) and converts each one into a plan file in the output
directory.

Files are converted concurrently. A failure in one file does not stop the
others.

On success:
  - The plan is written to the output directory (json or xml)
  - The input is moved to archive_dir, when configured

On error:
  - The failure is listed in an error log in the output directory
  - The input stays in the input directory`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConvert(cmd)
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Parse and check without writing output files")
	convertCmd.Flags().StringVar(&inputFile, "file", "", "Convert only this file")
	convertCmd.Flags().BoolVar(&writeXSD, "xsd", false, "Write plan.xsd to the output directory")
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runConvert(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	summaryStart := time.Now()

	fmt.Fprintln(out, "=== Plan of Study Converter ===")

	// =========================================================================
	// STEP 1: LOAD PROFILES
	// =========================================================================

	profiles, err := loadProfiles()
	if err != nil {
		return err
	}

	// =========================================================================
	// STEP 2: DISCOVER INPUT FILES
	// =========================================================================

	files := utils.NewFileManager(mainConfig.InputDir, mainConfig.OutputDir, mainConfig.ArchiveDir)

	var inputFiles []string
	if inputFile != "" {
		if !utils.FileExists(inputFile) {
			return fmt.Errorf("input file not found: %s", inputFile)
		}
		inputFiles = []string{inputFile}
	} else {
		if inputFiles, err = files.DiscoverInputFiles(); err != nil {
			return err
		}
	}

	if len(inputFiles) == 0 {
		fmt.Fprintf(out, "No spreadsheets found in %s.\n", mainConfig.InputDir)
		return nil
	}
	fmt.Fprintf(out, "Found %d file(s) to process\n", len(inputFiles))

	if !dryRun {
		if err := os.MkdirAll(mainConfig.OutputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	// =========================================================================
	// STEP 3: CONVERT FILES CONCURRENTLY
	// =========================================================================

	results := converter.RunBatch(cmd.Context(), inputFiles, mainConfig.MaxConcurrency, func(path string) *converter.Converter {
		return converter.New(path, mainConfig, profiles).WithLogger(logger).WithDryRun(dryRun)
	})

	// =========================================================================
	// STEP 4: PRINT RESULTS AND SUMMARY
	// =========================================================================

	var errorEntries []utils.ErrorLogEntry
	for i := range results {
		r := &results[i]
		name := filepath.Base(r.FilePath)
		switch {
		case !r.Success:
			fmt.Fprintf(out, "  ✗ %s: %v\n", name, r.Error)
		case dryRun:
			fmt.Fprintf(out, "  ✓ %s (%d courses, %d links)\n", name, r.Stats.Courses, r.Stats.Links)
		default:
			fmt.Fprintf(out, "  ✓ %s -> %s\n", name, r.OutputFile)
		}
		errorEntries = append(errorEntries, r.ErrorLogEntries()...)
	}

	summary := converter.Summarize(results)
	summary.StartTime = summaryStart
	summary.EndTime = time.Now()

	fmt.Fprintln(out, "\n=== Processing Complete ===")
	fmt.Fprintf(out, "Total files:      %d\n", summary.TotalFiles)
	fmt.Fprintf(out, "Successful:       %d\n", summary.SuccessfulFiles)
	fmt.Fprintf(out, "Failed:           %d\n", summary.FailedFiles)
	fmt.Fprintf(out, "Courses:          %d\n", summary.TotalCourses)
	fmt.Fprintf(out, "Links:            %d\n", summary.TotalLinks)
	fmt.Fprintf(out, "Row errors:       %d\n", summary.FieldErrors)
	fmt.Fprintf(out, "Reference issues: %d\n", summary.ReferenceIssues)
	fmt.Fprintf(out, "Time elapsed:     %s\n", summary.EndTime.Sub(summary.StartTime).Round(time.Millisecond))

	if dryRun {
		return failedFiles(summary)
	}

	// =========================================================================
	// STEP 5: WRITE LOGS
	// =========================================================================

	if writeXSD && mainConfig.OutputFormat == config.FormatXML {
		xsdPath := filepath.Join(mainConfig.OutputDir, "plan.xsd")
		if err := os.WriteFile(xsdPath, xmlwriter.GenerateXSD(), 0644); err != nil {
			return fmt.Errorf("failed to write XSD: %w", err)
		}
		fmt.Fprintf(out, "Schema written to %s\n", xsdPath)
	}

	summaryPath, err := utils.WriteSummaryLog(summary, mainConfig.OutputDir)
	if err != nil {
		logger.Warn("Failed to write summary log: %v", err)
	} else {
		fmt.Fprintf(out, "Summary written to %s\n", summaryPath)
	}

	errorLogPath, err := utils.WriteErrorLog(errorEntries, mainConfig.OutputDir)
	if err != nil {
		logger.Warn("Failed to write error log: %v", err)
	} else if errorLogPath != "" {
		fmt.Fprintf(out, "Errors logged to %s\n", errorLogPath)
	}

	return failedFiles(summary)
}

func failedFiles(summary utils.ProcessingSummary) error {
	if summary.FailedFiles > 0 {
		return fmt.Errorf("%d of %d file(s) failed", summary.FailedFiles, summary.TotalFiles)
	}
	return nil
}
