package cmd

import (
	"fmt"

	"github.com/ginjaninja78/plan-of-study-converter/internal/validation"
	"github.com/spf13/cobra"
)

var (
	checkStrict bool
	checkLog    string
)

var checkCmd = &cobra.Command{
	Use:   "check FILE",
	Short: "Report row and reference problems in a spreadsheet",
	Long: `Parse one spreadsheet and report rejected rows, duplicate course codes and
links whose prerequisite or corequisite names no course in the plan.

Exits non-zero when rows were rejected or, with --strict, when references
do not resolve.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		path := args[0]

		parsed, err := parseInput(path)
		if err != nil {
			return err
		}

		p := parsed.Plan
		fmt.Fprintf(out, "Department:  %d (%s)\n", p.Department.ID, p.Department.Name)
		fmt.Fprintf(out, "Major code:  %s\n", p.MajorCode)
		fmt.Fprintf(out, "Header row:  %d\n", parsed.HeaderRow)
		fmt.Fprintf(out, "Courses:     %d (%.1f credits)\n", len(p.Courses), p.TotalCredits())
		fmt.Fprintf(out, "Links:       %d\n", len(p.Links))
		fmt.Fprintf(out, "Row errors:  %d\n", len(parsed.FieldErrors))
		fmt.Fprintf(out, "Duplicates:  %d\n", len(parsed.Warnings))
		for _, fe := range parsed.FieldErrors {
			fmt.Fprintf(out, "  row error: %s\n", fe.Error())
		}
		for _, w := range parsed.Warnings {
			fmt.Fprintf(out, "  duplicate: %s\n", w.Error())
		}

		strict := checkStrict || mainConfig.StrictReferences
		result := validation.NewValidator(validation.ValidationOptions{
			Strict:              strict,
			MatchCatalogNumbers: true,
		}).ValidateAll(p)

		fmt.Fprintf(out, "References:  %d error(s), %d warning(s) in %d link(s)\n",
			result.ErrorCount, result.WarningCount, result.LinksValidated)
		if len(result.Errors) > 0 {
			fmt.Fprintln(out)
			fmt.Fprint(out, validation.FormatErrors(result.Errors))
		}

		if checkLog != "" && len(result.Errors) > 0 {
			if err := validation.WriteErrorLog(result.Errors, path, checkLog); err != nil {
				return err
			}
			fmt.Fprintf(out, "Reference report written to %s\n", checkLog)
		}

		if parsed.HasFieldErrors() {
			return fmt.Errorf("%d row(s) rejected", len(parsed.FieldErrors))
		}
		if strict && !result.IsValid {
			return fmt.Errorf("%d unresolved reference(s)", result.ErrorCount)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().BoolVar(&checkStrict, "strict", false, "Treat unresolved references as errors")
	checkCmd.Flags().StringVar(&checkLog, "log", "", "Write the reference report to this file")
}
