package cmd

import (
	"fmt"
	"os"

	"github.com/ginjaninja78/plan-of-study-converter/internal/converter"
	"github.com/ginjaninja78/plan-of-study-converter/internal/posparser"
	"github.com/spf13/cobra"
)

var (
	parseFormat string
	parseOut    string
	parsePrefix string
)

var parseCmd = &cobra.Command{
	Use:   "parse FILE",
	Short: "Parse one spreadsheet and print the plan",
	Long: `Parse one Plan of Study spreadsheet and print the resulting plan as JSON
(default) or XML. Rejected rows and duplicate codes are logged to stderr.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		parsed, err := parseInput(args[0])
		if err != nil {
			return err
		}

		format := parseFormat
		if format == "" {
			format = mainConfig.OutputFormat
		}
		body, _, err := converter.Render(parsed.Plan, format)
		if err != nil {
			return err
		}

		if parseOut == "" {
			_, err = cmd.OutOrStdout().Write(body)
			return err
		}
		if err := os.WriteFile(parseOut, body, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", parseOut, err)
		}
		logger.Info("Wrote %s", parseOut)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().StringVarP(&parseFormat, "format", "f", "", "Output format: json or xml (default from config)")
	parseCmd.Flags().StringVarP(&parseOut, "out", "o", "", "Write to this file instead of stdout")
	parseCmd.Flags().StringVar(&parsePrefix, "prefix", "", "Major code prefix (default from config)")
}

// parseInput parses one file with the settings of its department profile,
// logging every rejected row and duplicate code.
func parseInput(path string) (*posparser.Result, error) {
	profiles, err := loadProfiles()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	settings, profile := mainConfig.ParserFor(path, profiles)
	if profile != "" {
		logger.Debug("Using department profile %q", profile)
	}
	if parsePrefix != "" {
		settings.MajorCodePrefix = parsePrefix
	}

	parsed, err := posparser.ParseFile(path, data, converter.ParserOptions(settings))
	if err != nil {
		return nil, err
	}

	for _, w := range parsed.Warnings {
		logger.Warn("%s", w.Error())
	}
	for _, fe := range parsed.FieldErrors {
		logger.Warn("%s", fe.Error())
	}
	return parsed, nil
}
