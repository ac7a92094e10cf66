// =============================================================================
// Plan of Study Converter - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. Every other command
// is attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (posconv)
//   ├── parseCmd   (posconv parse FILE)
//   ├── convertCmd (posconv convert)
//   ├── checkCmd   (posconv check FILE)
//   ├── serveCmd   (posconv serve)
//   └── versionCmd (posconv version)
//
// CONFIGURATION:
//   Before any subcommand runs, the root command:
//   1. Loads .env into the environment, if present
//   2. Loads the main configuration (defaults when the file is missing)
//   3. Applies POS_* environment overrides
//   4. Builds the logger
//
// =============================================================================

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/ginjaninja78/plan-of-study-converter/internal/config"
	"github.com/ginjaninja78/plan-of-study-converter/internal/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// verbose forces debug logging.
var verbose bool

// mainConfig and logger are ready once PersistentPreRunE has run.
var (
	mainConfig *config.MainConfig
	logger     *logging.StdLogger
)

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

var rootCmd = &cobra.Command{
	Use:   "posconv",
	Short: "Plan of Study converter - turn Plan of Study spreadsheets into course graphs",
	Long: `posconv reads Plan of Study spreadsheets (xlsx or csv) and turns them into
a department, its courses, and the prerequisite/corequisite links between them.

Example Usage:
  posconv parse plan.xlsx              # Print one plan as JSON
  posconv convert                      # Convert every file in the input directory
  posconv check plan.xlsx              # Report row and reference problems
  posconv serve                        # Run the HTTP API`,

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup()
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the CLI. It is called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		config.DefaultConfigPath,
		"Path to the main configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}

// setup loads the environment and configuration and builds the logger.
func setup() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	cfg, err := config.LoadMainConfigOrDefault(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load main config: %w", err)
	}
	if err := config.ApplyEnv(cfg, os.Getenv); err != nil {
		return err
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	if verbose {
		level = logging.LevelDebug
	}

	mainConfig = cfg
	logger = logging.New(os.Stderr, level)
	return nil
}

// loadProfiles reads the department profiles from configs_dir.
func loadProfiles() ([]*config.DepartmentProfile, error) {
	profiles, err := config.LoadDepartmentProfiles(mainConfig.ConfigsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load department profiles: %w", err)
	}
	logger.Debug("Loaded %d department profile(s)", len(profiles))
	return profiles, nil
}
