// =============================================================================
// Plan of Study Converter - Configuration Module
// =============================================================================
//
// This module loads the application configuration. It handles both the main
// configuration file and the optional per-department parser profiles.
//
// CONFIGURATION FILES:
//   1. Main Config (config.yaml): Global application settings
//   2. Department Profiles (configs/*.yaml): Per-department parser overrides
//
// PRECEDENCE (lowest to highest):
//   1. Built-in defaults
//   2. The YAML file
//   3. Environment variables (POS_*), including those loaded from .env
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ginjaninja78/plan-of-study-converter/internal/logging"
	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is used when --config is not given.
const DefaultConfigPath = "config.yaml"

// Output formats.
const (
	FormatJSON = "json"
	FormatXML  = "xml"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InputDir is scanned by "convert" for spreadsheets.
	// Default: "./input"
	InputDir string `yaml:"input_dir"`

	// OutputDir receives the converted plans.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// ArchiveDir, when set, receives each input file after a successful
	// conversion.
	// Default: "" (no archiving)
	ArchiveDir string `yaml:"archive_dir"`

	// ConfigsDir holds the department profiles. A missing directory means
	// no profiles.
	// Default: "./configs"
	ConfigsDir string `yaml:"configs_dir"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// OutputFormat is "json" or "xml".
	// Default: "json"
	OutputFormat string `yaml:"output_format"`

	// OutputNameFormat defines the output file names.
	// Placeholders:
	//   {uuid}      - A random UUID
	//   {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
	//   {dept}      - Department id
	//   {name}      - Input file name without extension
	//
	// Default: "{dept}_{timestamp}_{uuid}"
	OutputNameFormat string `yaml:"output_name_format"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// MaxConcurrency is the maximum number of files converted at once.
	// Default: 4
	MaxConcurrency int `yaml:"max_concurrency"`

	// ContinueOnError writes plans that carry row-level errors instead of
	// failing the file.
	// Default: true
	ContinueOnError bool `yaml:"continue_on_error"`

	// StrictReferences turns unresolved link references into failures.
	// Default: false
	StrictReferences bool `yaml:"strict_references"`

	Parser ParserConfig `yaml:"parser"`
	Server ServerConfig `yaml:"server"`
	Store  StoreConfig  `yaml:"store"`
}

// ParserConfig tunes spreadsheet parsing.
type ParserConfig struct {
	// MajorCodePrefix is the prefix of major codes ("TENG12").
	// Default: "TENG"
	MajorCodePrefix string `yaml:"major_code_prefix"`

	// CSVDelimiter is used for .csv inputs.
	// Default: ","
	CSVDelimiter string `yaml:"csv_delimiter"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	// Default: ":8080"
	Addr string `yaml:"addr"`

	// MaxUploadMB caps multipart uploads.
	// Default: 10
	MaxUploadMB int `yaml:"max_upload_mb"`
}

// StoreConfig selects the plan store backend.
type StoreConfig struct {
	// Driver is "memory", "postgres" or "sqlite3".
	// Default: "memory"
	Driver string `yaml:"driver"`

	// DSN is the database connection string. Unused for "memory".
	DSN string `yaml:"dsn"`
}

// =============================================================================
// DEPARTMENT PROFILE STRUCTURE
// =============================================================================

// DepartmentProfile overrides parser settings for the input files it
// matches. Departments that label their majors differently ("CENG12")
// or export with another delimiter get their own profile.
type DepartmentProfile struct {
	// Name is used in logs.
	Name string `yaml:"name"`

	// FileMatchingPatterns are glob patterns matched against the input
	// file's base name, e.g. "teng43_*.xlsx".
	FileMatchingPatterns []string `yaml:"file_matching_patterns"`

	// Parser overrides; empty fields fall back to the main config.
	Parser ParserConfig `yaml:"parser"`
}

// Matches reports whether the profile applies to the given file.
func (p *DepartmentProfile) Matches(path string) bool {
	base := filepath.Base(path)
	for _, pattern := range p.FileMatchingPatterns {
		if ok, err := filepath.Match(pattern, base); err == nil && ok {
			return true
		}
	}
	return false
}

// ParserFor returns the parser settings for a file: the first matching
// profile's overrides on top of the main settings.
func (c *MainConfig) ParserFor(path string, profiles []*DepartmentProfile) (ParserConfig, string) {
	settings := c.Parser
	for _, p := range profiles {
		if !p.Matches(path) {
			continue
		}
		if p.Parser.MajorCodePrefix != "" {
			settings.MajorCodePrefix = p.Parser.MajorCodePrefix
		}
		if p.Parser.CSVDelimiter != "" {
			settings.CSVDelimiter = p.Parser.CSVDelimiter
		}
		return settings, p.Name
	}
	return settings, ""
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// Default returns the configuration used when no file is present.
func Default() *MainConfig {
	config := &MainConfig{ContinueOnError: true}
	applyMainConfigDefaults(config)
	return config
}

// LoadMainConfig loads the main configuration from a YAML file.
//
// PARAMETERS:
//   - configPath: The path to the main configuration file.
//
// RETURNS:
//   - A pointer to the MainConfig struct.
//   - An error if the file cannot be read, parsed or validated.
//
// Keys absent from the file keep their defaults.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyMainConfigDefaults(config)

	if err := validateMainConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// LoadMainConfigOrDefault behaves like LoadMainConfig but returns the
// defaults when the file does not exist.
func LoadMainConfigOrDefault(configPath string) (*MainConfig, error) {
	config, err := LoadMainConfig(configPath)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return config, err
}

// applyMainConfigDefaults sets default values for any unset configuration options.
func applyMainConfigDefaults(config *MainConfig) {
	if config.InputDir == "" {
		config.InputDir = "./input"
	}
	if config.OutputDir == "" {
		config.OutputDir = "./output"
	}
	if config.ConfigsDir == "" {
		config.ConfigsDir = "./configs"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.OutputFormat == "" {
		config.OutputFormat = FormatJSON
	}
	if config.OutputNameFormat == "" {
		config.OutputNameFormat = "{dept}_{timestamp}_{uuid}"
	}
	if config.MaxConcurrency == 0 {
		config.MaxConcurrency = 4
	}
	if config.Parser.MajorCodePrefix == "" {
		config.Parser.MajorCodePrefix = "TENG"
	}
	if config.Parser.CSVDelimiter == "" {
		config.Parser.CSVDelimiter = ","
	}
	if config.Server.Addr == "" {
		config.Server.Addr = ":8080"
	}
	if config.Server.MaxUploadMB == 0 {
		config.Server.MaxUploadMB = 10
	}
	if config.Store.Driver == "" {
		config.Store.Driver = DriverMemory
	}
}

// validateMainConfig validates the main configuration.
func validateMainConfig(config *MainConfig) error {
	if _, err := logging.ParseLevel(config.LogLevel); err != nil {
		return err
	}

	switch strings.ToLower(config.OutputFormat) {
	case FormatJSON, FormatXML:
		config.OutputFormat = strings.ToLower(config.OutputFormat)
	default:
		return fmt.Errorf("output_format must be %q or %q, got %q", FormatJSON, FormatXML, config.OutputFormat)
	}

	if config.MaxConcurrency < 1 {
		return fmt.Errorf("max_concurrency must be at least 1, got %d", config.MaxConcurrency)
	}
	if config.Server.MaxUploadMB < 1 {
		return fmt.Errorf("server.max_upload_mb must be at least 1, got %d", config.Server.MaxUploadMB)
	}

	switch config.Store.Driver {
	case DriverMemory:
	case DriverPostgres, DriverSQLite:
		if config.Store.DSN == "" {
			return fmt.Errorf("store.dsn is required for driver %q", config.Store.Driver)
		}
	default:
		return fmt.Errorf("unknown store.driver %q", config.Store.Driver)
	}

	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// Environment variables read by ApplyEnv.
const (
	EnvLogLevel    = "POS_LOG_LEVEL"
	EnvServerAddr  = "POS_SERVER_ADDR"
	EnvStoreDriver = "POS_STORE_DRIVER"
	EnvStoreDSN    = "POS_STORE_DSN"
)

// ApplyEnv overrides configuration values from the environment and
// re-validates. lookup is normally os.Getenv.
func ApplyEnv(config *MainConfig, lookup func(string) string) error {
	overrides := map[string]*string{
		EnvLogLevel:    &config.LogLevel,
		EnvServerAddr:  &config.Server.Addr,
		EnvStoreDriver: &config.Store.Driver,
		EnvStoreDSN:    &config.Store.DSN,
	}
	for key, field := range overrides {
		if v := strings.TrimSpace(lookup(key)); v != "" {
			*field = v
		}
	}

	if err := validateMainConfig(config); err != nil {
		return fmt.Errorf("invalid environment configuration: %w", err)
	}
	return nil
}

// =============================================================================
// DEPARTMENT PROFILES
// =============================================================================

// LoadDepartmentProfiles loads every *.yaml / *.yml profile in a directory,
// sorted by file name. A missing directory yields no profiles.
func LoadDepartmentProfiles(configsDir string) ([]*DepartmentProfile, error) {
	if _, err := os.Stat(configsDir); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}

	files, err := filepath.Glob(filepath.Join(configsDir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list config files: %w", err)
	}

	ymlFiles, err := filepath.Glob(filepath.Join(configsDir, "*.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list config files: %w", err)
	}
	files = append(files, ymlFiles...)

	var profiles []*DepartmentProfile
	for _, file := range files {
		profile, err := loadDepartmentProfile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", file, err)
		}
		profiles = append(profiles, profile)
	}

	return profiles, nil
}

func loadDepartmentProfile(filePath string) (*DepartmentProfile, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var profile DepartmentProfile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse file: %w", err)
	}

	if profile.Name == "" {
		profile.Name = strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))
	}
	if len(profile.FileMatchingPatterns) == 0 {
		return nil, fmt.Errorf("profile %q has no file_matching_patterns", profile.Name)
	}

	return &profile, nil
}
