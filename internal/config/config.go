// =============================================================================
// Ledger Import - Configuration Module
// =============================================================================
//
// This module is responsible for loading the run configuration: where the
// ledger lives, which credentials to use, which workbook to import, and how
// the workbook's header cells map onto the importer's logical fields.
//
// CONFIGURATION SOURCES (later wins):
//   1. Built-in defaults
//   2. The YAML config file (config.yaml)
//   3. Environment variables (LEDGER_ENDPOINT, LEDGER_USERNAME, LEDGER_PASSWORD),
//      optionally loaded from a .env file
//
// =============================================================================

package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/ledger-import/internal/types"
)

// Environment variables that override the config file.
const (
	EnvEndpoint = "LEDGER_ENDPOINT"
	EnvUsername = "LEDGER_USERNAME"
	EnvPassword = "LEDGER_PASSWORD"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the configuration for one import run.
type MainConfig struct {
	// Ledger holds the remote service settings.
	Ledger LedgerConfig `yaml:"ledger"`

	// =========================================================================
	// INPUT SETTINGS
	// =========================================================================

	// InputFile is the path to the workbook to import.
	InputFile string `yaml:"input_file"`

	// SheetName selects the sheet to read. Empty means the first sheet.
	SheetName string `yaml:"sheet_name"`

	// ColumnMapping maps header cell text (exact, case-sensitive) to a
	// logical field name.
	//
	// Example:
	//   column_mapping:
	//     Betrag: amount
	//     Buchungstag: date
	ColumnMapping map[string]string `yaml:"column_mapping"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// OutputDir is where the successful/failed workbooks are written.
	// Default: "."
	OutputDir string `yaml:"output_dir"`

	// OutputNameFormat defines the output file names.
	// Placeholders:
	//   {timestamp} - Run timestamp (YYYYMMDD_HHMMSS)
	//   {bucket}    - "successful" or "failed"
	//   {run_id}    - Run UUID
	// Default: "{timestamp}_{bucket}.xlsx"
	OutputNameFormat string `yaml:"output_name_format"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogFile is the append-only debug log.
	// Default: "app.log"
	LogFile string `yaml:"log_file"`
}

// LedgerConfig holds the ledger endpoint and credentials.
type LedgerConfig struct {
	// Endpoint is the base URL, without the /api suffix.
	// Default: "http://localhost:8097"
	Endpoint string `yaml:"endpoint"`

	Username string `yaml:"username"`
	Password string `yaml:"password"`

	// TimeoutSeconds bounds every HTTP call.
	// Default: 30
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// Timeout returns the HTTP timeout as a duration.
func (l LedgerConfig) Timeout() time.Duration {
	return time.Duration(l.TimeoutSeconds) * time.Second
}

// DefaultColumnMapping is the header layout of the bank export the importer
// was written for.
func DefaultColumnMapping() map[string]string {
	return map[string]string{
		"category":                          types.FieldCategory,
		"Betrag":                            types.FieldAmount,
		"Buchungstag":                       types.FieldDate,
		"Verwendungszweck":                  types.FieldDescription,
		"Beguenstigter/Zahlungspflichtiger": types.FieldRecipientSender,
		"is_income":                         types.FieldIsIncome,
		"no_invoice":                        types.FieldNoInvoice,
	}
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// LoadMainConfig loads the configuration from a YAML file and applies
// environment overrides.
//
// A missing file is not an error when configPath is the default name; the
// run can be configured entirely through the environment in that case.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	var config MainConfig

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case os.IsNotExist(err) && configPath == DefaultConfigFile:
		// Fall through to defaults and environment.
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// .env is optional.
	_ = godotenv.Load()
	applyEnvOverrides(&config)

	applyMainConfigDefaults(&config)

	if err := validateMainConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// DefaultConfigFile is the config path used when --config is not given.
const DefaultConfigFile = "config.yaml"

func applyEnvOverrides(config *MainConfig) {
	if v := os.Getenv(EnvEndpoint); v != "" {
		config.Ledger.Endpoint = v
	}
	if v := os.Getenv(EnvUsername); v != "" {
		config.Ledger.Username = v
	}
	if v := os.Getenv(EnvPassword); v != "" {
		config.Ledger.Password = v
	}
}

// applyMainConfigDefaults sets default values for any unset configuration options.
func applyMainConfigDefaults(config *MainConfig) {
	if config.Ledger.Endpoint == "" {
		config.Ledger.Endpoint = "http://localhost:8097"
	}
	config.Ledger.Endpoint = strings.TrimRight(config.Ledger.Endpoint, "/")
	if config.Ledger.TimeoutSeconds == 0 {
		config.Ledger.TimeoutSeconds = 30
	}
	if config.OutputDir == "" {
		config.OutputDir = "."
	}
	if config.OutputNameFormat == "" {
		config.OutputNameFormat = "{timestamp}_{bucket}.xlsx"
	}
	if config.LogFile == "" {
		config.LogFile = "app.log"
	}
	if len(config.ColumnMapping) == 0 {
		config.ColumnMapping = DefaultColumnMapping()
	}
}

// validateMainConfig validates the main configuration.
func validateMainConfig(config *MainConfig) error {
	if config.Ledger.TimeoutSeconds < 0 {
		return fmt.Errorf("ledger.timeout_seconds must not be negative")
	}
	if !strings.Contains(config.OutputNameFormat, "{bucket}") {
		return fmt.Errorf("output_name_format must contain {bucket}")
	}

	var unknown []string
	for header, field := range config.ColumnMapping {
		if !types.IsLogicalField(field) {
			unknown = append(unknown, fmt.Sprintf("%q -> %q", header, field))
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("column_mapping has unknown fields: %s", strings.Join(unknown, ", "))
	}

	return nil
}

// Validate checks the settings an import run cannot do without. It is kept
// separate from loading so the validate command can load a config without
// credentials.
func (c *MainConfig) Validate() error {
	var missing []string
	if c.InputFile == "" {
		missing = append(missing, "input_file")
	}
	if c.Ledger.Username == "" {
		missing = append(missing, "ledger.username")
	}
	if c.Ledger.Password == "" {
		missing = append(missing, "ledger.password")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}
	return nil
}
