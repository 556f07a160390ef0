// =============================================================================
// Sales Analytics - Configuration Module
// =============================================================================
//
// This module loads and validates the application configuration.
//
// PRECEDENCE (lowest to highest):
//   1. Built-in defaults (Defaults)
//   2. The YAML config file (config.yaml, or --config)
//   3. Environment variables prefixed with SALES_
//   4. Command-line flags (applied by the cmd package)
//
// A missing config file is not an error: the defaults apply.
//
// ENVIRONMENT EXAMPLES:
//   SALES_INPUT_FILE=data/sales.txt
//   SALES_FILTER_REGION=North
//   SALES_LOOKUP_PACING=250ms
//   SALES_LOG_LEVEL=debug
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/sales-analytics/internal/csvparser"
	"github.com/ginjaninja78/sales-analytics/internal/enrichment"
	"github.com/ginjaninja78/sales-analytics/internal/logger"
	"github.com/ginjaninja78/sales-analytics/internal/types"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "SALES"

// DefaultPath is the config file read when --config is not given.
const DefaultPath = "config.yaml"

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// Config holds the complete application configuration.
type Config struct {
	// =========================================================================
	// FILE SETTINGS
	// =========================================================================

	// InputFile is the pipe-delimited sales export to analyse. A path
	// ending in .xlsx or .xlsm is read as a workbook instead.
	// Default: "data/sales_data.txt"
	InputFile string `yaml:"input_file" envconfig:"INPUT_FILE" validate:"required"`

	// InputSheet names the sheet to read when InputFile is an .xlsx
	// workbook. Empty means the first sheet.
	InputSheet string `yaml:"input_sheet" envconfig:"INPUT_SHEET"`

	// EnrichedFile receives one line per enriched transaction.
	// Leave empty to skip writing it.
	// Default: "data/enriched_sales_data.txt"
	EnrichedFile string `yaml:"enriched_file" envconfig:"ENRICHED_FILE"`

	// ReportFile receives the formatted text report.
	// Placeholders {uuid}, {timestamp} and {date} are expanded per run.
	// Default: "output/sales_report.txt"
	ReportFile string `yaml:"report_file" envconfig:"REPORT_FILE" validate:"required"`

	// XLSXReportFile, when set, receives the report tables as a workbook.
	// Default: "" (disabled)
	XLSXReportFile string `yaml:"xlsx_report_file" envconfig:"XLSX_REPORT_FILE"`

	// MetricsFile, when set, receives the run counters in Prometheus text
	// format (for the node exporter textfile collector).
	// Default: "" (disabled)
	MetricsFile string `yaml:"metrics_file" envconfig:"METRICS_FILE"`

	// ErrorLogDir, when set, receives an itemised log of every validation
	// error found in the run.
	// Default: "" (disabled)
	ErrorLogDir string `yaml:"error_log_dir" envconfig:"ERROR_LOG_DIR"`

	// =========================================================================
	// FORMAT SETTINGS
	// =========================================================================

	// Delimiter separates fields in the input. Exactly one character.
	// Default: "|"
	Delimiter string `yaml:"delimiter" envconfig:"DELIMITER" validate:"len=1"`

	// Encodings are tried in order until one decodes the input.
	// Supported: utf-8, latin-1 (iso-8859-1), cp1252 (windows-1252)
	// Default: [utf-8, latin-1, cp1252]
	Encodings []string `yaml:"encodings" envconfig:"ENCODINGS" validate:"min=1,dive,encoding"`

	// CurrencySymbol prefixes monetary values in the report.
	// Default: "₹"
	CurrencySymbol string `yaml:"currency_symbol" envconfig:"CURRENCY_SYMBOL"`

	// EnrichedFormat selects the enriched file layout: "jsonl", "text" or "xml".
	// Default: "jsonl"
	EnrichedFormat string `yaml:"enriched_format" envconfig:"ENRICHED_FORMAT" validate:"oneof=jsonl text xml"`

	// =========================================================================
	// SUB-SECTIONS
	// =========================================================================

	Log    LogConfig    `yaml:"log" envconfig:"LOG"`
	Filter FilterConfig `yaml:"filter" envconfig:"FILTER"`
	Lookup LookupConfig `yaml:"lookup" envconfig:"LOOKUP"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error. Default: "info"
	Level string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`

	// Format is "console" or "json". Default: "console"
	Format string `yaml:"format" envconfig:"FORMAT" validate:"oneof=console json"`

	// Output is "stdout", "stderr" or a file path. Default: "stderr"
	Output string `yaml:"output" envconfig:"OUTPUT"`
}

// FilterConfig holds the optional record filters. Empty values disable them.
type FilterConfig struct {
	// Region keeps only records from this region (case-insensitive).
	Region string `yaml:"region" envconfig:"REGION"`

	// MinAmount drops records whose revenue is below it.
	MinAmount *float64 `yaml:"min_amount" envconfig:"MIN_AMOUNT" validate:"omitempty,gte=0"`

	// MaxAmount drops records whose revenue is above it.
	MaxAmount *float64 `yaml:"max_amount" envconfig:"MAX_AMOUNT" validate:"omitempty,gte=0"`
}

// LookupConfig controls category enrichment.
type LookupConfig struct {
	// Enabled turns the remote product search on. With it off, only
	// Overrides are consulted. Default: true
	Enabled bool `yaml:"enabled" envconfig:"ENABLED"`

	// BaseURL is the product catalogue root. Default: "https://dummyjson.com"
	BaseURL string `yaml:"base_url" envconfig:"BASE_URL" validate:"omitempty,url"`

	// Timeout bounds a single remote lookup. Default: 5s
	Timeout time.Duration `yaml:"timeout" envconfig:"TIMEOUT" validate:"gt=0"`

	// Pacing is the minimum spacing between remote lookups. Cache hits are
	// never delayed. Default: 100ms
	Pacing time.Duration `yaml:"pacing" envconfig:"PACING" validate:"gte=0"`

	// Workers bounds concurrent enrichment. Default: 1
	Workers int `yaml:"workers" envconfig:"WORKERS" validate:"gte=1"`

	// Overrides maps exact product names to categories and is consulted
	// before the remote search.
	//
	// CUSTOMIZATION: pin categories for products the catalogue gets wrong.
	// Example:
	//   overrides:
	//     "Wireless Mouse": "accessories"
	Overrides map[string]string `yaml:"overrides" envconfig:"OVERRIDES"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Defaults returns the built-in configuration.
func Defaults() Config {
	logDefaults := logger.DefaultConfig()

	return Config{
		InputFile:      "data/sales_data.txt",
		EnrichedFile:   "data/enriched_sales_data.txt",
		ReportFile:     "output/sales_report.txt",
		Delimiter:      csvparser.DefaultDelimiter,
		Encodings:      append([]string(nil), csvparser.DefaultEncodings...),
		CurrencySymbol: "₹",
		EnrichedFormat: "jsonl",
		Log: LogConfig{
			Level:  logDefaults.Level,
			Format: logDefaults.Format,
			Output: logDefaults.Output,
		},
		Lookup: LookupConfig{
			Enabled: true,
			BaseURL: "https://dummyjson.com",
			Timeout: 5 * time.Second,
			Pacing:  enrichment.DefaultPacing,
			Workers: 1,
		},
	}
}

// =============================================================================
// LOADING
// =============================================================================

// Load builds the configuration from defaults, the YAML file at path and the
// SALES_* environment.
//
// PARAMETERS:
//   - path: The config file. Empty or missing means defaults only.
//
// RETURNS:
//   - The validated configuration.
//   - An error if the file cannot be parsed, an environment value is
//     malformed, or validation fails.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			// Defaults only.
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks field constraints and cross-field rules. Call it again
// after applying command-line overrides.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	if err := v.RegisterValidation("encoding", func(fl validator.FieldLevel) bool {
		return csvparser.IsSupportedEncoding(fl.Field().String())
	}); err != nil {
		return err
	}

	var problems []string

	if err := v.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			problems = append(problems, describe(fe))
		}
	}

	f := c.Filter
	if f.MinAmount != nil && f.MaxAmount != nil && *f.MinAmount > *f.MaxAmount {
		problems = append(problems, fmt.Sprintf("filter.min_amount (%g) must not exceed filter.max_amount (%g)",
			*f.MinAmount, *f.MaxAmount))
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// describe turns a validator error into a message keyed by the YAML path.
func describe(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", field, fe.Param(), fe.Value())
	case "encoding":
		return fmt.Sprintf("%s: unsupported encoding %q (supported: %s)",
			field, fe.Value(), strings.Join(csvparser.SupportedEncodings, ", "))
	case "len":
		return fmt.Sprintf("%s must be exactly %s character(s)", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must not be empty", field)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL, got %q", field, fe.Value())
	default:
		return fmt.Sprintf("%s failed %q", field, fe.Tag())
	}
}

// =============================================================================
// CONVERSIONS
// =============================================================================

// Criteria converts the filter section into validation criteria.
func (f FilterConfig) Criteria() types.Criteria {
	return types.Criteria{
		Region:    strings.TrimSpace(f.Region),
		MinAmount: f.MinAmount,
		MaxAmount: f.MaxAmount,
	}
}

// LoggerConfig converts the log section into a logger configuration.
func (l LogConfig) LoggerConfig() logger.Config {
	return logger.Config{
		Level:  l.Level,
		Format: l.Format,
		Output: l.Output,
	}
}
