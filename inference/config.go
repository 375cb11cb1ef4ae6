package inference

import (
	"os"
	"strings"
	"time"
	"unicode/utf8"

	jsoniter "github.com/json-iterator/go"

	"github.com/blockchair-etl/flow/model"
	"github.com/blockchair-etl/flow/shared/exceptions"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// Config controls how a file is sampled and how column types are decided.
// The zero value is not usable, start from DefaultConfig.
type Config struct {
	// Delimiter separates fields within a row, exactly one character.
	Delimiter string `json:"delimiter"`
	// SampleRows caps how many data rows are read, malformed ones included.
	SampleRows int `json:"sample_rows"`
	// DefaultStringLength is the VARCHAR length given to all-empty columns.
	DefaultStringLength int32 `json:"default_string_length"`
	// VarcharTiers are the permitted VARCHAR lengths, strictly ascending.
	VarcharTiers []int32 `json:"varchar_tiers"`
	// NullMarkers are field values treated as missing.
	NullMarkers []string `json:"null_markers"`
	// TimestampLayouts are Go reference layouts tried against candidate
	// columns, in priority order. A layout without the reference hour 15
	// infers DATE instead of TIMESTAMP.
	TimestampLayouts []string `json:"timestamp_layouts"`
	// MaxMalformedRowRatio aborts the run when skipped/total exceeds it.
	MaxMalformedRowRatio float64 `json:"max_malformed_row_ratio"`
	// UseColumns restricts the schema to these raw header names. Empty
	// means every column.
	UseColumns []string `json:"usecols"`

	// TimestampColumnName decides whether a column name is a candidate for
	// timestamp inference. Nil falls back to DefaultTimestampColumnName.
	TimestampColumnName func(name string) bool `json:"-"`
}

func DefaultConfig() Config {
	return Config{
		Delimiter:           "\t",
		SampleRows:          1000,
		DefaultStringLength: 16,
		VarcharTiers:        []int32{16, 32, 64, 128, 256, 512, 1024, 4096, 16384},
		NullMarkers:         []string{"", `\N`, "NULL", "null", "NaN", "N/A"},
		TimestampLayouts: []string{
			"2006-01-02 15:04:05",
			time.RFC3339,
			"2006-01-02",
		},
		MaxMalformedRowRatio: 0.5,
		TimestampColumnName:  DefaultTimestampColumnName,
	}
}

// LoadConfig overlays the JSON document at path on DefaultConfig. An empty
// path returns the defaults unchanged.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, exceptions.NewConfigError("reading config %s: %w", path, err)
	}
	if err := jsonAPI.Unmarshal(data, &cfg); err != nil {
		return Config{}, exceptions.NewConfigError("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if utf8.RuneCountInString(c.Delimiter) != 1 {
		return exceptions.NewConfigError("delimiter must be a single character, got %q", c.Delimiter)
	}
	if c.SampleRows < 0 {
		return exceptions.NewConfigError("sample_rows must not be negative, got %d", c.SampleRows)
	}
	if len(c.VarcharTiers) == 0 {
		return exceptions.NewConfigError("varchar_tiers must not be empty")
	}
	for i, tier := range c.VarcharTiers {
		if tier <= 0 || tier > model.VarcharMaxLength {
			return exceptions.NewConfigError("varchar tier %d outside (0, %d]", tier, model.VarcharMaxLength)
		}
		if i > 0 && tier <= c.VarcharTiers[i-1] {
			return exceptions.NewConfigError("varchar_tiers must be strictly ascending")
		}
	}
	if c.DefaultStringLength <= 0 || c.DefaultStringLength > model.VarcharMaxLength {
		return exceptions.NewConfigError("default_string_length %d outside (0, %d]", c.DefaultStringLength, model.VarcharMaxLength)
	}
	if c.MaxMalformedRowRatio < 0 || c.MaxMalformedRowRatio > 1 {
		return exceptions.NewConfigError("max_malformed_row_ratio %g outside [0, 1]", c.MaxMalformedRowRatio)
	}
	for _, layout := range c.TimestampLayouts {
		if layout == "" {
			return exceptions.NewConfigError("timestamp_layouts must not contain empty layouts")
		}
	}
	return nil
}

// DefaultTimestampColumnName matches the column names Blockchair dumps use
// for points in time: time, date, datetime or timestamp, bare or as a
// _-separated suffix (median_time, lock_time).
func DefaultTimestampColumnName(name string) bool {
	lower := strings.ToLower(name)
	for _, word := range []string{"time", "date", "datetime", "timestamp"} {
		if lower == word || strings.HasSuffix(lower, "_"+word) {
			return true
		}
	}
	return false
}

func (c *Config) timestampName(name string) bool {
	if c.TimestampColumnName != nil {
		return c.TimestampColumnName(name)
	}
	return DefaultTimestampColumnName(name)
}
