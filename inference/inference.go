// Package inference derives warehouse table schemas from samples of
// delimited dump files.
package inference

import (
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/blockchair-etl/flow/datatypes"
	"github.com/blockchair-etl/flow/logger"
	"github.com/blockchair-etl/flow/model"
	"github.com/blockchair-etl/flow/shared"
	"github.com/blockchair-etl/flow/shared/exceptions"
)

// script_hex fields in outputs dumps run to megabytes per row.
const maxLineBytes = 64 * 1024 * 1024

var numericCompat = datatypes.SnowflakeNumericCompatibility{}

// Report summarizes one inference run.
type Report struct {
	RowsSampled int
	SkippedRows int
	TypeCounts  map[model.TypeKind]int
	Warnings    []string
}

// InferSchema samples up to cfg.SampleRows data rows of the delimited file
// at path, gunzipping on the fly when the name ends in .gz, and derives the
// narrowest schema every sampled value fits. Column order mirrors the file
// header.
func InferSchema(ctx context.Context, cfg Config, path string, tableName string) (model.TableSchema, Report, error) {
	report := Report{TypeCounts: make(map[model.TypeKind]int)}
	if err := cfg.Validate(); err != nil {
		return model.TableSchema{}, report, err
	}
	if !shared.IsValidTableName(tableName) {
		return model.TableSchema{}, report, exceptions.NewInputError(fmt.Errorf("invalid table name %q", tableName))
	}

	file, err := os.Open(path)
	if err != nil {
		return model.TableSchema{}, report, exceptions.NewInputError(fmt.Errorf("opening %s: %w", path, err))
	}
	defer file.Close()

	var reader io.Reader = file
	if strings.HasSuffix(path, ".gz") {
		gzReader, err := gzip.NewReader(file)
		if err != nil {
			return model.TableSchema{}, report, exceptions.NewInputError(fmt.Errorf("opening gzip stream %s: %w", path, err))
		}
		defer gzReader.Close()
		reader = gzReader
	}

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 1024*1024), maxLineBytes)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return model.TableSchema{}, report, exceptions.NewInputError(fmt.Errorf("reading header of %s: %w", path, err))
		}
		return model.TableSchema{}, report, exceptions.NewInputError(&MalformedHeaderError{Reason: "file has no header row"})
	}
	headerLine := scanner.Text()
	if headerLine == "" {
		return model.TableSchema{}, report, exceptions.NewInputError(&MalformedHeaderError{Reason: "header row is empty"})
	}

	rawHeader := strings.Split(headerLine, cfg.Delimiter)
	names := make([]string, len(rawHeader))
	seen := make(map[string]int, len(rawHeader))
	for i, raw := range rawHeader {
		name := shared.NormalizeColumnName(raw, i)
		if previous, ok := seen[name]; ok {
			return model.TableSchema{}, report, exceptions.NewInputError(&MalformedHeaderError{
				Reason: fmt.Sprintf("columns %d and %d both normalize to %s", previous, i, name),
			})
		}
		seen[name] = i
		names[i] = name
	}

	keep, err := keepMask(&cfg, rawHeader)
	if err != nil {
		return model.TableSchema{}, report, err
	}

	profiles := make([]*ColumnProfile, len(names))
	for i, name := range names {
		profiles[i] = newColumnProfile(name, len(cfg.TimestampLayouts))
	}

	for report.RowsSampled+report.SkippedRows < cfg.SampleRows && scanner.Scan() {
		fields := strings.Split(scanner.Text(), cfg.Delimiter)
		if len(fields) != len(names) {
			report.SkippedRows++
			continue
		}
		report.RowsSampled++
		for i, value := range fields {
			if keep[i] {
				profiles[i].Observe(&cfg, value)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return model.TableSchema{}, report, exceptions.NewInputError(fmt.Errorf("reading %s: %w", path, err))
	}

	total := report.RowsSampled + report.SkippedRows
	if total == 0 {
		return model.TableSchema{}, report, exceptions.NewInputError(&InsufficientDataError{Path: path})
	}
	if float64(report.SkippedRows)/float64(total) > cfg.MaxMalformedRowRatio {
		return model.TableSchema{}, report, exceptions.NewInputError(&TooManyMalformedRowsError{
			Skipped: report.SkippedRows,
			Total:   total,
		})
	}

	log := logger.LoggerFromCtx(ctx)
	schema := model.TableSchema{TableName: tableName}
	for i, profile := range profiles {
		if !keep[i] {
			continue
		}
		columnType, warnings := decideColumnType(&cfg, profile)
		report.Warnings = append(report.Warnings, warnings...)
		report.TypeCounts[columnType.Kind]++
		schema.Columns = append(schema.Columns, model.Column{Name: profile.Name, Type: columnType})
		log.Debug("inferred column type",
			slog.String("column", profile.Name),
			slog.String("type", columnType.String()),
			slog.Int("nonEmpty", profile.NonEmpty),
			slog.Int("maxLength", int(profile.MaxLength)))
	}
	for _, warning := range report.Warnings {
		log.Warn(warning)
	}
	log.Info("schema inference complete",
		slog.String("table", tableName),
		slog.Int("columns", len(schema.Columns)),
		slog.Int("rowsSampled", report.RowsSampled),
		slog.Int("skippedRows", report.SkippedRows),
		slog.Int("warnings", len(report.Warnings)))

	return schema, report, nil
}

func keepMask(cfg *Config, rawHeader []string) ([]bool, error) {
	keep := make([]bool, len(rawHeader))
	if len(cfg.UseColumns) == 0 {
		for i := range keep {
			keep[i] = true
		}
		return keep, nil
	}

	rawIndex := make(map[string]int, len(rawHeader))
	for i, raw := range rawHeader {
		rawIndex[raw] = i
	}
	for _, want := range cfg.UseColumns {
		index, ok := rawIndex[want]
		if !ok {
			return nil, exceptions.NewConfigError("usecols entry %q not present in header", want)
		}
		keep[index] = true
	}
	return keep, nil
}

// decideColumnType picks the narrowest type every observed value fits, in
// fixed priority order. Returned warnings flag decisions that lose width.
func decideColumnType(cfg *Config, profile *ColumnProfile) (model.ColumnType, []string) {
	if profile.NonEmpty == 0 {
		return model.VarcharType(cfg.DefaultStringLength), nil
	}
	if cfg.timestampName(profile.Name) {
		if layout, ok := profile.FirstViableLayout(cfg); ok {
			if strings.Contains(layout, "15") {
				return model.ColumnType{Kind: model.KindTimestamp}, nil
			}
			return model.ColumnType{Kind: model.KindDate}, nil
		}
	}
	if profile.AllBoolean {
		return model.ColumnType{Kind: model.KindBoolean}, nil
	}
	if profile.AllInteger {
		return model.ColumnType{Kind: model.KindInteger}, nil
	}
	if profile.AllNumeric {
		return decideNumericType(profile)
	}
	return decideVarcharType(cfg, profile)
}

func decideNumericType(profile *ColumnProfile) (model.ColumnType, []string) {
	precision := profile.MaxIntegerDigits + profile.MaxFractionDigits
	scale := profile.MaxFractionDigits
	if precision <= datatypes.FloatSafeDigits {
		return model.ColumnType{Kind: model.KindFloat}, nil
	}
	if numericCompat.IsValidPrecisionAndScale(precision, scale) {
		return model.NumericType(precision, scale), nil
	}
	return model.ColumnType{Kind: model.KindFloat}, []string{fmt.Sprintf(
		"column %s: %d significant digits exceed NUMERIC(%d) capacity, storing as lossy FLOAT",
		profile.Name, precision, numericCompat.MaxPrecision())}
}

func decideVarcharType(cfg *Config, profile *ColumnProfile) (model.ColumnType, []string) {
	for _, tier := range cfg.VarcharTiers {
		if profile.MaxLength <= tier {
			return model.VarcharType(tier), nil
		}
	}
	widest := cfg.VarcharTiers[len(cfg.VarcharTiers)-1]
	return model.VarcharType(widest), []string{fmt.Sprintf(
		"column %s: longest value of %d characters exceeds the widest varchar tier %d",
		profile.Name, profile.MaxLength, widest)}
}
