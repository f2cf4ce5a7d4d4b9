// internal/pipeline/cleaner/cleaner.go
package cleaner

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	apperrors "mortgage-readiness/internal/common/errors"
	"mortgage-readiness/internal/common/logger"
	"mortgage-readiness/internal/common/metrics"
	"mortgage-readiness/internal/models"
)

// Raw HMDA LAR columns consumed by the cleaner.
const (
	RawApplicantAge  = "applicant_age"
	RawIncome        = "income"
	RawLoanAmount    = "loan_amount"
	RawPropertyValue = "property_value"
	RawActionTaken   = "action_taken"
)

// RequiredRawColumns must all be present in the raw header.
var RequiredRawColumns = []string{RawApplicantAge, RawIncome, RawLoanAmount, RawPropertyValue, RawActionTaken}

// HMDA action_taken codes that carry a decision.
const (
	actionOriginated = 1
	actionDenied     = 3
)

const (
	DefaultChunkSize        = 100000
	DefaultIncomeUnitFactor = 4000.0
	DefaultExpenseRatio     = 0.3
	MinAge                  = 18
	MaxAge                  = 100
)

// DropReason labels why a raw row was filtered out.
type DropReason string

const (
	DropMissingNumeric DropReason = "missing_numeric"
	DropOutcome        DropReason = "outcome"
	DropIncome         DropReason = "non_positive_income"
	DropContribution   DropReason = "negative_contribution"
	DropAge            DropReason = "age"
)

// DropReasons lists every reason in the order rows are checked.
var DropReasons = []DropReason{DropMissingNumeric, DropOutcome, DropIncome, DropContribution, DropAge}

// Options configures one cleaning run.
type Options struct {
	InputPath  string
	OutputPath string
	ChunkSize  int

	// IncomeUnitFactor converts one raw income unit per year into local
	// currency per year; the result is divided by 12.
	IncomeUnitFactor float64
	ExpenseRatio     float64

	Logger logger.Logger
}

func (o *Options) applyDefaults() {
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.IncomeUnitFactor <= 0 {
		o.IncomeUnitFactor = DefaultIncomeUnitFactor
	}
	if o.ExpenseRatio <= 0 {
		o.ExpenseRatio = DefaultExpenseRatio
	}
	if o.Logger == nil {
		o.Logger = logger.NewNoOpLogger()
	}
}

// Report summarises a cleaning run.
type Report struct {
	OutputPath   string
	Chunks       int
	RowsRead     int
	RowsRetained int
	Dropped      map[DropReason]int
	Duration     time.Duration
}

type columnIndex map[string]int

func (ci columnIndex) get(row []string, col string) string {
	i := ci[col]
	if i >= len(row) {
		return ""
	}
	return row[i]
}

// Clean converts the raw table at opts.InputPath into the cleaned training
// table at opts.OutputPath, one chunk at a time. The output is truncated and
// written with a header, then each chunk is appended and flushed in input
// order.
func Clean(ctx context.Context, opts Options) (*Report, error) {
	opts.applyDefaults()
	start := time.Now()
	log := opts.Logger.With(map[string]interface{}{
		"input":  opts.InputPath,
		"output": opts.OutputPath,
	})

	in, err := os.Open(opts.InputPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.NewRawDataNotFoundError(opts.InputPath)
		}
		return nil, apperrors.NewRawDataUnreadableError(opts.InputPath, err)
	}
	defer in.Close()

	reader := csv.NewReader(in)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		return nil, apperrors.NewRawDataUnreadableError(opts.InputPath, fmt.Errorf("read header: %w", err))
	}
	cols, err := indexColumns(header)
	if err != nil {
		return nil, apperrors.NewRawDataUnreadableError(opts.InputPath, err)
	}

	if dir := filepath.Dir(opts.OutputPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, apperrors.NewCleanedDataWriteError(opts.OutputPath, err)
		}
	}
	out, err := os.OpenFile(opts.OutputPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, apperrors.NewCleanedDataWriteError(opts.OutputPath, err)
	}
	defer out.Close()

	writer := csv.NewWriter(out)
	if err := writer.Write(models.CleanedColumns()); err != nil {
		return nil, apperrors.NewCleanedDataWriteError(opts.OutputPath, err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, apperrors.NewCleanedDataWriteError(opts.OutputPath, err)
	}

	report := &Report{
		OutputPath: opts.OutputPath,
		Dropped:    make(map[DropReason]int),
	}

	chunk := make([][]string, 0, min(opts.ChunkSize, 4096))
	for done := false; !done; {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		chunk = chunk[:0]
		for len(chunk) < opts.ChunkSize {
			row, err := reader.Read()
			if err == io.EOF {
				done = true
				break
			}
			if err != nil {
				return report, apperrors.NewRawDataUnreadableError(opts.InputPath, err)
			}
			chunk = append(chunk, append([]string(nil), row...))
		}
		if len(chunk) == 0 {
			break
		}

		stats, err := processChunk(chunk, cols, opts, writer)
		if err != nil {
			return report, apperrors.NewCleanedDataWriteError(opts.OutputPath, err)
		}
		writer.Flush()
		if err := writer.Error(); err != nil {
			return report, apperrors.NewCleanedDataWriteError(opts.OutputPath, err)
		}

		report.Chunks++
		report.RowsRead += len(chunk)
		report.RowsRetained += stats.retained
		for reason, n := range stats.dropped {
			report.Dropped[reason] += n
			metrics.CleanerRowsDropped.WithLabelValues(string(reason)).Add(float64(n))
		}
		metrics.CleanerChunksProcessed.Inc()
		metrics.CleanerRowsRead.Add(float64(len(chunk)))
		metrics.CleanerRowsRetained.Add(float64(stats.retained))

		log.Info("processed chunk", map[string]interface{}{
			"chunk":         report.Chunks,
			"rowsInChunk":   len(chunk),
			"retained":      stats.retained,
			"retainedTotal": report.RowsRetained,
		})
	}

	if err := out.Sync(); err != nil {
		return report, apperrors.NewCleanedDataWriteError(opts.OutputPath, err)
	}
	report.Duration = time.Since(start)

	log.Info("cleaning completed", map[string]interface{}{
		"chunks":       report.Chunks,
		"rowsRead":     report.RowsRead,
		"rowsRetained": report.RowsRetained,
		"duration_ms":  report.Duration.Milliseconds(),
	})
	return report, nil
}

func indexColumns(header []string) (columnIndex, error) {
	cols := make(columnIndex, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, seen := cols[name]; !seen {
			cols[name] = i
		}
	}

	var missing []string
	for _, c := range RequiredRawColumns {
		if _, ok := cols[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return cols, nil
}

type chunkStats struct {
	retained int
	dropped  map[DropReason]int
}

func processChunk(rows [][]string, cols columnIndex, opts Options, w *csv.Writer) (chunkStats, error) {
	stats := chunkStats{dropped: make(map[DropReason]int)}
	for _, row := range rows {
		rec, reason := cleanRow(row, cols, opts)
		if reason != "" {
			stats.dropped[reason]++
			continue
		}
		if err := w.Write(formatRecord(rec)); err != nil {
			return stats, err
		}
		stats.retained++
	}
	return stats, nil
}

// cleanRow derives a CleanedRecord from one raw row, or the reason it was
// dropped.
func cleanRow(row []string, cols columnIndex, opts Options) (models.CleanedRecord, DropReason) {
	income, okIncome := parseNumber(cols.get(row, RawIncome))
	loan, okLoan := parseNumber(cols.get(row, RawLoanAmount))
	property, okProperty := parseNumber(cols.get(row, RawPropertyValue))
	if !okIncome || !okLoan || !okProperty {
		return models.CleanedRecord{}, DropMissingNumeric
	}

	var target int
	action, ok := parseNumber(cols.get(row, RawActionTaken))
	switch {
	case ok && action == actionOriginated:
		target = 1
	case ok && action == actionDenied:
		target = 0
	default:
		return models.CleanedRecord{}, DropOutcome
	}

	monthlyIncome := income * opts.IncomeUnitFactor / 12
	if monthlyIncome <= 0 {
		return models.CleanedRecord{}, DropIncome
	}
	contribution := property - loan
	if contribution < 0 {
		return models.CleanedRecord{}, DropContribution
	}
	age, ok := parseAge(cols.get(row, RawApplicantAge))
	if !ok || age < MinAge || age > MaxAge {
		return models.CleanedRecord{}, DropAge
	}

	return models.CleanedRecord{
		Applicant: models.Applicant{
			Age:             age,
			EmploymentType:  models.EmploymentPermanent,
			MonthlyIncome:   monthlyIncome,
			MonthlyExpenses: monthlyIncome * opts.ExpenseRatio,
			ExistingLoans:   0,
			OwnContribution: contribution,
			PropertyValue:   property,
			Dependents:      0,
		},
		Target: target,
	}, ""
}

// formatRecord renders rec in models.CleanedColumns order.
func formatRecord(rec models.CleanedRecord) []string {
	return []string{
		strconv.Itoa(rec.Age),
		string(rec.EmploymentType),
		formatFloat(rec.MonthlyIncome),
		formatFloat(rec.MonthlyExpenses),
		formatFloat(rec.ExistingLoans),
		formatFloat(rec.OwnContribution),
		formatFloat(rec.PropertyValue),
		strconv.Itoa(rec.Dependents),
		strconv.Itoa(rec.Target),
	}
}
