package records

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/2beens/progressboard/internal/telemetry/metrics"

	log "github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
	"go.uber.org/multierr"
)

const recordedAtLayout = "2006-01-02"

// Recognized header columns: patient_id, week, weight, waist, recorded_at, notes.
var requiredImportColumns = []string{"patient_id", "week"}

// import result labels
const (
	importImported = "imported"
	importInvalid  = "invalid"
	importFailed   = "failed"
)

type recordsUpserter interface {
	Upsert(ctx context.Context, record *Record) (*Record, error)
}

type ImportResult struct {
	Imported int `json:"imported"`
	Failed   int `json:"failed"`
}

// Importer bulk-loads weekly records from CSV or XLSX sheets, e.g. from a
// clinic's existing spreadsheet. Invalid rows are reported and skipped.
type Importer struct {
	repo           recordsUpserter
	metricsManager *metrics.Manager
}

func NewImporter(repo recordsUpserter, metricsManager *metrics.Manager) *Importer {
	return &Importer{
		repo:           repo,
		metricsManager: metricsManager,
	}
}

// ImportFile picks the parser by file extension (.csv or .xlsx).
func (i *Importer) ImportFile(ctx context.Context, path string) (ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return ImportResult{}, err
	}
	defer f.Close()

	var (
		recs     []Record
		parseErr error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		recs, parseErr = ParseCSV(f)
	case ".xlsx":
		recs, parseErr = ParseXLSX(f)
	default:
		return ImportResult{}, fmt.Errorf("unsupported import file [%s]", path)
	}

	res, importErr := i.Import(ctx, recs)
	res.Failed += len(multierr.Errors(parseErr))
	i.count(importInvalid, len(multierr.Errors(parseErr)))

	return res, multierr.Append(parseErr, importErr)
}

// Import upserts every record, row by row. Later rows for the same week
// override earlier ones.
func (i *Importer) Import(ctx context.Context, recs []Record) (ImportResult, error) {
	var (
		res  ImportResult
		errs error
	)
	for idx := range recs {
		rec := recs[idx]
		if _, err := i.repo.Upsert(ctx, &rec); err != nil {
			res.Failed++
			errs = multierr.Append(errs, fmt.Errorf("patient %d week %d: %w", rec.PatientID, rec.WeekNumber, err))
			continue
		}
		res.Imported++
	}

	i.count(importImported, res.Imported)
	i.count(importFailed, res.Failed)
	log.Debugf("records import done: %d imported, %d failed", res.Imported, res.Failed)

	return res, errs
}

func (i *Importer) count(result string, n int) {
	if i.metricsManager == nil || n == 0 {
		return
	}
	i.metricsManager.CounterRecordsImported.WithLabelValues(result).Add(float64(n))
}

func ParseCSV(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return parseRows(rows)
}

// ParseXLSX reads the first sheet of the workbook.
func ParseXLSX(r io.Reader) ([]Record, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Errorf("close xlsx: %s", err)
		}
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("xlsx has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return parseRows(rows)
}

// parseRows maps rows by header name. Valid records are returned even when
// some rows fail, the row errors are combined into the returned error.
func parseRows(rows [][]string) ([]Record, error) {
	if len(rows) == 0 {
		return nil, errors.New("empty sheet")
	}

	col2idx := make(map[string]int, len(rows[0]))
	for idx, name := range rows[0] {
		col2idx[strings.ToLower(strings.TrimSpace(name))] = idx
	}
	for _, required := range requiredImportColumns {
		if _, ok := col2idx[required]; !ok {
			return nil, fmt.Errorf("missing column [%s]", required)
		}
	}

	cell := func(row []string, name string) string {
		idx, ok := col2idx[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var (
		recs []Record
		errs error
	)
	for n, row := range rows[1:] {
		line := n + 2
		if isBlankRow(row) {
			continue
		}

		rec, err := parseRow(func(name string) string { return cell(row, name) })
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("row %d: %w", line, err))
			continue
		}
		recs = append(recs, rec)
	}

	return recs, errs
}

func parseRow(cell func(name string) string) (Record, error) {
	var rec Record

	patientID, err := strconv.Atoi(cell("patient_id"))
	if err != nil {
		return rec, fmt.Errorf("invalid patient_id: %w", err)
	}
	week, err := strconv.Atoi(cell("week"))
	if err != nil {
		return rec, fmt.Errorf("invalid week: %w", err)
	}
	rec.PatientID = patientID
	rec.WeekNumber = week

	if rec.Weight, err = parseQuantity(cell("weight")); err != nil {
		return rec, fmt.Errorf("invalid weight: %w", err)
	}
	if rec.Waist, err = parseQuantity(cell("waist")); err != nil {
		return rec, fmt.Errorf("invalid waist: %w", err)
	}

	if v := cell("recorded_at"); v != "" {
		if rec.RecordedAt, err = time.Parse(recordedAtLayout, v); err != nil {
			return rec, fmt.Errorf("invalid recorded_at: %w", err)
		}
	}
	rec.Notes = cell("notes")

	return rec, rec.Validate()
}

// parseQuantity treats a blank cell as not measured. Decimal commas are accepted.
func parseQuantity(v string) (*float64, error) {
	if v == "" {
		return nil, nil
	}
	q, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", "."), 64)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
