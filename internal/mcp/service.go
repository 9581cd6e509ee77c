package mcp

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/2beens/progressboard/internal/messages"
	"github.com/2beens/progressboard/internal/progress"
	"github.com/2beens/progressboard/internal/records"
)

type RecordsRepo interface {
	ListForPatient(ctx context.Context, patientID int) ([]records.Record, error)
}

type metricsAnalyzer interface {
	WeekMetrics(ctx context.Context, patientID, week int, measurement records.Measurement) (progress.WeekMetrics, error)
	Timeline(ctx context.Context, patientID int, measurement records.Measurement) ([]progress.WeekMetrics, error)
}

type variablesSource interface {
	Variables(ctx context.Context, patientID, week int, measurement records.Measurement) (messages.Variables, error)
}

// contextService is what the tool handlers need, kept small for tests.
type contextService interface {
	GetSchema(ctx context.Context) (string, error)
	ListRecords(ctx context.Context, patientID int) ([]records.Record, error)
	WeekMetrics(ctx context.Context, patientID, week int, measurement records.Measurement) (progress.WeekMetrics, error)
	Timeline(ctx context.Context, patientID int, measurement records.Measurement) ([]progress.WeekMetrics, error)
	NoteVariables(ctx context.Context, patientID, week int, measurement records.Measurement) (messages.Variables, error)
}

// ContextService gives AI clients read-only access to the patient progress
// data. All metrics go through the same engine as the dashboard.
type ContextService struct {
	schema    SchemaRepo
	records   RecordsRepo
	analyzer  metricsAnalyzer
	variables variablesSource
}

func NewContextService(
	schemaRepo SchemaRepo,
	recordsRepo RecordsRepo,
	analyzer metricsAnalyzer,
	variables variablesSource,
) *ContextService {
	return &ContextService{
		schema:    schemaRepo,
		records:   recordsRepo,
		analyzer:  analyzer,
		variables: variables,
	}
}

// GetSchema returns the patient, weekly_record and weekly_note tables as markdown.
func (s *ContextService) GetSchema(ctx context.Context) (string, error) {
	cols, err := s.schema.GetProgressColumns(ctx)
	if err != nil {
		return "", err
	}
	return formatProgressSchema(cols), nil
}

func formatProgressSchema(cols []SchemaColumn) string {
	if len(cols) == 0 {
		return "# Progress DB Schema\n\nNo progress tables found in the database.\n"
	}

	byTable := make(map[string][]SchemaColumn)
	for _, c := range cols {
		byTable[c.TableName] = append(byTable[c.TableName], c)
	}

	tableOrder := make([]string, 0, len(byTable))
	for t := range byTable {
		tableOrder = append(tableOrder, t)
	}
	sort.Strings(tableOrder)

	var b strings.Builder
	b.WriteString("# Progress DB Schema\n\n")
	b.WriteString("Weight is stored in kg and waist in cm. One weekly_record row per patient and week.\n\n")

	for _, tableName := range tableOrder {
		b.WriteString("## ")
		b.WriteString(tableName)
		b.WriteString("\n\n| Column | Type | Nullable | Default |\n|--------|------|----------|---------|\n")
		for _, c := range byTable[tableName] {
			def := "-"
			if c.ColumnDef != nil && *c.ColumnDef != "" {
				def = *c.ColumnDef
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", c.ColumnName, c.DataType, c.IsNullable, def)
		}
		b.WriteString("\n")
	}

	return strings.TrimSuffix(b.String(), "\n\n") + "\n"
}

func (s *ContextService) ListRecords(ctx context.Context, patientID int) ([]records.Record, error) {
	return s.records.ListForPatient(ctx, patientID)
}

func (s *ContextService) WeekMetrics(ctx context.Context, patientID, week int, measurement records.Measurement) (progress.WeekMetrics, error) {
	return s.analyzer.WeekMetrics(ctx, patientID, week, measurement)
}

func (s *ContextService) Timeline(ctx context.Context, patientID int, measurement records.Measurement) ([]progress.WeekMetrics, error) {
	return s.analyzer.Timeline(ctx, patientID, measurement)
}

func (s *ContextService) NoteVariables(ctx context.Context, patientID, week int, measurement records.Measurement) (messages.Variables, error) {
	return s.variables.Variables(ctx, patientID, week, measurement)
}
