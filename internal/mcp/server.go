package mcp

import (
	"github.com/2beens/progressboard/internal/messages"
	"github.com/2beens/progressboard/internal/records"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// NewServer builds the MCP server with the progress tools. It is served over
// stdio by cmd/progress_mcp and mounted at /mcp by the main service.
func NewServer(
	pool *pgxpool.Pool,
	recordsRepo *records.Repo,
	analyzer *records.Analyzer,
	variables *messages.Service,
) *mcp.Server {
	svc := NewContextService(NewPoolSchemaRepo(pool), recordsRepo, analyzer, variables)
	return newServer(NewHandler(svc))
}

func newServer(h *Handler) *mcp.Server {
	s := mcp.NewServer(&mcp.Implementation{
		Name:    "progressboard",
		Version: "1.0.0",
	}, nil)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_progress_schema",
		Description: "Returns the DB schema of the progress tables (patient, weekly_record, weekly_note): columns, types, nullable, default. Use before writing analysis that relies on stored fields.",
	}, h.GetProgressSchemaTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_weekly_records",
		Description: "Returns all weekly records of a patient ordered by week: weight (kg), waist (cm), notes. Missing measurements are null. Arg: patient_id.",
	}, h.GetWeeklyRecordsTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_week_metrics",
		Description: "Returns the progress metrics for one week: momentum rate (average weekly % change over the last 4 weeks), overall rate (% change from baseline per week), trend and data flags. Null rates mean there was not enough data. Args: patient_id, week; optional: measurement (weight or waist).",
	}, h.GetWeekMetricsTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_progress_timeline",
		Description: "Returns the progress metrics for every recorded week of a patient, the same values the dashboard charts show. Args: patient_id; optional: measurement (weight or waist).",
	}, h.GetProgressTimelineTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_weekly_note_variables",
		Description: "Returns the formatted values a coaching note can use for a week (rates as percentages, N/A when not computable, quantities in the patient's unit). Args: patient_id, week; optional: measurement.",
	}, h.GetWeeklyNoteVariablesTool())

	return s
}
