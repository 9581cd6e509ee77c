package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/2beens/progressboard/internal/records"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Handler parses tool input, calls the service and formats the MCP result.
// Tool failures are reported in the result (IsError), never as a protocol error.
type Handler struct {
	service contextService
}

func NewHandler(service contextService) *Handler {
	return &Handler{
		service: service,
	}
}

// PatientInput is the input for get_weekly_records.
type PatientInput struct {
	PatientID int `json:"patient_id" jsonschema:"Patient id"`
}

// MeasurementInput is the input for get_progress_timeline.
type MeasurementInput struct {
	PatientID   int    `json:"patient_id" jsonschema:"Patient id"`
	Measurement string `json:"measurement,omitempty" jsonschema:"weight (default) or waist"`
}

// WeekInput is the input for get_week_metrics and get_weekly_note_variables.
type WeekInput struct {
	PatientID   int    `json:"patient_id" jsonschema:"Patient id"`
	Week        int    `json:"week" jsonschema:"Program week, 0 is the first week"`
	Measurement string `json:"measurement,omitempty" jsonschema:"weight (default) or waist"`
}

func (h *Handler) GetProgressSchemaTool() func(context.Context, *mcp.CallToolRequest, any) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ any) (*mcp.CallToolResult, any, error) {
		text, err := h.service.GetSchema(ctx)
		if err != nil {
			return errorResult("Error fetching schema: " + err.Error()), nil, nil
		}
		return textResult(text), nil, nil
	}
}

func (h *Handler) GetWeeklyRecordsTool() func(context.Context, *mcp.CallToolRequest, PatientInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in PatientInput) (*mcp.CallToolResult, any, error) {
		if in.PatientID <= 0 {
			return errorResult("Invalid patient_id"), nil, nil
		}
		recs, err := h.service.ListRecords(ctx, in.PatientID)
		if err != nil {
			return errorResult("Error listing weekly records: " + err.Error()), nil, nil
		}
		if recs == nil {
			recs = []records.Record{}
		}
		return jsonResult(recs), nil, nil
	}
}

func (h *Handler) GetWeekMetricsTool() func(context.Context, *mcp.CallToolRequest, WeekInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in WeekInput) (*mcp.CallToolResult, any, error) {
		measurement, errRes := parseWeekInput(in)
		if errRes != nil {
			return errRes, nil, nil
		}
		wm, err := h.service.WeekMetrics(ctx, in.PatientID, in.Week, measurement)
		if err != nil {
			return errorResult("Error computing week metrics: " + err.Error()), nil, nil
		}
		return jsonResult(wm), nil, nil
	}
}

func (h *Handler) GetProgressTimelineTool() func(context.Context, *mcp.CallToolRequest, MeasurementInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in MeasurementInput) (*mcp.CallToolResult, any, error) {
		if in.PatientID <= 0 {
			return errorResult("Invalid patient_id"), nil, nil
		}
		measurement, err := records.ParseMeasurement(in.Measurement)
		if err != nil {
			return errorResult("Invalid measurement: use weight or waist"), nil, nil
		}
		timeline, err := h.service.Timeline(ctx, in.PatientID, measurement)
		if err != nil {
			return errorResult("Error computing timeline: " + err.Error()), nil, nil
		}
		return jsonResult(timeline), nil, nil
	}
}

func (h *Handler) GetWeeklyNoteVariablesTool() func(context.Context, *mcp.CallToolRequest, WeekInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in WeekInput) (*mcp.CallToolResult, any, error) {
		measurement, errRes := parseWeekInput(in)
		if errRes != nil {
			return errRes, nil, nil
		}
		vars, err := h.service.NoteVariables(ctx, in.PatientID, in.Week, measurement)
		if err != nil {
			return errorResult("Error computing note variables: " + err.Error()), nil, nil
		}
		return jsonResult(vars), nil, nil
	}
}

func parseWeekInput(in WeekInput) (records.Measurement, *mcp.CallToolResult) {
	if in.PatientID <= 0 {
		return "", errorResult("Invalid patient_id")
	}
	if in.Week < 0 {
		return "", errorResult("Invalid week: must be 0 or greater")
	}
	measurement, err := records.ParseMeasurement(in.Measurement)
	if err != nil {
		return "", errorResult("Invalid measurement: use weight or waist")
	}
	return measurement, nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}

func jsonResult(v any) *mcp.CallToolResult {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult(fmt.Sprintf("Error encoding response: %s", err))
	}
	return textResult(string(raw))
}
