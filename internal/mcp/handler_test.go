package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/2beens/progressboard/internal/messages"
	"github.com/2beens/progressboard/internal/progress"
	"github.com/2beens/progressboard/internal/records"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// mockContextService implements contextService for tests.
type mockContextService struct {
	schema     string
	schemaErr  error
	records    []records.Record
	recordsErr error
	metrics    progress.WeekMetrics
	timeline   []progress.WeekMetrics
	metricsErr error
	vars       messages.Variables
	varsErr    error

	gotMeasurement records.Measurement
}

func (s *mockContextService) GetSchema(ctx context.Context) (string, error) {
	return s.schema, s.schemaErr
}

func (s *mockContextService) ListRecords(ctx context.Context, patientID int) ([]records.Record, error) {
	return s.records, s.recordsErr
}

func (s *mockContextService) WeekMetrics(ctx context.Context, patientID, week int, measurement records.Measurement) (progress.WeekMetrics, error) {
	s.gotMeasurement = measurement
	return s.metrics, s.metricsErr
}

func (s *mockContextService) Timeline(ctx context.Context, patientID int, measurement records.Measurement) ([]progress.WeekMetrics, error) {
	s.gotMeasurement = measurement
	return s.timeline, s.metricsErr
}

func (s *mockContextService) NoteVariables(ctx context.Context, patientID, week int, measurement records.Measurement) (messages.Variables, error) {
	s.gotMeasurement = measurement
	return s.vars, s.varsErr
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) != 1 {
		t.Fatalf("expected 1 content, got %d", len(res.Content))
	}
	tc, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content")
	}
	return tc.Text
}

func TestHandler_GetProgressSchemaTool(t *testing.T) {
	t.Run("returns_schema", func(t *testing.T) {
		want := "## weekly_record\n| col | type |\n"
		h := NewHandler(&mockContextService{schema: want})
		res, _, err := h.GetProgressSchemaTool()(context.Background(), &mcp.CallToolRequest{}, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.IsError {
			t.Fatalf("unexpected IsError")
		}
		if got := resultText(t, res); got != want {
			t.Fatalf("content text = %q, want %q", got, want)
		}
	})

	t.Run("returns_error_when_schema_fails", func(t *testing.T) {
		h := NewHandler(&mockContextService{schemaErr: errors.New("db gone")})
		res, _, err := h.GetProgressSchemaTool()(context.Background(), &mcp.CallToolRequest{}, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !res.IsError {
			t.Fatalf("expected IsError")
		}
		if got := resultText(t, res); got != "Error fetching schema: db gone" {
			t.Fatalf("content text = %q", got)
		}
	})
}

func TestHandler_GetWeeklyRecordsTool(t *testing.T) {
	t.Run("invalid_patient", func(t *testing.T) {
		h := NewHandler(&mockContextService{})
		res, _, _ := h.GetWeeklyRecordsTool()(context.Background(), &mcp.CallToolRequest{}, PatientInput{})
		if !res.IsError || resultText(t, res) != "Invalid patient_id" {
			t.Fatalf("expected invalid patient error, got %+v", res)
		}
	})

	t.Run("empty_list_is_array", func(t *testing.T) {
		h := NewHandler(&mockContextService{})
		res, _, _ := h.GetWeeklyRecordsTool()(context.Background(), &mcp.CallToolRequest{}, PatientInput{PatientID: 3})
		if res.IsError {
			t.Fatalf("unexpected IsError")
		}
		if got := resultText(t, res); got != "[]" {
			t.Fatalf("content text = %q, want []", got)
		}
	})

	t.Run("returns_records", func(t *testing.T) {
		svc := &mockContextService{records: []records.Record{
			{PatientID: 3, WeekNumber: 0, Weight: progress.Q(90)},
			{PatientID: 3, WeekNumber: 1},
		}}
		h := NewHandler(svc)
		res, _, _ := h.GetWeeklyRecordsTool()(context.Background(), &mcp.CallToolRequest{}, PatientInput{PatientID: 3})
		var got []records.Record
		if err := json.Unmarshal([]byte(resultText(t, res)), &got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(got) != 2 || got[1].Weight != nil {
			t.Fatalf("unexpected records %+v", got)
		}
	})

	t.Run("returns_error_when_list_fails", func(t *testing.T) {
		h := NewHandler(&mockContextService{recordsErr: errors.New("connection refused")})
		res, _, _ := h.GetWeeklyRecordsTool()(context.Background(), &mcp.CallToolRequest{}, PatientInput{PatientID: 1})
		if got := resultText(t, res); !res.IsError || got != "Error listing weekly records: connection refused" {
			t.Fatalf("content text = %q", got)
		}
	})
}

func TestHandler_GetWeekMetricsTool(t *testing.T) {
	t.Run("invalid_week", func(t *testing.T) {
		h := NewHandler(&mockContextService{})
		res, _, _ := h.GetWeekMetricsTool()(context.Background(), &mcp.CallToolRequest{}, WeekInput{PatientID: 1, Week: -2})
		if got := resultText(t, res); !res.IsError || got != "Invalid week: must be 0 or greater" {
			t.Fatalf("content text = %q", got)
		}
	})

	t.Run("invalid_measurement", func(t *testing.T) {
		h := NewHandler(&mockContextService{})
		res, _, _ := h.GetWeekMetricsTool()(context.Background(), &mcp.CallToolRequest{}, WeekInput{PatientID: 1, Week: 2, Measurement: "height"})
		if got := resultText(t, res); !res.IsError || got != "Invalid measurement: use weight or waist" {
			t.Fatalf("content text = %q", got)
		}
	})

	t.Run("null_rates_when_insufficient", func(t *testing.T) {
		svc := &mockContextService{metrics: progress.WeekMetrics{Week: 0, Trend: progress.TrendStable}}
		h := NewHandler(svc)
		res, _, _ := h.GetWeekMetricsTool()(context.Background(), &mcp.CallToolRequest{}, WeekInput{PatientID: 1, Measurement: "waist"})
		if res.IsError {
			t.Fatalf("unexpected IsError: %s", resultText(t, res))
		}
		var got map[string]any
		if err := json.Unmarshal([]byte(resultText(t, res)), &got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got["momentumRate"] != nil || got["overallRate"] != nil {
			t.Fatalf("expected null rates, got %v", got)
		}
		if svc.gotMeasurement != records.MeasurementWaist {
			t.Fatalf("measurement = %q", svc.gotMeasurement)
		}
	})
}

func TestHandler_GetProgressTimelineTool(t *testing.T) {
	svc := &mockContextService{timeline: []progress.WeekMetrics{{Week: 0}, {Week: 1}}}
	h := NewHandler(svc)
	res, _, _ := h.GetProgressTimelineTool()(context.Background(), &mcp.CallToolRequest{}, MeasurementInput{PatientID: 2})
	if res.IsError {
		t.Fatalf("unexpected IsError: %s", resultText(t, res))
	}
	var got []progress.WeekMetrics
	if err := json.Unmarshal([]byte(resultText(t, res)), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 weeks, got %d", len(got))
	}
	if svc.gotMeasurement != records.MeasurementWeight {
		t.Fatalf("default measurement = %q", svc.gotMeasurement)
	}

	svc.metricsErr = errors.New("timeout")
	res, _, _ = h.GetProgressTimelineTool()(context.Background(), &mcp.CallToolRequest{}, MeasurementInput{PatientID: 2})
	if got := resultText(t, res); !res.IsError || got != "Error computing timeline: timeout" {
		t.Fatalf("content text = %q", got)
	}
}

func TestHandler_GetWeeklyNoteVariablesTool(t *testing.T) {
	svc := &mockContextService{vars: messages.Variables{PatientName: "Ana", OverallRate: messages.NotAvailable}}
	h := NewHandler(svc)
	res, _, _ := h.GetWeeklyNoteVariablesTool()(context.Background(), &mcp.CallToolRequest{}, WeekInput{PatientID: 1, Week: 1})
	if res.IsError {
		t.Fatalf("unexpected IsError: %s", resultText(t, res))
	}
	var got messages.Variables
	if err := json.Unmarshal([]byte(resultText(t, res)), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.PatientName != "Ana" || got.OverallRate != "N/A" {
		t.Fatalf("unexpected variables %+v", got)
	}

	svc.varsErr = errors.New("patient not found")
	res, _, _ = h.GetWeeklyNoteVariablesTool()(context.Background(), &mcp.CallToolRequest{}, WeekInput{PatientID: 1, Week: 1})
	if got := resultText(t, res); !res.IsError || got != "Error computing note variables: patient not found" {
		t.Fatalf("content text = %q", got)
	}
}
