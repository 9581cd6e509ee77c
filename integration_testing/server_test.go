//go:build integration_test || all_tests

package integration_testing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/2beens/progressboard/internal/middleware"
	"github.com/2beens/progressboard/internal/patients"
	"github.com/2beens/progressboard/internal/records"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type ServerTestSuite struct {
	suite.Suite
	s      *Suite
	ctx    context.Context
	cancel context.CancelFunc
	client *http.Client
	token  string
}

func TestServerTestSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}

func (ts *ServerTestSuite) SetupSuite() {
	ts.ctx, ts.cancel = context.WithCancel(context.Background())
	ts.s = newSuite(ts.ctx)
	ts.client = &http.Client{Timeout: 10 * time.Second}

	ts.Require().Eventually(func() bool {
		resp, err := ts.do(http.MethodGet, "/", nil)
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 10*time.Second, 100*time.Millisecond)

	ts.token = ts.login()
}

func (ts *ServerTestSuite) TearDownSuite() {
	ts.cancel()
	ts.s.cleanup()
}

func (ts *ServerTestSuite) do(method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, serverEndpoint+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Origin", testOrigin)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if ts.token != "" {
		req.Header.Set(middleware.AuthTokenHeader, ts.token)
	}
	return ts.client.Do(req)
}

func (ts *ServerTestSuite) doJSON(method, path string, body any, expectedStatus int, out any) {
	resp, err := ts.do(method, path, body)
	ts.Require().NoError(err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	ts.Require().NoError(err)
	ts.Require().Equal(expectedStatus, resp.StatusCode, string(raw))
	if out != nil {
		ts.Require().NoError(json.Unmarshal(raw, out))
	}
}

func (ts *ServerTestSuite) login() string {
	var resp map[string]string
	ts.doJSON(http.MethodPost, "/a/login", map[string]string{
		"username": adminUsername,
		"password": adminPassword,
	}, http.StatusOK, &resp)
	ts.Require().NotEmpty(resp["token"])
	return resp["token"]
}

func (ts *ServerTestSuite) addPatient(unit patients.Unit) patients.Patient {
	var added patients.Patient
	ts.doJSON(http.MethodPost, "/patients", patients.Patient{
		FullName: gofakeit.Name(),
		Unit:     unit,
	}, http.StatusCreated, &added)
	ts.Require().Positive(added.ID)
	return added
}

func (ts *ServerTestSuite) upsert(patientID, week int, weight float64) {
	ts.doJSON(http.MethodPut, fmt.Sprintf("/patients/%d/records", patientID), records.Record{
		WeekNumber: week,
		Weight:     &weight,
	}, http.StatusOK, nil)
}

func (ts *ServerTestSuite) TestUnauthorizedWithoutToken() {
	token := ts.token
	ts.token = ""
	defer func() { ts.token = token }()

	resp, err := ts.do(http.MethodGet, "/patients", nil)
	ts.Require().NoError(err)
	_ = resp.Body.Close()
	ts.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (ts *ServerTestSuite) TestWeeklyProgress() {
	patient := ts.addPatient(patients.UnitKg)
	for week, weight := range []float64{200, 198, 197, 195, 194} {
		ts.upsert(patient.ID, week, weight)
	}

	var metrics records.MetricsResponse
	ts.doJSON(http.MethodGet, fmt.Sprintf("/patients/%d/metrics/4", patient.ID), nil, http.StatusOK, &metrics)
	ts.Require().NotNil(metrics.MomentumRate)
	ts.Equal(0.76, *metrics.MomentumRate)
	ts.Require().NotNil(metrics.OverallRate)
	ts.InDelta(0.75, *metrics.OverallRate, 1e-9)

	// coach override of week 4 changes every metric on the next read
	ts.upsert(patient.ID, 4, 193)
	ts.doJSON(http.MethodGet, fmt.Sprintf("/patients/%d/metrics/4", patient.ID), nil, http.StatusOK, &metrics)
	ts.InDelta(0.875, *metrics.OverallRate, 1e-9)

	// week 0 never has rates
	ts.doJSON(http.MethodGet, fmt.Sprintf("/patients/%d/metrics/0", patient.ID), nil, http.StatusOK, &metrics)
	ts.Nil(metrics.MomentumRate)
	ts.Nil(metrics.OverallRate)

	resp, err := ts.do(http.MethodGet, fmt.Sprintf("/patients/%d/chart?format=csv", patient.ID), nil)
	ts.Require().NoError(err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	ts.Require().NoError(err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	ts.Len(lines, 6)
	ts.Equal("week,quantity,delta,momentum_rate,overall_rate,trend", lines[0])
}

func (ts *ServerTestSuite) TestUnknownPatientRecord() {
	weight := 80.0
	ts.doJSON(http.MethodPut, "/patients/999999/records", records.Record{WeekNumber: 0, Weight: &weight}, http.StatusNotFound, nil)
}

func (ts *ServerTestSuite) TestCoachingNoteAutosave() {
	patient := ts.addPatient(patients.UnitLb)
	ts.upsert(patient.ID, 0, 100)
	ts.upsert(patient.ID, 1, 99)

	resp, err := ts.do(http.MethodGet, fmt.Sprintf("/patients/%d/weeks/1/note/render?template=coach-summary", patient.ID), nil)
	ts.Require().NoError(err)
	raw, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	ts.Require().NoError(err)
	ts.Require().Equal(http.StatusOK, resp.StatusCode, string(raw))
	ts.Contains(string(raw), patient.FullName)
	ts.Contains(string(raw), "218.3 lb")

	ts.doJSON(http.MethodPut, fmt.Sprintf("/patients/%d/weeks/1/note/draft", patient.ID), map[string]string{
		"body": "Solid first week",
	}, http.StatusAccepted, nil)

	path := fmt.Sprintf("/patients/%d/weeks/1/note", patient.ID)
	ts.Require().Eventually(func() bool {
		var note struct {
			Note *struct {
				Body string `json:"body"`
			} `json:"note"`
			Status string `json:"status"`
		}
		resp, err := ts.do(http.MethodGet, path, nil)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return false
		}
		if err := json.NewDecoder(resp.Body).Decode(&note); err != nil {
			return false
		}
		return note.Note != nil && note.Note.Body == "Solid first week" && note.Status == "saved"
	}, 5*time.Second, 50*time.Millisecond)
}

func (ts *ServerTestSuite) TestMCPRequiresSecret() {
	req, err := http.NewRequest(http.MethodPost, serverEndpoint+"/mcp", strings.NewReader(`{}`))
	ts.Require().NoError(err)
	resp, err := ts.client.Do(req)
	ts.Require().NoError(err)
	_ = resp.Body.Close()
	assert.Equal(ts.T(), http.StatusUnauthorized, resp.StatusCode)
}

func (ts *ServerTestSuite) TestLoginLogout() {
	suiteToken := ts.token
	defer func() { ts.token = suiteToken }()

	ts.token = ""
	ts.doJSON(http.MethodPost, "/a/login", map[string]string{
		"username": adminUsername,
		"password": "wrong",
	}, http.StatusBadRequest, nil)

	ts.token = ts.login()
	ts.doJSON(http.MethodGet, "/a/logout", nil, http.StatusOK, nil)

	resp, err := ts.do(http.MethodGet, "/patients", nil)
	ts.Require().NoError(err)
	_ = resp.Body.Close()
	ts.Equal(http.StatusUnauthorized, resp.StatusCode)
}
