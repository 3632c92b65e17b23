package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"card-assistant/internal/common/config"
	"card-assistant/internal/common/logger"
	"card-assistant/internal/common/telemetry"
	"card-assistant/internal/models"
)

const catalogPath = "../../configs/intents.json"

func demoConfig() *config.Config {
	cfg := &config.Config{}
	cfg.App.Name = "card-assistant-test"
	cfg.App.IntentCatalog = catalogPath
	cfg.Agent = config.AgentConfig{MaxTurns: 25, EnableFraudChecks: true}
	cfg.Backends.Mode = config.BackendModeDemo
	cfg.Auth.Provider = "static"
	cfg.Verification.Strategies = []string{"demo"}
	return cfg
}

func newTestApplication(t *testing.T, cfg *config.Config) *application {
	t.Helper()
	app, err := newApplication(context.Background(), cfg, logger.NewTestLogger(t),
		telemetry.WithRegisterer(prometheus.NewRegistry()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func decodeTranscripts(t *testing.T, r io.Reader) []Transcript {
	t.Helper()
	var out []Transcript
	dec := json.NewDecoder(r)
	for {
		var tr Transcript
		err := dec.Decode(&tr)
		if err == io.EOF {
			return out
		}
		require.NoError(t, err)
		out = append(out, tr)
	}
}

func TestReplay_Scenarios(t *testing.T) {
	app := newTestApplication(t, demoConfig())

	var buf bytes.Buffer
	err := app.replay(context.Background(), []string{
		"testdata/lost_card.yaml",
		"testdata/unverified.yaml",
		"testdata/activate_without_card.yaml",
	}, &buf)
	require.NoError(t, err)

	transcripts := decodeTranscripts(t, &buf)
	require.Len(t, transcripts, 3)

	lost := transcripts[0]
	assert.Equal(t, "lost card", lost.Scenario)
	assert.True(t, lost.Verified)
	require.Len(t, lost.Responses, 3)
	assert.Nil(t, lost.Escalation)
	assert.Equal(t, models.ResponseTypeCardSummary, lost.Responses[1].ResponseType)
	assert.Equal(t, "FRZ-card-1", lost.Responses[1].Data["replacement_case"])
	assert.Equal(t, models.ResponseTypeTransactionList, lost.Responses[2].ResponseType)
	require.Len(t, lost.CaseNotes, 1)
	assert.Contains(t, lost.CaseNotes[0], "Card card-1 frozen: FRZ-card-1")

	unverified := transcripts[1]
	assert.False(t, unverified.Verified)
	assert.Empty(t, unverified.Responses)
	require.NotNil(t, unverified.Escalation)
	assert.Equal(t, models.ResponseTypeCaseEscalation, unverified.Escalation.ResponseType)
	assert.True(t, strings.HasPrefix(unverified.CaseID, "CASE-"))
	ticket := unverified.Escalation.Data["ticket"].(map[string]interface{})
	assert.Equal(t, "list_recent_transactions", ticket["issueType"])
	assert.Equal(t, "Unable to verify caller identity.", ticket["metadata"].(map[string]interface{})["reason"])

	activate := transcripts[2]
	require.Len(t, activate.Responses, 2)
	assert.Equal(t, models.ResponseTypeCaseEscalation, activate.Responses[1].ResponseType)
	assert.NotEmpty(t, activate.CaseID)

	assert.Greater(t, app.collector.Len(), 0)
}

func TestReplay_BadScenario(t *testing.T) {
	app := newTestApplication(t, demoConfig())

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: nobody\nturns:\n  - intent: verify_client\n"), 0644))

	err := app.replay(context.Background(), []string{path}, io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "client_id is required")
}

func TestNewApplication_CatalogMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "intents.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"intents":[
		{"name":"verify_client","displayName":"Verify","category":"identity"}
	]}`), 0644))

	cfg := demoConfig()
	cfg.App.IntentCatalog = path
	_, err := newApplication(context.Background(), cfg, logger.NewNoOpLogger(),
		telemetry.WithRegisterer(prometheus.NewRegistry()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "handler freeze_card has no catalog entry")
}

func TestNewApplication_UnsupportedAuth(t *testing.T) {
	cfg := demoConfig()
	cfg.Auth.Provider = "ldap"
	_, err := newApplication(context.Background(), cfg, logger.NewNoOpLogger(),
		telemetry.WithRegisterer(prometheus.NewRegistry()))
	assert.Error(t, err)
}

func TestPrintIntents(t *testing.T) {
	app := newTestApplication(t, demoConfig())

	var buf bytes.Buffer
	require.NoError(t, printIntents(app, &buf))
	out := buf.String()
	assert.Contains(t, out, "INTENT")
	assert.Contains(t, out, "explain_charge")
	assert.Contains(t, out, "card-management")
	assert.Equal(t, 6, strings.Count(out, "\n"))
}

func TestCatalogCommands(t *testing.T) {
	data, err := os.ReadFile(catalogPath)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "intents.json")
	require.NoError(t, os.WriteFile(path, data, 0644))

	run := func(args ...string) (string, error) {
		root := newRootCmd()
		var out bytes.Buffer
		root.SetOut(&out)
		root.SetErr(io.Discard)
		root.SetArgs(args)
		err := root.Execute()
		return out.String(), err
	}

	out, err := run("catalog", "validate", "--path", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Found 5 intents")

	out, err = run("catalog", "set", "freeze_card", "description", "Freeze a card", "--path", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Updated intent freeze_card")

	_, err = run("catalog", "set", "verify_client", "requiresVerification", "true", "--path", path)
	assert.Error(t, err)
}

func TestOpsHandler(t *testing.T) {
	srv := httptest.NewServer(newOpsHandler("1.2.3"))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "1.2.3", body["version"])

	metrics, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer metrics.Body.Close()
	assert.Equal(t, http.StatusOK, metrics.StatusCode)
}
