package serve

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praetorian-inc/testweave/pkg/types"
)

// newTestState creates a server root holding files, which is also the
// workspace.
func newTestState(t *testing.T, files map[string]string) *State {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	state, err := NewState(Options{
		Root:   root,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	return state
}

var testFiles = map[string]string{
	"features/login.feature": "Feature: login\n  Scenario: TC-001 - valid login\n  Scenario: C2 - lockout\n",
	"notes.md":               "Regression run covered TC-001 and TC-404.\n",
}

// runServer feeds input to a server and returns the decoded responses.
func runServer(t *testing.T, state *State, input string) []Response {
	t.Helper()
	out := &bytes.Buffer{}
	srv := NewServer(state, strings.NewReader(input), out)
	require.NoError(t, srv.Run(context.Background()))

	var responses []Response
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		var resp Response
		require.NoError(t, json.Unmarshal([]byte(line), &resp))
		responses = append(responses, resp)
	}
	return responses
}

func TestServer_SendsReadyOnStart(t *testing.T) {
	state := newTestState(t, nil)

	in := strings.NewReader("")
	out := &bytes.Buffer{}

	srv := NewServer(state, in, out)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately to exit after ready

	_ = srv.Run(ctx)

	// Parse first line as ready message
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.NotEmpty(t, lines)

	var resp Response
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "ready", resp.Type)

	var ready ReadyData
	require.NoError(t, json.Unmarshal(resp.Data, &ready))
	assert.Equal(t, Version, ready.Version)
	assert.Equal(t, state.Root(), ready.Workspace)
}

func TestServer_Extract(t *testing.T) {
	responses := runServer(t, newTestState(t, nil), `{"type":"extract","payload":{"text":"Hello TC-007 and C02"}}`+"\n")
	require.Len(t, responses, 2) // ready + extract response

	resp := responses[1]
	assert.True(t, resp.Success)
	assert.Equal(t, "extract", resp.Type)
	assert.JSONEq(t, `{"matches":[{"id":"TC-007","start":6,"end":12},{"id":"C02","start":17,"end":20}]}`, string(resp.Data))
}

func TestServer_ExtractNoMatches(t *testing.T) {
	responses := runServer(t, newTestState(t, nil), `{"type":"extract","payload":{"text":"TC131"}}`+"\n")
	require.Len(t, responses, 2)
	assert.JSONEq(t, `{"matches":[]}`, string(responses[1].Data))
}

func TestServer_Validate(t *testing.T) {
	responses := runServer(t, newTestState(t, nil), `{"type":"validate","payload":{"ids":["TC-001","TC131"]}}`+"\n")
	require.Len(t, responses, 2)

	var result ValidateResult
	require.NoError(t, json.Unmarshal(responses[1].Data, &result))
	require.Len(t, result.Results, 2)
	assert.Equal(t, Validation{ID: "TC-001", Valid: true}, result.Results[0])
	assert.False(t, result.Results[1].Valid)
	assert.Equal(t, "long form needs a hyphen after TC", result.Results[1].Reason)
}

func TestServer_Scan(t *testing.T) {
	state := newTestState(t, testFiles)
	responses := runServer(t, state, `{"type":"scan","payload":{}}`+"\n")
	require.Len(t, responses, 2)

	resp := responses[1]
	require.True(t, resp.Success, resp.Error)
	assert.Equal(t, "scan", resp.Type)

	var scan ScanResponse
	require.NoError(t, json.Unmarshal(resp.Data, &scan))
	assert.Equal(t, state.Root(), scan.Workspace)
	require.NotNil(t, scan.Result)
	assert.Equal(t, 2, scan.Result.Documents)
	assert.Equal(t, types.Stats{TestCases: 3, Defined: 2, Definitions: 2, References: 2}, scan.Result.Inventory.Stats)

	require.NotNil(t, state.LastScan())
	assert.Equal(t, scan.Result.ID, state.LastScan().ID)
}

func TestServer_ScanWithGlobs(t *testing.T) {
	responses := runServer(t, newTestState(t, testFiles), `{"type":"scan","payload":{"globs":["**/*.md"]}}`+"\n")
	require.Len(t, responses, 2)

	var scan ScanResponse
	require.NoError(t, json.Unmarshal(responses[1].Data, &scan))
	assert.Equal(t, 1, scan.Result.Documents)
}

func TestServer_ScanInvalidGlob(t *testing.T) {
	responses := runServer(t, newTestState(t, testFiles), `{"type":"scan","payload":{"globs":["[unclosed"]}}`+"\n")
	require.Len(t, responses, 2)
	assert.False(t, responses[1].Success)
	assert.Contains(t, responses[1].Error, "invalid glob")
}

func TestServer_GracefulShutdownOnContext(t *testing.T) {
	state := newTestState(t, nil)

	// Slow reader that blocks
	pr, pw := io.Pipe()
	out := &bytes.Buffer{}

	srv := NewServer(state, pr, out)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error)
	go func() {
		done <- srv.Run(ctx)
	}()

	// Wait for ready signal
	time.Sleep(100 * time.Millisecond)

	// Cancel context
	cancel()
	pw.Close()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not shut down in time")
	}
}

func TestServer_ScanContent(t *testing.T) {
	request := `{"type":"scan_content","payload":{"items":[{"source":"editor:a.feature","content":"Scenario: C1 - first"},{"source":"editor:b.md","content":"see C1"}]}}` + "\n"
	responses := runServer(t, newTestState(t, nil), request)
	require.Len(t, responses, 2)

	resp := responses[1]
	require.True(t, resp.Success, resp.Error)
	assert.Equal(t, "scan_content", resp.Type)

	var result types.ScanResult
	require.NoError(t, json.Unmarshal(resp.Data, &result))
	assert.Equal(t, 2, result.Documents)
	require.Len(t, result.Inventory.TestCases, 1)
	assert.Equal(t, "first", result.Inventory.TestCases[0].Title)
}

// Responses must be sent even when EOF arrives before the main loop picks
// up the pending request.
func TestServer_ScanContent_PendingAtEOF(t *testing.T) {
	state := newTestState(t, nil)
	for i := range 10 {
		request := `{"type":"scan_content","payload":{"items":[{"source":"s1","content":"C1"}]}}` + "\n"
		out := &strings.Builder{}

		srv := NewServer(state, strings.NewReader(request), out)
		require.NoError(t, srv.Run(context.Background()))

		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		require.Len(t, lines, 2, "iteration %d: expected ready + scan_content response", i)

		var resp Response
		require.NoError(t, json.Unmarshal([]byte(lines[1]), &resp), "iteration %d", i)
		assert.True(t, resp.Success, "iteration %d: expected success", i)
		assert.Equal(t, "scan_content", resp.Type, "iteration %d", i)
	}
}

func TestServer_CloseCommand(t *testing.T) {
	request := `{"type":"close","payload":{}}` + "\n" + `{"type":"extract","payload":{"text":"C1"}}` + "\n"
	responses := runServer(t, newTestState(t, nil), request)
	require.Len(t, responses, 1) // Only ready signal
}

func TestServer_UnknownCommand(t *testing.T) {
	responses := runServer(t, newTestState(t, nil), `{"type":"invalid","payload":{}}`+"\n")
	require.Len(t, responses, 2)

	assert.False(t, responses[1].Success)
	assert.Equal(t, "unknown", responses[1].Type)
	assert.Contains(t, responses[1].Error, "unknown request type: invalid")
}

func TestServer_MalformedPayload(t *testing.T) {
	responses := runServer(t, newTestState(t, nil), `{"type":"validate","payload":{"ids":"TC-001"}}`+"\n")
	require.Len(t, responses, 2)
	assert.False(t, responses[1].Success)
	assert.Equal(t, "validate", responses[1].Type)
}

func TestServer_MalformedJSON(t *testing.T) {
	responses := runServer(t, newTestState(t, nil), "{not json\n")
	require.Len(t, responses, 2)
	assert.False(t, responses[1].Success)
	assert.Equal(t, "decode", responses[1].Type)
}
