package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ideawall/internal/generate"
	"ideawall/internal/plan"
	"ideawall/internal/store"
)

type fakeBackend struct {
	hasKey   bool
	response string
	err      error
}

func (b *fakeBackend) Name() string { return "fake" }
func (b *fakeBackend) HasKey() bool { return b.hasKey }

func (b *fakeBackend) Generate(ctx context.Context, prompt string) (string, error) {
	if b.err != nil {
		return "", b.err
	}
	return b.response, nil
}

func (b *fakeBackend) Transcribe(ctx context.Context, data []byte, mimeType string) (generate.Transcription, error) {
	if b.err != nil {
		return generate.Transcription{}, b.err
	}
	return generate.Transcription{Text: "hello world", Lang: "en", Words: 2, Confidence: 0.9}, nil
}

func newTestServer(t *testing.T, backend generate.Backend) (*Server, *store.Store) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	planner := generate.NewPlanner(backend, plan.DefaultKeywords(), 0, nil)
	return New(s, planner, nil), s
}

func postJSON(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, &fakeBackend{})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]bool
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body["ok"])
}

func TestPlan_MissingBoardID(t *testing.T) {
	srv, _ := newTestServer(t, &fakeBackend{hasKey: true})

	rec := postJSON(t, srv.Handler(), "/api/ai/plan", map[string]any{"boardId": "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing boardId")
}

func TestPlan_InvalidBody(t *testing.T) {
	srv, _ := newTestServer(t, &fakeBackend{hasKey: true})

	req := httptest.NewRequest(http.MethodPost, "/api/ai/plan", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPlan_MissingCredential(t *testing.T) {
	srv, _ := newTestServer(t, &fakeBackend{hasKey: false})

	rec := postJSON(t, srv.Handler(), "/api/ai/plan", map[string]any{"boardId": "b1"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing upstream model credential")
}

func TestPlan_UpstreamFailure(t *testing.T) {
	backend := &fakeBackend{hasKey: true, err: &generate.UpstreamError{Status: 503, Detail: "model overloaded"}}
	srv, _ := newTestServer(t, backend)

	rec := postJSON(t, srv.Handler(), "/api/ai/plan", map[string]any{"boardId": "b1"})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "503")
	assert.Contains(t, rec.Body.String(), "model overloaded")
}

func TestPlan_SuccessPersistsOutput(t *testing.T) {
	response := "Summary of the plan.\n\n- first bullet\n\n```json\n" +
		`{"tasks":[{"title":"Wire the vote API","lane":"Backend","priority":"P0"}],"lanes":["Backend"]}` +
		"\n```\n"
	srv, s := newTestServer(t, &fakeBackend{hasKey: true, response: response})

	_, err := s.AppendTranscript(store.TranscriptEntry{BoardID: "b1", Text: "let's build voting"})
	require.NoError(t, err)

	rec := postJSON(t, srv.Handler(), "/api/ai/plan", map[string]any{"boardId": "b1", "windowMinutes": 5})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		SummaryMD     string              `json:"summary_md"`
		Bullets       []string            `json:"bullets"`
		Workplan      plan.Workplan       `json:"workplan"`
		WorkflowEdges []plan.WorkflowEdge `json:"workflow_edges"`
		Confidence    float64             `json:"confidence"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	require.Len(t, resp.Workplan.Tasks, 1)
	assert.Equal(t, "Wire the vote API", resp.Workplan.Tasks[0].Title)
	assert.Equal(t, plan.PriorityP0, resp.Workplan.Tasks[0].Priority)
	assert.Equal(t, []string{"first bullet"}, resp.Bullets)
	assert.Equal(t, 0.9, resp.Confidence)

	latest, err := s.LatestAIOutput("b1")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Len(t, latest.Workplan.Tasks, 1)
}

func TestTranscribe_Success(t *testing.T) {
	srv, _ := newTestServer(t, &fakeBackend{hasKey: true})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "audio.wav")
	require.NoError(t, err)
	_, err = fw.Write([]byte("fake audio bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/transcribe", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result generate.Transcription
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "hello world", result.Text)
	assert.Equal(t, 2, result.Words)
}

func TestTranscribe_MissingFile(t *testing.T) {
	srv, _ := newTestServer(t, &fakeBackend{hasKey: true})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("other", "value"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/transcribe", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing file field")
}

func TestBoardContext_IncludesNotesAndEdges(t *testing.T) {
	srv, s := newTestServer(t, &fakeBackend{hasKey: true})

	_, err := s.AppendTranscript(store.TranscriptEntry{BoardID: "b1", Text: "talked about stuff"})
	require.NoError(t, err)
	idA, err := s.AddNote(store.Note{BoardID: "b1", Text: "idea A", Votes: 2})
	require.NoError(t, err)
	idB, err := s.AddNote(store.Note{BoardID: "b1", Text: "idea B"})
	require.NoError(t, err)
	_, err = s.AddEdge(store.Edge{BoardID: "b1", From: idA, To: idB, Kind: store.EdgeBlocks})
	require.NoError(t, err)
	// Dangling edge stays out of the context.
	_, err = s.AddEdge(store.Edge{BoardID: "b1", From: idA, To: "gone"})
	require.NoError(t, err)

	text, err := srv.boardContext("b1", 10)
	require.NoError(t, err)

	assert.Contains(t, text, "talked about stuff")
	assert.Contains(t, text, "(2 votes) idea A")
	assert.Contains(t, text, `"idea A" blocks "idea B"`)
	assert.NotContains(t, text, "gone")
}

func TestSummaryBullets(t *testing.T) {
	md := "## Heading\n\n- one\n- two\nplain line\n  - indented three"
	assert.Equal(t, []string{"one", "two", "indented three"}, summaryBullets(md))
}
