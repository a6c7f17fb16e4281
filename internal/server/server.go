// Package server exposes the plan-generation pipeline over HTTP for
// clients that proxy model calls through a host instead of holding their
// own credential.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"ideawall/internal/generate"
	"ideawall/internal/plan"
	"ideawall/internal/store"
)

// Limits on what one plan request reads from the board.
const (
	DefaultWindowMinutes = 10
	MaxVotedNotes        = 50
	maxUploadBytes       = 32 << 20
)

// Server wires the board store and the planner to the HTTP mux.
type Server struct {
	store   *store.Store
	planner *generate.Planner
	log     *zap.Logger
}

// New builds a server.
func New(s *store.Store, planner *generate.Planner, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{store: s, planner: planner, log: log}
}

// Handler returns the route mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/ai/plan", s.handlePlan)
	mux.HandleFunc("POST /api/transcribe", s.handleTranscribe)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	return mux
}

type planRequest struct {
	BoardID       string `json:"boardId"`
	WindowMinutes int    `json:"windowMinutes"`
}

type planResponse struct {
	SummaryMD     string              `json:"summary_md"`
	Bullets       []string            `json:"bullets,omitempty"`
	Workplan      plan.Workplan       `json:"workplan"`
	WorkflowEdges []plan.WorkflowEdge `json:"workflow_edges"`
	Confidence    float64             `json:"confidence"`
}

// handlePlan reads the recent transcript window, the top-voted notes, and
// the edges for a board, runs plan generation, persists the result as the
// board's newest AI output, and returns it.
func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.BoardID) == "" {
		writeError(w, http.StatusBadRequest, "missing boardId")
		return
	}
	if req.WindowMinutes <= 0 {
		req.WindowMinutes = DefaultWindowMinutes
	}

	if !s.planner.HasBackendKey() {
		writeError(w, http.StatusInternalServerError, "missing upstream model credential")
		return
	}

	text, err := s.boardContext(req.BoardID, req.WindowMinutes)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "reading board: "+err.Error())
		return
	}

	out, err := s.planner.GenerateRemote(r.Context(), text)
	if err != nil {
		var upstream *generate.UpstreamError
		if errors.As(err, &upstream) {
			writeError(w, http.StatusBadGateway,
				fmt.Sprintf("upstream model call failed (status %d): %s", upstream.Status, upstream.Detail))
			return
		}
		writeError(w, http.StatusBadGateway, "upstream model call failed: "+err.Error())
		return
	}

	if _, err := s.store.PutAIOutput(req.BoardID, out); err != nil {
		// Persistence failure doesn't invalidate the generated plan.
		s.log.Warn("persisting AI output failed", zap.String("board", req.BoardID), zap.Error(err))
	}

	writeJSON(w, http.StatusOK, planResponse{
		SummaryMD:     out.SummaryMD,
		Bullets:       summaryBullets(out.SummaryMD),
		Workplan:      out.Workplan,
		WorkflowEdges: out.WorkflowEdges,
		Confidence:    0.9,
	})
}

// boardContext concatenates the transcript window, top-voted notes, and
// edges into the text blob handed to the generator.
func (s *Server) boardContext(boardID string, windowMinutes int) (string, error) {
	since := time.Now().Add(-time.Duration(windowMinutes) * time.Minute).UnixMilli()
	entries, err := s.store.TranscriptSince(boardID, since)
	if err != nil {
		return "", err
	}
	notes, err := s.store.TopVotedNotes(boardID, MaxVotedNotes)
	if err != nil {
		return "", err
	}
	edges, err := s.store.EdgesForBoard(boardID)
	if err != nil {
		return "", err
	}

	noteTitle := make(map[string]string, len(notes))
	var b strings.Builder
	if len(entries) > 0 {
		b.WriteString("Transcript:\n")
		for _, e := range entries {
			b.WriteString(e.Text)
			b.WriteString("\n")
		}
	}
	if len(notes) > 0 {
		b.WriteString("\nNotes (by votes):\n")
		for _, n := range notes {
			noteTitle[n.ID] = n.Text
			fmt.Fprintf(&b, "- (%d votes) %s\n", n.Votes, n.Text)
		}
	}
	if len(edges) > 0 {
		b.WriteString("\nLinks between notes:\n")
		for _, e := range edges {
			from, okF := noteTitle[e.From]
			to, okT := noteTitle[e.To]
			if !okF || !okT {
				continue // dangling; nothing useful to say about it
			}
			fmt.Fprintf(&b, "- %q %s %q\n", firstLine(from), e.Kind, firstLine(to))
		}
	}
	return b.String(), nil
}

// handleTranscribe accepts a multipart audio upload and returns its
// transcript.
func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart body: "+err.Error())
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "reading upload: "+err.Error())
		return
	}

	result, err := s.planner.Transcribe(r.Context(), data, header.Header.Get("Content-Type"))
	if err != nil {
		if errors.Is(err, generate.ErrNoBackendKey) {
			writeError(w, http.StatusInternalServerError, "missing upstream model credential")
			return
		}
		writeError(w, http.StatusBadGateway, "transcription failed: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// summaryBullets extracts top-level bullet lines from a markdown summary.
func summaryBullets(md string) []string {
	var bullets []string
	for _, line := range strings.Split(md, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "- ") {
			bullets = append(bullets, strings.TrimSpace(trimmed[2:]))
		}
	}
	return bullets
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
