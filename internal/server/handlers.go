package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/slx/internal/flow"
	"github.com/desertthunder/slx/internal/repositories"
	"github.com/desertthunder/slx/internal/shared"
)

// envelope is the uniform response shape of the query API.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Total   *int   `json:"total,omitempty"`
	Page    *int   `json:"page,omitempty"`
	Limit   *int   `json:"limit,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeData(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: false, Error: message})
}

// TrackHandler serves the stored track library.
type TrackHandler struct {
	repo   *repositories.TrackRepository
	logger *log.Logger
}

// NewTrackHandler creates a handler over the track repository.
func NewTrackHandler(repo *repositories.TrackRepository, logger *log.Logger) *TrackHandler {
	return &TrackHandler{repo: repo, logger: logger}
}

// Routes returns the HTTP routes this handler serves.
func (h *TrackHandler) Routes() []string {
	return []string{
		"/api/tracks",
		"/api/tracks/",
		"/api/count",
		"/api/genres",
		"/api/years",
		"/api/stats",
	}
}

// ServeHTTP dispatches library queries by path.
func (h *TrackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	switch {
	case r.URL.Path == "/api/tracks":
		h.listTracks(w, r)
	case r.URL.Path == "/api/tracks/search":
		h.searchTracks(w, r)
	case strings.HasPrefix(r.URL.Path, "/api/tracks/"):
		h.getTrack(w, r)
	case r.URL.Path == "/api/count":
		h.count(w, r)
	case r.URL.Path == "/api/genres":
		h.genres(w, r)
	case r.URL.Path == "/api/years":
		h.years(w, r)
	case r.URL.Path == "/api/stats":
		h.stats(w, r)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

// param returns the first non-empty query value among names. Multi-word
// parameters accept both snake_case and camelCase spellings.
func param(q url.Values, names ...string) string {
	for _, name := range names {
		if v := q.Get(name); v != "" {
			return v
		}
	}
	return ""
}

// searchOptions reads filter, sort and pagination parameters.
func searchOptions(r *http.Request) repositories.SearchOptions {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	year, _ := strconv.Atoi(q.Get("year"))
	minPopularity, _ := strconv.Atoi(param(q, "min_popularity", "minPopularity"))

	return repositories.SearchOptions{
		Page:          page,
		Limit:         limit,
		Query:         q.Get("q"),
		Genre:         q.Get("genre"),
		Year:          year,
		MinPopularity: minPopularity,
		SortBy:        param(q, "sort_by", "sortBy"),
		SortOrder:     param(q, "sort_order", "sortOrder"),
	}
}

func (h *TrackHandler) listTracks(w http.ResponseWriter, r *http.Request) {
	opts := searchOptions(r)
	opts.Query = ""

	h.respondPage(w, r, opts)
}

func (h *TrackHandler) searchTracks(w http.ResponseWriter, r *http.Request) {
	opts := searchOptions(r)
	if opts.Query == "" {
		writeError(w, http.StatusBadRequest, "missing query parameter q")
		return
	}

	h.respondPage(w, r, opts)
}

func (h *TrackHandler) respondPage(w http.ResponseWriter, r *http.Request, opts repositories.SearchOptions) {
	tracks, total, err := h.repo.Search(r.Context(), opts)
	if err != nil {
		h.logger.Error("track query failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	page := opts.Page
	if page < 1 {
		page = 1
	}
	limit := opts.Limit
	if limit < 1 {
		limit = repositories.DefaultPageSize
	}
	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Data:    tracks,
		Total:   &total,
		Page:    &page,
		Limit:   &limit,
	})
}

func (h *TrackHandler) getTrack(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/tracks/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "invalid track id")
		return
	}

	track, err := h.repo.FindByID(r.Context(), id)
	if errors.Is(err, shared.ErrTrackNotFound) {
		writeError(w, http.StatusNotFound, "track not found")
		return
	}
	if err != nil {
		h.logger.Error("track lookup failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeData(w, track)
}

func (h *TrackHandler) count(w http.ResponseWriter, r *http.Request) {
	count, err := h.repo.Count(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeData(w, map[string]int{"count": count})
}

func (h *TrackHandler) genres(w http.ResponseWriter, r *http.Request) {
	genres, err := h.repo.Genres(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeData(w, genres)
}

func (h *TrackHandler) years(w http.ResponseWriter, r *http.Request) {
	years, err := h.repo.Years(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeData(w, years)
}

func (h *TrackHandler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.repo.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeData(w, stats)
}

// Runner triggers a full pipeline run. Implemented by flow.Engine.
type Runner interface {
	Run(ctx context.Context, progress chan<- flow.ProgressUpdate) (*flow.RunResult, error)
}

// runState is the observable state of the background pipeline.
type runState struct {
	Status     string `json:"status"` // idle, running, done, error
	StartedAt  string `json:"started_at,omitempty"`
	FinishedAt string `json:"finished_at,omitempty"`
	Message    string `json:"message,omitempty"`
	Exported   int    `json:"exported,omitempty"`
	Enriched   int    `json:"enriched,omitempty"`
	Compacted  int    `json:"compacted,omitempty"`
	Skipped    int    `json:"skipped,omitempty"`
	Error      string `json:"error,omitempty"`
}

// RunHandler triggers pipeline runs over HTTP and reports their progress.
// Only one run may be in flight at a time; the pipeline is strictly
// sequential and a second concurrent run would double 429 pressure for no
// gain.
type RunHandler struct {
	engine Runner
	logger *log.Logger

	mu    sync.Mutex
	state runState
}

// NewRunHandler creates a handler over the pipeline engine.
func NewRunHandler(engine Runner, logger *log.Logger) *RunHandler {
	return &RunHandler{
		engine: engine,
		logger: logger,
		state:  runState{Status: "idle"},
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *RunHandler) Routes() []string {
	return []string{"/api/run", "/api/status"}
}

// ServeHTTP dispatches run control requests.
func (h *RunHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/run":
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		h.startRun(w)
	case "/api/status":
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		h.mu.Lock()
		state := h.state
		h.mu.Unlock()
		writeData(w, state)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (h *RunHandler) startRun(w http.ResponseWriter) {
	h.mu.Lock()
	if h.state.Status == "running" {
		h.mu.Unlock()
		writeError(w, http.StatusConflict, "a run is already in progress")
		return
	}
	h.state = runState{Status: "running", StartedAt: time.Now().UTC().Format(time.RFC3339)}
	h.mu.Unlock()

	progress := make(chan flow.ProgressUpdate, 64)
	go h.consumeProgress(progress)
	go h.execute(progress)

	writeJSON(w, http.StatusAccepted, envelope{Success: true, Data: map[string]string{"status": "started"}})
}

func (h *RunHandler) consumeProgress(progress <-chan flow.ProgressUpdate) {
	for update := range progress {
		h.mu.Lock()
		h.state.Message = update.Message
		h.mu.Unlock()
	}
}

func (h *RunHandler) execute(progress chan flow.ProgressUpdate) {
	defer close(progress)

	result, err := h.engine.Run(context.Background(), progress)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.state.FinishedAt = time.Now().UTC().Format(time.RFC3339)
	if err != nil {
		h.logger.Error("pipeline run failed", "error", err)
		h.state.Status = "error"
		h.state.Error = err.Error()
		return
	}
	h.state.Status = "done"
	h.state.Message = ""
	h.state.Exported = len(result.Exported)
	h.state.Enriched = len(result.Enriched)
	h.state.Compacted = len(result.Compacted)
	h.state.Skipped = len(result.Skipped)
}
