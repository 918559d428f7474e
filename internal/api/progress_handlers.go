package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JakeFAU/rollcall-crawler/internal/middleware"
	"github.com/JakeFAU/rollcall-crawler/internal/model"
	"github.com/JakeFAU/rollcall-crawler/internal/store"
)

const (
	defaultRunLimit = 50
	maxRunLimit     = 500
	progressTimeout = 3 * time.Second
)

// ProgressHandler exposes read-only crawl-run endpoints.
type ProgressHandler struct {
	repo    store.RunRepository
	timeout time.Duration
	logger  *zap.Logger
}

// NewProgressHandler wires the repository and logger.
func NewProgressHandler(repo store.RunRepository, logger *zap.Logger) *ProgressHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgressHandler{
		repo:    repo,
		timeout: progressTimeout,
		logger:  logger,
	}
}

// ListRuns handles GET /v1/runs?chamber=&status=&limit=&offset=. It returns
// {"runs": [...]} newest first, 400 for invalid filters, 503 when the
// repository is unavailable, or 500 if the repository call fails.
func (h *ProgressHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "run repository unavailable")
		return
	}
	limit, offset, err := parseLimitOffset(r, defaultRunLimit, maxRunLimit)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	q := r.URL.Query()
	var chamber string
	if raw := strings.TrimSpace(q.Get("chamber")); raw != "" {
		c, parseErr := model.ParseChamber(raw)
		if parseErr != nil {
			middleware.WriteError(w, http.StatusBadRequest, "invalid chamber")
			return
		}
		chamber = string(c)
	}
	var status *store.RunStatus
	if raw := strings.TrimSpace(q.Get("status")); raw != "" {
		statusVal, parseErr := parseStatus(raw)
		if parseErr != nil {
			middleware.WriteError(w, http.StatusBadRequest, parseErr.Error())
			return
		}
		status = &statusVal
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()
	runs, err := h.repo.ListRuns(ctx, chamber, status, limit, offset)
	if err != nil {
		h.logger.Error("list runs failed", zap.Error(err))
		middleware.WriteError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]any{"runs": toRunDTOs(runs)})
}

// GetRun handles GET /v1/runs/{run_id}. It returns {"run": {...}}, 400 for
// malformed ids, 404 when the repository reports store.ErrNotFound, 503 if
// the repository is missing, or 500 otherwise.
func (h *ProgressHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "run repository unavailable")
		return
	}
	runID, err := parseRunID(r)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	run, err := h.repo.GetRun(ctx, runID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			middleware.WriteError(w, http.StatusNotFound, "run not found")
			return
		}
		h.logger.Error("get run failed", zap.Error(err))
		middleware.WriteError(w, http.StatusInternalServerError, "failed to load run")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]any{"run": toRunDTO(run)})
}

func parseRunID(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "run_id")
	if raw == "" {
		return uuid.UUID{}, errors.New("run_id is required")
	}
	runID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.UUID{}, errors.New("invalid run_id")
	}
	return runID, nil
}

func parseLimitOffset(r *http.Request, def, maxLimit int) (int, int, error) {
	q := r.URL.Query()
	limit := def
	if limStr := q.Get("limit"); limStr != "" {
		val, err := strconv.Atoi(limStr)
		if err != nil || val <= 0 {
			return 0, 0, errors.New("invalid limit")
		}
		if val > maxLimit {
			val = maxLimit
		}
		limit = val
	}
	offset := 0
	if offStr := q.Get("offset"); offStr != "" {
		val, err := strconv.Atoi(offStr)
		if err != nil || val < 0 {
			return 0, 0, errors.New("invalid offset")
		}
		offset = val
	}
	return limit, offset, nil
}

func parseStatus(input string) (store.RunStatus, error) {
	switch strings.ToLower(input) {
	case "running":
		return store.RunRunning, nil
	case "success", "succeeded":
		return store.RunSuccess, nil
	case "error", "failed", "failure":
		return store.RunError, nil
	default:
		return "", errors.New("invalid status")
	}
}

func toRunDTOs(in []store.CrawlRun) []runDTO {
	out := make([]runDTO, 0, len(in))
	for _, run := range in {
		out = append(out, toRunDTO(run))
	}
	return out
}

func toRunDTO(run store.CrawlRun) runDTO {
	return runDTO{
		ID:              run.ID.String(),
		Chamber:         run.Chamber,
		StartCoordinate: run.StartCoordinate,
		LastCoordinate:  run.LastCoordinate,
		StartedAt:       run.StartedAt,
		FinishedAt:      run.FinishedAt,
		Status:          string(run.Status),
		Error:           run.ErrorMessage,
		Documents:       run.Documents,
		BytesTotal:      run.BytesTotal,
		Ingested:        run.Ingested,
		Dropped:         run.Dropped,
		Votes:           run.Votes,
	}
}

type runDTO struct {
	ID              string     `json:"id"`
	Chamber         string     `json:"chamber"`
	StartCoordinate string     `json:"start_coordinate"`
	LastCoordinate  string     `json:"last_coordinate,omitempty"`
	StartedAt       time.Time  `json:"started_at"`
	FinishedAt      *time.Time `json:"finished_at,omitempty"`
	Status          string     `json:"status"`
	Error           *string    `json:"error,omitempty"`
	Documents       int64      `json:"documents"`
	BytesTotal      int64      `json:"bytes_total"`
	Ingested        int64      `json:"ingested"`
	Dropped         int64      `json:"dropped"`
	Votes           int64      `json:"votes"`
}
