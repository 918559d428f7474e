package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/JakeFAU/rollcall-crawler/internal/config"
	"github.com/JakeFAU/rollcall-crawler/internal/dispatcher"
	"github.com/JakeFAU/rollcall-crawler/internal/metrics"
	"github.com/JakeFAU/rollcall-crawler/internal/middleware"
	"github.com/JakeFAU/rollcall-crawler/internal/model"
	"github.com/JakeFAU/rollcall-crawler/internal/queue"
	"github.com/JakeFAU/rollcall-crawler/internal/store"
)

const (
	enqueueTimeout = 5 * time.Second
	readyTimeout   = 2 * time.Second
)

// Dispatcher accepts crawl requests and reports on them.
type Dispatcher interface {
	Submit(ctx context.Context, chamber model.Chamber) (dispatcher.Status, error)
	Status(id string) (dispatcher.Status, bool)
}

// ResumeLocator reports where the next crawl of each chamber starts.
type ResumeLocator interface {
	House(ctx context.Context) (model.HouseCoordinate, error)
	Senate(ctx context.Context) (model.SenateCoordinate, error)
}

// Check probes one downstream dependency for /readyz.
type Check func(ctx context.Context) error

// Deps are the collaborators the server reads and writes through.
type Deps struct {
	Dispatcher Dispatcher
	Locator    ResumeLocator
	Runs       store.RunRepository
	// Checks are keyed by dependency name.
	Checks map[string]Check
}

// Server wires HTTP handlers to the dispatcher and stores.
type Server struct {
	router chi.Router
	deps   Deps
	logger *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(deps Deps, cfg config.ServerConfig, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics.Init()
	s := &Server{deps: deps, logger: logger.Named("api")}

	timeout := cfg.RequestTimeout()
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(s.logger))
	r.Use(middleware.Recover(s.logger))
	r.Use(metrics.Middleware)
	r.Use(middleware.Timeout(timeout))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Handle("/metrics", metrics.Handler())

	progress := NewProgressHandler(deps.Runs, s.logger)
	r.Route("/v1", func(r chi.Router) {
		if cfg.APIKey != "" {
			r.Use(middleware.APIKey(cfg.APIKey))
		}
		r.Route("/chambers/{chamber}", func(r chi.Router) {
			r.Get("/resume", s.getResume)
			r.Post("/crawls", s.submitCrawl)
		})
		r.Get("/crawls/{request_id}", s.getCrawl)
		r.Get("/runs", progress.ListRuns)
		r.Get("/runs/{run_id}", progress.GetRun)
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	failures := map[string]string{}
	for name, check := range s.deps.Checks {
		if err := check(ctx); err != nil {
			s.logger.Warn("readiness check failed", zap.String("dependency", name), zap.Error(err))
			failures[name] = err.Error()
		}
	}
	if len(failures) > 0 {
		middleware.WriteJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "failures": failures})
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) getResume(w http.ResponseWriter, r *http.Request) {
	chamber, ok := chamberParam(w, r)
	if !ok {
		return
	}
	if s.deps.Locator == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "resume locator unavailable")
		return
	}
	var (
		resp resumeDTO
		err  error
	)
	switch chamber {
	case model.ChamberHouse:
		var c model.HouseCoordinate
		c, err = s.deps.Locator.House(r.Context())
		resp = resumeDTO{Chamber: string(chamber), Coordinate: c.String(), Year: c.Year, Number: c.Number}
	case model.ChamberSenate:
		var c model.SenateCoordinate
		c, err = s.deps.Locator.Senate(r.Context())
		resp = resumeDTO{
			Chamber: string(chamber), Coordinate: c.String(),
			Congress: c.Congress, Session: c.Session, Number: c.Number,
		}
	}
	if err != nil {
		s.logger.Error("locate resume point failed", zap.String("chamber", string(chamber)), zap.Error(err))
		middleware.WriteError(w, http.StatusInternalServerError, "failed to locate resume point")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) submitCrawl(w http.ResponseWriter, r *http.Request) {
	chamber, ok := chamberParam(w, r)
	if !ok {
		return
	}
	if s.deps.Dispatcher == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "dispatcher unavailable")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), enqueueTimeout)
	defer cancel()

	status, err := s.deps.Dispatcher.Submit(ctx, chamber)
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, queue.ErrClosed) {
			code = http.StatusServiceUnavailable
		}
		s.logger.Warn("crawl request rejected", zap.String("chamber", string(chamber)), zap.Error(err))
		middleware.WriteError(w, code, "crawl request not accepted")
		return
	}
	middleware.WriteJSON(w, http.StatusAccepted, toCrawlDTO(status))
}

func (s *Server) getCrawl(w http.ResponseWriter, r *http.Request) {
	if s.deps.Dispatcher == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "dispatcher unavailable")
		return
	}
	status, ok := s.deps.Dispatcher.Status(chi.URLParam(r, "request_id"))
	if !ok {
		middleware.WriteError(w, http.StatusNotFound, "crawl request not found")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, toCrawlDTO(status))
}

func chamberParam(w http.ResponseWriter, r *http.Request) (model.Chamber, bool) {
	chamber, err := model.ParseChamber(chi.URLParam(r, "chamber"))
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, err.Error())
		return "", false
	}
	return chamber, true
}

type resumeDTO struct {
	Chamber    string `json:"chamber"`
	Coordinate string `json:"coordinate"`
	Year       int    `json:"year,omitempty"`
	Congress   int    `json:"congress,omitempty"`
	Session    int    `json:"session,omitempty"`
	Number     int    `json:"number"`
}

type crawlDTO struct {
	RequestID string      `json:"request_id"`
	Chamber   string      `json:"chamber"`
	State     string      `json:"state"`
	Submitted time.Time   `json:"submitted_at"`
	Started   *time.Time  `json:"started_at,omitempty"`
	Finished  *time.Time  `json:"finished_at,omitempty"`
	Run       *runSummary `json:"run,omitempty"`
	Error     string      `json:"error,omitempty"`
}

type runSummary struct {
	RunID    string `json:"run_id"`
	Start    string `json:"start"`
	Last     string `json:"last,omitempty"`
	Ingested int    `json:"ingested"`
	Dropped  int    `json:"dropped"`
	Votes    int    `json:"votes"`
}

func toCrawlDTO(s dispatcher.Status) crawlDTO {
	dto := crawlDTO{
		RequestID: s.ID,
		Chamber:   string(s.Chamber),
		State:     string(s.State),
		Submitted: s.Submitted,
		Started:   s.Started,
		Finished:  s.Finished,
		Error:     s.Error,
	}
	if sum := s.Summary; sum != nil && sum.Start != "" {
		dto.Run = &runSummary{
			RunID:    sum.RunID.String(),
			Start:    sum.Start,
			Last:     sum.Last,
			Ingested: sum.Ingested,
			Dropped:  sum.Dropped,
			Votes:    sum.Votes,
		}
	}
	return dto
}
