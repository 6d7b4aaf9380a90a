package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/DeafMist/job-radar/backend/internal/aggregator"
	"github.com/DeafMist/job-radar/backend/internal/app"
	"github.com/DeafMist/job-radar/backend/internal/cache"
	"github.com/DeafMist/job-radar/backend/internal/config"
	"github.com/DeafMist/job-radar/backend/internal/logger"
	"github.com/DeafMist/job-radar/backend/internal/models"
	"github.com/DeafMist/job-radar/backend/internal/scheduler"
	"github.com/DeafMist/job-radar/backend/internal/skills"
)

const maxBodyBytes = 1 << 20

type jobService interface {
	GetAggregatedJobs(ctx context.Context, query []string) []models.JobRecord
	SearchByKeyword(ctx context.Context, text string) []models.JobRecord
	JobsBySource(ctx context.Context, source string) []models.JobRecord
	CacheStatus() cache.Status
}

type skillExtractor interface {
	Extract(text string) []string
}

func main() {
	log := logger.New("api")
	cfg, err := config.LoadAPI()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	pipeline := app.NewPipeline(cfg.Common, reg, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if cfg.PublishEnabled() {
		pub := pipeline.NewPublisher(cfg.Common, log)
		defer pub.Close()
		go pub.Run(ctx)
		log.Info("publishing snapshots", slog.String("topic", cfg.KafkaTopic))
	}

	if cfg.RefreshSchedule != "" {
		sched := scheduler.New(pipeline.Service, cfg.RefreshSchedule, log)
		if err := sched.Start(ctx); err != nil {
			log.Error("start scheduler", slog.Any("err", err))
			os.Exit(1)
		}
		defer sched.Stop()
	}

	srv := &server{log: log, svc: pipeline.Service, skills: pipeline.Extractor}
	httpServer := &http.Server{
		Addr:              cfg.BindAddr,
		Handler:           srv.routes(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// a cold read waits for a full fan-out
		WriteTimeout: cfg.FetchDeadline + 10*time.Second,
	}

	go func() {
		log.Info("api server starting", slog.String("addr", cfg.BindAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", slog.Any("err", err))
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", slog.Any("err", err))
	}
}

type server struct {
	log    *slog.Logger
	svc    jobService
	skills skillExtractor
}

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	Status    string     `json:"status"`
	Cache     string     `json:"cache"`
	Snapshot  string     `json:"snapshot_id,omitempty"`
	FetchedAt *time.Time `json:"fetched_at,omitempty"`
	Jobs      int        `json:"jobs"`
}

type jobsResponse struct {
	Count int                `json:"count"`
	Jobs  []models.JobRecord `json:"jobs"`
}

type matchRequest struct {
	ResumeText string `json:"resume_text"`
}

type matchResponse struct {
	Skills []string           `json:"skills"`
	Count  int                `json:"count"`
	Jobs   []models.JobRecord `json:"jobs"`
}

func (s *server) routes(metrics http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/jobs", s.handleJobs)
	r.Get("/jobs/search", s.handleSearch)
	r.Post("/jobs/match", s.handleMatch)
	if metrics != nil {
		r.Handle("/metrics", metrics)
	}
	return r
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	status := s.svc.CacheStatus()
	resp := healthResponse{
		Status:   "ok",
		Cache:    string(status.State),
		Snapshot: status.SnapshotID,
		Jobs:     status.Jobs,
	}
	if !status.FetchedAt.IsZero() {
		resp.FetchedAt = &status.FetchedAt
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *server) handleJobs(w http.ResponseWriter, r *http.Request) {
	query := skills.ParseList(r.URL.Query().Get("skills"))
	source := strings.TrimSpace(r.URL.Query().Get("source"))

	var jobs []models.JobRecord
	if source != "" {
		jobs = aggregator.Rank(s.svc.JobsBySource(r.Context(), source), query)
	} else {
		jobs = s.svc.GetAggregatedJobs(r.Context(), query)
	}
	writeJSON(w, http.StatusOK, jobsResponse{Count: len(jobs), Jobs: jobs})
}

func (s *server) handleSearch(w http.ResponseWriter, r *http.Request) {
	jobs := s.svc.SearchByKeyword(r.Context(), r.URL.Query().Get("q"))
	writeJSON(w, http.StatusOK, jobsResponse{Count: len(jobs), Jobs: jobs})
}

func (s *server) handleMatch(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	found := s.skills.Extract(req.ResumeText)
	jobs := []models.JobRecord{}
	if len(found) > 0 {
		jobs = s.svc.GetAggregatedJobs(r.Context(), found)
	}
	s.log.Debug("resume matched", slog.Any("skills", found), slog.Int("jobs", len(jobs)))
	writeJSON(w, http.StatusOK, matchResponse{Skills: found, Count: len(jobs), Jobs: jobs})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		// nothing better to do
	}
}
