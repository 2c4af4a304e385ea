package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vitos/trade_checklist/internal/usecase"
	"go.uber.org/zap"
)

type Server struct {
	router    *http.ServeMux
	server    *http.Server
	checklist *usecase.ChecklistService
	journal   *usecase.JournalService
	hub       *Hub
	metrics   *Metrics
	logger    *zap.Logger
}

func NewServer(
	port int,
	checklist *usecase.ChecklistService,
	journal *usecase.JournalService,
	logger *zap.Logger,
) *Server {
	registry := prometheus.NewRegistry()
	s := &Server{
		router:    http.NewServeMux(),
		checklist: checklist,
		journal:   journal,
		hub:       NewHub(logger),
		metrics:   NewMetrics(registry),
		logger:    logger,
	}
	s.routes(registry)
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.instrument(s.router),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes(registry *prometheus.Registry) {
	// Checklist
	s.router.HandleFunc("GET /api/checklist", s.handleChecklistRange)
	s.router.HandleFunc("GET /api/checklist/day", s.handleChecklistDay)
	s.router.HandleFunc("GET /api/export.csv", s.handleExportCSV)

	// Settings
	s.router.HandleFunc("GET /api/settings", s.handleGetSettings)
	s.router.HandleFunc("PUT /api/settings", s.handleUpdateSettings)
	s.router.HandleFunc("GET /api/rules", s.handleListRules)

	// Plans and journal
	s.router.HandleFunc("GET /api/plans", s.handleListPlans)
	s.router.HandleFunc("POST /api/plans", s.handleSubmitPlan)
	s.router.HandleFunc("GET /api/journal", s.handleListJournal)
	s.router.HandleFunc("POST /api/journal", s.handleAddJournal)
	s.router.HandleFunc("DELETE /api/journal/{id}", s.handleDeleteJournal)

	// Live updates
	s.router.HandleFunc("GET /ws", s.handleWS)

	s.router.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	s.router.HandleFunc("GET /status", s.handleStatus)
}

// Handler exposes the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) Start() error {
	s.logger.Info("Starting web server", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	return s.server.Shutdown(ctx)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "ws_clients": s.hub.Count()})
}
