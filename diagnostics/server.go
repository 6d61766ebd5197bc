// Package diagnostics exposes a small, read-only HTTP surface over a
// running retlang engine's internals: queue depths, timer index size, and
// bus subscriber/delivery counts. Grounded on the teacher's modules/chimux
// (chi.NewRouter(), route-registration-function pattern) and
// modules/httpserver (Start/Stop/Shutdown lifecycle), deliberately stripped
// of everything control-plane (no mutating endpoint exists here) so it
// never reintroduces a CLI/bootstrap facade over the engine it reports on.
package diagnostics

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/shibukraj/retlang/bus"
	"github.com/shibukraj/retlang/queue"
	"github.com/shibukraj/retlang/telemetry"
	"github.com/shibukraj/retlang/timer"
)

// QueueStats is the depth/throughput snapshot reported for one registered
// queue.
type QueueStats struct {
	Name     string `json:"name"`
	Depth    int    `json:"depth"`
	Running  bool   `json:"running"`
	Enqueued uint64 `json:"enqueued"`
	Executed uint64 `json:"executed"`
}

// TimerStats is the pending-event-count snapshot for a registered timer
// thread.
type TimerStats struct {
	Name    string `json:"name"`
	Pending int    `json:"pending"`
}

// BusStats is the subscriber-count and delivery snapshot for a registered
// message bus.
type BusStats struct {
	Name        string `json:"name"`
	Subscribers int    `json:"subscribers"`
	Delivered   uint64 `json:"delivered"`
	Dropped     uint64 `json:"dropped"`
}

// Server is a tiny read-only chi router plus an http.Server wrapper,
// grounded on modules/httpserver's Start/Stop graceful-shutdown shape.
type Server struct {
	cfg    Config
	logger telemetry.Logger
	router chi.Router
	http   *http.Server

	mu     sync.RWMutex
	queues map[string]*queue.CommandQueue
	timers map[string]*timer.Thread
	buses  map[string]*bus.MessageBus
}

// NewServer builds a diagnostics Server with its routes already registered.
func NewServer(cfg Config, logger telemetry.Logger) *Server {
	if logger == nil {
		logger = telemetry.NopLogger{}
	}
	s := &Server{
		cfg:    cfg,
		logger: logger,
		router: chi.NewRouter(),
		queues: make(map[string]*queue.CommandQueue),
		timers: make(map[string]*timer.Thread),
		buses:  make(map[string]*bus.MessageBus),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/stats/queues", s.handleQueueStats)
	s.router.Get("/stats/timers", s.handleTimerStats)
	s.router.Get("/stats/buses", s.handleBusStats)
}

// RegisterQueue adds q under name to the /stats/queues report.
func (s *Server) RegisterQueue(name string, q *queue.CommandQueue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queues[name] = q
}

// RegisterTimer adds t under name to the /stats/timers report.
func (s *Server) RegisterTimer(name string, t *timer.Thread) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timers[name] = t
}

// RegisterBus adds b under name to the /stats/buses report.
func (s *Server) RegisterBus(name string, b *bus.MessageBus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buses[name] = b
}

// Handler returns the underlying chi.Router, e.g. for mounting under an
// existing router or driving from tests with httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start launches the diagnostics HTTP listener in a background goroutine. It
// is an error to call Start more than once.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.http != nil {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.http = &http.Server{Addr: s.cfg.Addr, Handler: s.router}
	srv := s.http
	s.mu.Unlock()

	go func() {
		s.logger.Info("starting diagnostics server", "addr", s.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("diagnostics server exited", "error", err)
		}
	}()
	return nil
}

// Stop gracefully shuts the diagnostics listener down, bounded by
// Config.ShutdownTimeout.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.http
	s.mu.Unlock()
	if srv == nil {
		return ErrNotStarted
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleQueueStats(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]QueueStats, 0, len(s.queues))
	for name, q := range s.queues {
		enqueued, executed := q.Stats()
		out = append(out, QueueStats{
			Name:     name,
			Depth:    q.Depth(),
			Running:  q.Running(),
			Enqueued: enqueued,
			Executed: executed,
		})
	}
	writeJSON(w, out)
}

func (s *Server) handleTimerStats(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]TimerStats, 0, len(s.timers))
	for name, th := range s.timers {
		out = append(out, TimerStats{Name: name, Pending: th.Len()})
	}
	writeJSON(w, out)
}

func (s *Server) handleBusStats(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]BusStats, 0, len(s.buses))
	for name, b := range s.buses {
		delivered, dropped := b.Stats()
		out = append(out, BusStats{
			Name:        name,
			Subscribers: b.SubscriberCount(),
			Delivered:   delivered,
			Dropped:     dropped,
		})
	}
	writeJSON(w, out)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
