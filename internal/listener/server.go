package listener

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"golang.org/x/sync/errgroup"

	"eventcheck/internal/clock"
	"eventcheck/internal/eventstore"
	"eventcheck/pkg/logging"
)

const shutdownTimeout = 5 * time.Second

// Options configures a Server.
type Options struct {
	// Addr is the TCP address to listen on, e.g. ":65432".
	Addr string

	// ReadyFile, when set, is written with the bound address once the
	// server accepts connections and removed on shutdown.
	ReadyFile string

	// Clock stamps received events. Defaults to the real clock.
	Clock clock.Clock
}

// Server receives events from management systems and answers queries.
type Server struct {
	store     Store
	clock     clock.Clock
	addr      string
	readyFile string
	metrics   *serverMetrics

	ready     chan struct{}
	boundAddr string
}

// NewServer creates a server backed by store.
func NewServer(store Store, opts Options) *Server {
	clk := opts.Clock
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Server{
		store:     store,
		clock:     clk,
		addr:      opts.Addr,
		readyFile: opts.ReadyFile,
		metrics:   newServerMetrics(),
		ready:     make(chan struct{}),
	}
}

// Ready is closed once the server accepts connections.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr returns the bound address. Only valid after Ready is closed.
func (s *Server) Addr() string {
	return s.boundAddr
}

// Handler returns the HTTP API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /events/{target_type}/{target_id}", s.handleRecord)
	mux.HandleFunc("GET /events/{target_type}/{target_id}", s.handleQuery)
	mux.HandleFunc("GET /events", s.handleList)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.Handle("GET /metrics", s.metrics.handler())
	return mux
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.boundAddr = ln.Addr().String()

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listener server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := s.announce(); err != nil {
		logging.Warn("Listener", "Failed to announce readiness: %v", err)
	}
	logging.Info("Listener", "Listening on %s", s.boundAddr)
	close(s.ready)

	err = g.Wait()
	if s.readyFile != "" {
		_ = os.Remove(s.readyFile)
	}
	logging.Info("Listener", "Stopped")
	return err
}

func (s *Server) announce() error {
	if s.readyFile != "" {
		tmp := filepath.Join(filepath.Dir(s.readyFile), "."+filepath.Base(s.readyFile)+".tmp")
		if err := os.WriteFile(tmp, []byte(s.boundAddr+"\n"), 0644); err != nil {
			return fmt.Errorf("failed to write ready file: %w", err)
		}
		if err := os.Rename(tmp, s.readyFile); err != nil {
			return fmt.Errorf("failed to write ready file: %w", err)
		}
	}
	if sent, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		return fmt.Errorf("failed to notify systemd: %w", err)
	} else if sent {
		logging.Debug("Listener", "Notified systemd")
	}
	return nil
}

func (s *Server) handleRecord(w http.ResponseWriter, r *http.Request) {
	targetType := r.PathValue("target_type")
	targetID := r.PathValue("target_id")
	event := r.URL.Query().Get("event")
	if event == "" {
		writeError(w, http.StatusBadRequest, "missing event parameter")
		return
	}

	record, err := s.store.Add(r.Context(), targetType, targetID, event, s.clock.Now())
	if err != nil {
		logging.Error("Listener", err, "Failed to record %s for %s/%s", event, targetType, targetID)
		writeError(w, http.StatusInternalServerError, "failed to record event")
		return
	}

	s.metrics.received.WithLabelValues(targetType).Inc()
	logging.Info("Listener", "Received %s for %s/%s at %s", event, targetType, targetID, record.EventTime)
	writeJSON(w, http.StatusCreated, record)
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	filter := Filter{
		TargetType: r.PathValue("target_type"),
		TargetID:   r.PathValue("target_id"),
		Event:      params.Get("event"),
	}

	var err error
	if filter.From, err = parseQueryTime(params.Get("from_time")); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid from_time: %v", err))
		return
	}
	if filter.To, err = parseQueryTime(params.Get("to_time")); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid to_time: %v", err))
		return
	}

	records, err := s.store.Find(r.Context(), filter)
	s.metrics.recordQuery(len(records), err)
	if err != nil {
		logging.Error("Listener", err, "Failed to query %s/%s", filter.TargetType, filter.TargetID)
		writeError(w, http.StatusInternalServerError, "failed to query events")
		return
	}

	logging.Debug("Listener", "Query %s/%s event=%q: %d records", filter.TargetType, filter.TargetID, filter.Event, len(records))
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.All(r.Context())
	if err != nil {
		logging.Error("Listener", err, "Failed to list events")
		writeError(w, http.StatusInternalServerError, "failed to list events")
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func parseQueryTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(eventstore.QueryTimeFormat, value, time.UTC)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Debug("Listener", "Failed to write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
