package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/google/uuid"

	"eventcheck/internal/clock"
	"eventcheck/internal/config"
	"eventcheck/internal/controller"
	"eventcheck/internal/eventstore"
	"eventcheck/internal/expectation"
	"eventcheck/internal/reconciler"
	"eventcheck/internal/report"
	"eventcheck/pkg/logging"
)

// ListenerController manages the listener process. *controller.Controller
// implements it.
type ListenerController interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	CheckAlive() error
	Finished() bool
}

// Options customises a Session. Zero values select the real
// implementations built from the configuration.
type Options struct {
	Clock      clock.Clock
	Controller ListenerController
	Querier    reconciler.Querier

	// Quiet disables the settle-time spinner.
	Quiet bool

	// Progress receives the spinner. Defaults to stderr.
	Progress io.Writer

	// ListenerArgs are passed to the default listener command.
	ListenerArgs []string
}

// Session is one event testing run: expectations are registered while the
// tests act on the managed systems, then collected into a report.
type Session struct {
	ID string

	cfg        config.EventTestingConfig
	clock      clock.Clock
	registry   *expectation.Registry
	controller ListenerController
	reconciler *reconciler.Reconciler
	quiet      bool
	progress   io.Writer
}

// New creates a session for cfg.
func New(cfg config.EventTestingConfig, opts Options) (*Session, error) {
	clk := opts.Clock
	if clk == nil {
		clk = clock.RealClock{}
	}

	ctrl := opts.Controller
	if ctrl == nil && cfg.Enabled {
		c, err := controller.NewFromConfig(cfg, opts.ListenerArgs...)
		if err != nil {
			return nil, err
		}
		ctrl = c
	}

	querier := opts.Querier
	if querier == nil {
		var liveness func() error
		if ctrl != nil {
			liveness = ctrl.CheckAlive
		}
		querier = eventstore.NewClientFromConfig(cfg, clk, liveness)
	}

	progress := opts.Progress
	if progress == nil {
		progress = os.Stderr
	}

	s := &Session{
		ID:         uuid.NewString(),
		cfg:        cfg,
		clock:      clk,
		registry:   expectation.NewRegistry(clk),
		controller: ctrl,
		reconciler: reconciler.New(querier, clk),
		quiet:      opts.Quiet,
		progress:   progress,
	}
	logging.Debug("Session", "Created session %s (event testing enabled: %t)", s.ID, cfg.Enabled)
	return s, nil
}

// Registry returns the session's expectations.
func (s *Session) Registry() *expectation.Registry {
	return s.registry
}

// Register expects each of events for the given object. All of them share
// one registration time.
func (s *Session) Register(systemType expectation.SystemType, objectType expectation.ObjectType, objectID string, events ...string) {
	s.registry.Register(systemType, objectType, objectID, events...)
}

// Start launches the listener. It does nothing when event testing is
// disabled.
func (s *Session) Start(ctx context.Context) error {
	if !s.cfg.Enabled {
		logging.Info("Session", "Event testing disabled, listener not started")
		return nil
	}
	return s.controller.Start(ctx)
}

// Collect finishes the session: it checks that the listener is still alive,
// waits the settle time for late events, reconciles, writes the report and
// stops the listener. The listener is stopped even when an earlier step
// fails.
func (s *Session) Collect(ctx context.Context) (exps []*expectation.Expectation, err error) {
	if !s.cfg.Enabled {
		logging.Info("Session", "Event testing disabled, no collecting, no reports")
		return nil, nil
	}

	defer func() {
		// Stop must run even when ctx was cancelled.
		if stopErr := s.controller.Stop(context.WithoutCancel(ctx)); stopErr != nil {
			logging.Error("Session", stopErr, "Failed to stop listener")
			err = errors.Join(err, stopErr)
		}
	}()

	logging.Info("Session", "Collecting event testing results")
	if err := s.controller.CheckAlive(); err != nil {
		return nil, fmt.Errorf("listener died prematurely: %w", err)
	}

	if err := s.settle(ctx); err != nil {
		return nil, err
	}

	r, err := s.Check(ctx)
	if err != nil {
		return nil, err
	}
	logging.Info("Session", "%s", r.Summary())
	return s.registry.All(), nil
}

// Check reconciles the registered expectations against a running listener
// and writes the report. It does not touch the listener process.
func (s *Session) Check(ctx context.Context) (report.Report, error) {
	exps, err := s.reconciler.Reconcile(ctx, s.registry.All())
	if err != nil {
		return report.Report{}, err
	}
	logSummary(s.reconciler.Metrics().GetSummary())

	r := report.New(s.ID, s.clock.Now(), exps)
	if s.cfg.Result != "" {
		if err := report.WriteFile(s.cfg.Result, r); err != nil {
			return r, err
		}
	}
	return r, nil
}

func logSummary(summary reconciler.MetricsSummary) {
	for _, m := range summary.PerObjectType {
		logging.Info("Session", "%s: %d queries, %d matched, %d unmatched, %d transport errors",
			m.ObjectType, m.Queries, m.Matched, m.Unmatched, m.TransportErrors)
	}
	if summary.TotalQueries > 0 {
		logging.Info("Session", "Match rate %.0f%% over %d queries", summary.MatchRate*100, summary.TotalQueries)
	}
}

func (s *Session) settle(ctx context.Context) error {
	d := s.cfg.SettleTime
	if d <= 0 {
		logging.Warn("Session", "No settle time: expectations registered in the second the check starts cannot match")
		return nil
	}

	logging.Info("Session", "Waiting %s for any remaining events to come", d)
	if !s.quiet {
		sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(s.progress))
		sp.Suffix = fmt.Sprintf(" Waiting %s for remaining events...", d)
		sp.Start()
		defer sp.Stop()
	}
	return s.clock.Sleep(ctx, d)
}

// SaveExpectations writes the registered expectations to a YAML file.
func (s *Session) SaveExpectations(path string) error {
	return s.registry.Save(path, s.ID)
}

// LoadExpectations adds the expectations stored in path. The session takes
// over the stored session ID.
func (s *Session) LoadExpectations(path string) error {
	id, err := s.registry.Load(path)
	if err != nil {
		return err
	}
	if id != "" {
		s.ID = id
	}
	return nil
}
