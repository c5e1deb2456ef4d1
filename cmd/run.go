package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"eventcheck/internal/session"
	"eventcheck/pkg/logging"
)

// sessionEnv carries the session ID to the test command.
const sessionEnv = "EVENTCHECK_SESSION"

var (
	runFlags eventFlags
	runQuiet bool

	// newSession builds the session for run. Tests replace it to inject a
	// listener controller.
	newSession = session.New
)

// commandExitError carries the exit status of the wrapped test command.
type commandExitError struct {
	code int
	err  error
}

func (e *commandExitError) Error() string {
	return fmt.Sprintf("test command failed: %v", e.err)
}

func (e *commandExitError) Unwrap() error {
	return e.err
}

var runCmd = &cobra.Command{
	Use:   "run [flags] -- COMMAND [ARGS...]",
	Short: "Run a test command inside an event testing session",
	Long: `Starts the event listener, runs COMMAND, then checks every expectation the
command registered with 'eventcheck expect' and writes the report.

COMMAND sees EVENTCHECK_EXPECTATIONS and EVENTCHECK_SESSION in its
environment. Its exit status is passed through: missing events are reported,
they never turn a passing test run into a failure or hide a failing one.

Without --event-testing (or eventTesting.enabled in the configuration)
COMMAND runs without a listener and no report is written.

Examples:
  eventcheck run --event-testing -- pytest tests/events
  eventcheck run --event-testing --settle-time 30 --result events.html -- ./smoke.sh`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg := loadedConfig.EventTesting
	runFlags.apply(cmd, &cfg)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	// The listener runs in its own process group and does not see the
	// terminal's signals, so run has to stop it.
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := newSession(cfg, session.Options{
		Quiet:        runQuiet,
		Progress:     cmd.ErrOrStderr(),
		ListenerArgs: listenerArgs(),
	})
	if err != nil {
		return err
	}

	dir, err := os.MkdirTemp("", "eventcheck-")
	if err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	defer os.RemoveAll(dir)
	expectationsPath := filepath.Join(dir, "expectations.yaml")
	if err := s.SaveExpectations(expectationsPath); err != nil {
		return err
	}

	if err := s.Start(ctx); err != nil {
		return err
	}

	child := exec.CommandContext(ctx, args[0], args[1:]...)
	child.Env = append(os.Environ(),
		expectationsEnv+"="+expectationsPath,
		sessionEnv+"="+s.ID,
	)
	child.Stdin = cmd.InOrStdin()
	child.Stdout = cmd.OutOrStdout()
	child.Stderr = cmd.ErrOrStderr()

	logging.Info("Session", "Running %v", args)
	runErr := child.Run()

	if err := s.LoadExpectations(expectationsPath); err != nil {
		logging.Error("Session", err, "Failed to load registered expectations")
	}

	_, collectErr := s.Collect(ctx)
	if collectErr != nil {
		logging.Error("Session", collectErr, "Event testing failed")
	}

	if ctx.Err() != nil {
		return fmt.Errorf("interrupted while running %s: %w", args[0], ctx.Err())
	}
	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			return &commandExitError{code: exitErr.ExitCode(), err: runErr}
		}
		return fmt.Errorf("failed to run %s: %w", args[0], runErr)
	}
	return collectErr
}

func init() {
	rootCmd.AddCommand(runCmd)

	runFlags.register(runCmd)
	runCmd.Flags().BoolVarP(&runQuiet, "quiet", "q", false, "Do not show a spinner while waiting for remaining events")
}
