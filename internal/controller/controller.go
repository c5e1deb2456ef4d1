package controller

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"eventcheck/internal/config"
	"eventcheck/pkg/logging"
)

// readyTimeout bounds the wait for the ready file.
const readyTimeout = 30 * time.Second

// Options describes the listener process.
type Options struct {
	// Command is the listener command line. Required.
	Command []string

	// Env is appended to the current environment.
	Env []string

	// ReadyFile, when set, is written by the listener once it accepts
	// connections. Without it the listener counts as ready when it is
	// still alive after StartupGrace.
	ReadyFile string

	StartupGrace    time.Duration
	ShutdownTimeout time.Duration
}

// Controller starts, watches and stops the listener process.
type Controller struct {
	opts Options

	mu      sync.Mutex
	cmd     *exec.Cmd
	capture *logCapture
	exited  chan struct{}
	waitErr error
	logs    Logs
}

// New creates a controller. Nothing is started until Start.
func New(opts Options) *Controller {
	if opts.StartupGrace <= 0 {
		opts.StartupGrace = config.DefaultStartupGrace
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = config.DefaultShutdownTimeout
	}
	return &Controller{opts: opts}
}

// NewFromConfig creates a controller for the configured listener. Without an
// explicit command the current executable is started with "listen" followed
// by globalArgs.
func NewFromConfig(cfg config.EventTestingConfig, globalArgs ...string) (*Controller, error) {
	command := cfg.Listener.Command
	if len(command) == 0 {
		executable, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("failed to locate eventcheck executable: %w", err)
		}
		command = []string{executable, "listen"}
		command = append(command, globalArgs...)
		command = append(command, "--port", strconv.Itoa(cfg.Port))
		if cfg.Listener.Database != "" {
			command = append(command, "--db", cfg.Listener.Database)
		}
		if cfg.Listener.ReadyFile != "" {
			command = append(command, "--ready-file", cfg.Listener.ReadyFile)
		}
	}

	return New(Options{
		Command:         command,
		ReadyFile:       cfg.Listener.ReadyFile,
		StartupGrace:    cfg.Listener.StartupGrace,
		ShutdownTimeout: cfg.Listener.ShutdownTimeout,
	}), nil
}

// Start launches the listener and waits until it is ready. A listener that
// dies during startup usually means something else holds its port.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cmd != nil {
		return &ListenerLifecycleError{Op: "start", Reason: "listener is already running"}
	}
	if len(c.opts.Command) == 0 {
		return &ListenerLifecycleError{Op: "start", Reason: "no listener command configured"}
	}

	if c.opts.ReadyFile != "" {
		if err := os.MkdirAll(filepath.Dir(c.opts.ReadyFile), 0755); err != nil {
			return &ListenerLifecycleError{Op: "start", Reason: "cannot prepare ready file", Err: err}
		}
		_ = os.Remove(c.opts.ReadyFile)
	}

	cmd := exec.Command(c.opts.Command[0], c.opts.Command[1:]...)
	cmd.Env = append(os.Environ(), c.opts.Env...)
	configureProcAttr(cmd)

	capture := newLogCapture()
	cmd.Stdout = capture.stdoutWriter
	cmd.Stderr = capture.stderrWriter

	logging.Info("Controller", "Starting listener: %s", strings.Join(c.opts.Command, " "))
	if err := cmd.Start(); err != nil {
		capture.close()
		return &ListenerLifecycleError{Op: "start", Reason: "failed to start listener process", Err: err}
	}
	logging.Info("Controller", "Listener started (%d)", cmd.Process.Pid)

	exited := make(chan struct{})
	c.cmd = cmd
	c.capture = capture
	c.exited = exited
	c.waitErr = nil
	c.logs = Logs{}

	go func() {
		err := cmd.Wait()
		c.mu.Lock()
		c.waitErr = err
		c.mu.Unlock()
		close(exited)
	}()

	if err := c.waitReady(ctx, exited); err != nil {
		c.release(exited)
		if errors.Is(err, errProcessExited) {
			return &ListenerLifecycleError{
				Op:     "start",
				Reason: "listener has died, something must be blocking the port",
				Err:    c.waitErr,
			}
		}
		return &ListenerLifecycleError{Op: "start", Reason: "listener did not become ready", Err: err}
	}

	logging.Info("Controller", "Listener alive")
	return nil
}

func (c *Controller) waitReady(ctx context.Context, exited chan struct{}) error {
	// The waiter goroutine needs c.mu to record the exit status.
	c.mu.Unlock()
	defer c.mu.Lock()

	if c.opts.ReadyFile != "" {
		return waitForReadyFile(ctx, c.opts.ReadyFile, exited, readyTimeout)
	}

	timer := time.NewTimer(c.opts.StartupGrace)
	defer timer.Stop()
	select {
	case <-exited:
		return errProcessExited
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}

	select {
	case <-exited:
		return errProcessExited
	default:
		return nil
	}
}

// Finished reports whether no listener is running: it was never started,
// has been stopped, or has exited on its own.
func (c *Controller) Finished() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cmd == nil {
		return true
	}
	select {
	case <-c.exited:
		return true
	default:
		return false
	}
}

// CheckAlive returns a lifecycle error unless the listener is running.
func (c *Controller) CheckAlive() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cmd == nil {
		return &ListenerLifecycleError{Op: "check", Reason: "listener is not running"}
	}
	select {
	case <-c.exited:
		return &ListenerLifecycleError{Op: "check", Reason: "listener died prematurely", Err: c.waitErr}
	default:
		return nil
	}
}

// Stop terminates the listener process group, waits up to the shutdown
// timeout and then kills it. The listener output is logged.
func (c *Controller) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cmd == nil {
		return &ListenerLifecycleError{Op: "stop", Reason: "listener is not running"}
	}

	pid := c.cmd.Process.Pid
	exited := c.exited
	logging.Info("Controller", "Stopping listener (%d)", pid)

	c.mu.Unlock()
	err := c.shutdown(ctx, pid, exited)
	c.mu.Lock()

	c.release(exited)
	if err != nil {
		return &ListenerLifecycleError{Op: "stop", Reason: "failed to stop listener", Err: err}
	}
	return nil
}

func (c *Controller) shutdown(ctx context.Context, pid int, exited chan struct{}) error {
	select {
	case <-exited:
		return nil
	default:
	}

	if err := terminateProcessGroup(pid); err != nil {
		logging.Warn("Controller", "Failed to terminate listener process group %d: %v", pid, err)
	}

	timer := time.NewTimer(c.opts.ShutdownTimeout)
	defer timer.Stop()

	select {
	case <-exited:
		// Children may outlive the leader.
		_ = killProcessGroup(pid)
		return nil
	case <-timer.C:
		logging.Warn("Controller", "Listener did not stop within %s, killing process group %d", c.opts.ShutdownTimeout, pid)
	case <-ctx.Done():
		logging.Warn("Controller", "Stop cancelled, killing process group %d", pid)
	}

	if err := killProcessGroup(pid); err != nil {
		return err
	}
	select {
	case <-exited:
		return nil
	case <-time.After(c.opts.ShutdownTimeout):
		return fmt.Errorf("process %d did not exit after kill", pid)
	}
}

// release collects the output of a finished or abandoned process and
// forgets it. Called with c.mu held.
func (c *Controller) release(exited chan struct{}) {
	select {
	case <-exited:
	default:
		if c.cmd != nil && c.cmd.Process != nil {
			_ = killProcessGroup(c.cmd.Process.Pid)
		}
		c.mu.Unlock()
		<-exited
		c.mu.Lock()
	}

	if c.capture != nil {
		c.capture.close()
		c.logs = c.capture.logs()
		if c.logs.Combined != "" {
			logging.Info("Controller", "Listener output:\n%s", c.logs.Combined)
		}
	}
	c.cmd = nil
	c.capture = nil
}

// Logs returns the output of the last listener process once it has been
// stopped.
func (c *Controller) Logs() Logs {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.logs
}
