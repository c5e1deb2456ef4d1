package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"eventcheck/internal/config"
	"eventcheck/internal/controller"
	"eventcheck/pkg/logging"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeConfigError indicates missing or invalid configuration.
	ExitCodeConfigError = 2
	// ExitCodeListenerError indicates the listener process failed or was misused.
	ExitCodeListenerError = 3
)

var (
	// configPath overrides the configuration directory (default ~/.config/eventcheck).
	configPath string

	// debug enables debug logging.
	debug bool

	// logFile sends diagnostics to a file instead of stderr.
	logFile string

	// loadedConfig is populated before any subcommand runs.
	loadedConfig config.Config
)

// rootCmd represents the base command for the eventcheck application.
var rootCmd = &cobra.Command{
	Use:   "eventcheck",
	Short: "Verify that management systems raise the events your tests expect",
	Long: `eventcheck records the events that virtualization management systems
post to a local listener and checks them against the events a test run
expected to happen.

Tests register an expectation for every action that should raise an event
(a VM powered on, a host added). At the end of the run each expectation is
matched against the events the listener received, and a report shows which
events arrived and how long they took.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupCommand,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logging.Close()
	},
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
// This function is called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "eventcheck version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		if msg := formatError(err); msg != "" {
			fmt.Fprintln(rootCmd.ErrOrStderr(), msg)
		}
		os.Exit(getExitCode(err))
	}
}

// formatError renders err for the terminal. Configuration errors include
// their details and suggestions. A failing test command has already
// reported its own error.
func formatError(err error) string {
	var exitErr *commandExitError
	if errors.As(err, &exitErr) {
		return ""
	}

	var cfgErrs config.ConfigurationErrorCollection
	if errors.As(err, &cfgErrs) {
		return "Error: " + err.Error() + "\n" + cfgErrs.GetDetailedReport()
	}

	var cfgErr config.ConfigurationError
	if errors.As(err, &cfgErr) {
		return "Error: " + cfgErr.DetailedError()
	}

	return "Error: " + err.Error()
}

// listenerArgs repeats the global flags for the listener child process.
func listenerArgs() []string {
	var args []string
	if configPath != "" {
		args = append(args, "--config-path", configPath)
	}
	if debug {
		args = append(args, "--debug")
	}
	if logFile != "" {
		args = append(args, "--log-file", logFile)
	}
	return args
}

// setupCommand initialises logging and loads the configuration.
func setupCommand(cmd *cobra.Command, args []string) error {
	level := logging.LevelInfo
	if debug {
		level = logging.LevelDebug
	}
	logging.InitForCLI(level, cmd.ErrOrStderr())

	path := configPath
	if path == "" {
		var err error
		if path, err = config.GetDefaultConfigPath(); err != nil {
			return err
		}
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		return err
	}
	loadedConfig = cfg

	if !debug && cfg.Logging.Level != "" {
		level = logging.ParseLevel(cfg.Logging.Level)
	}
	file := logFile
	if file == "" {
		file = cfg.Logging.File
	}
	if file != "" {
		return logging.InitForFile(level, file)
	}
	logging.InitForCLI(level, cmd.ErrOrStderr())
	return nil
}

// getExitCode determines the appropriate exit code based on the error type.
// This provides semantic exit codes for scripting and automation.
func getExitCode(err error) int {
	var exitErr *commandExitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}

	var cfgErr config.ConfigurationError
	if errors.As(err, &cfgErr) {
		return ExitCodeConfigError
	}

	var cfgErrs config.ConfigurationErrorCollection
	if errors.As(err, &cfgErrs) {
		return ExitCodeConfigError
	}

	var lifecycleErr *controller.ListenerLifecycleError
	if errors.As(err, &lifecycleErr) {
		return ExitCodeListenerError
	}

	return ExitCodeError
}

func init() {
	rootCmd.AddCommand(newVersionCmd())

	rootCmd.PersistentFlags().StringVar(&configPath, "config-path", "", "Configuration directory containing config.yaml (default ~/.config/eventcheck)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to this file instead of stderr")
}
