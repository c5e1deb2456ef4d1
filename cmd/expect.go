package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"eventcheck/internal/clock"
	"eventcheck/internal/eventstore"
	"eventcheck/internal/expectation"
	"eventcheck/pkg/logging"
)

// expectationsEnv names the expectations file of the running session.
const expectationsEnv = "EVENTCHECK_EXPECTATIONS"

var expectFile string

var expectCmd = &cobra.Command{
	Use:   "expect SYSTEM_TYPE OBJECT_TYPE OBJECT_ID EVENT...",
	Short: "Register events a test expects to happen",
	Long: `Registers one expectation per EVENT for the given object. All events named
in one call share the same registration time.

Under 'eventcheck run' the expectations file is taken from
$EVENTCHECK_EXPECTATIONS. Elsewhere pass --file.

Examples:
  eventcheck expect rhevm vm vm-1 vm_start
  eventcheck expect virtualcenter vm vm123 power_off power_on`,
	Args:                  cobra.MinimumNArgs(4),
	DisableFlagsInUseLine: true,
	RunE:                  runExpect,
}

func runExpect(cmd *cobra.Command, args []string) error {
	path := expectFile
	if path == "" {
		path = os.Getenv(expectationsEnv)
	}
	if path == "" {
		return fmt.Errorf("no expectations file: run under 'eventcheck run' or pass --file")
	}

	systemType := expectation.SystemType(args[0])
	objectType := expectation.ObjectType(args[1])
	// Unknown types would only fail at check time.
	if _, err := eventstore.WireType(systemType, objectType); err != nil {
		return err
	}

	registry := expectation.NewRegistry(clock.RealClock{})
	sessionID := os.Getenv(sessionEnv)
	if _, err := os.Stat(path); err == nil {
		id, err := registry.Load(path)
		if err != nil {
			return err
		}
		if id != "" {
			sessionID = id
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to read expectations file: %w", err)
	}

	registry.Register(systemType, objectType, args[2], args[3:]...)
	if err := registry.Save(path, sessionID); err != nil {
		return err
	}
	logging.Debug("Expect", "%d expectations in %s", registry.Count(), path)
	return nil
}

func init() {
	rootCmd.AddCommand(expectCmd)

	expectCmd.Flags().StringVar(&expectFile, "file", "", "Expectations file (default $EVENTCHECK_EXPECTATIONS)")
}
