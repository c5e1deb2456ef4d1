package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"eventcheck/internal/report"
	"eventcheck/internal/session"
)

var (
	checkExpectations string
	checkNoColor      bool
	checkFlags        eventFlags
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check saved expectations against a running listener",
	Long: `Loads expectations saved by 'eventcheck expect' and matches them against
the events a running listener has recorded. The listener is not started or
stopped.

Examples:
  eventcheck check --expectations expectations.yaml
  eventcheck check --expectations expectations.yaml --result events.json --listener-host 10.0.0.5`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg := loadedConfig.EventTesting
	checkFlags.apply(cmd, &cfg)
	// The listener is managed elsewhere.
	cfg.Enabled = false

	s, err := session.New(cfg, session.Options{Quiet: true})
	if err != nil {
		return err
	}
	if err := s.LoadExpectations(checkExpectations); err != nil {
		return err
	}

	r, err := s.Check(cmd.Context())
	if err != nil {
		return err
	}

	if err := r.Write(cmd.OutOrStdout(), report.FormatTable, !checkNoColor); err != nil {
		return err
	}
	if cfg.Result != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", cfg.Result)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkFlags.register(checkCmd)
	checkCmd.Flags().StringVar(&checkExpectations, "expectations", "", "Expectations file written by 'eventcheck expect'")
	checkCmd.Flags().BoolVar(&checkNoColor, "no-color", false, "Disable colours in the summary table")
	_ = checkCmd.MarkFlagRequired("expectations")
}
