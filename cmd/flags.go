package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"eventcheck/internal/config"
)

// eventFlags are the session settings that can be overridden per run.
type eventFlags struct {
	enabled      bool
	result       string
	port         int
	settleTime   int
	listenerHost string
}

func (f *eventFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.enabled, "event-testing", false, "Enable testing of the events")
	cmd.Flags().StringVar(&f.result, "result", config.DefaultResultPath, "Filename of the result report (.html, .json, .yaml or text)")
	cmd.Flags().IntVar(&f.port, "port", config.DefaultListenerPort, "Port of the event listener")
	cmd.Flags().IntVar(&f.settleTime, "settle-time", int(config.DefaultSettleTime/time.Second), "Seconds to wait for remaining events before checking")
	cmd.Flags().StringVar(&f.listenerHost, "listener-host", "", "Listener address; skips ip echo discovery")
}

// apply overrides cfg with the flags the user set explicitly.
func (f *eventFlags) apply(cmd *cobra.Command, cfg *config.EventTestingConfig) {
	flags := cmd.Flags()
	if flags.Changed("event-testing") {
		cfg.Enabled = f.enabled
	}
	if flags.Changed("result") {
		cfg.Result = f.result
	}
	if flags.Changed("port") {
		cfg.Port = f.port
	}
	if flags.Changed("settle-time") {
		cfg.SettleTime = time.Duration(f.settleTime) * time.Second
	}
	if flags.Changed("listener-host") {
		cfg.ListenerHost = f.listenerHost
	}
}
