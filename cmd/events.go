package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"eventcheck/internal/eventstore"
	"eventcheck/internal/expectation"
)

var (
	eventsEvent  string
	eventsFrom   string
	eventsTo     string
	eventsOutput string
	eventsFlags  eventFlags
)

var eventsCmd = &cobra.Command{
	Use:   "events SYSTEM_TYPE OBJECT_TYPE OBJECT_ID",
	Short: "List the events the listener recorded for an object",
	Long: `Queries the listener once, without retries, for the events recorded for
one object. Times use the listener format YYYY-MM-DD-HH-MM-SS in UTC.

Examples:
  eventcheck events rhevm vm vm-1
  eventcheck events virtualcenter ems vc-1 --event host_connect --from 2024-03-01-12-00-00`,
	Args:                  cobra.ExactArgs(3),
	DisableFlagsInUseLine: true,
	RunE:                  runEvents,
}

func runEvents(cmd *cobra.Command, args []string) error {
	cfg := loadedConfig.EventTesting
	eventsFlags.apply(cmd, &cfg)

	req := eventstore.Request{Identity: expectation.Identity{
		SystemType: expectation.SystemType(args[0]),
		ObjectType: expectation.ObjectType(args[1]),
		ObjectID:   args[2],
		Event:      eventsEvent,
	}}
	var err error
	if req.After, err = parseTimeFlag("from", eventsFrom); err != nil {
		return err
	}
	if req.Before, err = parseTimeFlag("to", eventsTo); err != nil {
		return err
	}

	client := eventstore.NewClientFromConfig(cfg, nil, nil)
	records, err := client.ListEvents(cmd.Context(), req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch eventsOutput {
	case "json":
		data, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode events: %w", err)
		}
		fmt.Fprintln(out, string(data))
	case "table":
		if len(records) == 0 {
			fmt.Fprintf(out, "%s %s\n", text.FgYellow.Sprint("📋"), text.FgYellow.Sprint("No events found"))
			return nil
		}
		t := table.NewWriter()
		t.SetOutputMirror(out)
		t.SetStyle(table.StyleRounded)
		t.AppendHeader(table.Row{
			text.FgHiCyan.Sprint("ID"),
			text.FgHiCyan.Sprint("TARGET TYPE"),
			text.FgHiCyan.Sprint("TARGET"),
			text.FgHiCyan.Sprint("EVENT"),
			text.FgHiCyan.Sprint("TIME (UTC)"),
		})
		for _, r := range records {
			t.AppendRow(table.Row{r.ID, r.TargetType, r.TargetID, r.EventType, r.EventTime})
		}
		t.Render()
	default:
		return fmt.Errorf("unknown output format %q (use table or json)", eventsOutput)
	}
	return nil
}

func parseTimeFlag(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(eventstore.QueryTimeFormat, value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s %q: expected YYYY-MM-DD-HH-MM-SS", name, value)
	}
	return t, nil
}

func init() {
	rootCmd.AddCommand(eventsCmd)

	eventsFlags.register(eventsCmd)
	eventsCmd.Flags().StringVar(&eventsEvent, "event", "", "Only list events with this name")
	eventsCmd.Flags().StringVar(&eventsFrom, "from", "", "Only list events at or after this time")
	eventsCmd.Flags().StringVar(&eventsTo, "to", "", "Only list events before this time")
	eventsCmd.Flags().StringVarP(&eventsOutput, "output", "o", "table", "Output format: table or json")
}
