package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"eventcheck/internal/listener"
)

var (
	listenPort      int
	listenDatabase  string
	listenReadyFile string
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Run the event listener",
	Long: `Runs the HTTP service management systems post their events to.

Events are stored in a SQLite database and can be queried with
'eventcheck events' or by 'eventcheck run' and 'eventcheck check'.
The listener stops on SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: runListen,
}

func runListen(cmd *cobra.Command, args []string) error {
	cfg := loadedConfig.EventTesting
	port := cfg.Port
	if cmd.Flags().Changed("port") {
		port = listenPort
	}
	database := cfg.Listener.Database
	if cmd.Flags().Changed("db") {
		database = listenDatabase
	}
	readyFile := cfg.Listener.ReadyFile
	if cmd.Flags().Changed("ready-file") {
		readyFile = listenReadyFile
	}

	store, err := listener.OpenSQLiteStore(database)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := listener.NewServer(store, listener.Options{
		Addr:      fmt.Sprintf(":%d", port),
		ReadyFile: readyFile,
	})
	return server.Run(ctx)
}

func init() {
	rootCmd.AddCommand(listenCmd)

	listenCmd.Flags().IntVar(&listenPort, "port", 0, "Port to listen on (default from config, 65432)")
	listenCmd.Flags().StringVar(&listenDatabase, "db", "", "SQLite database file, or :memory: (default from config, events.db)")
	listenCmd.Flags().StringVar(&listenReadyFile, "ready-file", "", "Write the bound address to this file once ready")
}
