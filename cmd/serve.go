package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/conneroisu/nucleator/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the live preview server",
	Long: `Start the preview server: an in-browser editor that recompiles
Nucleus source as you type and reloads when fragment files change.

Examples:
  nucleator serve                       # Serve with defaults
  nucleator serve --port 9000           # Custom port
  nucleator serve --fragments ./partials
  nucleator serve --data demo.json      # Preview context from a file`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 8120, "port to serve on")
	serveCmd.Flags().String("host", "localhost", "host to bind to")
	serveCmd.Flags().Bool("open", false, "open the browser automatically")
	serveCmd.Flags().String("fragments", "", "directory of fragment files")
	serveCmd.Flags().String("data", "", "mock data file (json or yaml)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	srv, err := server.New(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(ctx)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
