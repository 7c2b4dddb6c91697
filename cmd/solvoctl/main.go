// Command solvoctl runs workspace maintenance against the configured
// storage backend without going through the HTTP API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"solvo/internal/app/server"
	"solvo/internal/platform/config"
	"solvo/internal/platform/logger"
)

var userID string

var rootCmd = &cobra.Command{
	Use:           "solvoctl",
	Short:         "Solvo workspace maintenance",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&userID, "user", "u", "", "workspace owner id")
	rootCmd.AddCommand(usersCmd, scoresCmd, endWeekCmd, exportCmd, importCmd, backupsCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "solvoctl: %v\n", err)
		os.Exit(1)
	}
}

// openApp wires the same services the server uses. Background scheduling
// is disabled so a command never races the server's own scheduler.
func openApp(ctx context.Context) (*server.App, error) {
	cfg := config.Load()
	cfg.AutoEndWeek = false
	log, err := logger.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(log)
	return server.New(ctx, cfg, server.WithLogger(log))
}

func requireUser() error {
	if userID == "" {
		return fmt.Errorf("--user is required")
	}
	return nil
}
