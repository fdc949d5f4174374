package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kalambet/brainstorm/internal/config"
	"github.com/kalambet/brainstorm/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open a board in the terminal",
	Long: `Open a fresh board session in the terminal.

The session runs in this process and shares the API key and interaction
log with the server, but not the server's board.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		// The alternate screen owns stdout and stderr.
		logPath := filepath.Join(cfg.Storage.DataDir, "tui.log")
		if err := os.MkdirAll(cfg.Storage.DataDir, 0o755); err != nil {
			return err
		}
		logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		defer logFile.Close()
		slog.SetDefault(slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()})))

		sess, err := openSession(cfg)
		if err != nil {
			return err
		}
		defer sess.Close()

		return tui.Run(sess.board, sess.assist)
	},
}
