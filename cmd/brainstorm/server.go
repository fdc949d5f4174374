package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/kalambet/brainstorm/internal/api"
	"github.com/kalambet/brainstorm/internal/assist"
	"github.com/kalambet/brainstorm/internal/board"
	"github.com/kalambet/brainstorm/internal/completion"
	"github.com/kalambet/brainstorm/internal/config"
	"github.com/kalambet/brainstorm/internal/credential"
	"github.com/kalambet/brainstorm/internal/storage"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the brainstorm server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		noMCP, _ := cmd.Flags().GetBool("no-mcp")
		return runServer(cmd.Context(), !noMCP)
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running brainstorm server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show brainstorm server status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus(cmd.Context())
	},
}

func init() {
	startCmd.Flags().Bool("no-mcp", false, "do not serve MCP on stdin/stdout")
}

func pidFilePath(dataDir string) string {
	return filepath.Join(dataDir, "brainstorm.pid")
}

func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removePIDFile(path string) {
	os.Remove(path)
}

func setupLogging(cfg config.Config) {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()})))
}

// apiToken prefers a configured token over the generated stored one.
func apiToken(cfg config.Config) (string, error) {
	if cfg.API.Token != "" {
		return cfg.API.Token, nil
	}
	return config.GetAPIToken(config.NewSecrets())
}

// session is one in-memory board with its AI facade and persistent settings.
type session struct {
	board  *board.Store
	assist *assist.Facade
	creds  credential.Store
	store  *storage.Store
}

func openSession(cfg config.Config) (*session, error) {
	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}

	creds := credential.Chain{
		Static: cfg.Completion.APIKey,
		Store:  credential.NewPersistent(store),
	}
	client := completion.New(creds, completion.Config{
		BaseURL: cfg.Completion.BaseURL,
		Model:   cfg.Completion.Model,
		Timeout: cfg.Completion.TimeoutDuration(),
	})

	b := board.NewStore()
	b.Subscribe(func(s board.Snapshot) {
		slog.Debug("board changed", "notes", len(s.Notes), "connectors", len(s.Connectors), "groups", len(s.Groups))
	})

	return &session{
		board:  b,
		assist: assist.New(b, client, store, cfg.Assist.MaxInFlight),
		creds:  creds,
		store:  store,
	}, nil
}

func (s *session) Close() {
	if err := s.store.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: closing storage: %v\n", err)
	}
}

func runServer(ctx context.Context, serveMCP bool) error {
	fmt.Fprintf(os.Stderr, "brainstorm version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogging(cfg)

	token, err := apiToken(cfg)
	if err != nil {
		return fmt.Errorf("initializing API token: %w", err)
	}
	slog.Info("API bearer token available")

	pidPath := pidFilePath(cfg.Storage.DataDir)
	healthURL := fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.Port)
	healthClient := &http.Client{Timeout: 2 * time.Second}
	if resp, err := healthClient.Get(healthURL); err == nil {
		resp.Body.Close()
		if pid, pidErr := readPIDFile(pidPath); pidErr == nil {
			printWarning("brainstorm is already running (PID %d)", pid)
			return fmt.Errorf("server already running (PID %d)", pid)
		}
		printWarning("brainstorm is already running on port %d", cfg.Server.Port)
		return fmt.Errorf("server already running on port %d", cfg.Server.Port)
	}
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer removePIDFile(pidPath)

	sess, err := openSession(cfg)
	if err != nil {
		return err
	}
	defer sess.Close()

	if _, err := sess.creds.Get(ctx); errors.Is(err, completion.ErrMissingCredential) {
		printWarning("no completion API key set; AI actions will fail until `brainstorm key set` is run")
	}

	handler := api.NewHandler(api.Deps{
		Board:       sess.board,
		Assist:      sess.assist,
		Credentials: sess.creds,
		History:     sess.store,
		Token:       token,
	})

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	if serveMCP {
		mcpSrv := api.NewMCPServer(api.MCPDeps{Board: sess.board, Assist: sess.assist})
		stdioSrv := server.NewStdioServer(mcpSrv)
		go func() {
			if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("MCP stdio server error", "error", err)
			}
		}()
		slog.Info("MCP server started (stdio transport)")
	}

	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(os.Stderr, "brainstorm listening on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "shutting down...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func stopServer() error {
	cfg, err := config.Load()
	if err != nil {
		printError("could not load config: %v", err)
		return err
	}

	pidPath := pidFilePath(cfg.Storage.DataDir)
	pid, err := readPIDFile(pidPath)
	if err != nil {
		printError("brainstorm is not running (no PID file)")
		return fmt.Errorf("not running: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		printError("could not find process %d", pid)
		return err
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		printError("could not stop brainstorm (PID %d): %v", pid, err)
		removePIDFile(pidPath)
		return err
	}

	printSuccess("Sent stop signal to brainstorm (PID %d)", pid)
	return nil
}

func showStatus(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		printError("config error: %v", err)
		return nil
	}

	printStatus("Completion", "%s (%s)", cfg.Completion.BaseURL, cfg.Completion.Model)
	printStatus("Data dir", "%s", cfg.Storage.DataDir)

	client, err := newAPIClient()
	if err != nil {
		printStatus("Server", "unknown (%v)", err)
		return nil
	}
	client.httpClient.Timeout = 2 * time.Second

	resp, err := client.get(ctx, "/health")
	if err != nil {
		printStatus("Server", "stopped")
		return nil
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		printStatus("Server", "error (HTTP %d)", resp.StatusCode)
		return nil
	}
	printStatus("Server", "running on port %d", cfg.Server.Port)

	return printBoardStatus(ctx, client)
}

func printBoardStatus(ctx context.Context, client *apiClient) error {
	resp, err := client.get(ctx, "/settings/api-key")
	if err != nil {
		return err
	}
	var key api.APIKeyStatus
	if err := decodeJSON(resp, &key); err != nil {
		return err
	}
	if key.Set {
		printStatus("API key", "%s", key.Masked)
	} else {
		printStatus("API key", "%s", colorize(colorYellow, "not set"))
	}

	view, err := fetchBoard(ctx, client)
	if err != nil {
		return err
	}
	printStatus("Board", "%d notes, %d connectors, %d groups", len(view.Notes), len(view.Connectors), len(view.Groups))
	if view.Loading != "" {
		printStatus("Thinking", "%s", shortID(view.Loading))
	}

	resp, err = client.get(ctx, "/interactions?limit=100")
	if err != nil {
		return err
	}
	var interactions []storage.Interaction
	if err := decodeJSON(resp, &interactions); err != nil {
		return err
	}
	printStatus("Interactions", "%s", countLabel(len(interactions), 100))
	return nil
}

func countLabel(count, limit int) string {
	if count >= limit {
		return fmt.Sprintf("%d+", count)
	}
	return fmt.Sprintf("%d", count)
}
