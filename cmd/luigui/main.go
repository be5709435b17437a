package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"luigui/internal/api"
	"luigui/internal/backend"
	"luigui/internal/config"
	"luigui/internal/data"
	"luigui/internal/logger"
	"luigui/internal/service"

	"github.com/spf13/cobra"
)

func main() {
	os.Exit(execute())
}

func execute() int {
	root := newRootCmd()
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// app holds what the commands share once the config is loaded.
type app struct {
	cfg    *config.Config
	keys   *config.Keys
	client *backend.Client
	sealer *service.EncryptionService

	db *sql.DB
}

func (a *app) close() {
	if a.db != nil {
		_ = a.db.Close()
	}
}

// stateDB opens the local sqlite state on first use.
func (a *app) stateDB() (*sql.DB, error) {
	if a.db != nil {
		return a.db, nil
	}
	db, err := data.InitDB(a.cfg.StateDB)
	if err != nil {
		return nil, fmt.Errorf("open local state: %w", err)
	}
	a.db = db
	return db, nil
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var verbose bool

	root := &cobra.Command{
		Use:           "luigui",
		Short:         "Web client and CLI for the SQL assistant",
		Long:          "luigui serves a web client for asking databases questions in plain language, and offers the same operations from the command line.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if !verbose && cmd.Name() != "serve" && cmd.Name() != "luigui" {
				logger.Silence()
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			keys, err := cfg.DeriveKeys()
			if err != nil {
				return err
			}
			sealer, err := service.NewEncryptionService(keys.Seal)
			if err != nil {
				return fmt.Errorf("init crypto service: %w", err)
			}

			a.cfg, a.keys, a.sealer = cfg, keys, sealer
			a.client = backend.New(cfg.APIBaseURL, cfg.RequestTimeout)
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			a.close()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServer(cmd.Context(), a)
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log requests to stdout")

	root.AddCommand(
		newServeCmd(a),
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newDatabasesCmd(a),
		newAskCmd(a),
		newHistoryCmd(a),
		newExtractSchemaCmd(a),
		newCheckConnCmd(a),
	)
	return root
}

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the web client (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServer(cmd.Context(), a)
		},
	}
}

func runServer(ctx context.Context, a *app) error {
	if err := logger.Init(a.cfg.LogDir); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.Info.Printf("Starting luigui against %s...", a.cfg.APIBaseURL)

	db, err := a.stateDB()
	if err != nil {
		return err
	}

	handler := api.Routes(api.Deps{
		Client:             a.client,
		Sessions:           api.NewSessionManager(a.keys.CookieHash, a.keys.CookieBlock, a.sealer, a.cfg.SecureCookies),
		Activity:           data.NewActivityRepo(db),
		Extractor:          service.NewSchemaExtractor(),
		SecureCookies:      a.cfg.SecureCookies,
		LoginRatePerMinute: a.cfg.LoginRatePerMinute,
		LoginBurst:         a.cfg.LoginBurst,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info.Printf("Server listening on port %d", a.cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server startup failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error.Printf("Server shutdown error: %v", err)
	}
	logger.Info.Println("Server stopped")
	return nil
}
