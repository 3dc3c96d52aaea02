package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/roundshub/roundshub/internal/config"
	"github.com/roundshub/roundshub/internal/domain/backup"
	"github.com/roundshub/roundshub/internal/domain/checklist"
	"github.com/roundshub/roundshub/internal/domain/phrase"
	"github.com/roundshub/roundshub/internal/domain/preferences"
	"github.com/roundshub/roundshub/internal/domain/reference"
	"github.com/roundshub/roundshub/internal/domain/sketch"
	"github.com/roundshub/roundshub/internal/domain/ward"
	"github.com/roundshub/roundshub/internal/platform/auth"
	"github.com/roundshub/roundshub/internal/platform/kv"
	"github.com/roundshub/roundshub/internal/platform/middleware"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "roundshub-server",
		Short: "RoundsHub ward data API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the RoundsHub API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the initial ward in storage if none exists",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := buildLogger("production")
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx := context.Background()
			app, err := buildApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer app.store.Close()

			w := app.wardSvc.Snapshot()
			fmt.Printf("Ward %q ready with %d beds (id %s)\n", w.Title, len(w.Beds), w.ID)
			return nil
		},
	}
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a backup file of the stored dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("out")

			logger := buildLogger("production")
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx := context.Background()
			app, err := buildApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer app.store.Close()

			data, err := app.backupSvc.Export(ctx)
			if err != nil {
				return err
			}
			if out == "" {
				out = filepath.Join(cfg.ExportDir, backup.Filename(time.Now()))
			}
			if err := os.WriteFile(out, data, 0o600); err != nil {
				return fmt.Errorf("write backup file: %w", err)
			}
			fmt.Println("Backup written to", out)
			return nil
		},
	}
	cmd.Flags().String("out", "", "Output path (default EXPORT_DIR/RoundsHub-backup-<date>.json)")
	return cmd
}

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Restore the dataset from a backup file",
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("file")
			if file == "" {
				return fmt.Errorf("--file is required")
			}

			logger := buildLogger("production")
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read backup file: %w", err)
			}

			ctx := context.Background()
			app, err := buildApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer app.store.Close()

			if err := app.backupSvc.Import(ctx, data); err != nil {
				return err
			}
			fmt.Println("Backup restored from", file)
			return nil
		},
	}
	cmd.Flags().String("file", "", "Backup file to restore")
	return cmd
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API bearer token",
		RunE: func(cmd *cobra.Command, args []string) error {
			subject, _ := cmd.Flags().GetString("subject")
			ttl, _ := cmd.Flags().GetDuration("ttl")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.AuthTokenSecret == "" {
				return fmt.Errorf("AUTH_TOKEN_SECRET is not set; tokens are not used in dev mode")
			}

			token, err := auth.IssueToken(cfg.AuthTokenSecret, subject, ttl)
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}
	cmd.Flags().String("subject", "clinician", "Token subject")
	cmd.Flags().Duration("ttl", 30*24*time.Hour, "Token lifetime")
	return cmd
}

// app bundles the wired services so the serve and CLI paths share one
// construction routine.
type app struct {
	store     kv.Store
	wardSvc   *ward.Service
	prefs     *preferences.Store
	checks    *checklist.Store
	refs      *reference.Store
	sketches  *sketch.Store
	phrases   *phrase.Store
	backupSvc *backup.Service
}

func buildApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*app, error) {
	store, err := kv.Open(ctx, kv.Options{
		Driver:      cfg.StorageDriver,
		SQLitePath:  cfg.StoragePath,
		DatabaseURL: cfg.DatabaseURL,
		RedisURL:    cfg.RedisURL,
	})
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	prefs := preferences.NewStore(store)
	wardSvc := ward.NewService(ward.NewStore(store), prefs, logger)
	wardSvc.Init(ctx)

	a := &app{
		store:    store,
		wardSvc:  wardSvc,
		prefs:    prefs,
		checks:   checklist.NewStore(store),
		refs:     reference.NewStore(store),
		sketches: sketch.NewStore(store),
		phrases:  phrase.NewStore(store),
	}
	a.backupSvc = backup.NewService(store, wardSvc, prefs, a.refs, a.phrases)
	return a, nil
}

func buildLogger(env string) zerolog.Logger {
	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := buildLogger(cfg.Env)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()
	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open storage")
	}
	defer a.store.Close()
	logger.Info().Str("driver", cfg.StorageDriver).Msg("storage ready")

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})

	// API group, token-guarded outside dev
	apiV1 := e.Group("/api/v1")
	apiV1.Use(auth.Middleware(cfg.AuthTokenSecret))

	ward.NewHandler(a.wardSvc, cfg.CanvasMinImageChars).RegisterRoutes(apiV1)
	preferences.NewHandler(a.prefs).RegisterRoutes(apiV1)
	checklist.NewHandler(a.checks).RegisterRoutes(apiV1)
	reference.NewHandler(a.refs).RegisterRoutes(apiV1)
	sketch.NewHandler(a.sketches).RegisterRoutes(apiV1)
	phrase.NewHandler(a.phrases).RegisterRoutes(apiV1)
	backup.NewHandler(a.backupSvc).RegisterRoutes(apiV1)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	a.wardSvc.Suspend(shutdownCtx)
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
