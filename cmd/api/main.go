// Command api serves the hospital shift scheduling REST API, the WebSocket
// relay and the duty board.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hospital-shifts/scheduler/internal/app"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "api",
	Short:         "Hospital shift scheduling API server",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, WebSocket relay and embedded agent worker",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema and exit",
	RunE:  runMigrate,
}

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Seed roles and the admin account and exit",
	RunE:  runBootstrap,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the YAML config file")
	serveCmd.Flags().Bool("no-agent", false, "do not run the embedded agent worker")
	rootCmd.AddCommand(serveCmd, migrateCmd, bootstrapCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, log, level, err := app.Init(configPath)
	if err != nil {
		return err
	}
	defer log.Sync()

	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	if noAgent, _ := cmd.Flags().GetBool("no-agent"); noAgent {
		cfg.Agent.Embedded = false
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()
	if _, err := a.Bootstrap(ctx); err != nil {
		return err
	}

	hub := a.NewHub()
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: newRouter(a, hub),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("api server listening", zap.String("addr", srv.Addr), zap.String("agent_mode", a.Workflow.Mode()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.Server.ShutdownTimeout)
		defer cancel()
		hub.Close()
		return srv.Shutdown(shutdownCtx)
	})
	if cfg.Agent.Embedded {
		g.Go(func() error { return a.Dispatcher().Run(gctx) })
	}
	g.Go(func() error { return app.WatchLogLevel(gctx, configPath, level, log) })

	return g.Wait()
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, log, _, err := app.Init(configPath)
	if err != nil {
		return err
	}
	defer log.Sync()

	a, err := app.Open(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()
	log.Info("schema is up to date")
	return nil
}

func runBootstrap(cmd *cobra.Command, _ []string) error {
	cfg, log, _, err := app.Init(configPath)
	if err != nil {
		return err
	}
	defer log.Sync()

	a, err := app.Open(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()
	created, err := a.Bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	if !created {
		log.Info("admin account already present", zap.String("email", cfg.Auth.AdminEmail))
	}
	return nil
}
