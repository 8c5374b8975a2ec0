package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/exp/slog"
	"golang.org/x/sync/errgroup"
)

var (
	configFile string
	config     Config
)

var rootCmd = &cobra.Command{
	Use:           "hybrid-routing",
	Short:         "Hybrid routing engine with live traffic",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		config, err = ReadConfig(configFile)
		if err != nil {
			return err
		}
		return SetupLogging(os.Stderr, config.Server.LogLevel)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the routing api and run the traffic updater",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "./config.yaml", "Path to the yaml config file")
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	manager, err := CreateManager(ctx, config, reg)
	if err != nil {
		return err
	}
	defer manager.Close()

	if config.Source.References != "" {
		if _, err := manager.MatchReferences(ctx, ""); err != nil {
			slog.Warn("reference matching failed", "error", err)
		}
	}

	app := NewRegistry()
	if err := manager.MapRoutes(app); err != nil {
		return err
	}
	if err := app.Handle(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{})); err != nil {
		return err
	}

	server := &http.Server{
		Addr:              config.Server.Addr,
		Handler:           app.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		slog.Info("listening", "addr", server.Addr, "routes", app.Routes())
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-gctx.Done()
		shutdown_ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdown_ctx)
	})
	if updater := manager.Updater(); updater != nil {
		group.Go(func() error {
			err := updater.Run(gctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	} else {
		slog.Warn("no traffic feed configured, costs stay at speed limits")
	}

	err = group.Wait()
	slog.Info("server stopped")
	return err
}
