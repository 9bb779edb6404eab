package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/prism"
	httpAdapter "github.com/aretw0/prism/internal/adapters/http"
	"github.com/aretw0/prism/internal/inspect"
	"github.com/aretw0/prism/internal/presentation/tui"
	"github.com/aretw0/prism/pkg/domain"
	"github.com/aretw0/prism/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the inspector HTTP server",
	Long:  `Serves POST /layout and POST /split over YAML or JSON documents, plus /healthz, /events and /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetString("port")
		events, _ := cmd.Flags().GetInt("events")

		p, err := loadProfile(cmd)
		if err != nil {
			return err
		}
		logger := p.Logger(cmd.ErrOrStderr())

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics, err := observability.NewMetrics(reg)
		if err != nil {
			return err
		}
		journal := observability.NewJournal(events)

		hooks := domain.MergeHooks(metrics.Hooks(), journal.Hooks())
		srv := &http.Server{
			Addr: ":" + port,
			Handler: httpAdapter.NewHandler(&httpAdapter.Server{
				Inspector: inspect.New(p, inspect.WithLogger(logger), inspect.WithLifecycleHooks(hooks)),
				Journal:   journal,
				Gatherer:  reg,
				Logger:    logger,
				Version:   prism.Version,
			}),
			ReadHeaderTimeout: 5 * time.Second,
		}

		tui.PrintBanner(cmd.ErrOrStderr())

		// Stop on interrupt or terminate signals.
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			logger.Info("starting prism server", "addr", srv.Addr)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			logger.Info("start shutdown")

			// Give outstanding requests a deadline for completion.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("graceful shutdown did not complete", "err", err)
				return srv.Close()
			}
			logger.Info("prism server stopped gracefully")
			return nil
		})
		return g.Wait()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().Int("events", 256, "Lifecycle events kept for GET /events")
}
