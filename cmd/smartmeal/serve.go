package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/smartmeal"
	"github.com/aretw0/smartmeal/internal/cli"
	"github.com/aretw0/smartmeal/internal/supervisor"
	httpadapter "github.com/aretw0/smartmeal/pkg/adapters/http"
	"github.com/aretw0/smartmeal/pkg/observability"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serves recipe search, the dish cross-check, the tree provider endpoints and
interview sessions over HTTP, with Prometheus metrics on /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		metrics := observability.New()
		eng, err := cli.NewEngine(ctx, cfg, logger, metrics)
		if err != nil {
			return err
		}
		defer func() {
			if err := eng.Close(context.WithoutCancel(ctx)); err != nil {
				logger.Warn("engine shutdown incomplete", "err", err)
			}
		}()

		handlerCfg := httpadapter.Config{
			Searcher:    eng.Searcher(),
			Catalog:     eng.Catalog(),
			Sessions:    eng.Sessions(),
			Logger:      logger,
			Version:     strings.TrimSpace(smartmeal.Version),
			Metrics:     metrics.Handler(),
			Middleware:  []func(http.Handler) http.Handler{metrics.Middleware},
			CORSOrigins: cfg.Server.CORSOrigins,
			RateLimit:   cfg.Server.RateLimit,
		}
		if t := eng.LocalTree(); t != nil {
			handlerCfg.Tree = t
		}
		handler, err := httpadapter.NewHandler(handlerCfg)
		if err != nil {
			return err
		}

		tree := supervisor.New(logger, supervisor.DefaultConfig())
		tree.AddAPI(supervisor.NewHTTPService("http-api", httpadapter.NewServer(cfg.Server.Addr, handler), 10*time.Second))
		// A session-independent navigator keeps the tree health metrics current.
		monitor := eng.NewNavigator("health-monitor")
		defer monitor.Close()
		tree.AddCore(supervisor.NewFuncService("tree-health", monitor.MonitorHealth))

		logger.Info("SmartMeal API listening", "addr", cfg.Server.Addr, "store", cfg.Store.Driver)
		fmt.Fprintf(cmd.ErrOrStderr(), "Serving SmartMeal on %s\n", cfg.Server.Addr)

		if err := tree.Serve(ctx); err != nil && ctx.Err() == nil {
			return err
		}
		logger.Info("SmartMeal API stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address (overrides server.addr)")
}
