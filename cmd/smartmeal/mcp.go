package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aretw0/smartmeal"
	"github.com/aretw0/smartmeal/internal/cli"
	mcpadapter "github.com/aretw0/smartmeal/pkg/adapters/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve SmartMeal as an MCP server",
	Long: `Exposes recipe search, the dish cross-check and the guided interview as
Model Context Protocol tools over stdio or SSE.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if t, _ := cmd.Flags().GetString("transport"); t != "" {
			cfg.MCP.Transport = t
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.MCP.Addr = addr
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		eng, err := cli.NewEngine(ctx, cfg, logger, nil)
		if err != nil {
			return err
		}
		defer eng.Close(context.WithoutCancel(ctx))

		srv := mcpadapter.NewServer(eng.Searcher(), eng.Sessions(), strings.TrimSpace(smartmeal.Version), mcpadapter.WithLogger(logger))

		switch cfg.MCP.Transport {
		case "sse":
			fmt.Fprintf(cmd.ErrOrStderr(), "Starting MCP SSE server on %s\n", cfg.MCP.Addr)
			return srv.ServeSSE(ctx, cfg.MCP.Addr, cfg.MCP.BaseURL)
		default:
			// stdout carries the protocol; logs already go to stderr.
			return srv.ServeStdio()
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().String("transport", "", "Transport: stdio or sse (overrides mcp.transport)")
	mcpCmd.Flags().String("addr", "", "SSE listen address (overrides mcp.addr)")
}
