package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/aretw0/smartmeal/internal/cli"
	"github.com/aretw0/smartmeal/internal/presentation/tui"
)

var interviewCmd = &cobra.Command{
	Use:     "interview",
	Aliases: []string{"ask"},
	Short:   "Answer a few questions and get a dish recommendation",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		sessionID, _ := cmd.Flags().GetString("session")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		eng, err := cli.NewEngine(ctx, cfg, logger, nil)
		if err != nil {
			return err
		}
		// Close persists the session, so it must outlive the interrupted context.
		defer eng.Close(context.WithoutCancel(ctx))

		ctrl, err := eng.Sessions().Open(ctx, sessionID)
		if err != nil {
			return err
		}
		logger.Debug("interview session opened", "session_id", ctrl.ID())

		render := tui.Plain
		if term.IsTerminal(int(os.Stdout.Fd())) {
			tui.PrintBanner(cmd.OutOrStdout())
			render = tui.NewRenderer()
		}
		return tui.NewInterview(cmd.InOrStdin(), cmd.OutOrStdout(), render).Run(ctx, ctrl)
	},
}

func init() {
	rootCmd.AddCommand(interviewCmd)
	interviewCmd.Flags().String("session", "", "Resume or name a session (persisted by the configured store)")
}
