package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newAskCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask one Amharic question and print the Amharic answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd, g, strings.Join(args, " "))
		},
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	return cmd
}

func runAsk(cmd *cobra.Command, g *globalOptions, question string) error {
	cfg, err := loadConfig(g)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	svc, err := newService(ctx, cfg, true)
	if err != nil {
		return err
	}
	answer, err := svc.Ask(ctx, question)
	if err != nil {
		logCommandError("ask", err)
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), answer)
	return nil
}
