package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/oukeidos/amrelay/internal/apperrors"
	"github.com/oukeidos/amrelay/internal/language"
	"github.com/oukeidos/amrelay/internal/logger"
	"github.com/spf13/cobra"
)

type translateOptions struct {
	sourceLang string
	targetLang string
}

func newTranslateCmd(g *globalOptions) *cobra.Command {
	opts := translateOptions{}
	cmd := &cobra.Command{
		Use:   "translate <text>",
		Short: "Translate text with the configured translation provider",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslate(cmd, g, &opts, strings.Join(args, " "))
		},
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	cmd.Flags().StringVar(&opts.sourceLang, "source", "am", "Source language code, name, or provider id")
	cmd.Flags().StringVar(&opts.targetLang, "target", "en", "Target language code, name, or provider id")
	return cmd
}

func runTranslate(cmd *cobra.Command, g *globalOptions, opts *translateOptions, text string) error {
	source, err := language.Parse(opts.sourceLang)
	if err != nil {
		return fmt.Errorf("invalid --source: %w", err)
	}
	target, err := language.Parse(opts.targetLang)
	if err != nil {
		return fmt.Errorf("invalid --target: %w", err)
	}

	cfg, err := loadConfig(g)
	if err != nil {
		return err
	}
	if err := cfg.ValidateTranslation(); err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	svc, err := newService(ctx, cfg, false)
	if err != nil {
		return err
	}
	logger.Debug("Translating", "source", source.String(), "target", target.String())
	out, err := svc.Translate(ctx, text, source, target)
	if err != nil {
		logCommandError("translate", err)
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

// logCommandError records the internal cause; cobra prints only the safe
// message.
func logCommandError(command string, err error) {
	kind, _ := apperrors.KindOf(err)
	var appErr *apperrors.Error
	if errors.As(err, &appErr) && appErr.Cause != nil {
		logger.Debug("Command failed", "command", command, "kind", string(kind), "cause", appErr.Cause.Error())
		return
	}
	logger.Debug("Command failed", "command", command, "kind", string(kind), "cause", err.Error())
}
