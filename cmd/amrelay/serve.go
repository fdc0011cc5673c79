package main

import (
	"github.com/oukeidos/amrelay/internal/logger"
	"github.com/oukeidos/amrelay/internal/server"
	"github.com/oukeidos/amrelay/internal/version"
	"github.com/spf13/cobra"
)

type serveOptions struct {
	port int
}

func newServeCmd(g *globalOptions) *cobra.Command {
	opts := serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP relay (/ask, /translate, /healthz)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(g, &opts)
		},
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	cmd.Flags().IntVar(&opts.port, "port", 0, "Listen port (overrides PORT, default 3000)")
	return cmd
}

func runServe(g *globalOptions, opts *serveOptions) error {
	cfg, err := loadConfig(g)
	if err != nil {
		return err
	}
	if opts.port > 0 {
		cfg.Port = opts.port
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

	logger.Info("Starting relay",
		"version", version.Short(),
		"port", cfg.Port,
		"translation", cfg.TranslationProvider,
		"qa", cfg.AnswerProvider,
	)
	srv := server.New(svc, server.Config{
		Addr:            cfg.Addr(),
		AllowedOrigins:  cfg.CORSAllowedOrigins,
		ShutdownTimeout: cfg.ShutdownTimeout,
		Version:         version.Short(),
	})
	return srv.ListenAndServe(ctx)
}
