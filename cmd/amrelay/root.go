package main

import (
	"fmt"
	"os"

	"github.com/oukeidos/amrelay/internal/cleanup"
	"github.com/oukeidos/amrelay/internal/logger"
	"github.com/oukeidos/amrelay/internal/version"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type globalOptions struct {
	configFile    string
	envFile       string
	allowKeychain bool
	logFile       string
	logFormat     string
	debug         bool
}

func execute() {
	cmd := newRootCmd()
	err := cmd.Execute()
	if cleanupErr := cleanup.RunAll(); cleanupErr != nil {
		fmt.Fprintln(os.Stderr, cleanupErr)
		if err == nil {
			err = cleanupErr
		}
	}
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "amrelay",
		Short: "Amharic question relay",
		Long: "amrelay answers Amharic questions by translating them to English,\n" +
			"asking an answer provider, and translating the answer back.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := setupLogging(opts); err != nil {
				return err
			}
			logger.Debug("Command started", "command", cmd.CommandPath(), "flags", changedFlags(cmd))
			return nil
		},
		SilenceUsage: true,
	}

	cmd.Version = version.Info()
	cmd.SetVersionTemplate("{{.Version}}\n")
	cmd.SetUsageTemplate(rootUsageTemplate)

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "Path to a YAML config file")
	flags.StringVar(&opts.envFile, "env-file", "", "Path to a .env file (default: ./.env if present)")
	flags.BoolVar(&opts.allowKeychain, "allow-keychain", false, "Read missing API keys from the OS keychain")
	flags.StringVar(&opts.logFile, "log-file", "", "Path to save machine-readable JSONL logs")
	flags.StringVar(&opts.logFormat, "log-format", "pretty", "Console log format (pretty or json)")
	flags.BoolVar(&opts.debug, "debug", false, "Enable debug logging")

	cmd.AddCommand(
		newServeCmd(opts),
		newAskCmd(opts),
		newTranslateCmd(opts),
		newLanguagesCmd(),
		newEnvCmd(),
	)

	cmd.InitDefaultCompletionCmd()
	for _, sub := range cmd.Commands() {
		if sub.Name() == "completion" {
			sub.Short = "Generate the autocompletion script for the specified shell"
			sub.SetUsageTemplate(subcommandUsageTemplate)
			break
		}
	}

	return cmd
}

// changedFlags lists the flags set on the command line, names only.
func changedFlags(cmd *cobra.Command) []string {
	var names []string
	cmd.Flags().Visit(func(f *pflag.Flag) {
		names = append(names, f.Name)
	})
	return names
}
