package main

import (
	"fmt"
	"os"

	"github.com/oukeidos/amrelay/internal/auth"
	"github.com/spf13/cobra"
)

type envOptions struct {
	service string
	yes     bool
}

func newEnvCmd() *cobra.Command {
	opts := envOptions{}
	cmd := &cobra.Command{
		Use:   "env",
		Short: "Manage provider API keys in OS Keychain",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnvStatus(cmd, &opts)
		},
	}

	cmd.SetUsageTemplate(envUsageTemplate)
	cmd.PersistentFlags().StringVar(&opts.service, "service", "camb", "Service to manage (camb, gemini, google, or openai)")

	cmd.AddCommand(
		newEnvSetupCmd(&opts),
		newEnvDeleteCmd(&opts),
		newEnvStatusCmd(&opts),
	)
	return cmd
}

func newEnvSetupCmd(opts *envOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Save API key to keychain (prompt only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnvSetup(cmd, opts)
		},
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	return cmd
}

func newEnvDeleteCmd(opts *envOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete key from keychain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnvDelete(cmd, opts)
		},
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "Delete without asking")
	return cmd
}

func newEnvStatusCmd(opts *envOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show key status (default if no action given)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnvStatus(cmd, opts)
		},
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	return cmd
}

func runEnvSetup(cmd *cobra.Command, opts *envOptions) error {
	p, err := auth.Lookup(opts.service)
	if err != nil {
		return err
	}
	if !isTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("setup needs an interactive terminal; set %s instead", p.EnvVar)
	}

	key, err := promptForKey(fmt.Sprintf("%s API Key: ", p.DisplayName))
	if err != nil {
		return fmt.Errorf("error reading key: %w", err)
	}
	if key == "" {
		return fmt.Errorf("API key is required for setup")
	}
	if err := saveKey(p.Name, key); err != nil {
		return fmt.Errorf("error saving key: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved %s API key to keychain.\n", p.Name)
	return nil
}

func runEnvDelete(cmd *cobra.Command, opts *envOptions) error {
	p, err := auth.Lookup(opts.service)
	if err != nil {
		return err
	}
	ok, err := newConfirmer().Confirm(fmt.Sprintf("Delete the %s API key from the keychain?", p.DisplayName), opts.yes)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
		return nil
	}
	if err := deleteKey(p.Name); err != nil {
		return fmt.Errorf("error deleting key: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s API key from keychain.\n", p.Name)
	return nil
}

func runEnvStatus(cmd *cobra.Command, opts *envOptions) error {
	p, err := auth.Lookup(opts.service)
	if err != nil {
		return err
	}

	if envKey, ok := getEnvKey(p.Name); ok && envKey != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "%s API Key: Found (source=Environment Variable %s)\n", p.Name, p.EnvVar)
		return nil
	}
	if getStatus(p.Name) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s API Key: Found (source=Keychain; used only with --allow-keychain)\n", p.Name)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s API Key: Not Found (env %s not set, keychain empty)\n", p.Name, p.EnvVar)
	return nil
}
