package main

import (
	"fmt"

	"github.com/oukeidos/amrelay/internal/language"
	"github.com/spf13/cobra"
)

func newLanguagesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "languages",
		Aliases: []string{"list"},
		Short:   "List named languages and their provider ids",
		Args:    cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "Supported Languages:")
			for _, l := range language.GetSupportedLanguages() {
				fmt.Fprintf(cmd.OutOrStdout(), "  %-12s [%s] id=%d\n", l.Name, l.Code, l.ID)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Other numeric ids are passed to the translation provider as-is.")
		},
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	return cmd
}
