package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/roach88/filmclub/internal/dispatch"
)

// NewCommandsCommand creates the commands command, which prints the slash
// command definitions to register with Discord.
func NewCommandsCommand(rootOpts *RootOptions) *cobra.Command {
	var searchable bool

	cmd := &cobra.Command{
		Use:   "commands",
		Short: "Print slash command definitions for registration",
		Long: `Print the application command definitions as JSON.

The output is the body for a bulk overwrite of the application's commands,
e.g. PUT /applications/<id>/commands.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defs := dispatch.RegisteredCommands(searchable)
			if rootOpts.Format == "json" {
				return newFormatter(cmd, rootOpts).Success(defs)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(defs)
		},
	}
	cmd.Flags().BoolVar(&searchable, "autocomplete-nominate", false, "advertise /nominate autocomplete")
	return cmd
}
