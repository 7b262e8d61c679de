package commands

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/leomrlima/nosql/internal/cli/ui"
	"github.com/leomrlima/nosql/provider"
)

// NewProvidersCommand creates the providers command
func NewProvidersCommand() *cobra.Command {
	var noColor bool

	cmd := &cobra.Command{
		Use:   "providers",
		Short: "List registered database providers",
		Long:  "Display every provider registered in the default registry, sorted by database type",
		Run: func(cmd *cobra.Command, args []string) {
			keys := provider.Default.Keys()
			if len(keys) == 0 {
				color.Yellow("No providers registered")
				return
			}

			table := ui.NewTable(cmd.OutOrStdout(), []string{"TYPE", "PROVIDER"}, &ui.TableOptions{NoColor: noColor})
			for _, key := range keys {
				table.AddRow(key.Database.String(), key.Provider)
			}
			table.Render()
		},
	}

	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	return cmd
}
