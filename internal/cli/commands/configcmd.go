package commands

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/leomrlima/nosql/internal/config"
)

const configTemplate = `# nosql configuration
logging:
  level: info
  development: false

providers:
  cache:
    type: key-value
    provider: redis
    addr: localhost:6379
  main:
    type: column
    provider: postgres
    url: postgres://localhost:5432/app?sslmode=disable
  local:
    type: document
    provider: jsonfile
    path: data/entities.json
  graph:
    type: graph
    provider: neo4j
    uri: neo4j://localhost:7687
    username: neo4j
    password: secret
`

// NewConfigCommand creates the config command
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage nosql configuration",
	}
	cmd.AddCommand(newConfigInitCommand())
	return cmd
}

func newConfigInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter nosql.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			if config.HasConfigFile() && !force {
				return fmt.Errorf("nosql.yml already exists (use --force to overwrite)")
			}
			if err := os.WriteFile("nosql.yml", []byte(configTemplate), 0644); err != nil {
				return fmt.Errorf("failed to write nosql.yml: %w", err)
			}
			color.Green("Created nosql.yml")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	return cmd
}
