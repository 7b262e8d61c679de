package commands

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/leomrlima/nosql/internal/config"
	"github.com/leomrlima/nosql/provider"
)

// NewPingCommand creates the ping command
func NewPingCommand() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "ping [name...]",
		Short: "Check connectivity to configured providers",
		Long:  "Open each provider configured in nosql.yml and report whether it responds",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if len(cfg.Providers) == 0 {
				color.Yellow("No providers configured in nosql.yml")
				return nil
			}

			names := args
			if len(names) == 0 {
				for name := range cfg.Providers {
					names = append(names, name)
				}
				sort.Strings(names)
			}

			okColor := color.New(color.FgGreen, color.Bold)
			failColor := color.New(color.FgRed, color.Bold)

			failures := 0
			for _, name := range names {
				pc, ok := cfg.Providers[name]
				if !ok {
					return fmt.Errorf("provider %q is not configured", name)
				}
				if err := pingProvider(cmd.Context(), pc, timeout); err != nil {
					failColor.Fprintf(cmd.OutOrStdout(), "✗ %s: %v\n", name, err)
					failures++
					continue
				}
				okColor.Fprintf(cmd.OutOrStdout(), "✓ %s\n", name)
			}

			if failures > 0 {
				return fmt.Errorf("%d of %d providers unreachable", failures, len(names))
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "Per-provider connection timeout")
	return cmd
}

func pingProvider(ctx context.Context, pc config.ProviderConfig, timeout time.Duration) error {
	key, err := pc.Key()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	session, err := provider.Open(ctx, key.Database, key.Provider, pc.Settings())
	if err != nil {
		return err
	}
	defer session.Close()

	return session.Ping(ctx)
}
