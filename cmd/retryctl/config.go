package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/relaypoint/retry/internal/rconfig"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or write a retry policy TOML configuration",
	}

	cmd.AddCommand(newConfigShowCmd(), newConfigInitCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective policy configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := rconfig.DefaultPolicyConfig()
			if configPath != "" {
				loaded, err := rconfig.Load(configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			fmt.Printf("%+v\n", cfg)
			return nil
		},
	}
}

func newConfigInitCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default policy configuration to a TOML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return rconfig.Save(out, rconfig.DefaultPolicyConfig())
		},
	}
	cmd.Flags().StringVar(&out, "out", "retry.toml", "output path")
	return cmd
}
