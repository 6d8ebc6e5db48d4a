package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/divyekant/docportal/internal/config"
)

func configCmdGroup() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View and update docportal configuration",
	}
	cmd.AddCommand(configGetCmd())
	cmd.AddCommand(configSetCmd())
	return cmd
}

func configGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get [key]",
		Short: "Show configuration values",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runConfigGet,
	}
}

func displayValue(cfg config.Config, key string) (string, error) {
	v, err := config.Get(cfg, key)
	if err != nil {
		return "", err
	}
	if config.IsSecret(key) {
		v = redactKey(v)
	}
	return v, nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if len(args) == 1 {
		key := args[0]
		val, err := displayValue(cfg, key)
		if err != nil {
			return err
		}
		writeOutput(cmd, map[string]string{key: val}, func() {
			fmt.Fprintf(out, "%s: %s\n", key, val)
		})
		return nil
	}

	values := map[string]string{}
	for _, k := range config.Keys() {
		values[k], _ = displayValue(cfg, k)
	}
	writeOutput(cmd, values, func() {
		fmt.Fprintf(out, "%s%sConfiguration%s\n\n", bold, cyan, reset)
		for _, k := range config.Keys() {
			v := values[k]
			if v == "" {
				v = "(not set)"
			}
			fmt.Fprintf(out, "  %-20s %s\n", k, v)
		}
	})
	return nil
}

func configSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value in the config file",
		Args:  cobra.ExactArgs(2),
		RunE:  runConfigSet,
	}
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := config.Set(&cfg, key, value); err != nil {
		return err
	}
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	shown, _ := displayValue(cfg, key)
	writeOutput(cmd, map[string]string{key: shown, "status": "saved"}, func() {
		fmt.Fprintf(cmd.OutOrStdout(), "%s✓%s Set %s = %s\n", green, reset, key, shown)
	})
	return nil
}
