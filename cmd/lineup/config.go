package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/steveyegge/lineup/internal/config"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		GroupID: "setup",
		Short:   "Inspect and change settings",
	}
	cmd.AddCommand(newConfigShowCmd(a), newConfigSetCmd(a), newConfigKeysCmd())
	return cmd
}

func newConfigShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the resolved settings (secrets redacted)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := redactSecrets(config.AllSettings())
			if a.jsonOutput {
				return outputJSON(cmd.OutOrStdout(), map[string]interface{}{
					"config_file": config.ConfigFileUsed(),
					"settings":    settings,
				})
			}
			w := cmd.OutOrStdout()
			if used := config.ConfigFileUsed(); used != "" {
				fmt.Fprintf(w, "# config file: %s\n", used)
			} else {
				fmt.Fprintln(w, "# no config file found; showing defaults and environment")
			}
			enc := yaml.NewEncoder(w)
			enc.SetIndent(2)
			if err := enc.Encode(settings); err != nil {
				return fmt.Errorf("encoding settings: %w", err)
			}
			return enc.Close()
		},
	}
}

func newConfigSetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Write a setting to the project config file",
		Long: `Writes key to .lineup/config.yaml, creating it in the current directory
when no project config exists. Secrets such as notion.token are refused;
set them through the environment instead.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.SetProjectValue(args[0], args[1])
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return outputJSON(cmd.OutOrStdout(), map[string]string{"key": args[0], "value": args[1], "file": path})
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s in %s\n", args[0], args[1], path)
			return err
		},
	}
}

func newConfigKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List recognised settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tENV\tDEFAULT\tDESCRIPTION")
			for _, k := range config.Keys {
				def := ""
				if k.Default != nil {
					def = fmt.Sprint(k.Default)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", k.Key, k.EnvVar, def, k.Description)
			}
			return tw.Flush()
		},
	}
}

// redactSecrets masks values of secret keys in a nested settings map.
func redactSecrets(settings map[string]interface{}) map[string]interface{} {
	var secrets []string
	for _, k := range config.Keys {
		if k.Secret {
			secrets = append(secrets, k.Key)
		}
	}
	for _, key := range secrets {
		parts := strings.Split(key, ".")
		m := settings
		for i, p := range parts {
			if i == len(parts)-1 {
				if v, ok := m[p]; ok && fmt.Sprint(v) != "" {
					m[p] = "********"
				}
				break
			}
			next, ok := m[p].(map[string]interface{})
			if !ok {
				break
			}
			m = next
		}
	}
	return settings
}
