package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/salmonumbrella/petadm/internal/config"
	clierrors "github.com/salmonumbrella/petadm/internal/errors"
	"github.com/salmonumbrella/petadm/internal/output"
	"github.com/salmonumbrella/petadm/internal/petapi"
	"github.com/salmonumbrella/petadm/internal/validate"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		Aliases: []string{"cfg"},
		Short:   "Manage CLI configuration",
		Long:    `Manage the petadm configuration file at ~/.config/petadm/config.yaml`,
	}
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigPathCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display the effective configuration",
		Long: `Display the configuration after environment overrides. The API URL
falls back to the public Pet Manager API when unset.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := ConfigFromContext(ctx)
			if cfg == nil {
				cfg = &config.Config{}
			}

			effective := *cfg
			if effective.APIURL == "" {
				effective.APIURL = petapi.DefaultBaseURL
			}

			// Round-trip through YAML so every format shows the file's key names.
			data, err := yaml.Marshal(&effective)
			if err != nil {
				return fmt.Errorf("failed to format config: %w", err)
			}
			var view map[string]interface{}
			if err := yaml.Unmarshal(data, &view); err != nil {
				return fmt.Errorf("failed to format config: %w", err)
			}
			return printerForContext(ctx).Print(ctx, view)
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration value in the config file.

Supported keys:
  api_url                  - Pet Manager API base URL
  output                   - Default output format (text, json, table, yaml)
  color                    - Default color mode (auto, always, never)
  log_format               - Log format (text, json)
  timeout                  - HTTP timeout (e.g. 30s)
  credential_store.backend - keyring, file or memory
  credential_store.path    - Database path for the file backend

Examples:
  petadm config set output table
  petadm config set credential_store.backend file`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			key, value := args[0], strings.TrimSpace(args[1])

			path, err := configPathFromContext(ctx)
			if err != nil {
				return err
			}
			cfg, err := config.ReadFromPath(path)
			if err != nil {
				return err
			}

			switch key {
			case "api_url":
				if err := validate.URL(key, value); err != nil {
					return err
				}
				cfg.APIURL = value
			case "output":
				format, err := output.ParseFormat(value)
				if err != nil {
					return &clierrors.ValidationError{Field: key, Message: err.Error()}
				}
				cfg.Output = string(format)
			case "color":
				cfg.Color = value
			case "log_format":
				cfg.LogFormat = value
			case "timeout":
				cfg.Timeout = value
			case "credential_store.backend":
				cfg.CredentialStore.Backend = value
			case "credential_store.path":
				cfg.CredentialStore.Path = value
			default:
				return clierrors.NewUserError(
					fmt.Sprintf("unknown config key %q", key),
					"Run 'petadm config set --help' for the supported keys",
				)
			}

			if err := cfg.Validate(); err != nil {
				return &clierrors.ValidationError{Field: key, Message: err.Error()}
			}
			if err := cfg.SaveToPath(path); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}
			_, _ = fmt.Fprintf(stdoutFromContext(ctx), "Set %s = %s\n", key, value)
			return nil
		},
	}
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path, err := configPathFromContext(ctx)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(stdoutFromContext(ctx), path)
			return nil
		},
	}
}
