package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/petadm/internal/config"
	"github.com/salmonumbrella/petadm/internal/debug"
	clierrors "github.com/salmonumbrella/petadm/internal/errors"
	"github.com/salmonumbrella/petadm/internal/iocontext"
	"github.com/salmonumbrella/petadm/internal/logging"
	"github.com/salmonumbrella/petadm/internal/output"
	"github.com/salmonumbrella/petadm/internal/ui"
)

func newRootCmd(app *App) *cobra.Command {
	// Global flags
	var (
		debugMode   bool
		verbose     bool
		format      = output.FormatText
		jqFlag      string
		jsonPath    string
		apiURL      string
		colorFlag   string
		configPath  string
		errorFormat string
		ephemeral   bool
	)

	rootCmd := &cobra.Command{
		Use:   "petadm",
		Short: "Admin CLI for the Pet Manager API",
		Long: `Manage pets and owners (tutores) in the Pet Manager API.

Log in once with 'petadm auth login'. Access tokens are renewed automatically
with the stored refresh token; when renewal fails the session is cleared and
you are asked to log in again.`,
		// Errors are printed by App.Execute in the selected error format.
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				// 'config path' still answers when the file is broken.
				if !isConfigPathCmd(cmd) {
					return err
				}
				cfg = &config.Config{}
			}

			if err := logging.Setup(logging.Options{
				Debug:   debugMode,
				Verbose: verbose,
				Format:  cfg.LogFormat,
				Writer:  app.Stderr,
			}); err != nil {
				return clierrors.WrapUserError(err, "invalid log_format in config", "Use text or json")
			}

			if err := validateErrorFormat(errorFormat); err != nil {
				return err
			}

			if !cmd.Flags().Changed("output") && cfg.GetOutput() != "" {
				if err := format.Set(cfg.GetOutput()); err != nil {
					return clierrors.WrapUserError(err, "invalid output in config", "Use one of: text, json, table, yaml")
				}
			}

			colorValue := cfg.GetColor()
			if cmd.Flags().Changed("color") {
				colorValue = colorFlag
			}
			colorMode, err := ui.ParseColorMode(colorValue)
			if err != nil {
				return clierrors.WrapUserError(err, "invalid --color", "Use one of: auto, always, never")
			}

			baseURL := strings.TrimSpace(apiURL)
			if baseURL == "" {
				baseURL = cfg.APIURL
			}

			ctx := iocontext.WithStreams(cmd.Context(), app.streams())
			ctx = output.WithFormat(ctx, format)
			ctx = output.WithQuery(ctx, jqFlag)
			ctx = output.WithJSONPath(ctx, jsonPath)
			ctx = debug.WithDebug(ctx, debugMode)
			ctx = WithConfig(ctx, cfg)
			ctx = withConfigPath(ctx, configPath)
			ctx = WithErrorFormat(ctx, errorFormat)
			ctx = ui.WithUI(ctx, ui.NewWithWriter(stderrFromContext(ctx), colorMode))

			loader := &serviceLoader{}
			opts := serviceOptions{apiURL: baseURL, ephemeral: ephemeral}
			loader.build = func() (*services, error) {
				return newServices(ctx, app, cfg, opts)
			}
			ctx = withServices(ctx, loader)

			cmd.SetContext(ctx)
			app.runCtx = ctx
			return nil
		},
	}

	rootCmd.Version = app.Version
	rootCmd.SetVersionTemplate(fmt.Sprintf("petadm %s (commit: %s, built: %s)\n", app.Version, app.Commit, app.BuildTime))

	pf := rootCmd.PersistentFlags()
	pf.VarP(&format, "output", "o", "Output format: text|json|table|yaml")
	pf.StringVar(&jqFlag, "jq", "", "JQ expression to filter output")
	pf.StringVar(&jsonPath, "jsonpath", "", "Extract a value using JSONPath (e.g. $.content[0].nome)")
	pf.StringVar(&apiURL, "api-url", "", "Pet Manager API base URL (overrides config and "+config.APIURLEnvVarName+")")
	pf.StringVar(&colorFlag, "color", "auto", "Color output: auto|always|never")
	pf.StringVar(&configPath, "config", "", "Config file path (default ~/.config/petadm/config.yaml)")
	pf.StringVar(&errorFormat, "error-format", "auto", "Error output format (auto|text|json|yaml)")
	pf.BoolVar(&ephemeral, "ephemeral", false, "Keep credentials in memory for this run only")
	pf.BoolVar(&debugMode, "debug", false, "Enable debug output (shows HTTP requests/responses)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Log session events")

	flagAlias(pf, "output", "format")
	flagAlias(pf, "jq", "query")

	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newPetsCmd())
	rootCmd.AddCommand(newTutoresCmd())
	rootCmd.AddCommand(newAPICmd())
	rootCmd.AddCommand(newConfigCmd())

	// Top-level shortcuts for the auth verbs used most.
	login := newAuthLoginCmd()
	login.Short = "Log in (alias for 'auth login')"
	rootCmd.AddCommand(login)

	logout := newAuthLogoutCmd()
	logout.Short = "End the session (alias for 'auth logout')"
	rootCmd.AddCommand(logout)

	return rootCmd
}

// loadConfig reads path, or the default config file when path is empty.
func loadConfig(path string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFromPath(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, clierrors.WrapUserError(err, "failed to load config", "Fix the file or run 'petadm config path' to locate it")
	}
	return cfg, nil
}

func isConfigPathCmd(cmd *cobra.Command) bool {
	return cmd.Name() == "path" && cmd.Parent() != nil && cmd.Parent().Name() == "config"
}
