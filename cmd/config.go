package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/encore/internal/config"
	"github.com/derickschaefer/encore/internal/render"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage encore configuration",
	Long: `Read and write encore configuration stored in config.json.

Values resolve in this order, later wins: built-in defaults, config.json,
.env, the process environment (ENCORE_BASE_URL, ENCORE_DB_PATH,
ENCORE_LOCALE), then flags.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a template config.json in the current directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.DefaultConfigFile
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config.json already exists at %s (delete it first to re-initialise)", path)
		}
		if err := config.WriteFile(path, config.Template()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Created %s\n", path)
		fmt.Fprintln(cmd.OutOrStdout(), "  Edit base_url if your venue's API lives elsewhere.")
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get [KEY]",
	Short: "Print the resolved configuration, or a single key",
	Example: `  encore config get
  encore config get timezone
  encore config get --format yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(config.Overrides{
			BaseURL: globalFlags.BaseURL,
			DBPath:  globalFlags.DBPath,
			Locale:  globalFlags.Locale,
		})
		if err != nil {
			return err
		}

		if len(args) == 1 {
			v, err := cfg.Get(strings.ToLower(args[0]))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), v)
			return nil
		}

		rows := make([][]string, 0, len(config.Keys)+2)
		for _, k := range config.Keys {
			v, _ := cfg.Get(k)
			rows = append(rows, []string{k, v})
		}
		rows = append(rows,
			[]string{"config_file", orNotFound(cfg.ConfigPath)},
			[]string{"env_file", orNotFound(cfg.EnvPath)},
		)

		format := resolveFormat(cfg.Format)
		if format == render.FormatTable {
			printSimpleTable(cmd.OutOrStdout(), []string{"KEY", "VALUE"}, func(add func(...string)) {
				for _, r := range rows {
					add(r...)
				}
			})
			return nil
		}
		return render.Render(cmd.OutOrStdout(), buildTableResult("config get", []string{"KEY", "VALUE"}, rows), format)
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value in config.json",
	Example: `  encore config set timezone Europe/Oslo
  encore config set refresh_cron "@hourly"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := strings.ToLower(args[0])

		// Load existing file or start from template
		f := config.Template()
		path := config.DefaultConfigFile
		existing, existingPath, err := config.LoadFile()
		switch {
		case err == nil:
			f, path = *existing, existingPath
		case !errors.Is(err, os.ErrNotExist):
			return err
		}

		if err := f.Set(key, args[1]); err != nil {
			return err
		}
		if err := config.WriteFile(path, f); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Set %s in %s\n", key, path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
}

func orNotFound(path string) string {
	if path == "" {
		return "(not found)"
	}
	return path
}
