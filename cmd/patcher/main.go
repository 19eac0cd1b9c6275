// Package main provides the patcher command-line tool.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"jsxpatch/internal/config"
	"jsxpatch/internal/logger"
	"jsxpatch/internal/patcher"
	"jsxpatch/internal/report"
	"jsxpatch/pkg/digest"
)

var version = "dev"

type options struct {
	configPath string
	logLevel   string
	recipe     string
	target     string
	dryRun     bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "patcher",
		Short: "Inject UI branches into front-end sources",
		Long: `patcher applies regular-expression recipes to front-end source files.

Without a config file it runs the built-in room-management recipe, which adds
a "Room Management" branch to ReceptionistDashboard.jsx in the current
directory. A config file is read from --config, or from ` + config.DefaultConfigPath + `
when present.`,
		Version:       version,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPatch(cmd, opts)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Path to YAML or TOML recipe file")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	flags.StringVarP(&opts.recipe, "recipe", "r", "", "Run only the named recipe")

	root.Flags().StringVarP(&opts.target, "target", "t", "", "Override the target file of the selected recipes")
	root.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Report what would change without writing")

	root.AddCommand(newRecipesCmd(opts), newHashCmd(), newInitCmd())

	return root
}

func newRecipesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "recipes",
		Short: "List configured recipes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig(opts.configPath)
			if err != nil {
				return err
			}

			recipes := cfg.Patcher.Recipes
			if opts.recipe != "" {
				r, err := cfg.GetRecipe(opts.recipe)
				if err != nil {
					return err
				}

				recipes = []config.RecipeConfig{r}
			}

			fmt.Fprintln(cmd.OutOrStdout(), report.Recipes(recipes))

			return nil
		},
	}
}

func newHashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash <file>",
		Short: "Print the SHA-256 of a file for use as expect_sha256",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read file: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", digest.Sum(string(data)), args[0])

			return nil
		},
	}
}

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init [path]",
		Short: "Write the built-in recipe to a config file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.DefaultConfigPath
			if len(args) == 1 {
				path = args[0]
			}

			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("refusing to overwrite %s", path)
			}

			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return fmt.Errorf("failed to create config directory: %w", err)
			}

			if err := config.Default().SaveConfig(path); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)

			return nil
		},
	}
}

func runPatch(cmd *cobra.Command, opts *options) error {
	if opts.logLevel != "" && !config.ValidLogLevel(opts.logLevel) {
		return fmt.Errorf("--log-level %q: %w", opts.logLevel, config.ErrInvalidLogLevel)
	}

	cfg, source, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}

	log := logger.NewLogger(cfg.Patcher.Logging.Level, cmd.ErrOrStderr()).With("run_id", uuid.NewString())
	if opts.logLevel != "" {
		log.SetLevel(opts.logLevel)
	}

	log.Debug("configuration loaded", "source", source, "config", cfg.String())

	recipes, err := selectRecipes(cfg, opts)
	if err != nil {
		return err
	}

	runner := patcher.NewRunner(log, cmd.OutOrStdout(), opts.dryRun)
	results, runErr := runner.Run(recipes)

	if len(results) > 0 {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out)
		fmt.Fprintln(out, report.Table(results))
		fmt.Fprintln(out, report.Summary(results))
	}

	return runErr
}

// loadConfig returns the config and where it came from.
func loadConfig(path string) (*config.Config, string, error) {
	if path == "" {
		if _, err := os.Stat(config.DefaultConfigPath); err == nil {
			path = config.DefaultConfigPath
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, "", fmt.Errorf("failed to check %s: %w", config.DefaultConfigPath, err)
		}
	}

	if path == "" {
		return config.Default(), "built-in", nil
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, "", err
	}

	return cfg, path, nil
}

// selectRecipes applies --recipe and --target. A recipe named explicitly
// runs even when disabled in the config.
func selectRecipes(cfg *config.Config, opts *options) ([]config.RecipeConfig, error) {
	recipes := cfg.GetEnabledRecipes()

	if opts.recipe != "" {
		r, err := cfg.GetRecipe(opts.recipe)
		if err != nil {
			return nil, err
		}

		recipes = []config.RecipeConfig{r}
	}

	if opts.target != "" {
		for i := range recipes {
			recipes[i].Target = opts.target
		}
	}

	return recipes, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
