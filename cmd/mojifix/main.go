package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mojifix/internal/config"
	"mojifix/internal/fixer"
	"mojifix/internal/logging"
	"mojifix/internal/report"
)

var (
	// Global flags
	verbose    bool
	workspace  string
	configPath string
	strict     bool

	// Populated by PersistentPreRunE
	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "mojifix [files...]",
	Short: "mojifix - repair CP437-mangled area units in report files",
	Long: `mojifix repairs text files whose superscript two (²) came back from a
CP437 round-trip as the two-character sequence ┬▓.

Each target is decoded as UTF-16 (BOM required), falling back to UTF-8.
Every corrupted area unit (m┬▓, mm┬▓, cm┬▓, in┬▓, ft┬▓) is replaced with
its clean form and changed files are written back as UTF-8 without a BOM.

Run without arguments to process the configured target list once. Pass
file names to override the list for a single run.`,
	// Positional names are target files, not subcommands.
	Args: cobra.ArbitraryArgs,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Config discovery follows the workspace unless --config points
		// somewhere else.
		path := configPath
		if workspace != "" && !cmd.Flags().Changed("config") {
			path = filepath.Join(workspace, config.DefaultPath())
		}
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return err
		}
		if workspace != "" {
			cfg.Workspace = workspace
		}
		if strict {
			cfg.Strict = true
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		// Initialize logger
		logger, err = logging.Build(cfg.Logging, verbose)
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runFix,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Workspace directory (default: from config)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "Config file path")
	rootCmd.PersistentFlags().BoolVar(&strict, "strict", false, "Exit non-zero when any file fails")

	// Add commands to root
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(tableCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runFix performs one repair pass over the target list.
func runFix(cmd *cobra.Command, args []string) error {
	files := targetList(args)
	logger.Debug("Resolved targets",
		zap.Strings("files", files),
		zap.String("workspace", cfg.Workspace))

	writer := report.NewWriter(cmd.OutOrStdout(), logger, verbose)
	runner := fixer.NewRunner(fixer.New(cfg.Workspace, logger), writer, logger)
	rep := runner.Run(files)

	if cfg.Strict && rep.Failed() {
		return fmt.Errorf("%d of %d file(s) failed", rep.Errors, len(rep.Results))
	}
	return nil
}

// targetList returns the positional override when present, otherwise the
// configured list.
func targetList(args []string) []string {
	if len(args) > 0 {
		return args
	}
	return cfg.Files
}
