package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"holograph/internal/config"
	"holograph/internal/logging"
)

var (
	// Global flags
	configPath  string
	sessionName string
	verbose     bool

	// Logger
	logger *zap.Logger
	cfg    *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "holo",
	Short: "holograph - holographic knowledge-base engine",
	Long: `holograph is a hyperdimensional knowledge-base engine.

Facts are encoded as high-dimensional vectors and superposed into a single
knowledge-base bundle; queries with holes are answered by unbinding the
bundle, validated exactly against a Mangle (Datalog) proof engine, and
merged with the symbolic result set.

All vectors are deterministic derivations of their names: sessions persist
only the symbolic content and re-encode on load.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		enabled := make(map[string]bool, len(cfg.Logging.Enabled))
		for _, c := range cfg.Logging.Enabled {
			enabled[c] = true
		}
		return logging.Initialize(cfg.Logging.Workspace, cfg.Logging.Debug || verbose, cfg.Logging.Level, enabled)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "holograph.yaml", "config file path")
	rootCmd.PersistentFlags().StringVar(&sessionName, "session", "default", "session name")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")

	rootCmd.AddCommand(assertCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(markCmd)
	rootCmd.AddCommand(conformanceCmd)
	rootCmd.AddCommand(sessionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error: "+err.Error()))
		os.Exit(1)
	}
}
