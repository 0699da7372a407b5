package cmd

import (
	"fmt"
	"os"

	"github.com/gookit/color"
	"github.com/spf13/cobra"

	cfgpkg "github.com/decyjphr/github-repository-analysis/internal/config"
	"github.com/decyjphr/github-repository-analysis/internal/logger"
)

var (
	// Global flags
	cfgFile        string
	debug          bool
	noColor        bool
	flagNoBg       bool
	flagSyncThresh int
	flagMaxRows    int

	// Loaded configuration and logger
	cfg *cfgpkg.Global
	log = logger.NewDefault()
)

var rootCmd = &cobra.Command{
	Use:   "repostats",
	Short: "repostats: descriptive statistics for GitHub repository exports",
	Long: `repostats reads gh-repo-stats CSV exports and reports descriptive statistics,
histograms, percentile breakdowns and reduced scatter projections of repository metadata.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	cobra.OnInitialize(loadConfig)
	err := rootCmd.Execute()
	_ = log.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.repostats/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable coloured terminal output")
	rootCmd.PersistentFlags().BoolVar(&flagNoBg, "no-background", false, "run every computation inline (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagSyncThresh, "sync-threshold", 0, "inputs below this size run inline (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagMaxRows, "max-rows", 0, "maximum CSV rows to read (0 = unlimited)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: fall back to built-in defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = cfgpkg.Default()
	}
	cfg = c

	f := rootCmd.PersistentFlags()
	if f.Changed("no-background") && flagNoBg {
		cfg.BackgroundEnabled = false
	}
	if f.Changed("sync-threshold") && flagSyncThresh > 0 {
		cfg.SyncThreshold = flagSyncThresh
	}
	if debug {
		cfg.LogLevel = "debug"
	}
	if noColor {
		color.Enable = false
	}

	l, err := logger.New(cfg.Logging())
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to init logger: %v\n", err)
		return
	}
	log = l
}

// currentConfig returns the loaded configuration, or defaults when loading
// was skipped.
func currentConfig() *cfgpkg.Global {
	if cfg == nil {
		cfg = cfgpkg.Default()
	}
	return cfg
}
