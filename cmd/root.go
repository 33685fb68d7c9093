package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/finnorm-cli/internal/config"
	"github.com/KaramelBytes/finnorm-cli/internal/logger"
	"github.com/KaramelBytes/finnorm-cli/internal/normalize"
)

var (
	// Global flags
	cfgFile       string
	debug         bool
	flagLocale    string
	flagDateOrder string
	flagThreshold float64
	flagFormat    string

	// Loaded configuration
	cfg *cfgpkg.Global
	log = zerolog.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "finnorm",
	Short: "finnorm: normalize, query and aggregate financial spreadsheets",
	Long: `finnorm reads bank statements and ledgers (CSV, TSV, XLSX), detects which
columns hold amounts and dates, normalizes their many formats and answers
date-range, amount-range and grouped aggregate queries over the result.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cmd.SetContext(logger.WithContext(cmd.Context(), log))
		return nil
	},
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	// Persistent global flags available to all subcommands
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is ~/.finnorm/config.yaml)")
	pf.BoolVar(&debug, "debug", false, "enable debug logging")
	pf.StringVar(&flagLocale, "locale", "", "amount locale policy: compat|auto|decimal-comma (overrides config)")
	pf.StringVar(&flagDateOrder, "date-order", "", "ambiguous date order: month-first|day-first (overrides config)")
	pf.Float64Var(&flagThreshold, "threshold", 0, "type detection confidence threshold in (0,1] (overrides config)")
	pf.StringVar(&flagFormat, "format", "", "output format: table|json|yaml (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: fall back to defaults so parse/inspect still work
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		d := cfgpkg.Defaults()
		c = &d
	}
	cfg = c

	// Apply CLI overrides if provided
	f := rootCmd.PersistentFlags()
	if f.Changed("locale") {
		cfg.Locale = flagLocale
	}
	if f.Changed("date-order") {
		cfg.DateOrder = flagDateOrder
	}
	if f.Changed("threshold") && flagThreshold > 0 {
		cfg.DetectThreshold = flagThreshold
	}
	if f.Changed("format") {
		cfg.OutputFormat = flagFormat
	}

	log = logger.New(debug)
	if !debug {
		log = log.Level(logger.ParseLevel(cfg.LogLevel))
	}
}

// currentConfig returns the loaded configuration, or defaults when the
// initializer has not run.
func currentConfig() *cfgpkg.Global {
	if cfg == nil {
		d := cfgpkg.Defaults()
		cfg = &d
	}
	return cfg
}

// normalizer builds the normalization policy from configuration.
func normalizer() (normalize.Normalizer, error) {
	c := currentConfig()
	loc, err := normalize.ParseLocale(c.Locale)
	if err != nil {
		return normalize.Normalizer{}, err
	}
	order, err := normalize.ParseDateOrder(c.DateOrder)
	if err != nil {
		return normalize.Normalizer{}, err
	}
	return normalize.Normalizer{Locale: loc, DateOrder: order}, nil
}
