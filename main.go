// Package main provides the entitime CLI entry point.
// entitime extracts named-entity timelines from transcripts and scores
// predicted timelines against ground truth.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/entitime/cmd"
	"github.com/otherjamesbrown/entitime/config"
	"github.com/otherjamesbrown/entitime/pkg/buildinfo"
	"github.com/otherjamesbrown/entitime/pkg/logging"
)

// Global flags and state.
var (
	cfgFile   string
	logLevel  string
	logFormat string
	debug     bool

	// cfg holds the loaded configuration.
	cfg *config.CLIConfig
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "entitime",
	Short: "Entity timeline extraction and transcript evaluation",
	Long: `entitime extracts named-entity timelines from transcripts and evaluates
predicted timelines against ground truth.

WORKFLOWS:
  Extract entities:  entitime auth set-key  →  entitime extract transcript.txt ./out
  Score prediction:  entitime analyze truth/timeline.json truth/transcript.txt \
                         pred/timeline.json pred/transcript.txt ./results

The analyze step matches entities one-to-one within each type using fuzzy
text similarity, then reports per-type precision/recall, overall accuracy,
transcript word error rate, and entity-aware error rates.

DISCOVERY:
  entitime <command> --help   Subcommands, flags, and examples for any command
  entitime version            Build information`,
	PersistentPreRunE: func(c *cobra.Command, args []string) error {
		// Skip configuration for commands that don't need it.
		if c.Name() == "version" || c.Name() == "help" || c.Name() == "completion" {
			return nil
		}

		var err error
		if cfgFile != "" {
			cfg, err = config.LoadConfigFrom(cfgFile)
		} else {
			cfg, err = config.LoadConfig()
		}
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}

		// Override with command-line flags.
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}
		if logFormat != "" {
			cfg.LogFormat = logFormat
		}
		if debug {
			cfg.LogLevel = "debug"
		}

		return nil
	},
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(c *cobra.Command, args []string) error {
		info := buildinfo.Get()
		out := c.OutOrStdout()
		fmt.Fprintf(out, "entitime version %s\n", info.Version)
		fmt.Fprintf(out, "  commit:  %s\n", info.Commit)
		fmt.Fprintf(out, "  built:   %s\n", info.BuildTime)
		fmt.Fprintf(out, "  go:      %s\n", info.GoVersion)
		return nil
	},
}

// newLogger builds the CLI logger from the loaded configuration.
func newLogger() logging.Logger {
	logCfg := logging.DefaultConfig()
	if cfg != nil {
		logCfg.Level = logging.Level(cfg.LogLevel)
		logCfg.JSONFormat = cfg.LogFormat == "json"
	}
	return logging.NewLogger(logCfg)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default ~/.entitime/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: console or json")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Shorthand for --log-level debug")

	deps := cmd.DefaultDeps()
	deps.Config = func() (*config.CLIConfig, error) {
		if cfg == nil {
			return config.LoadConfig()
		}
		return cfg, nil
	}
	deps.Logger = newLogger

	rootCmd.AddCommand(cmd.NewExtractCommand(deps))
	rootCmd.AddCommand(cmd.NewAnalyzeCommand(deps))
	rootCmd.AddCommand(cmd.NewAuthCommand(deps))
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
