// Package cmd provides the command-line interface for nucleator.
//
// Configuration sources, highest priority first:
//  1. Command-line flags (--port, --fragments, ...)
//  2. Environment variables (NUCLEATOR_SERVER_PORT, ...)
//  3. Configuration file (.nucleator.yml)
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/nucleator/internal/config"
	"github.com/conneroisu/nucleator/internal/logging"
)

var (
	cfgFile string
	v       *viper.Viper
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "nucleator",
	Short: "A live preview compiler for Nucleus templates",
	Long: `Nucleator compiles Nucleus template source into standalone HTML
documents and serves a live in-browser editor with instant recompilation.

Quick Start:
  nucleator serve                 Start the preview server
  nucleator compile page.ncl      Compile a source file to HTML
  nucleator version               Show version information`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .nucleator.yml)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "", "log level (debug, info, warn, error)")
}

// initConfig runs after flag parsing and before any RunE.
func initConfig() {
	var err error
	v, err = config.NewViper(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	bindFlag := func(key string, flag string, cmd *cobra.Command) {
		f := cmd.Flags().Lookup(flag)
		if f != nil && f.Changed {
			v.Set(key, f.Value.String())
		}
	}

	if f := rootCmd.PersistentFlags().Lookup("log-level"); f != nil && f.Changed {
		v.Set("logging.level", f.Value.String())
	}
	bindFlag("server.port", "port", serveCmd)
	bindFlag("server.host", "host", serveCmd)
	bindFlag("fragments.dir", "fragments", serveCmd)
	bindFlag("preview.mock_data", "data", serveCmd)
	if f := serveCmd.Flags().Lookup("open"); f != nil && f.Changed {
		v.Set("server.open", f.Value.String() == "true")
	}
}

// loadConfig builds the validated Config after initConfig ran.
func loadConfig() (*config.Config, error) {
	return config.Load(v)
}

// newLogger builds the process logger from the loaded config.
func newLogger(cfg *config.Config) logging.Logger {
	return logging.NewLogger(&logging.LoggerConfig{
		Level:  logging.ParseLevel(cfg.Logging.Level),
		Format: cfg.Logging.Format,
		Output: os.Stderr,
	})
}
