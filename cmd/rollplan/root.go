package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/megastock/rollplan/internal/model"
	"github.com/megastock/rollplan/internal/project"
)

var (
	cfgFile   string
	debug     bool
	logFormat string
	ordersArg string

	cfg model.AppConfig
	log = logrus.New()
)

var rootCmd = &cobra.Command{
	Use:   "rollplan",
	Short: "Corrugator roll planning",
	Long: `rollplan combines box production orders into roll runs on the
corrugator, choosing roll widths and cavity multipliers that minimise trim
and replanning large shortfalls as leftover runs.`,
	SilenceUsage: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.rollplan/config.json)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text or json")
	rootCmd.PersistentFlags().StringVar(&ordersArg, "orders", "", "order book file (default from config)")
}

func initConfig() {
	path := cfgFile
	if path == "" {
		path = project.DefaultConfigPath()
	}

	var err error
	cfg, err = project.LoadAppConfig(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	configureLogger(log, cfg, debug, logFormat)
}

// configureLogger applies level and formatter from config and flags.
// Flags win over the config file.
func configureLogger(l *logrus.Logger, c model.AppConfig, debug bool, format string) {
	l.SetOutput(os.Stderr)

	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	if debug {
		level = logrus.DebugLevel
	}
	l.SetLevel(level)

	if format == "" {
		format = c.LogFormat
	}
	if format == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

func ordersPath() string {
	if ordersArg != "" {
		return ordersArg
	}
	return cfg.OrdersPath
}

func catalogPath() string {
	if cfg.CatalogPath != "" {
		return cfg.CatalogPath
	}
	return project.DefaultCatalogPath()
}

func loadCatalog() (model.Catalog, error) {
	return project.LoadCatalog(catalogPath())
}
