// Package cmd holds the kairos command line: the HTTP server and the
// maintenance commands around it.
package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"kairos/config"
	"kairos/store"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "kairos",
	Short: "Point-of-sale and inventory back office",
	Long: `Kairos runs the back office of a small retail shop: catalog, customers,
checkout, sales history and reports.

Settings come from an optional config file and KAIROS_* environment
variables, e.g. KAIROS_DATABASE_DSN for database.dsn.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a config file (yaml, json or toml)")

	rootCmd.AddCommand(
		newServeCommand(),
		newMigrateCommand(),
		newUserCommand(),
		newCatalogCommand(),
	)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads and checks the configuration, then sets up logging.
func loadConfig(serving bool) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if serving {
		err = cfg.ValidateServe()
	} else {
		err = cfg.Validate()
	}
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	err = config.SetupLogging(cfg.Log)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func openStore(cfg *config.Config) (*store.Store, error) {
	loc, err := cfg.Reports.Location()
	if err != nil {
		return nil, err
	}

	return store.Open(cfg.Database.Driver, cfg.Database.DSN, store.Options{
		StrictStock: !cfg.Sales.AllowNegativeStock,
		VerifyTotal: cfg.Sales.VerifyTotal,
		Location:    loc,
		Logger:      logrus.StandardLogger(),
	})
}
