package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"kairos/migrations"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig(false)
			if err != nil {
				return err
			}

			err = migrations.Migrate(cfg.Database.Driver, cfg.Database.DSN)
			if err != nil {
				return err
			}

			logrus.WithField("driver", cfg.Database.Driver).Info("database is up to date")

			return nil
		},
	}
}
