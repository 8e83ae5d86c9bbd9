package cmd

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"kairos/api"
	"kairos/auth"
	"kairos/migrations"
	"kairos/notify"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Migrate the database and serve the API and UI",
		RunE:  serveCommand,
	}
}

func serveCommand(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig(true)
	if err != nil {
		return err
	}

	err = migrations.Migrate(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		logrus.WithError(err).Fatal("failed to migrate")
	}

	st, err := openStore(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("failed to open DB")
	}
	defer st.Close()

	loc, err := cfg.Reports.Location()
	if err != nil {
		return err
	}

	log := logrus.StandardLogger()

	srv := api.New(
		st,
		auth.NewTokens(cfg.Auth.Secret, cfg.Auth.SessionTTL),
		auth.NewPasswordHasher(cfg.Auth.BcryptCost),
		notify.NewHub(log),
		api.Config{
			CookieName:   cfg.Auth.CookieName,
			SecureCookie: cfg.HTTP.TLS(),
			LowStock:     cfg.Reports.LowStockThreshold,
			Location:     loc,
			Shop:         cfg.Shop.Name,
			AccessLog:    true,
			Logger:       log,
		},
	)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		err := srv.Listen(cfg.HTTP.BindAddr, cfg.HTTP.TLSCert, cfg.HTTP.TLSKey)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("failed to start web server")
		}
	}()

	logrus.WithFields(logrus.Fields{
		"addr":   cfg.HTTP.BindAddr,
		"tls":    cfg.HTTP.TLS(),
		"driver": cfg.Database.Driver,
	}).Info("web server started")

	exit := make(chan os.Signal, 1)
	signal.Notify(exit, os.Interrupt, syscall.SIGTERM)
	<-exit

	err = srv.Shutdown()
	if err != nil {
		logrus.WithError(err).Fatal("failed to shutdown web server")
	}

	wg.Wait()

	logrus.Info("web server stopped")

	return nil
}
