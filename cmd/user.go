package cmd

import (
	"context"

	"github.com/go-extras/cobraflags"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"kairos/auth"
	"kairos/store"
)

const (
	usernameFlag = "username"
	passwordFlag = "password"
)

var userFlags = map[string]cobraflags.Flag{
	usernameFlag: &cobraflags.StringFlag{
		Name:  usernameFlag,
		Value: "",
		Usage: "Login name of the new user (required)",
	},
	passwordFlag: &cobraflags.StringFlag{
		Name:  passwordFlag,
		Value: "",
		Usage: "Password of the new user (required)",
	},
}

func newUserCommand() *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage back office users",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user that can sign in to the back office",
		RunE:  createUserCommand,
	}
	cobraflags.RegisterMap(createCmd, userFlags)

	userCmd.AddCommand(createCmd)

	return userCmd
}

func createUserCommand(cmd *cobra.Command, _ []string) error {
	username := userFlags[usernameFlag].GetString()
	password := userFlags[passwordFlag].GetString()

	err := store.ValidateCredentials(username, password)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(false)
	if err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	hash, err := auth.NewPasswordHasher(cfg.Auth.BcryptCost).Hash(password)
	if err != nil {
		return err
	}

	u, err := st.CreateUser(context.Background(), username, hash)
	if err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{"id": u.ID, "username": u.Username}).Info("user created")

	return nil
}
