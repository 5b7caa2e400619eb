package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"repfit/internal/authclient"
	"repfit/internal/cli"
)

// Register-specific flags
var (
	registerEmail    string
	registerUsername string
)

// registerCmd represents the register command
var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a new repfit account",
	Long: `Create a new repfit account and sign in with it.

Missing fields are prompted for interactively. On success the new
session is stored locally, exactly as after a login.`,
	RunE: runRegister,
}

func init() {
	registerCmd.Flags().StringVar(&registerEmail, "email", "", "account email address")
	registerCmd.Flags().StringVar(&registerUsername, "username", "", "public username")
}

func runRegister(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	email := registerEmail
	if email == "" {
		email, err = cli.PromptLine("Email: ")
		if err != nil {
			return err
		}
	}
	if email == "" {
		return fmt.Errorf("email must not be empty")
	}

	username := registerUsername
	if username == "" {
		username, err = cli.PromptLine("Username: ")
		if err != nil {
			return err
		}
	}

	password, err := cli.PromptPassword("Password: ")
	if err != nil {
		return err
	}
	confirm, err := cli.PromptPassword("Confirm password: ")
	if err != nil {
		return err
	}
	if password != confirm {
		return fmt.Errorf("passwords do not match")
	}

	var user *authclient.User
	err = cli.RunWithSpinner("Creating account...", quiet, func() error {
		var regErr error
		user, regErr = app.sessions.Register(cmd.Context(), email, username, password)
		return regErr
	})
	if err != nil {
		return &cli.AuthFailedError{Reason: err}
	}

	name := email
	if user != nil && user.Name() != "" {
		name = user.Name()
	}
	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Account created, signed in as %s", name)))
	return nil
}
