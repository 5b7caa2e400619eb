package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"repfit/internal/authclient"
	"repfit/internal/cli"
)

// Login-specific flags
var (
	loginEmail string
)

// loginCmd represents the login command
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with email and password",
	Long: `Sign in to repfit with your email and password.

The obtained session is stored locally and kept fresh in the background
by subsequent commands. Missing credentials are prompted for
interactively; the password is never echoed.

Examples:
  repfit login                       # Prompt for email and password
  repfit login --email jo@example.com`,
	RunE: runLogin,
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "account email address")
}

func runLogin(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	email := loginEmail
	if email == "" {
		email, err = cli.PromptLine("Email: ")
		if err != nil {
			return err
		}
	}
	if email == "" {
		return fmt.Errorf("email must not be empty")
	}

	password, err := cli.PromptPassword("Password: ")
	if err != nil {
		return err
	}

	var user *authclient.User
	err = cli.RunWithSpinner("Signing in...", quiet, func() error {
		var loginErr error
		user, loginErr = app.sessions.Login(cmd.Context(), email, password)
		return loginErr
	})
	if err != nil {
		return &cli.AuthFailedError{Reason: err}
	}

	name := email
	if user != nil && user.Name() != "" {
		name = user.Name()
	}
	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Signed in as %s", name)))
	return nil
}
