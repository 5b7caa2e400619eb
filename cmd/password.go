package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"repfit/internal/cli"
)

// Password-specific flags
var (
	forgotEmail string
	resetToken  string
)

// passwordCmd groups the password recovery commands.
var passwordCmd = &cobra.Command{
	Use:   "password",
	Short: "Recover or reset your password",
}

var passwordForgotCmd = &cobra.Command{
	Use:   "forgot",
	Short: "Request a password reset email",
	Long: `Request a password reset email.

The backend replies with the same confirmation whether or not the
address has an account, so this cannot be used to probe for accounts.`,
	RunE: runPasswordForgot,
}

var passwordResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Set a new password using a reset token",
	RunE:  runPasswordReset,
}

func init() {
	passwordForgotCmd.Flags().StringVar(&forgotEmail, "email", "", "account email address")
	passwordResetCmd.Flags().StringVar(&resetToken, "token", "", "reset token from the password reset email")

	passwordCmd.AddCommand(passwordForgotCmd)
	passwordCmd.AddCommand(passwordResetCmd)
}

func runPasswordForgot(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	email := forgotEmail
	if email == "" {
		email, err = cli.PromptLine("Email: ")
		if err != nil {
			return err
		}
	}
	if email == "" {
		return fmt.Errorf("email must not be empty")
	}

	resp, err := app.client.ForgotPassword(cmd.Context(), email)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(resp.Message))
	return nil
}

func runPasswordReset(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	token := resetToken
	if token == "" {
		token, err = cli.PromptLine("Reset token: ")
		if err != nil {
			return err
		}
	}
	if token == "" {
		return fmt.Errorf("reset token must not be empty")
	}

	password, err := cli.PromptPassword("New password: ")
	if err != nil {
		return err
	}
	confirm, err := cli.PromptPassword("Confirm new password: ")
	if err != nil {
		return err
	}
	if password != confirm {
		return fmt.Errorf("passwords do not match")
	}

	resp, err := app.client.ResetPassword(cmd.Context(), token, password)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(resp.Message))
	return nil
}
