package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"repfit/internal/cli"
	"repfit/internal/session"
)

// logoutCmd represents the logout command
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and clear the stored session",
	Long: `Sign out of repfit.

Local credentials are removed first; the server-side sign-out is best
effort, so the local session is gone even when the backend cannot be
reached.`,
	RunE: runLogout,
}

func runLogout(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if app.sessions.State() != session.Authenticated {
		fmt.Fprintln(cmd.OutOrStdout(), "Not signed in.")
		return nil
	}

	app.sessions.Logout(cmd.Context())
	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Signed out"))
	return nil
}
