package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"repfit/internal/authclient"
	"repfit/internal/cli"
)

// OAuth complete-specific flags
var (
	oauthState string
	oauthCode  string
)

// oauthCmd groups the two halves of the redirect-based sign-in flow.
var oauthCmd = &cobra.Command{
	Use:   "oauth",
	Short: "Sign in through a third-party provider",
	Long: `Sign in to repfit through a third-party identity provider.

The flow has two halves because the provider redirect happens in your
browser:

  repfit oauth begin google         # prints the provider URL to visit
  repfit oauth complete --state <s> --code <c>

The state token printed back by the provider must match the one issued
at begin; a mismatch aborts the sign-in.`,
}

var oauthBeginCmd = &cobra.Command{
	Use:   "begin <provider>",
	Short: "Start a third-party sign-in",
	Args:  cobra.ExactArgs(1),
	RunE:  runOAuthBegin,
}

var oauthCompleteCmd = &cobra.Command{
	Use:   "complete",
	Short: "Finish a third-party sign-in with the redirect result",
	RunE:  runOAuthComplete,
}

func init() {
	oauthCompleteCmd.Flags().StringVar(&oauthState, "state", "", "state token returned by the provider redirect")
	oauthCompleteCmd.Flags().StringVar(&oauthCode, "code", "", "authorization code returned by the provider redirect")
	_ = oauthCompleteCmd.MarkFlagRequired("state")
	_ = oauthCompleteCmd.MarkFlagRequired("code")

	oauthCmd.AddCommand(oauthBeginCmd)
	oauthCmd.AddCommand(oauthCompleteCmd)
}

func runOAuthBegin(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	provider := args[0]

	var authURL string
	err = cli.RunWithSpinner("Contacting provider...", quiet, func() error {
		var beginErr error
		authURL, beginErr = app.oauth.Begin(cmd.Context(), provider)
		return beginErr
	})
	if err != nil {
		return &cli.AuthFailedError{Reason: err}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Open the following URL in your browser to sign in with %s:\n\n", provider)
	fmt.Fprintf(out, "  %s\n\n", authURL)
	fmt.Fprintln(out, "Then finish with:")
	fmt.Fprintln(out, "  repfit oauth complete --state <state> --code <code>")
	return nil
}

func runOAuthComplete(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	var user *authclient.User
	err = cli.RunWithSpinner("Completing sign-in...", quiet, func() error {
		var completeErr error
		user, completeErr = app.oauth.Complete(cmd.Context(), oauthState, oauthCode)
		return completeErr
	})
	if err != nil {
		return &cli.AuthFailedError{Reason: err}
	}

	name := "you"
	if user != nil && user.Name() != "" {
		name = user.Name()
	}
	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Signed in as %s", name)))
	return nil
}
