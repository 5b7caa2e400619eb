package cmd

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

// whoamiCmd represents the whoami command
var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	Long: `Show profile details of the currently signed-in user.

The profile is fetched from the backend when it is not already cached
from sign-in. Fails with exit code 2 when not signed in.`,
	RunE: runWhoami,
}

func runWhoami(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	user, err := app.sessions.CurrentUser(cmd.Context())
	if err != nil {
		return translateSessionError(err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "  Name:     %s\n", user.Name())
	fmt.Fprintf(out, "  Email:    %s\n", user.Email)
	if user.Username != "" {
		fmt.Fprintf(out, "  Username: %s\n", user.Username)
	}
	if user.Tier != "" {
		fmt.Fprintf(out, "  Tier:     %s\n", formatTier(string(user.Tier)))
	}
	if len(user.Permissions) > 0 {
		fmt.Fprintf(out, "  Permissions: %s\n", strings.Join(user.Permissions, ", "))
	}
	return nil
}

// formatTier colors the subscription tier.
func formatTier(tier string) string {
	switch tier {
	case "premium", "enterprise":
		return text.FgGreen.Sprint(tier)
	default:
		return tier
	}
}
