package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"repfit/internal/cli"
	pkgstrings "repfit/pkg/strings"
)

// providersCmd represents the providers command
var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List available third-party sign-in providers",
	Long: `List the third-party sign-in providers the backend is configured with.

Use a provider name with 'repfit oauth begin <provider>' to start a
third-party sign-in.`,
	RunE: runProviders,
}

func runProviders(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	resp, err := app.oauth.ListProviders(cmd.Context())
	if err != nil {
		return err
	}

	if len(resp.Providers) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No third-party sign-in providers configured.")
		return nil
	}

	tbl := cli.NewTable(cmd.OutOrStdout())
	tbl.AppendHeader([]interface{}{"Provider", "Details"})
	for _, name := range resp.Providers {
		details := ""
		if cfg, ok := resp.Configuration[name]; ok {
			details = pkgstrings.Truncate(fmt.Sprintf("%v", cfg), pkgstrings.DefaultCellMaxLen)
		}
		tbl.AppendRow([]interface{}{name, details})
	}
	tbl.Render()
	return nil
}
