package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"repfit/internal/cli"
	"repfit/internal/session"
	"repfit/internal/tokenstore"
)

// Status-specific flags
var (
	statusWatch bool
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show session status",
	Long: `Show the current session status: whether you are signed in, as whom,
and when the access token expires.

With --watch the command keeps running and reports session changes as
they happen, including sign-ins and sign-outs performed in another
terminal.

Examples:
  repfit status
  repfit status --watch`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusWatch, "watch", false, "keep running and report session changes")
}

func runStatus(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	printSnapshot(cmd, app, app.sessions.Snapshot())

	if !statusWatch {
		return nil
	}
	return watchStatus(cmd, app)
}

// watchStatus follows session changes until interrupted. A file watcher
// feeds external changes (another terminal signing in or out) into the
// manager, whose snapshot stream drives the output.
func watchStatus(cmd *cobra.Command, app *app) error {
	watcher := tokenstore.NewWatcher(tokenstore.WatcherConfig{
		Store:    app.store,
		OnChange: app.sessions.ReloadFromStore,
	})
	if err := watcher.Start(); err != nil {
		return err
	}
	defer watcher.Stop()

	updates := app.sessions.Subscribe()
	defer app.sessions.Unsubscribe(updates)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	fmt.Fprintln(cmd.OutOrStdout(), "\nWatching for session changes (Ctrl-C to stop)...")
	for {
		select {
		case snapshot := <-updates:
			printSnapshot(cmd, app, snapshot)
		case <-interrupt:
			return nil
		}
	}
}

func printSnapshot(cmd *cobra.Command, app *app, snapshot session.Snapshot) {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "  Endpoint: %s\n", app.client.BaseURL())
	fmt.Fprintf(out, "  Status:   %s\n", cli.FormatSessionState(snapshot.State))
	if snapshot.State == session.Authenticated {
		if snapshot.User != nil {
			fmt.Fprintf(out, "  Account:  %s\n", snapshot.User.Email)
		}
		fmt.Fprintf(out, "  Expires:  %s\n", cli.FormatExpiry(snapshot.Expiry))
	} else if !statusWatch {
		fmt.Fprintln(out, "            Run: repfit login")
	}
	fmt.Fprintf(out, "  Storage:  %s\n", app.store.Dir())
}
