package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"repfit/internal/session"
)

// FormatError formats an error message for CLI output
func FormatError(err error) string {
	return fmt.Sprintf("Error: %v", err)
}

// FormatSuccess formats a success message for CLI output
func FormatSuccess(msg string) string {
	return fmt.Sprintf("✓ %s", msg)
}

// FormatWarning formats a warning message for CLI output
func FormatWarning(msg string) string {
	return fmt.Sprintf("⚠ %s", msg)
}

// FormatSessionState renders a session state with color.
func FormatSessionState(state session.State) string {
	switch state {
	case session.Authenticated:
		return text.FgGreen.Sprint("Signed in")
	case session.Authenticating, session.Refreshing:
		return text.FgYellow.Sprint(state.String())
	case session.LoggedOut:
		return text.FgHiBlack.Sprint("Signed out")
	default:
		return text.FgHiBlack.Sprint("Not signed in")
	}
}

// FormatExpiry renders a token expiry relative to now, e.g.
// "2026-08-28 10:15:00 (in 12m)".
func FormatExpiry(expiry time.Time) string {
	if expiry.IsZero() {
		return "unknown"
	}

	remaining := time.Until(expiry).Round(time.Second)
	if remaining < 0 {
		return fmt.Sprintf("%s (%s ago)", expiry.Local().Format("2006-01-02 15:04:05"), -remaining)
	}
	return fmt.Sprintf("%s (in %s)", expiry.Local().Format("2006-01-02 15:04:05"), remaining)
}

// NewTable returns a table writer with the repfit house style: light
// borders, uppercase headers, writing to out.
func NewTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	return t
}
