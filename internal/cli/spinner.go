package cli

import (
	"time"

	"github.com/briandowns/spinner"
)

// RunWithSpinner runs fn while showing a progress spinner, unless quiet
// mode is enabled. The spinner is stopped before the result is returned
// so subsequent output starts on a clean line.
func RunWithSpinner(message string, quiet bool, fn func() error) error {
	var s *spinner.Spinner
	if !quiet {
		s = spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		s.Suffix = " " + message
		s.Start()
	}

	err := fn()

	if s != nil {
		s.Stop()
	}
	return err
}
