package cli

import (
	"io"
	"time"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/text"
)

// RunWithSpinner runs fn while a spinner with the given message is shown on
// w. When quiet is set fn runs without any progress output. On failure the
// spinner is replaced by failMsg.
func RunWithSpinner(w io.Writer, quiet bool, message, failMsg string, fn func() error) error {
	if quiet {
		return fn()
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
	s.Suffix = " " + message
	s.Start()
	defer s.Stop()

	err := fn()
	if err != nil && failMsg != "" {
		s.FinalMSG = text.FgRed.Sprint(failMsg) + "\n"
	}
	return err
}
