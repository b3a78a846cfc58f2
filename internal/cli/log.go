package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// newLogger builds the diagnostic logger. Without --verbose it discards
// everything; the console narration stays clean and debug detail only
// appears on request.
func newLogger(verbose bool) *log.Logger {
	w := io.Discard
	level := log.InfoLevel
	if verbose {
		w = os.Stderr
		level = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}
