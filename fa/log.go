package fa

import (
	"os"

	"github.com/charmbracelet/log"
)

/*------------------------------------------------------------------
 *
 * Purpose:	Process-wide logger configuration, replacing the teacher's
 *		dw_printf/text_color_set pairing with structured
 *		charmbracelet/log, the logger the rest of this package
 *		already takes via log.With("component", ...).
 *
 *------------------------------------------------------------------*/

// ConfigureLogging sets the package-wide default logger's level and
// report format. Called once from main before any archive is opened.
func ConfigureLogging(debug bool) {
	level := log.InfoLevel
	if debug {
		level = log.DebugLevel
	}
	log.SetDefault(log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Level:           level,
	}))
}
