package fa

import (
	"time"

	"github.com/lestrrat-go/strftime"
)

/*------------------------------------------------------------------
 *
 * Purpose:	Human-readable timestamp formatting for the gap log and
 *		diagnostic output, using lestrrat-go/strftime so operators
 *		get familiar strftime patterns instead of Go's reference-
 *		time layout strings.
 *
 *------------------------------------------------------------------*/

// DefaultGapLogFormat is the strftime pattern used to render
// BlockRecord.StartSec/StopSec in diagnostic listings.
const DefaultGapLogFormat = "%Y-%m-%d %H:%M:%S"

// FormatUnixSeconds renders a seconds-since-epoch value with pattern.
func FormatUnixSeconds(pattern string, seconds uint64) (string, error) {
	f, err := strftime.New(pattern)
	if err != nil {
		return "", err
	}
	return f.FormatString(time.Unix(int64(seconds), 0).UTC()), nil
}

// FormatBlockRecord renders a gap-log entry as "<start> - <stop>" using
// DefaultGapLogFormat.
func FormatBlockRecord(b BlockRecord) (string, error) {
	start, err := FormatUnixSeconds(DefaultGapLogFormat, b.StartSec)
	if err != nil {
		return "", err
	}
	stop, err := FormatUnixSeconds(DefaultGapLogFormat, b.StopSec)
	if err != nil {
		return "", err
	}
	return start + " - " + stop, nil
}
