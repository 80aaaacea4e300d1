package fa

import (
	"errors"
	"time"
)

/*------------------------------------------------------------------
 *
 * Purpose:	Sniffer driver contract: the external-collaborator
 *		interface a concrete acquisition device satisfies, plus an
 *		always-failing adapter for read-only deployments. See
 *		spec.md section 6.
 *
 *------------------------------------------------------------------*/

// ErrSnifferRead is returned by SnifferDevice.Read on a transient device
// failure; the caller retries after 1 second with Reset, per spec.md
// section 7.
var ErrSnifferRead = errors.New("fa: sniffer read failed")

// SnifferStatus is the best-effort diagnostic snapshot spec.md section 6
// describes.
type SnifferStatus struct {
	Status        int
	Partner       int
	LastInterrupt time.Time
	FrameErrors   int
	SoftErrors    int
	HardErrors    int
	Running       bool
	Overrun       bool
}

// SnifferDevice is the contract a concrete acquisition adapter
// implements: read one minor block, report diagnostics, and manage the
// frame count the device captures per entry.
type SnifferDevice interface {
	// Read blocks until buf is filled with one minor block of raw
	// frames or the read fails, returning the acquisition timestamp in
	// microseconds on success.
	Read(buf []byte) (timestampUs uint64, err error)
	Status() SnifferStatus
	Reset() error
	Interrupt() error
	GetEntryCount() (int, error)
	SetEntryCount(n int) error
}

// EmptySniffer always fails Read, letting a deployment run read-only
// against an archive with no live acquisition, per spec.md section 6.
type EmptySniffer struct{}

func (EmptySniffer) Read([]byte) (uint64, error)   { return 0, ErrSnifferRead }
func (EmptySniffer) Status() SnifferStatus         { return SnifferStatus{} }
func (EmptySniffer) Reset() error                  { return nil }
func (EmptySniffer) Interrupt() error               { return nil }
func (EmptySniffer) GetEntryCount() (int, error)   { return 0, nil }
func (EmptySniffer) SetEntryCount(int) error       { return nil }
