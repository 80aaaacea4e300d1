package fa

import (
	"fmt"
	"os"
	"time"

	"github.com/creack/pty"
)

/*------------------------------------------------------------------
 *
 * Purpose:	Pseudo-terminal-backed sniffer for integration tests and
 *		demos: a generator process writes raw minor blocks to the
 *		PTY's slave side, and this adapter reads them from the
 *		master side, exactly as a real character device would
 *		deliver them. Grounded on the teacher's serial_port.go,
 *		which hides a character-device transport behind the same
 *		shape of adapter; creack/pty replaces pkg/term since this
 *		adapter owns both ends of the pseudo-terminal rather than
 *		opening an existing tty.
 *
 *------------------------------------------------------------------*/

// PTYSniffer reads minor blocks from the master side of a pseudo-terminal
// pair, wall-clock-stamping each read since a PTY carries no hardware
// timestamp.
type PTYSniffer struct {
	master *os.File
	slave  *os.File
}

// NewPTYSniffer allocates a fresh pseudo-terminal pair. The Slave method
// exposes the slave side's path for a generator process or test harness
// to write to.
func NewPTYSniffer() (*PTYSniffer, error) {
	master, slave, err := pty.Open()
	if err != nil {
		return nil, fmt.Errorf("opening pty: %w", err)
	}
	return &PTYSniffer{master: master, slave: slave}, nil
}

// Slave returns the path of the pty's slave side.
func (p *PTYSniffer) Slave() string { return p.slave.Name() }

func (p *PTYSniffer) Close() error {
	err1 := p.master.Close()
	err2 := p.slave.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

func (p *PTYSniffer) Read(buf []byte) (uint64, error) {
	if _, err := readFull(p.master, buf); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrSnifferRead, err)
	}
	return uint64(time.Now().UnixMicro()), nil
}

func (p *PTYSniffer) Status() SnifferStatus         { return SnifferStatus{Running: true} }
func (p *PTYSniffer) Reset() error                  { return nil }
func (p *PTYSniffer) Interrupt() error              { return nil }
func (p *PTYSniffer) GetEntryCount() (int, error)   { return 0, nil }
func (p *PTYSniffer) SetEntryCount(int) error       { return nil }
