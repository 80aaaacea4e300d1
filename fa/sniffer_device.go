package fa

import (
	"fmt"
	"os"
	"time"
)

/*------------------------------------------------------------------
 *
 * Purpose:	Real /dev/fa* character device adapter. The ioctl set
 *		itself (timestamp fetch, reset, interrupt, entry count) is
 *		out of scope per spec.md section 1 — it is a kernel driver
 *		contract this package only consumes — so it is represented
 *		here as a small, separately pluggable rawDevice interface,
 *		grounded on the teacher's serial_port.go pattern of hiding a
 *		character-device transport behind a narrow adapter.
 *
 *------------------------------------------------------------------*/

// rawDevice is the unimplemented ioctl-v2 contract: a documented external
// interface, not reproduced here.
type rawDevice interface {
	Timestamp() (uint64, bool) // ok=false falls back to wall-clock
	IOStatus() (SnifferStatus, error)
	Reset() error
	Interrupt() error
	GetEntryCount() (int, error)
	SetEntryCount(int) error
}

// NullRawDevice is a rawDevice that always falls back to wall-clock
// timestamps and treats every out-of-band operation as a no-op,
// letting DeviceSniffer run against a plain character device with no
// ioctl-v2 support.
type NullRawDevice struct{}

func (NullRawDevice) Timestamp() (uint64, bool)       { return 0, false }
func (NullRawDevice) IOStatus() (SnifferStatus, error) { return SnifferStatus{}, nil }
func (NullRawDevice) Reset() error                     { return nil }
func (NullRawDevice) Interrupt() error                 { return nil }
func (NullRawDevice) GetEntryCount() (int, error)      { return 0, nil }
func (NullRawDevice) SetEntryCount(int) error          { return nil }

// DeviceSniffer reads minor blocks from a real character device file,
// using rawDevice for the driver-specific out-of-band operations.
type DeviceSniffer struct {
	file *os.File
	raw  rawDevice
}

// OpenDeviceSniffer opens path (typically /dev/fa0 or similar) for
// reading and pairs it with raw for the ioctl-level contract.
func OpenDeviceSniffer(path string, raw rawDevice) (*DeviceSniffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening sniffer device %s: %w", path, err)
	}
	return &DeviceSniffer{file: f, raw: raw}, nil
}

func (d *DeviceSniffer) Close() error { return d.file.Close() }

// Read blocks until buf is filled, per spec.md section 6: "blocks until
// len bytes delivered or fails". On devices without a hardware
// timestamp, the acquisition time falls back to wall-clock at
// completion.
func (d *DeviceSniffer) Read(buf []byte) (uint64, error) {
	if _, err := readFull(d.file, buf); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrSnifferRead, err)
	}
	if ts, ok := d.raw.Timestamp(); ok {
		return ts, nil
	}
	return uint64(time.Now().UnixMicro()), nil
}

func (d *DeviceSniffer) Status() SnifferStatus {
	st, err := d.raw.IOStatus()
	if err != nil {
		return SnifferStatus{}
	}
	return st
}

func (d *DeviceSniffer) Reset() error                { return d.raw.Reset() }
func (d *DeviceSniffer) Interrupt() error            { return d.raw.Interrupt() }
func (d *DeviceSniffer) GetEntryCount() (int, error) { return d.raw.GetEntryCount() }
func (d *DeviceSniffer) SetEntryCount(n int) error   { return d.raw.SetEntryCount(n) }

// readFull reads exactly len(buf) bytes or returns the first error,
// including io.EOF on a short final read.
func readFull(f *os.File, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := f.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
