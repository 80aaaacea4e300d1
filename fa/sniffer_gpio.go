package fa

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

/*------------------------------------------------------------------
 *
 * Purpose:	GPIO-backed decorator over any SnifferDevice: drives a
 *		reset line and an interrupt line on a real GPIO character
 *		device chip, for deployments where Reset/Interrupt are
 *		physical front-end pins rather than driver ioctls. See
 *		spec.md section 6.
 *
 *------------------------------------------------------------------*/

// GPIOSniffer wraps an inner SnifferDevice, routing Reset and Interrupt
// through GPIO output lines instead of the inner device's own
// implementation.
type GPIOSniffer struct {
	SnifferDevice
	resetLine     *gpiocdev.Line
	interruptLine *gpiocdev.Line
}

// NewGPIOSniffer opens resetOffset and interruptOffset as output lines on
// chip (e.g. "gpiochip0") and wraps inner so Reset/Interrupt pulse those
// lines instead of delegating to inner.
func NewGPIOSniffer(inner SnifferDevice, chip string, resetOffset, interruptOffset int) (*GPIOSniffer, error) {
	resetLine, err := gpiocdev.RequestLine(chip, resetOffset, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, fmt.Errorf("requesting reset line: %w", err)
	}
	interruptLine, err := gpiocdev.RequestLine(chip, interruptOffset, gpiocdev.AsOutput(0))
	if err != nil {
		resetLine.Close()
		return nil, fmt.Errorf("requesting interrupt line: %w", err)
	}
	return &GPIOSniffer{
		SnifferDevice: inner,
		resetLine:     resetLine,
		interruptLine: interruptLine,
	}, nil
}

func (g *GPIOSniffer) Close() error {
	err1 := g.resetLine.Close()
	err2 := g.interruptLine.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

// Reset pulses the reset line high then low, per the convention that the
// front-end latches on the falling edge.
func (g *GPIOSniffer) Reset() error {
	if err := g.resetLine.SetValue(1); err != nil {
		return fmt.Errorf("asserting reset: %w", err)
	}
	if err := g.resetLine.SetValue(0); err != nil {
		return fmt.Errorf("deasserting reset: %w", err)
	}
	return nil
}

// Interrupt pulses the interrupt line high then low.
func (g *GPIOSniffer) Interrupt() error {
	if err := g.interruptLine.SetValue(1); err != nil {
		return fmt.Errorf("asserting interrupt: %w", err)
	}
	if err := g.interruptLine.SetValue(0); err != nil {
		return fmt.Errorf("deasserting interrupt: %w", err)
	}
	return nil
}
