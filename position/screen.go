package position

import (
	"errors"
	"fmt"

	"github.com/kbinani/screenshot"
)

// ScreenSource reports the size of the screen the popup is shown on.
type ScreenSource interface {
	ScreenSize() (Screen, error)
}

// Fixed is a ScreenSource with a constant size.
type Fixed Screen

// ScreenSize returns the fixed size.
func (f Fixed) ScreenSize() (Screen, error) {
	return Screen(f), nil
}

// Display reads display bounds from the windowing system.
type Display struct {
	Index int // Display number; 0 is the primary display
}

// ScreenSize returns the bounds of the configured display.
func (d Display) ScreenSize() (screen Screen, err error) {
	// screenshot panics on some headless setups
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("reading display bounds: %v", p)
		}
	}()

	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return Screen{}, errors.New("no active displays found")
	}
	if d.Index < 0 || d.Index >= n {
		return Screen{}, fmt.Errorf("display %d out of range (%d active)", d.Index, n)
	}

	bounds := screenshot.GetDisplayBounds(d.Index)
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return Screen{}, fmt.Errorf("display %d has empty bounds", d.Index)
	}
	return Screen{Width: bounds.Dx(), Height: bounds.Dy()}, nil
}
