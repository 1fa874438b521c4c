// Package position decides where the translation popup appears relative
// to the mouse pointer.
//
// Compute is pure geometry. Placer combines it with a CursorLocator and a
// ScreenSource and falls back to a centered popup when the pointer cannot
// be located.
package position

// rightEdgeGap is the distance kept from the right screen edge when the
// popup would overflow it.
const rightEdgeGap = 10

// Screen is the size of the screen the popup is shown on.
type Screen struct {
	Width  int
	Height int
}

// Request describes one placement: the pointer and the popup size.
type Request struct {
	CursorX     int
	CursorY     int
	PopupWidth  int
	PopupHeight int
}

// Point is a top-left popup position in screen coordinates.
type Point struct {
	X int
	Y int
}

// Layout holds the pixel constants of the placement.
type Layout struct {
	TextHeight     int // Height of the selected text line
	Margin         int // Gap between text and popup
	TitleBarHeight int // Window decoration above the popup
}

// DefaultLayout returns the default layout constants.
func DefaultLayout() Layout {
	return Layout{
		TextHeight:     25,
		Margin:         15,
		TitleBarHeight: 30,
	}
}

// Compute places the popup below the pointer in the upper half of the
// screen and above it in the lower half, then clamps it onto the screen.
// Degenerate sizes (popup larger than the screen) are not guarded.
func Compute(req Request, screen Screen, layout Layout) Point {
	x := req.CursorX

	var y int
	if req.CursorY <= screen.Height/2 {
		y = req.CursorY + layout.TextHeight + layout.Margin
	} else {
		y = req.CursorY - layout.TextHeight - req.PopupHeight - 2*layout.Margin - layout.TitleBarHeight
	}

	if x+req.PopupWidth > screen.Width {
		x = screen.Width - req.PopupWidth - rightEdgeGap
	}

	if y < 0 {
		y = layout.Margin
	} else if y+req.PopupHeight > screen.Height {
		y = screen.Height - req.PopupHeight - layout.Margin
	}

	return Point{X: x, Y: y}
}

// Centered returns the position that centers a popup on screen.
func Centered(screen Screen, width, height int) Point {
	return Point{
		X: (screen.Width - width) / 2,
		Y: (screen.Height - height) / 2,
	}
}
