package overlay

import "math"

// Rect is the on-screen bounding box of the overlay surface.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// PointerEvent is a raw mouse or touch event in client coordinates.
// Touch events carry their contact points in Touches; only the first is used.
type PointerEvent struct {
	ClientX float64
	ClientY float64
	Touch   bool
	Touches []Point
}

// MapPointer translates a pointer event into coordinates relative to the
// overlay's top-left corner, in the surface's current pixel space.
// Malformed events map to (0,0).
func MapPointer(ev PointerEvent, bounds Rect) Point {
	x, y := ev.ClientX, ev.ClientY
	if ev.Touch || len(ev.Touches) > 0 {
		if len(ev.Touches) == 0 {
			return Point{}
		}
		x, y = ev.Touches[0].X, ev.Touches[0].Y
	}
	if !finite(x) || !finite(y) || !finite(bounds.Left) || !finite(bounds.Top) {
		return Point{}
	}
	return Point{X: x - bounds.Left, Y: y - bounds.Top}
}

// Surface describes the overlay's pixel space: the page's base size at
// zoom 100% and the active zoom percentage.
type Surface struct {
	BaseWidth  float64
	BaseHeight float64
	Zoom       int
}

func (s Surface) Scale() float64 {
	return float64(s.Zoom) / 100
}

func (s Surface) Width() int {
	return scaledDim(s.BaseWidth, s.Scale())
}

func (s Surface) Height() int {
	return scaledDim(s.BaseHeight, s.Scale())
}

// Ready reports whether the surface has usable dimensions.
func (s Surface) Ready() bool {
	return s.Zoom > 0 && s.Width() > 0 && s.Height() > 0
}

// ToDocument converts a surface pixel position into document units.
func (s Surface) ToDocument(p Point) Point {
	scale := s.Scale()
	if scale <= 0 {
		return Point{}
	}
	return Point{X: p.X / scale, Y: p.Y / scale}
}

// ToSurface converts document units into surface pixels.
func (s Surface) ToSurface(p Point) Point {
	scale := s.Scale()
	return Point{X: p.X * scale, Y: p.Y * scale}
}

func scaledDim(base, scale float64) int {
	if base <= 0 || scale <= 0 || !finite(base) {
		return 0
	}
	d := int(math.Round(base * scale))
	if d < 1 {
		d = 1
	}
	return d
}
