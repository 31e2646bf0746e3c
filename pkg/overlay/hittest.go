package overlay

import (
	"math"
	"unicode/utf8"

	"gonum.org/v1/gonum/spatial/r2"
)

// TextMeasurer reports the extents of a text run at a font size.
type TextMeasurer interface {
	MeasureText(s string, size float64) (width, ascent, descent float64)
}

// HitTest returns the IDs of the records on page touched by an eraser
// stroke of the given width. All geometry is in document units.
func HitTest(records []Annotation, page int, eraser []Point, width float64, styles Styles, m TextMeasurer) []string {
	if len(eraser) == 0 {
		return nil
	}
	radius := width / 2
	var hits []string
	for _, a := range records {
		if a.Page != page {
			continue
		}
		switch a.Kind {
		case KindPath, KindHighlight:
			reach := radius + styles.ForRecord(a).Width/2
			if polylinesWithin(eraser, a.Points, reach) {
				hits = append(hits, a.ID)
			}
		case KindText:
			lo, hi := textBox(a, styles, m)
			if polylineNearBox(eraser, lo, hi, radius) {
				hits = append(hits, a.ID)
			}
		}
	}
	return hits
}

func vec(p Point) r2.Vec {
	return r2.Vec{X: p.X, Y: p.Y}
}

// segmentDistance is the shortest distance between point p and segment ab.
func segmentDistance(p, a, b r2.Vec) float64 {
	ab := r2.Sub(b, a)
	l2 := r2.Dot(ab, ab)
	if l2 == 0 {
		return r2.Norm(r2.Sub(p, a))
	}
	t := r2.Dot(r2.Sub(p, a), ab) / l2
	t = math.Max(0, math.Min(1, t))
	closest := r2.Add(a, r2.Scale(t, ab))
	return r2.Norm(r2.Sub(p, closest))
}

func segmentsDistance(a0, a1, b0, b1 r2.Vec) float64 {
	if segmentsCross(a0, a1, b0, b1) {
		return 0
	}
	return math.Min(
		math.Min(segmentDistance(a0, b0, b1), segmentDistance(a1, b0, b1)),
		math.Min(segmentDistance(b0, a0, a1), segmentDistance(b1, a0, a1)),
	)
}

func segmentsCross(a0, a1, b0, b1 r2.Vec) bool {
	d1 := cross(r2.Sub(b1, b0), r2.Sub(a0, b0))
	d2 := cross(r2.Sub(b1, b0), r2.Sub(a1, b0))
	d3 := cross(r2.Sub(a1, a0), r2.Sub(b0, a0))
	d4 := cross(r2.Sub(a1, a0), r2.Sub(b1, a0))
	return ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0))
}

func cross(a, b r2.Vec) float64 {
	return a.X*b.Y - a.Y*b.X
}

func polylinesWithin(a, b []Point, reach float64) bool {
	if len(b) == 0 {
		return false
	}
	as, bs := segments(a), segments(b)
	for _, sa := range as {
		for _, sb := range bs {
			if segmentsDistance(sa[0], sa[1], sb[0], sb[1]) <= reach {
				return true
			}
		}
	}
	return false
}

// segments returns the polyline's segments; a single point becomes a
// degenerate segment so taps still register.
func segments(points []Point) [][2]r2.Vec {
	if len(points) == 1 {
		v := vec(points[0])
		return [][2]r2.Vec{{v, v}}
	}
	out := make([][2]r2.Vec, 0, len(points)-1)
	for i := 1; i < len(points); i++ {
		out = append(out, [2]r2.Vec{vec(points[i-1]), vec(points[i])})
	}
	return out
}

func textBox(a Annotation, styles Styles, m TextMeasurer) (lo, hi r2.Vec) {
	size := a.FontSize
	if size <= 0 {
		size = styles.FontSize
	}
	var width, ascent, descent float64
	if m != nil {
		width, ascent, descent = m.MeasureText(a.Text, size)
	} else {
		width = 0.6 * size * float64(utf8.RuneCountInString(a.Text))
		ascent, descent = 0.8*size, 0.2*size
	}
	return r2.Vec{X: a.X, Y: a.Y - ascent}, r2.Vec{X: a.X + width, Y: a.Y + descent}
}

func polylineNearBox(points []Point, lo, hi r2.Vec, radius float64) bool {
	corners := []Point{
		{X: lo.X, Y: lo.Y}, {X: hi.X, Y: lo.Y},
		{X: hi.X, Y: hi.Y}, {X: lo.X, Y: hi.Y}, {X: lo.X, Y: lo.Y},
	}
	for _, p := range points {
		if p.X >= lo.X && p.X <= hi.X && p.Y >= lo.Y && p.Y <= hi.Y {
			return true
		}
	}
	return polylinesWithin(points, corners, radius)
}
