// Package overlay implements the annotation layer drawn above a paginated
// document: pointer mapping, stroke capture, the per-document annotation
// store, the tool state machine and the raster renderer.
package overlay

import (
	"fmt"
	"math"
	"strings"
)

// Kind tags the variant of an annotation record.
type Kind string

const (
	KindPath      Kind = "path"
	KindHighlight Kind = "highlight"
	KindText      Kind = "text"
)

func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindPath, KindHighlight, KindText:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// Point is a position in document units (surface pixels at zoom 100%).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Annotation is one persisted mark on a page. Path and highlight records use
// Points and LineWidth; text records use X, Y, Text and FontSize.
type Annotation struct {
	ID        string  `json:"id"`
	Kind      Kind    `json:"type"`
	Page      int     `json:"page"`
	Color     string  `json:"color"`
	Points    []Point `json:"points,omitempty"`
	LineWidth float64 `json:"lineWidth,omitempty"`
	Text      string  `json:"text,omitempty"`
	X         float64 `json:"x,omitempty"`
	Y         float64 `json:"y,omitempty"`
	FontSize  float64 `json:"fontSize,omitempty"`
}

func NewPathAnnotation(id string, page int, color string, points []Point, lineWidth float64) Annotation {
	return Annotation{
		ID:        id,
		Kind:      KindPath,
		Page:      page,
		Color:     color,
		Points:    clonePoints(points),
		LineWidth: lineWidth,
	}
}

func NewHighlightAnnotation(id string, page int, color string, points []Point, lineWidth float64) Annotation {
	a := NewPathAnnotation(id, page, color, points, lineWidth)
	a.Kind = KindHighlight
	return a
}

func NewTextAnnotation(id string, page int, color string, anchor Point, text string, fontSize float64) Annotation {
	return Annotation{
		ID:       id,
		Kind:     KindText,
		Page:     page,
		Color:    color,
		X:        anchor.X,
		Y:        anchor.Y,
		Text:     text,
		FontSize: fontSize,
	}
}

// IsStroke reports whether the record is drawn as a polyline.
func (a Annotation) IsStroke() bool {
	return a.Kind == KindPath || a.Kind == KindHighlight
}

// Anchor returns the baseline origin of a text record.
func (a Annotation) Anchor() Point {
	return Point{X: a.X, Y: a.Y}
}

// Validate checks the shape required by the record's kind.
func (a Annotation) Validate() error {
	if a.Page < 1 {
		return fmt.Errorf("%w: page %d", ErrInvalidAnnotation, a.Page)
	}
	switch a.Kind {
	case KindPath, KindHighlight:
		if len(a.Points) < 2 {
			return fmt.Errorf("%w: %s needs at least two points", ErrInvalidAnnotation, a.Kind)
		}
		for _, p := range a.Points {
			if !finite(p.X) || !finite(p.Y) {
				return fmt.Errorf("%w: non-finite point", ErrInvalidAnnotation)
			}
		}
	case KindText:
		if a.Text == "" {
			return fmt.Errorf("%w: empty text", ErrInvalidAnnotation)
		}
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidAnnotation, a.Kind)
	}
	return nil
}

func (a Annotation) clone() Annotation {
	a.Points = clonePoints(a.Points)
	return a
}

func clonePoints(points []Point) []Point {
	if points == nil {
		return nil
	}
	out := make([]Point, len(points))
	copy(out, points)
	return out
}

func cloneAll(records []Annotation) []Annotation {
	out := make([]Annotation, len(records))
	for i, r := range records {
		out[i] = r.clone()
	}
	return out
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
