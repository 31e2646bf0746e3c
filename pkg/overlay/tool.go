package overlay

import (
	"fmt"
	"strings"
)

// Tool is the interaction mode that decides how pointer input is interpreted.
type Tool string

const (
	ToolCursor    Tool = "cursor"
	ToolPen       Tool = "pen"
	ToolHighlight Tool = "highlight"
	ToolText      Tool = "text"
	ToolEraser    Tool = "eraser"
)

func ParseTool(s string) (Tool, error) {
	switch t := Tool(strings.ToLower(strings.TrimSpace(s))); t {
	case ToolCursor, ToolPen, ToolHighlight, ToolText, ToolEraser:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownTool, s)
	}
}

// Draws reports whether the tool captures drag strokes.
func (t Tool) Draws() bool {
	return t == ToolPen || t == ToolHighlight || t == ToolEraser
}

// Palette is the fixed set of selectable colors.
type Palette []string

const DefaultColor = "#facc15"

var DefaultPalette = Palette{"#ef4444", "#facc15", "#22c55e"}

func (p Palette) Contains(color string) bool {
	for _, c := range p {
		if strings.EqualFold(c, color) {
			return true
		}
	}
	return false
}

// Normalize returns the palette's spelling of color.
func (p Palette) Normalize(color string) (string, error) {
	for _, c := range p {
		if strings.EqualFold(c, color) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrColorNotInPalette, color)
}

// StrokeStyle holds the visual parameters of a stroke in document units.
type StrokeStyle struct {
	Width float64
	Alpha float64
	Erase bool
}

type Styles struct {
	Pen       StrokeStyle
	Highlight StrokeStyle
	Eraser    StrokeStyle
	FontSize  float64
}

func DefaultStyles() Styles {
	return Styles{
		Pen:       StrokeStyle{Width: 2, Alpha: 1},
		Highlight: StrokeStyle{Width: 20, Alpha: 0.3},
		Eraser:    StrokeStyle{Width: 20, Alpha: 1, Erase: true},
		FontSize:  16,
	}
}

// For returns the live-stroke style of a drawing tool.
func (s Styles) For(t Tool) StrokeStyle {
	switch t {
	case ToolHighlight:
		return s.Highlight
	case ToolEraser:
		return s.Eraser
	default:
		return s.Pen
	}
}

// ForRecord returns the style a persisted record is painted with.
func (s Styles) ForRecord(a Annotation) StrokeStyle {
	style := s.Pen
	if a.Kind == KindHighlight {
		style = s.Highlight
	}
	if a.LineWidth > 0 {
		style.Width = a.LineWidth
	}
	return style
}
