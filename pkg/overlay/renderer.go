package overlay

import (
	"fmt"
	"image"
	"sync"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
	"golang.org/x/image/draw"
	"golang.org/x/image/font/gofont/gobold"
)

// Frame is everything the Renderer needs to paint one surface.
type Frame struct {
	Surface     Surface
	Page        int
	Annotations []Annotation
	Live        []Point
	LiveTool    Tool
	LiveColor   string
	Styles      Styles
}

// Renderer paints annotation frames onto an RGBA surface. It keeps one
// drawing context and resizes it per frame; every resize is followed by a
// full repaint before the surface is read back.
type Renderer struct {
	mu     sync.Mutex
	ctx    *gg.Context
	mask   *gg.Context
	source *text.FontSource
	faces  map[float64]text.Face
}

func NewRenderer() (*Renderer, error) {
	source, err := text.NewFontSource(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("load annotation font: %w", err)
	}
	return &Renderer{
		ctx:    gg.NewContext(1, 1),
		mask:   gg.NewContext(1, 1),
		source: source,
		faces:  make(map[float64]text.Face),
	}, nil
}

// Close releases the drawing contexts and the font source.
func (r *Renderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_ = r.ctx.Close()
	_ = r.mask.Close()
	return r.source.Close()
}

// Render clears the surface and paints the frame's page records in order,
// then the live stroke on top.
func (r *Renderer) Render(f Frame) (*image.RGBA, error) {
	if !f.Surface.Ready() {
		return nil, ErrNotReady
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	w, h := f.Surface.Width(), f.Surface.Height()
	if err := r.ctx.Resize(w, h); err != nil {
		return nil, fmt.Errorf("resize surface: %w", err)
	}
	r.ctx.Clear()

	scale := f.Surface.Scale()
	for _, a := range f.Annotations {
		if a.Page != f.Page {
			continue
		}
		if err := r.paintRecord(a, f.Styles, scale); err != nil {
			return nil, err
		}
	}

	style := f.Styles.For(f.LiveTool)
	if len(f.Live) > 1 && f.LiveTool.Draws() && !style.Erase {
		if err := r.strokePolyline(r.ctx, f.Live, f.LiveColor, style, scale); err != nil {
			return nil, err
		}
	}

	if err := r.ctx.FlushGPU(); err != nil {
		return nil, fmt.Errorf("flush surface: %w", err)
	}
	out := toRGBA(r.ctx.Image())
	if len(f.Live) > 1 && style.Erase && f.LiveTool == ToolEraser {
		if err := r.erase(out, f.Live, style, scale); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// MeasureText returns the advance width and vertical extents of s drawn at
// size, in the same units as size.
func (r *Renderer) MeasureText(s string, size float64) (width, ascent, descent float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	face := r.face(size)
	m := face.Metrics()
	return face.Advance(s), m.Ascent, m.Descent
}

// RenderComposite scales page to the overlay's size and paints the overlay
// over it.
func RenderComposite(page image.Image, overlay *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(overlay.Bounds())
	if page != nil {
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), page, page.Bounds(), draw.Src, nil)
	}
	draw.Draw(dst, dst.Bounds(), overlay, overlay.Bounds().Min, draw.Over)
	return dst
}

func (r *Renderer) paintRecord(a Annotation, styles Styles, scale float64) error {
	switch a.Kind {
	case KindPath, KindHighlight:
		if len(a.Points) < 2 {
			return nil
		}
		return r.strokePolyline(r.ctx, a.Points, a.Color, styles.ForRecord(a), scale)
	case KindText:
		size := a.FontSize
		if size <= 0 {
			size = styles.FontSize
		}
		c := gg.Hex(a.Color)
		r.ctx.SetRGBA(c.R, c.G, c.B, c.A)
		r.ctx.SetFont(r.face(size * scale))
		r.ctx.DrawString(a.Text, a.X*scale, a.Y*scale)
	}
	return nil
}

func (r *Renderer) strokePolyline(dc *gg.Context, points []Point, color string, style StrokeStyle, scale float64) error {
	c := gg.Hex(color)
	dc.SetRGBA(c.R, c.G, c.B, c.A*style.Alpha)
	dc.SetLineWidth(style.Width * scale)
	dc.SetLineCap(gg.LineCapRound)
	dc.SetLineJoin(gg.LineJoinRound)
	dc.MoveTo(points[0].X*scale, points[0].Y*scale)
	for _, p := range points[1:] {
		dc.LineTo(p.X*scale, p.Y*scale)
	}
	if err := dc.Stroke(); err != nil {
		return fmt.Errorf("stroke %d points: %w", len(points), err)
	}
	return nil
}

// erase clears every pixel of out covered by the stroke (destination-out).
func (r *Renderer) erase(out *image.RGBA, points []Point, style StrokeStyle, scale float64) error {
	b := out.Bounds()
	if err := r.mask.Resize(b.Dx(), b.Dy()); err != nil {
		return fmt.Errorf("resize eraser mask: %w", err)
	}
	r.mask.Clear()
	style.Alpha = 1
	if err := r.strokePolyline(r.mask, points, "#000000", style, scale); err != nil {
		return err
	}
	if err := r.mask.FlushGPU(); err != nil {
		return fmt.Errorf("flush eraser mask: %w", err)
	}
	clearUnder(out, toRGBA(r.mask.Image()))
	return nil
}

// clearUnder scales every pixel of out by the inverse coverage of mask.
// Pixels the mask does not cover are left untouched.
func clearUnder(out, mask *image.RGBA) {
	b := out.Bounds().Intersect(mask.Bounds())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			a := uint32(mask.Pix[mask.PixOffset(x, y)+3])
			if a == 0 {
				continue
			}
			keep := 255 - a
			i := out.PixOffset(x, y)
			for c := 0; c < 4; c++ {
				out.Pix[i+c] = uint8((uint32(out.Pix[i+c])*keep + 127) / 255)
			}
		}
	}
}

func (r *Renderer) face(size float64) text.Face {
	if f, ok := r.faces[size]; ok {
		return f
	}
	f := r.source.Face(size)
	r.faces[size] = f
	return f
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	out := image.NewRGBA(img.Bounds())
	draw.Draw(out, out.Bounds(), img, img.Bounds().Min, draw.Src)
	return out
}
