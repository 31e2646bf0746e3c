// Package document opens paginated documents and exposes their page
// geometry and page surfaces to the annotation overlay.
package document

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/gogpu/gg"
)

var (
	ErrEmptyDocument = errors.New("document has no pages")
	ErrPageRange     = errors.New("page out of range")
)

// Source is an opened document. Pages are 1-based; sizes are in document
// units (PDF points), which equal surface pixels at zoom 100%.
type Source interface {
	PageCount() int
	PageSize(page int) (width, height float64, err error)
	Render(ctx context.Context, page int, scale float64) (image.Image, error)
}

// Loader opens raw document bytes.
type Loader interface {
	Open(ctx context.Context, data []byte) (Source, error)
}

// PageBox is the visible size of one page.
type PageBox struct {
	Width  float64
	Height float64
}

// pagedSource serves geometry read once at open time. Page content is not
// rasterized; Render returns a blank sheet of the page's size.
type pagedSource struct {
	pages []PageBox
}

func newPagedSource(pages []PageBox) (*pagedSource, error) {
	if len(pages) == 0 {
		return nil, ErrEmptyDocument
	}
	return &pagedSource{pages: pages}, nil
}

func (s *pagedSource) PageCount() int {
	return len(s.pages)
}

func (s *pagedSource) PageSize(page int) (float64, float64, error) {
	if page < 1 || page > len(s.pages) {
		return 0, 0, fmt.Errorf("%w: %d of %d", ErrPageRange, page, len(s.pages))
	}
	box := s.pages[page-1]
	return box.Width, box.Height, nil
}

func (s *pagedSource) Render(ctx context.Context, page int, scale float64) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	w, h, err := s.PageSize(page)
	if err != nil {
		return nil, err
	}
	if scale <= 0 {
		scale = 1
	}
	pw := max(1, int(math.Round(w*scale)))
	ph := max(1, int(math.Round(h*scale)))

	dc := gg.NewContext(pw, ph)
	defer dc.Close()
	dc.ClearWithColor(gg.White)
	return dc.Image(), nil
}
