package document

import (
	"bytes"
	"context"
	"fmt"

	"seehuhn.de/go/pdf"
	"seehuhn.de/go/pdf/pagetree"
)

// US Letter, used when a page tree carries no MediaBox at all.
var defaultPageBox = PageBox{Width: 612, Height: 792}

// PDFLoader reads the page tree of a PDF file.
type PDFLoader struct {
	// MaxPages bounds the page tree walk; zero means unlimited.
	MaxPages int
}

func NewPDFLoader() *PDFLoader {
	return &PDFLoader{}
}

func (l *PDFLoader) Open(ctx context.Context, data []byte) (Source, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("open pdf: %w", ErrEmptyDocument)
	}

	r, err := pdf.NewReader(bytes.NewReader(data), nil)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer r.Close()

	count, err := pagetree.NumPages(r)
	if err != nil {
		return nil, fmt.Errorf("read page tree: %w", err)
	}
	if l.MaxPages > 0 && count > l.MaxPages {
		return nil, fmt.Errorf("read page tree: %d pages exceeds limit %d", count, l.MaxPages)
	}

	pages := make([]PageBox, 0, count)
	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		box, err := pageBox(r, i)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i+1, err)
		}
		pages = append(pages, box)
	}
	return newPagedSource(pages)
}

// pageBox returns the size of the zero-based page, honoring CropBox and a
// quarter-turn /Rotate.
func pageBox(r pdf.Getter, pageNo int) (PageBox, error) {
	_, dict, err := pagetree.GetPage(r, pageNo)
	if err != nil {
		return PageBox{}, err
	}

	rect, err := pdf.GetRectangle(r, dict["CropBox"])
	if err != nil || rect == nil || rect.URx-rect.LLx <= 0 || rect.URy-rect.LLy <= 0 {
		rect, err = pdf.GetRectangle(r, dict["MediaBox"])
		if err != nil {
			return PageBox{}, err
		}
	}
	box := defaultPageBox
	if rect != nil && rect.URx-rect.LLx > 0 && rect.URy-rect.LLy > 0 {
		box = PageBox{Width: rect.URx - rect.LLx, Height: rect.URy - rect.LLy}
	}

	rotate, err := pdf.GetInteger(r, dict["Rotate"])
	if err == nil && (rotate%180+180)%180 == 90 {
		box.Width, box.Height = box.Height, box.Width
	}
	return box, nil
}
