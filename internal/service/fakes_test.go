package service

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"smart-reader-be/internal/entity"
	"smart-reader-be/internal/pkg/logger"
	"smart-reader-be/internal/repository/contract"
	"smart-reader-be/internal/repository/specification"
	"smart-reader-be/internal/repository/unitofwork"
	"smart-reader-be/pkg/document"
	"smart-reader-be/pkg/overlay"

	"github.com/google/uuid"
)

var nopLogger = logger.NewNopLogger()

// fakeReferenceRepository keeps references in memory. Only ByID is honoured
// among specifications; the rest are recorded.
type fakeReferenceRepository struct {
	mu             sync.Mutex
	refs           map[uuid.UUID]*entity.Reference
	specs          [][]specification.Specification
	annotationGets int
	failSave       error
}

func newFakeReferenceRepository() *fakeReferenceRepository {
	return &fakeReferenceRepository{refs: map[uuid.UUID]*entity.Reference{}}
}

func (r *fakeReferenceRepository) put(ref *entity.Reference) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *ref
	r.refs[ref.Id] = &cp
}

func (r *fakeReferenceRepository) get(id uuid.UUID) *entity.Reference {
	r.mu.Lock()
	defer r.mu.Unlock()
	ref, ok := r.refs[id]
	if !ok {
		return nil
	}
	cp := *ref
	return &cp
}

func (r *fakeReferenceRepository) Create(_ context.Context, ref *entity.Reference) error {
	r.put(ref)
	return nil
}

func (r *fakeReferenceRepository) Update(_ context.Context, ref *entity.Reference) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.refs[ref.Id]
	if !ok {
		return contract.ErrReferenceNotFound
	}
	cur.Type, cur.Title, cur.Authors = ref.Type, ref.Title, ref.Authors
	cur.Year, cur.Publication, cur.Doi, cur.Url, cur.Abstract = ref.Year, ref.Publication, ref.Doi, ref.Url, ref.Abstract
	cur.UpdatedAt = ref.UpdatedAt
	return nil
}

func (r *fakeReferenceRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.refs, id)
	return nil
}

func (r *fakeReferenceRepository) FindOne(_ context.Context, specs ...specification.Specification) (*entity.Reference, error) {
	r.mu.Lock()
	r.specs = append(r.specs, specs)
	r.mu.Unlock()
	for _, s := range specs {
		if byID, ok := s.(specification.ByID); ok {
			ref := r.get(byID.ID)
			if ref != nil {
				ref.PdfData = nil
			}
			return ref, nil
		}
	}
	return nil, nil
}

func (r *fakeReferenceRepository) FindAll(_ context.Context, specs ...specification.Specification) ([]*entity.Reference, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.specs = append(r.specs, specs)
	out := make([]*entity.Reference, 0, len(r.refs))
	for _, ref := range r.refs {
		cp := *ref
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeReferenceRepository) Count(_ context.Context, specs ...specification.Specification) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.refs)), nil
}

func (r *fakeReferenceRepository) UpdatePdf(_ context.Context, id uuid.UUID, name string, data []byte, pages int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ref, ok := r.refs[id]
	if !ok {
		return contract.ErrReferenceNotFound
	}
	ref.HasPdf = len(data) > 0
	ref.PdfName, ref.PdfData, ref.PdfSize, ref.PdfPages = name, data, int64(len(data)), pages
	return nil
}

func (r *fakeReferenceRepository) FindPdf(_ context.Context, id uuid.UUID) (string, []byte, error) {
	ref := r.get(id)
	if ref == nil {
		return "", nil, contract.ErrReferenceNotFound
	}
	if !ref.HasPdf {
		return "", nil, nil
	}
	return ref.PdfName, ref.PdfData, nil
}

func (r *fakeReferenceRepository) FindAnnotations(_ context.Context, id uuid.UUID) ([]overlay.Annotation, bool, error) {
	r.mu.Lock()
	r.annotationGets++
	r.mu.Unlock()
	ref := r.get(id)
	if ref == nil {
		return nil, false, nil
	}
	return append([]overlay.Annotation{}, ref.Annotations...), true, nil
}

func (r *fakeReferenceRepository) UpdateAnnotations(_ context.Context, id uuid.UUID, annotations []overlay.Annotation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failSave != nil {
		return r.failSave
	}
	ref, ok := r.refs[id]
	if !ok {
		return contract.ErrReferenceNotFound
	}
	ref.Annotations = append([]overlay.Annotation{}, annotations...)
	return nil
}

func (r *fakeReferenceRepository) annotationsOf(id uuid.UUID) []overlay.Annotation {
	ref := r.get(id)
	if ref == nil {
		return nil
	}
	return ref.Annotations
}

type fakeUnitOfWork struct {
	repo *fakeReferenceRepository
}

func (u *fakeUnitOfWork) Begin(context.Context) error { return nil }
func (u *fakeUnitOfWork) Commit() error { return nil }
func (u *fakeUnitOfWork) Rollback() error { return nil }
func (u *fakeUnitOfWork) ReferenceRepository() contract.ReferenceRepository {
	return u.repo
}

type fakeFactory struct {
	repo *fakeReferenceRepository
}

func (f *fakeFactory) NewUnitOfWork(context.Context) unitofwork.UnitOfWork {
	return &fakeUnitOfWork{repo: f.repo}
}

// fakeSource is a document with fixed page sizes and white pages.
type fakeSource struct {
	pages []document.PageBox
}

func (s *fakeSource) PageCount() int { return len(s.pages) }

func (s *fakeSource) PageSize(page int) (float64, float64, error) {
	if page < 1 || page > len(s.pages) {
		return 0, 0, document.ErrPageRange
	}
	return s.pages[page-1].Width, s.pages[page-1].Height, nil
}

func (s *fakeSource) Render(_ context.Context, page int, scale float64) (image.Image, error) {
	w, h, err := s.PageSize(page)
	if err != nil {
		return nil, err
	}
	img := image.NewRGBA(image.Rect(0, 0, int(w*scale), int(h*scale)))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	return img, nil
}

var errUnreadable = errors.New("unreadable pdf")

// fakeLoader opens any data starting with "%PDF" as a document of the
// configured pages.
type fakeLoader struct {
	pages []document.PageBox
	opens int
	mu    sync.Mutex
}

func (l *fakeLoader) Open(_ context.Context, data []byte) (document.Source, error) {
	l.mu.Lock()
	l.opens++
	l.mu.Unlock()
	if len(data) < 4 || string(data[:4]) != "%PDF" {
		return nil, errUnreadable
	}
	return &fakeSource{pages: l.pages}, nil
}

func (l *fakeLoader) openCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.opens
}

type recordingPublisher struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (p *recordingPublisher) Publish(_ context.Context, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.payloads = append(p.payloads, payload)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.payloads)
}

func (p *recordingPublisher) last() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.payloads) == 0 {
		return nil
	}
	return p.payloads[len(p.payloads)-1]
}

func seedReference(repo *fakeReferenceRepository, withPdf bool) *entity.Reference {
	ref := &entity.Reference{
		Id:    uuid.New(),
		Type:  entity.ReferenceTypeJournal,
		Title: "Attention Is All You Need",
	}
	if withPdf {
		ref.HasPdf = true
		ref.PdfName = "paper.pdf"
		ref.PdfData = []byte("%PDF-1.4 fake")
		ref.PdfSize = int64(len(ref.PdfData))
		ref.PdfPages = 2
	}
	repo.put(ref)
	return ref
}
