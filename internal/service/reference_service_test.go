package service

import (
	"context"
	"strings"
	"testing"

	"smart-reader-be/internal/dto"
	"smart-reader-be/internal/repository/specification"
	"smart-reader-be/pkg/document"
	"smart-reader-be/pkg/overlay"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReferenceService(t *testing.T, maxBytes int64) (IReferenceService, *fakeReferenceRepository, *fakeLoader) {
	t.Helper()
	repo := newFakeReferenceRepository()
	loader := &fakeLoader{pages: []document.PageBox{{Width: 612, Height: 792}, {Width: 612, Height: 792}, {Width: 612, Height: 792}}}
	return NewReferenceService(&fakeFactory{repo: repo}, loader, nil, maxBytes, nopLogger), repo, loader
}

func TestReferenceServiceCreateAndShow(t *testing.T) {
	svc, repo, _ := newReferenceService(t, 1024)
	ctx := context.Background()

	created, err := svc.Create(ctx, &dto.CreateReferenceRequest{
		Type:    "book",
		Title:   "  Structure and Interpretation  ",
		Authors: []string{"Abelson", "Sussman"},
		Year:    "1985",
	})
	require.NoError(t, err)
	require.NotNil(t, repo.get(created.Id))

	shown, err := svc.Show(ctx, created.Id)
	require.NoError(t, err)
	assert.Equal(t, "Structure and Interpretation", shown.Title)
	assert.Equal(t, "book", shown.Type)
	assert.Equal(t, []string{"Abelson", "Sussman"}, shown.Authors)
	assert.False(t, shown.HasPdf)
	assert.Zero(t, shown.AnnotationCount)
}

func TestReferenceServiceShowMissing(t *testing.T) {
	svc, _, _ := newReferenceService(t, 1024)
	_, err := svc.Show(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrReferenceNotFound)
}

func TestReferenceServiceListBuildsFilters(t *testing.T) {
	svc, repo, _ := newReferenceService(t, 1024)
	seedReference(repo, true)
	seedReference(repo, false)

	res, err := svc.List(context.Background(), &dto.ListReferencesRequest{Type: "journal", Query: "attention", HasPdf: true})
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.Total)
	assert.Len(t, res.References, 2)

	specs := repo.specs[len(repo.specs)-1]
	assert.Contains(t, specs, specification.Specification(specification.ByReferenceType{Type: "journal"}))
	assert.Contains(t, specs, specification.Specification(specification.TitleContains{Query: "attention"}))
	assert.Contains(t, specs, specification.Specification(specification.WithPdf{}))
	assert.Contains(t, specs, specification.Specification(specification.Pagination{Limit: defaultListLimit}))
}

func TestReferenceServiceUpdateAndDelete(t *testing.T) {
	svc, repo, _ := newReferenceService(t, 1024)
	ref := seedReference(repo, false)
	ctx := context.Background()

	_, err := svc.Update(ctx, &dto.UpdateReferenceRequest{Id: ref.Id, Type: "website", Title: "Renamed"})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", repo.get(ref.Id).Title)

	_, err = svc.Update(ctx, &dto.UpdateReferenceRequest{Id: uuid.New(), Type: "book", Title: "x"})
	assert.ErrorIs(t, err, ErrReferenceNotFound)

	require.NoError(t, svc.Delete(ctx, ref.Id))
	assert.Nil(t, repo.get(ref.Id))
	assert.ErrorIs(t, svc.Delete(ctx, ref.Id), ErrReferenceNotFound)
}

func TestReferenceServiceUploadPdf(t *testing.T) {
	svc, repo, _ := newReferenceService(t, 64)
	ref := seedReference(repo, false)
	ref.Annotations = []overlay.Annotation{overlay.NewTextAnnotation("t", 1, "#facc15", overlay.Point{}, "keep", 16)}
	repo.put(ref)
	ctx := context.Background()
	pdf := []byte("%PDF-1.7 tiny")

	tests := []struct {
		name        string
		contentType string
		data        []byte
		wantErr     error
	}{
		{"wrong media type", "image/png", pdf, ErrUnsupportedMediaType},
		{"empty", "application/pdf", nil, ErrInvalidPdf},
		{"too large", "application/pdf", []byte("%PDF" + strings.Repeat("x", 64)), ErrPdfTooLarge},
		{"unreadable", "application/pdf", []byte("GIF89a"), ErrInvalidPdf},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UploadPdf(ctx, &dto.UploadPdfRequest{Id: ref.Id, FileName: "a.pdf", ContentType: tt.contentType, Data: tt.data})
			assert.ErrorIs(t, err, tt.wantErr)
			assert.False(t, repo.get(ref.Id).HasPdf)
		})
	}

	res, err := svc.UploadPdf(ctx, &dto.UploadPdfRequest{
		Id: ref.Id, FileName: "../../etc/paper.pdf", ContentType: "application/pdf; charset=binary", Data: pdf,
	})
	require.NoError(t, err)
	assert.Equal(t, "paper.pdf", res.PdfName)
	assert.Equal(t, 3, res.PdfPages)
	assert.EqualValues(t, len(pdf), res.PdfSize)

	stored := repo.get(ref.Id)
	assert.True(t, stored.HasPdf)
	assert.Len(t, stored.Annotations, 1)

	_, err = svc.UploadPdf(ctx, &dto.UploadPdfRequest{Id: uuid.New(), FileName: "a.pdf", ContentType: "application/pdf", Data: pdf})
	assert.ErrorIs(t, err, ErrReferenceNotFound)
}

func TestReferenceServiceDownloadPdf(t *testing.T) {
	svc, repo, _ := newReferenceService(t, 1024)
	ctx := context.Background()

	without := seedReference(repo, false)
	_, err := svc.DownloadPdf(ctx, without.Id)
	assert.ErrorIs(t, err, ErrReferenceHasNoPdf)

	with := seedReference(repo, true)
	res, err := svc.DownloadPdf(ctx, with.Id)
	require.NoError(t, err)
	assert.Equal(t, "paper.pdf", res.FileName)
	assert.Equal(t, []byte("%PDF-1.4 fake"), res.Data)

	_, err = svc.DownloadPdf(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrReferenceNotFound)
}

func TestReferenceServiceDeleteInvalidatesCache(t *testing.T) {
	repo := newFakeReferenceRepository()
	c, s := newCache(t)
	svc := NewReferenceService(&fakeFactory{repo: repo}, &fakeLoader{}, c, 0, nopLogger)
	ref := seedReference(repo, true)
	require.NoError(t, c.Set(context.Background(), ref.Id.String(), []overlay.Annotation{}))

	require.NoError(t, svc.Delete(context.Background(), ref.Id))
	assert.False(t, s.Exists("reader:annotations:"+ref.Id.String()))
}
