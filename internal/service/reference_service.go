package service

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"smart-reader-be/internal/dto"
	"smart-reader-be/internal/entity"
	"smart-reader-be/internal/pkg/logger"
	"smart-reader-be/internal/repository/cache"
	"smart-reader-be/internal/repository/contract"
	"smart-reader-be/internal/repository/specification"
	"smart-reader-be/internal/repository/unitofwork"
	"smart-reader-be/pkg/document"

	"github.com/google/uuid"
)

const defaultListLimit = 20

type IReferenceService interface {
	Create(ctx context.Context, req *dto.CreateReferenceRequest) (*dto.CreateReferenceResponse, error)
	Show(ctx context.Context, id uuid.UUID) (*dto.ShowReferenceResponse, error)
	List(ctx context.Context, req *dto.ListReferencesRequest) (*dto.ListReferencesResponse, error)
	Update(ctx context.Context, req *dto.UpdateReferenceRequest) (*dto.UpdateReferenceResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
	UploadPdf(ctx context.Context, req *dto.UploadPdfRequest) (*dto.UploadPdfResponse, error)
	DownloadPdf(ctx context.Context, id uuid.UUID) (*dto.DownloadPdfResponse, error)
}

type referenceService struct {
	uowFactory  unitofwork.RepositoryFactory
	loader      document.Loader
	cache       *cache.AnnotationCache
	maxPdfBytes int64
	logger      logger.ILogger
}

func NewReferenceService(
	uowFactory unitofwork.RepositoryFactory,
	loader document.Loader,
	annotationCache *cache.AnnotationCache,
	maxPdfBytes int64,
	log logger.ILogger,
) IReferenceService {
	return &referenceService{
		uowFactory:  uowFactory,
		loader:      loader,
		cache:       annotationCache,
		maxPdfBytes: maxPdfBytes,
		logger:      log,
	}
}

func (s *referenceService) Create(ctx context.Context, req *dto.CreateReferenceRequest) (*dto.CreateReferenceResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	ref := entity.Reference{
		Id:          uuid.New(),
		Type:        entity.ReferenceType(req.Type),
		Title:       strings.TrimSpace(req.Title),
		Authors:     req.Authors,
		Year:        req.Year,
		Publication: req.Publication,
		Doi:         req.Doi,
		Url:         req.Url,
		Abstract:    req.Abstract,
		CreatedAt:   time.Now(),
	}

	if err := uow.ReferenceRepository().Create(ctx, &ref); err != nil {
		return nil, err
	}

	s.logger.Info("REFERENCE", "Reference created", map[string]interface{}{
		"reference_id": ref.Id,
		"type":         ref.Type,
	})
	return &dto.CreateReferenceResponse{Id: ref.Id}, nil
}

func (s *referenceService) Show(ctx context.Context, id uuid.UUID) (*dto.ShowReferenceResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	ref, err := uow.ReferenceRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if ref == nil {
		return nil, ErrReferenceNotFound
	}
	return toReferenceResponse(ref), nil
}

func (s *referenceService) List(ctx context.Context, req *dto.ListReferencesRequest) (*dto.ListReferencesResponse, error) {
	// 1. Build filters
	var filters []specification.Specification
	if req.Type != "" {
		filters = append(filters, specification.ByReferenceType{Type: req.Type})
	}
	if req.Query != "" {
		filters = append(filters, specification.TitleContains{Query: req.Query})
	}
	if req.HasPdf {
		filters = append(filters, specification.WithPdf{})
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	// 2. Count before paging
	total, err := uow.ReferenceRepository().Count(ctx, filters...)
	if err != nil {
		return nil, err
	}

	// 3. Page
	limit := req.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	specs := append(filters,
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: req.Offset},
	)
	refs, err := uow.ReferenceRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	res := &dto.ListReferencesResponse{
		Total:      total,
		References: make([]*dto.ShowReferenceResponse, 0, len(refs)),
	}
	for _, ref := range refs {
		res.References = append(res.References, toReferenceResponse(ref))
	}
	return res, nil
}

func (s *referenceService) Update(ctx context.Context, req *dto.UpdateReferenceRequest) (*dto.UpdateReferenceResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	now := time.Now()
	ref := entity.Reference{
		Id:          req.Id,
		Type:        entity.ReferenceType(req.Type),
		Title:       strings.TrimSpace(req.Title),
		Authors:     req.Authors,
		Year:        req.Year,
		Publication: req.Publication,
		Doi:         req.Doi,
		Url:         req.Url,
		Abstract:    req.Abstract,
		UpdatedAt:   &now,
	}
	if err := uow.ReferenceRepository().Update(ctx, &ref); err != nil {
		return nil, mapRepositoryError(err)
	}
	return &dto.UpdateReferenceResponse{Id: ref.Id}, nil
}

func (s *referenceService) Delete(ctx context.Context, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	ref, err := uow.ReferenceRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return err
	}
	if ref == nil {
		return ErrReferenceNotFound
	}
	if err := uow.ReferenceRepository().Delete(ctx, id); err != nil {
		return err
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, id.String()); err != nil {
			s.logger.Warn("REFERENCE", "Failed to drop cached annotations", map[string]interface{}{
				"reference_id": id,
				"error":        err.Error(),
			})
		}
	}
	return nil
}

// UploadPdf replaces the reference's PDF. Existing annotations are kept.
func (s *referenceService) UploadPdf(ctx context.Context, req *dto.UploadPdfRequest) (*dto.UploadPdfResponse, error) {
	// 1. Validate the upload
	if !isPdfMediaType(req.ContentType) {
		return nil, fmt.Errorf("%w: got %q", ErrUnsupportedMediaType, req.ContentType)
	}
	size := int64(len(req.Data))
	if size == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrInvalidPdf)
	}
	if s.maxPdfBytes > 0 && size > s.maxPdfBytes {
		return nil, fmt.Errorf("%w: %d > %d bytes", ErrPdfTooLarge, size, s.maxPdfBytes)
	}

	// 2. Make sure it opens before storing it
	src, err := s.loader.Open(ctx, req.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPdf, err)
	}
	pages := src.PageCount()

	// 3. Store
	name := filepath.Base(req.FileName)
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ReferenceRepository().UpdatePdf(ctx, req.Id, name, req.Data, pages); err != nil {
		return nil, mapRepositoryError(err)
	}

	s.logger.Info("REFERENCE", "PDF uploaded", map[string]interface{}{
		"reference_id": req.Id,
		"size":         size,
		"pages":        pages,
	})
	return &dto.UploadPdfResponse{
		Id:       req.Id,
		PdfName:  name,
		PdfSize:  size,
		PdfPages: pages,
	}, nil
}

func (s *referenceService) DownloadPdf(ctx context.Context, id uuid.UUID) (*dto.DownloadPdfResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	name, data, err := uow.ReferenceRepository().FindPdf(ctx, id)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	if len(data) == 0 {
		return nil, ErrReferenceHasNoPdf
	}
	return &dto.DownloadPdfResponse{FileName: name, Data: data}, nil
}

func isPdfMediaType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == "application/pdf"
}

func mapRepositoryError(err error) error {
	if errors.Is(err, contract.ErrReferenceNotFound) {
		return ErrReferenceNotFound
	}
	return err
}

func toReferenceResponse(ref *entity.Reference) *dto.ShowReferenceResponse {
	authors := ref.Authors
	if authors == nil {
		authors = []string{}
	}
	return &dto.ShowReferenceResponse{
		Id:              ref.Id,
		Type:            string(ref.Type),
		Title:           ref.Title,
		Authors:         authors,
		Year:            ref.Year,
		Publication:     ref.Publication,
		Doi:             ref.Doi,
		Url:             ref.Url,
		Abstract:        ref.Abstract,
		HasPdf:          ref.HasPdf,
		PdfName:         ref.PdfName,
		PdfSize:         ref.PdfSize,
		PdfPages:        ref.PdfPages,
		AnnotationCount: len(ref.Annotations),
		CreatedAt:       ref.CreatedAt,
		UpdatedAt:       ref.UpdatedAt,
	}
}
