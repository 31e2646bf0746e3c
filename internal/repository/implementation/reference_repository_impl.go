package implementation

import (
	"context"
	"errors"
	"fmt"

	"smart-reader-be/internal/entity"
	"smart-reader-be/internal/mapper"
	"smart-reader-be/internal/model"
	"smart-reader-be/internal/repository/contract"
	"smart-reader-be/internal/repository/specification"
	"smart-reader-be/pkg/overlay"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReferenceRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ReferenceMapper
}

func NewReferenceRepository(db *gorm.DB) contract.ReferenceRepository {
	return &ReferenceRepositoryImpl{
		db:     db,
		mapper: mapper.NewReferenceMapper(),
	}
}

func (r *ReferenceRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ReferenceRepositoryImpl) Create(ctx context.Context, ref *entity.Reference) error {
	m, err := r.mapper.ToModel(ref)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	created, err := r.mapper.ToEntity(m)
	if err != nil {
		return err
	}
	*ref = *created
	return nil
}

func (r *ReferenceRepositoryImpl) Update(ctx context.Context, ref *entity.Reference) error {
	m, err := r.mapper.ToModel(ref)
	if err != nil {
		return err
	}
	res := r.db.WithContext(ctx).
		Model(&model.Reference{Id: ref.Id}).
		Select("type", "title", "authors", "year", "publication", "doi", "url", "abstract", "updated_at").
		Updates(m)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return contract.ErrReferenceNotFound
	}
	return nil
}

func (r *ReferenceRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Reference{}, id).Error
}

// FindOne never loads the PDF bytes; use FindPdf for those.
func (r *ReferenceRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Reference, error) {
	var m model.Reference
	query := r.applySpecifications(r.db.WithContext(ctx).Omit("pdf_data"), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m)
}

func (r *ReferenceRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Reference, error) {
	var models []*model.Reference
	query := r.applySpecifications(r.db.WithContext(ctx).Omit("pdf_data"), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models)
}

func (r *ReferenceRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Reference{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ReferenceRepositoryImpl) UpdatePdf(ctx context.Context, id uuid.UUID, name string, data []byte, pages int) error {
	res := r.db.WithContext(ctx).
		Model(&model.Reference{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"has_pdf":   len(data) > 0,
			"pdf_name":  name,
			"pdf_size":  int64(len(data)),
			"pdf_pages": pages,
			"pdf_data":  data,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return contract.ErrReferenceNotFound
	}
	return nil
}

func (r *ReferenceRepositoryImpl) FindPdf(ctx context.Context, id uuid.UUID) (string, []byte, error) {
	var m model.Reference
	err := r.db.WithContext(ctx).
		Select("id", "has_pdf", "pdf_name", "pdf_data").
		Where("id = ?", id).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, contract.ErrReferenceNotFound
		}
		return "", nil, err
	}
	if !m.HasPdf {
		return "", nil, nil
	}
	return m.PdfName, m.PdfData, nil
}

func (r *ReferenceRepositoryImpl) FindAnnotations(ctx context.Context, id uuid.UUID) ([]overlay.Annotation, bool, error) {
	var m model.Reference
	err := r.db.WithContext(ctx).
		Select("id", "annotations").
		Where("id = ?", id).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	annotations, err := r.mapper.DecodeAnnotations(m.Annotations)
	if err != nil {
		return nil, false, err
	}
	return annotations, true, nil
}

// UpdateAnnotations replaces the whole collection in one statement.
func (r *ReferenceRepositoryImpl) UpdateAnnotations(ctx context.Context, id uuid.UUID, annotations []overlay.Annotation) error {
	raw, err := r.mapper.EncodeAnnotations(annotations)
	if err != nil {
		return err
	}
	res := r.db.WithContext(ctx).
		Model(&model.Reference{}).
		Where("id = ?", id).
		Update("annotations", raw)
	if res.Error != nil {
		return fmt.Errorf("update annotations of %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return contract.ErrReferenceNotFound
	}
	return nil
}
