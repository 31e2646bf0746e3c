package mapper

import (
	"encoding/json"
	"fmt"
	"time"

	"smart-reader-be/internal/entity"
	"smart-reader-be/internal/model"
	"smart-reader-be/pkg/overlay"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ReferenceMapper struct{}

func NewReferenceMapper() *ReferenceMapper {
	return &ReferenceMapper{}
}

func (m *ReferenceMapper) ToEntity(r *model.Reference) (*entity.Reference, error) {
	if r == nil {
		return nil, nil
	}

	annotations, err := m.DecodeAnnotations(r.Annotations)
	if err != nil {
		return nil, fmt.Errorf("reference %s: %w", r.Id, err)
	}

	var deletedAt *time.Time
	if r.DeletedAt.Valid {
		t := r.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !r.UpdatedAt.IsZero() {
		t := r.UpdatedAt
		updatedAt = &t
	}

	return &entity.Reference{
		Id:          r.Id,
		Type:        entity.ReferenceType(r.Type),
		Title:       r.Title,
		Authors:     []string(r.Authors),
		Year:        r.Year,
		Publication: r.Publication,
		Doi:         r.Doi,
		Url:         r.Url,
		Abstract:    r.Abstract,
		HasPdf:      r.HasPdf,
		PdfName:     r.PdfName,
		PdfSize:     r.PdfSize,
		PdfPages:    r.PdfPages,
		PdfData:     r.PdfData,
		Annotations: annotations,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   updatedAt,
		DeletedAt:   deletedAt,
		IsDeleted:   r.DeletedAt.Valid,
	}, nil
}

func (m *ReferenceMapper) ToModel(r *entity.Reference) (*model.Reference, error) {
	if r == nil {
		return nil, nil
	}

	annotations, err := m.EncodeAnnotations(r.Annotations)
	if err != nil {
		return nil, err
	}

	var deletedAt gorm.DeletedAt
	if r.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *r.DeletedAt, Valid: true}
	} else if r.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if r.UpdatedAt != nil {
		updatedAt = *r.UpdatedAt
	}

	return &model.Reference{
		Id:          r.Id,
		Type:        string(r.Type),
		Title:       r.Title,
		Authors:     datatypes.JSONSlice[string](r.Authors),
		Year:        r.Year,
		Publication: r.Publication,
		Doi:         r.Doi,
		Url:         r.Url,
		Abstract:    r.Abstract,
		HasPdf:      r.HasPdf,
		PdfName:     r.PdfName,
		PdfSize:     r.PdfSize,
		PdfPages:    r.PdfPages,
		PdfData:     r.PdfData,
		Annotations: annotations,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   updatedAt,
		DeletedAt:   deletedAt,
	}, nil
}

func (m *ReferenceMapper) ToEntities(refs []*model.Reference) ([]*entity.Reference, error) {
	entities := make([]*entity.Reference, len(refs))
	for i, r := range refs {
		e, err := m.ToEntity(r)
		if err != nil {
			return nil, err
		}
		entities[i] = e
	}
	return entities, nil
}

// DecodeAnnotations reads the JSONB column. NULL and empty values decode
// to an empty collection.
func (m *ReferenceMapper) DecodeAnnotations(raw datatypes.JSON) ([]overlay.Annotation, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return []overlay.Annotation{}, nil
	}
	var out []overlay.Annotation
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode annotations: %w", err)
	}
	if out == nil {
		out = []overlay.Annotation{}
	}
	return out, nil
}

func (m *ReferenceMapper) EncodeAnnotations(annotations []overlay.Annotation) (datatypes.JSON, error) {
	if annotations == nil {
		annotations = []overlay.Annotation{}
	}
	raw, err := json.Marshal(annotations)
	if err != nil {
		return nil, fmt.Errorf("encode annotations: %w", err)
	}
	return datatypes.JSON(raw), nil
}
