package contract

import (
	"context"
	"errors"

	"smart-reader-be/internal/entity"
	"smart-reader-be/internal/repository/specification"
	"smart-reader-be/pkg/overlay"

	"github.com/google/uuid"
)

var ErrReferenceNotFound = errors.New("reference not found")

type ReferenceRepository interface {
	Create(ctx context.Context, ref *entity.Reference) error
	// Update writes metadata only; the PDF bytes and annotations have their
	// own writers.
	Update(ctx context.Context, ref *entity.Reference) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Reference, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Reference, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	UpdatePdf(ctx context.Context, id uuid.UUID, name string, data []byte, pages int) error
	FindPdf(ctx context.Context, id uuid.UUID) (name string, data []byte, err error)

	// FindAnnotations returns nil, false when the reference does not exist.
	FindAnnotations(ctx context.Context, id uuid.UUID) ([]overlay.Annotation, bool, error)
	UpdateAnnotations(ctx context.Context, id uuid.UUID, annotations []overlay.Annotation) error
}
