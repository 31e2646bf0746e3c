package unitofwork

import (
	"context"

	"smart-reader-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	ReferenceRepository() contract.ReferenceRepository
}
