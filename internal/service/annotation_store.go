package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"smart-reader-be/internal/pkg/logger"
	"smart-reader-be/internal/repository/cache"
	"smart-reader-be/internal/repository/contract"
	"smart-reader-be/internal/repository/unitofwork"
	"smart-reader-be/pkg/overlay"

	"github.com/google/uuid"
)

// annotationDocumentStore persists a reference's annotation collection in
// the references table, with a write-through Redis copy in front of it.
// A key whose Redis copy could not be refreshed or dropped is marked stale
// and bypasses the cache until it is dropped successfully.
type annotationDocumentStore struct {
	uowFactory unitofwork.RepositoryFactory
	cache      *cache.AnnotationCache
	logger     logger.ILogger

	mu    sync.Mutex
	stale map[string]struct{}
}

// NewAnnotationDocumentStore returns the overlay backend. cache may be nil.
func NewAnnotationDocumentStore(uowFactory unitofwork.RepositoryFactory, c *cache.AnnotationCache, log logger.ILogger) overlay.DocumentStore {
	return &annotationDocumentStore{
		uowFactory: uowFactory,
		cache:      c,
		logger:     log,
		stale:      make(map[string]struct{}),
	}
}

func (s *annotationDocumentStore) Load(ctx context.Context, documentID string) ([]overlay.Annotation, error) {
	id, err := uuid.Parse(documentID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrReferenceNotFound, documentID)
	}

	if s.cache != nil && s.usable(ctx, documentID) {
		annotations, hit, err := s.cache.Get(ctx, documentID)
		if err != nil {
			s.logger.Warn("ANNOTATION_STORE", "Cache read failed, falling back to database", map[string]interface{}{
				"reference_id": documentID,
				"error":        err.Error(),
			})
		} else if hit {
			return annotations, nil
		}
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	annotations, found, err := uow.ReferenceRepository().FindAnnotations(ctx, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrReferenceNotFound, documentID)
	}

	s.fill(ctx, documentID, annotations)
	return annotations, nil
}

func (s *annotationDocumentStore) Save(ctx context.Context, documentID string, annotations []overlay.Annotation) error {
	id, err := uuid.Parse(documentID)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrReferenceNotFound, documentID)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ReferenceRepository().UpdateAnnotations(ctx, id, annotations); err != nil {
		s.drop(ctx, documentID)
		if errors.Is(err, contract.ErrReferenceNotFound) {
			return fmt.Errorf("%w: %s", ErrReferenceNotFound, documentID)
		}
		return err
	}

	s.fill(ctx, documentID, annotations)
	return nil
}

// fill writes the collection to Redis. When that fails the old copy is
// dropped so it cannot be served after the database moved on.
func (s *annotationDocumentStore) fill(ctx context.Context, documentID string, annotations []overlay.Annotation) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, documentID, annotations); err != nil {
		s.logger.Warn("ANNOTATION_STORE", "Cache write failed", map[string]interface{}{
			"reference_id": documentID,
			"error":        err.Error(),
		})
		s.drop(ctx, documentID)
		return
	}
	s.setStale(documentID, false)
}

// drop deletes the Redis copy, or marks the key stale when Redis refuses.
func (s *annotationDocumentStore) drop(ctx context.Context, documentID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, documentID); err != nil {
		s.logger.Warn("ANNOTATION_STORE", "Cache invalidation failed, bypassing cache", map[string]interface{}{
			"reference_id": documentID,
			"error":        err.Error(),
		})
		s.setStale(documentID, true)
		return
	}
	s.setStale(documentID, false)
}

// usable reports whether the Redis copy of documentID may be read. A stale
// key becomes usable again once its copy is dropped.
func (s *annotationDocumentStore) usable(ctx context.Context, documentID string) bool {
	s.mu.Lock()
	_, stale := s.stale[documentID]
	s.mu.Unlock()
	if !stale {
		return true
	}
	s.drop(ctx, documentID)
	return false
}

func (s *annotationDocumentStore) setStale(documentID string, stale bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if stale {
		s.stale[documentID] = struct{}{}
	} else {
		delete(s.stale, documentID)
	}
}
