package overlay

import (
	"context"
	"fmt"
)

// DocumentStore persists the whole annotation collection of a document.
type DocumentStore interface {
	Load(ctx context.Context, documentID string) ([]Annotation, error)
	Save(ctx context.Context, documentID string, annotations []Annotation) error
}

// Store is the ordered annotation collection of one document. Every mutation
// writes the entire collection through the DocumentStore before it becomes
// visible; a failed write leaves the collection unchanged.
type Store struct {
	documentID string
	backend    DocumentStore
	records    []Annotation
}

func NewStore(documentID string, backend DocumentStore, records []Annotation) *Store {
	return &Store{
		documentID: documentID,
		backend:    backend,
		records:    cloneAll(records),
	}
}

// LoadStore reads the document's collection from the backend.
func LoadStore(ctx context.Context, documentID string, backend DocumentStore) (*Store, error) {
	records, err := backend.Load(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("load annotations: %w", err)
	}
	return &Store{
		documentID: documentID,
		backend:    backend,
		records:    cloneAll(records),
	}, nil
}

func (s *Store) DocumentID() string {
	return s.documentID
}

// Append adds rec to the end of the collection.
func (s *Store) Append(ctx context.Context, rec Annotation) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	next := make([]Annotation, 0, len(s.records)+1)
	next = append(next, s.records...)
	next = append(next, rec.clone())
	return s.persist(ctx, next)
}

// UndoLast removes the most recently appended record on page. It reports
// false, with no write, when the page has no records.
func (s *Store) UndoLast(ctx context.Context, page int) (Annotation, bool, error) {
	idx := -1
	for i := len(s.records) - 1; i >= 0; i-- {
		if s.records[i].Page == page {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Annotation{}, false, nil
	}

	removed := s.records[idx].clone()
	next := make([]Annotation, 0, len(s.records)-1)
	next = append(next, s.records[:idx]...)
	next = append(next, s.records[idx+1:]...)
	if err := s.persist(ctx, next); err != nil {
		return Annotation{}, false, err
	}
	return removed, true, nil
}

// RemoveIDs deletes every record whose ID is listed, in a single write.
func (s *Store) RemoveIDs(ctx context.Context, ids []string) ([]Annotation, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	var removed []Annotation
	next := make([]Annotation, 0, len(s.records))
	for _, r := range s.records {
		if _, ok := drop[r.ID]; ok {
			removed = append(removed, r.clone())
			continue
		}
		next = append(next, r)
	}
	if len(removed) == 0 {
		return nil, nil
	}
	if err := s.persist(ctx, next); err != nil {
		return nil, err
	}
	return removed, nil
}

// FilterByPage returns the page's records in insertion order.
func (s *Store) FilterByPage(page int) []Annotation {
	var out []Annotation
	for _, r := range s.records {
		if r.Page == page {
			out = append(out, r.clone())
		}
	}
	return out
}

func (s *Store) All() []Annotation {
	return cloneAll(s.records)
}

func (s *Store) Len() int {
	return len(s.records)
}

func (s *Store) persist(ctx context.Context, next []Annotation) error {
	if err := s.backend.Save(ctx, s.documentID, cloneAll(next)); err != nil {
		return fmt.Errorf("persist annotations: %w", err)
	}
	s.records = next
	return nil
}
