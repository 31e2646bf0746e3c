package memory

import (
	"testing"
	"time"

	"smart-reader-be/pkg/overlay"
	"smart-reader-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(id, ref string) *store.ReaderSession {
	o := overlay.NewSession(overlay.NewStore(ref, nil, nil), overlay.DefaultOptions())
	return store.NewReaderSession(id, ref, o, nil)
}

func TestReaderSessionRepositorySaveGetDelete(t *testing.T) {
	repo := NewReaderSessionRepository(time.Minute)
	s := newSession("s1", "ref-1")
	repo.Save(s)

	got, ok := repo.Get("s1")
	require.True(t, ok)
	assert.Same(t, s, got)
	assert.Equal(t, 1, repo.Count())

	repo.Delete("s1")
	_, ok = repo.Get("s1")
	assert.False(t, ok)
	assert.Equal(t, 0, repo.Count())
}

func TestReaderSessionRepositoryByReference(t *testing.T) {
	repo := NewReaderSessionRepository(time.Minute)
	repo.Save(newSession("a", "ref-1"))
	repo.Save(newSession("b", "ref-1"))
	repo.Save(newSession("c", "ref-2"))

	assert.Len(t, repo.ByReference("ref-1"), 2)
	assert.Len(t, repo.ByReference("ref-2"), 1)
	assert.Empty(t, repo.ByReference("ref-3"))
}

func TestReaderSessionRepositoryEviction(t *testing.T) {
	repo := NewReaderSessionRepository(time.Minute)
	var evicted []string
	repo.OnEvicted(func(s *store.ReaderSession) {
		evicted = append(evicted, s.ID)
	})

	repo.Save(newSession("s1", "ref-1"))
	repo.Delete("s1")
	assert.Equal(t, []string{"s1"}, evicted)
}

func TestReaderSessionRepositoryExpiry(t *testing.T) {
	repo := NewReaderSessionRepository(20 * time.Millisecond)
	repo.Save(newSession("s1", "ref-1"))

	time.Sleep(40 * time.Millisecond)
	_, ok := repo.Get("s1")
	assert.False(t, ok)
}
