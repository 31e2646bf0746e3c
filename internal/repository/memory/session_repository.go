package memory

import (
	"time"

	"smart-reader-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

// ReaderSessionRepository keeps open reader sessions in process memory.
// Sessions expire after the TTL unless touched.
type ReaderSessionRepository struct {
	cache *cache.Cache
	ttl   time.Duration
}

func NewReaderSessionRepository(ttl time.Duration) *ReaderSessionRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &ReaderSessionRepository{
		cache: cache.New(ttl, 10*time.Minute),
		ttl:   ttl,
	}
}

func (r *ReaderSessionRepository) Save(session *store.ReaderSession) {
	r.cache.Set(session.ID, session, cache.DefaultExpiration)
}

// Get returns the session and extends its lifetime.
func (r *ReaderSessionRepository) Get(sessionID string) (*store.ReaderSession, bool) {
	x, found := r.cache.Get(sessionID)
	if !found {
		return nil, false
	}
	session := x.(*store.ReaderSession)
	r.cache.Set(sessionID, session, cache.DefaultExpiration)
	return session, true
}

func (r *ReaderSessionRepository) Delete(sessionID string) {
	r.cache.Delete(sessionID)
}

// ByReference lists the live sessions open on a reference.
func (r *ReaderSessionRepository) ByReference(referenceID string) []*store.ReaderSession {
	var out []*store.ReaderSession
	for _, item := range r.cache.Items() {
		if s, ok := item.Object.(*store.ReaderSession); ok && s.ReferenceID == referenceID {
			out = append(out, s)
		}
	}
	return out
}

func (r *ReaderSessionRepository) Count() int {
	return r.cache.ItemCount()
}

// OnEvicted registers a callback for expired or deleted sessions.
func (r *ReaderSessionRepository) OnEvicted(fn func(session *store.ReaderSession)) {
	r.cache.OnEvicted(func(_ string, v interface{}) {
		if s, ok := v.(*store.ReaderSession); ok {
			fn(s)
		}
	})
}
