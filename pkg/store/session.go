package store

import (
	"sync"
	"time"

	"smart-reader-be/pkg/document"
	"smart-reader-be/pkg/overlay"
)

// ReaderSession is one open reader of a reference: the overlay interaction
// state plus the opened document. All access to the overlay goes through Do.
// Sessions opened on the same reference share one lock, because they share
// one annotation store.
type ReaderSession struct {
	ID          string
	ReferenceID string
	CreatedAt   time.Time

	lock     sync.Locker
	overlay  *overlay.Session
	source   document.Source
	lastSeen time.Time
}

// NewReaderSession wraps s. A nil lock gives the session a private mutex.
func NewReaderSession(id, referenceID string, s *overlay.Session, lock sync.Locker) *ReaderSession {
	if lock == nil {
		lock = &sync.Mutex{}
	}
	now := time.Now()
	return &ReaderSession{
		ID:          id,
		ReferenceID: referenceID,
		CreatedAt:   now,
		lock:        lock,
		overlay:     s,
		lastSeen:    now,
	}
}

// Locker is the lock guarding this session and its siblings on the same
// reference.
func (r *ReaderSession) Locker() sync.Locker {
	return r.lock
}

// Do runs fn with exclusive access to the overlay session.
func (r *ReaderSession) Do(fn func(s *overlay.Session) error) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.lastSeen = time.Now()
	return fn(r.overlay)
}

// Attach installs the opened document and readies the overlay.
func (r *ReaderSession) Attach(src document.Source) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.source = src
	return r.overlay.Attach(src)
}

// Fail records a document load failure.
func (r *ReaderSession) Fail(err error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.source = nil
	r.overlay.Fail(err)
}

// Source returns the opened document, or nil before it is attached.
func (r *ReaderSession) Source() document.Source {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.source
}

func (r *ReaderSession) LastSeen() time.Time {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.lastSeen
}
