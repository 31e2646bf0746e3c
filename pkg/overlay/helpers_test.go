package overlay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

var errBackendDown = errors.New("backend down")

// memoryBackend keeps collections as JSON, like a document record column.
type memoryBackend struct {
	mu    sync.Mutex
	docs  map[string][]byte
	saves int
	fail  bool
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{docs: make(map[string][]byte)}
}

func (m *memoryBackend) Load(_ context.Context, id string) ([]Annotation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.docs[id]
	if !ok {
		return nil, nil
	}
	var out []Annotation
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *memoryBackend) Save(_ context.Context, id string, annotations []Annotation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errBackendDown
	}
	raw, err := json.Marshal(annotations)
	if err != nil {
		return err
	}
	m.docs[id] = raw
	m.saves++
	return nil
}

type fixedGeometry struct {
	pages         int
	width, height float64
}

func (g fixedGeometry) PageCount() int {
	return g.pages
}

func (g fixedGeometry) PageSize(page int) (float64, float64, error) {
	if page < 1 || page > g.pages {
		return 0, 0, fmt.Errorf("page %d out of range", page)
	}
	return g.width, g.height, nil
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("ann-%d", n)
	}
}

func newReadySession(backend *memoryBackend, pages int) *Session {
	opts := DefaultOptions()
	opts.NewID = sequentialIDs()
	s := NewSession(NewStore("doc-1", backend, nil), opts)
	if err := s.Attach(fixedGeometry{pages: pages, width: 100, height: 100}); err != nil {
		panic(err)
	}
	return s
}

func mouse(x, y float64) PointerEvent {
	return PointerEvent{ClientX: x, ClientY: y}
}

var origin = Rect{Width: 100, Height: 100}

func drag(s *Session, tool Tool, points ...Point) (Change, error) {
	ctx := context.Background()
	if err := s.SelectTool(tool); err != nil {
		return Change{}, err
	}
	if len(points) == 0 {
		return Change{}, nil
	}
	if _, err := s.PointerDown(ctx, mouse(points[0].X, points[0].Y), origin, nil); err != nil {
		return Change{}, err
	}
	for _, p := range points[1:] {
		if _, _, err := s.PointerMove(mouse(p.X, p.Y), origin); err != nil {
			return Change{}, err
		}
	}
	return s.PointerUp(ctx)
}
