package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"strings"
	"sync"
	"time"

	"smart-reader-be/internal/dto"
	"smart-reader-be/internal/pkg/logger"
	"smart-reader-be/internal/repository/memory"
	"smart-reader-be/internal/repository/specification"
	"smart-reader-be/internal/repository/unitofwork"
	"smart-reader-be/pkg/document"
	"smart-reader-be/pkg/overlay"
	"smart-reader-be/pkg/store"

	"github.com/google/uuid"
)

const documentLoadTimeout = 30 * time.Second

type IReaderService interface {
	Open(ctx context.Context, req *dto.OpenSessionRequest) (*dto.SessionResponse, error)
	Show(ctx context.Context, sessionID string) (*dto.SessionResponse, error)
	SelectTool(ctx context.Context, sessionID string, req *dto.SelectToolRequest) (*dto.SessionResponse, error)
	SelectColor(ctx context.Context, sessionID string, req *dto.SelectColorRequest) (*dto.SessionResponse, error)
	GoToPage(ctx context.Context, sessionID string, req *dto.GoToPageRequest) (*dto.SessionResponse, error)
	SetZoom(ctx context.Context, sessionID string, req *dto.SetZoomRequest) (*dto.SessionResponse, error)
	Pointer(ctx context.Context, sessionID string, req *dto.PointerRequest) (*dto.PointerResponse, error)
	Undo(ctx context.Context, sessionID string) (*dto.UndoResponse, error)
	Render(ctx context.Context, sessionID string, composite bool) ([]byte, error)
	Annotations(ctx context.Context, sessionID string, req *dto.ListAnnotationsRequest) (*dto.ListAnnotationsResponse, error)
	Close(ctx context.Context, sessionID string) error
	ReferenceOf(sessionID string) (string, error)
}

type readerService struct {
	uowFactory unitofwork.RepositoryFactory
	sessions   *memory.ReaderSessionRepository
	docStore   overlay.DocumentStore
	loader     document.Loader
	renderer   *overlay.Renderer
	publisher  IPublisherService
	opts       overlay.Options
	logger     logger.ILogger

	// openMu keeps two concurrent opens of one reference from loading two
	// independent stores.
	openMu sync.Mutex
}

func NewReaderService(
	uowFactory unitofwork.RepositoryFactory,
	sessions *memory.ReaderSessionRepository,
	docStore overlay.DocumentStore,
	loader document.Loader,
	renderer *overlay.Renderer,
	publisher IPublisherService,
	opts overlay.Options,
	log logger.ILogger,
) IReaderService {
	if opts.Measurer == nil && renderer != nil {
		opts.Measurer = renderer
	}
	return &readerService{
		uowFactory: uowFactory,
		sessions:   sessions,
		docStore:   docStore,
		loader:     loader,
		renderer:   renderer,
		publisher:  publisher,
		opts:       opts,
		logger:     log,
	}
}

func (s *readerService) Open(ctx context.Context, req *dto.OpenSessionRequest) (*dto.SessionResponse, error) {
	// 1. The reference must exist and carry a PDF
	uow := s.uowFactory.NewUnitOfWork(ctx)
	ref, err := uow.ReferenceRepository().FindOne(ctx, specification.ByID{ID: req.ReferenceId})
	if err != nil {
		return nil, err
	}
	if ref == nil {
		return nil, ErrReferenceNotFound
	}
	if !ref.HasPdf {
		return nil, ErrReferenceHasNoPdf
	}
	referenceID := ref.Id.String()

	// 2. Join the annotation store of sessions already open on the reference
	s.openMu.Lock()
	var (
		annotations *overlay.Store
		lock        sync.Locker
		openedSrc   document.Source
	)
	if siblings := s.sessions.ByReference(referenceID); len(siblings) > 0 {
		sibling := siblings[0]
		_ = sibling.Do(func(o *overlay.Session) error {
			annotations = o.Store()
			return nil
		})
		lock = sibling.Locker()
		openedSrc = sibling.Source()
	} else {
		annotations, err = overlay.LoadStore(ctx, referenceID, s.docStore)
		if err != nil {
			s.openMu.Unlock()
			return nil, err
		}
	}

	session := store.NewReaderSession(uuid.NewString(), referenceID, overlay.NewSession(annotations, s.opts), lock)
	s.sessions.Save(session)
	s.openMu.Unlock()

	// 3. Reuse an opened document or load it in the background
	if openedSrc != nil {
		if err := session.Attach(openedSrc); err != nil {
			session.Fail(err)
		}
	} else {
		go s.loadDocument(session)
	}

	s.logger.Info("READER", "Session opened", map[string]interface{}{
		"session_id":   session.ID,
		"reference_id": referenceID,
		"annotations":  annotations.Len(),
	})
	return s.snapshot(session)
}

// loadDocument fetches and opens the reference PDF once for a session and
// moves it to ready or failed.
func (s *readerService) loadDocument(session *store.ReaderSession) {
	ctx, cancel := context.WithTimeout(context.Background(), documentLoadTimeout)
	defer cancel()

	id, err := uuid.Parse(session.ReferenceID)
	if err != nil {
		session.Fail(err)
		return
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	_, data, err := uow.ReferenceRepository().FindPdf(ctx, id)
	if err == nil && len(data) == 0 {
		err = ErrReferenceHasNoPdf
	}
	var src document.Source
	if err == nil {
		src, err = s.loader.Open(ctx, data)
	}
	if err == nil {
		err = session.Attach(src)
	}
	if err != nil {
		s.logger.Error("READER", "Document failed to load", map[string]interface{}{
			"session_id":   session.ID,
			"reference_id": session.ReferenceID,
			"error":        err.Error(),
		})
		session.Fail(err)
		return
	}

	s.logger.Debug("READER", "Document ready", map[string]interface{}{
		"session_id": session.ID,
		"pages":      src.PageCount(),
	})
}

func (s *readerService) Show(ctx context.Context, sessionID string) (*dto.SessionResponse, error) {
	session, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return s.snapshot(session)
}

func (s *readerService) SelectTool(ctx context.Context, sessionID string, req *dto.SelectToolRequest) (*dto.SessionResponse, error) {
	return s.mutate(sessionID, func(o *overlay.Session) error {
		return o.SelectTool(overlay.Tool(req.Tool))
	})
}

func (s *readerService) SelectColor(ctx context.Context, sessionID string, req *dto.SelectColorRequest) (*dto.SessionResponse, error) {
	return s.mutate(sessionID, func(o *overlay.Session) error {
		return o.SelectColor(req.Color)
	})
}

func (s *readerService) GoToPage(ctx context.Context, sessionID string, req *dto.GoToPageRequest) (*dto.SessionResponse, error) {
	return s.mutate(sessionID, func(o *overlay.Session) error {
		switch req.Action {
		case "next":
			o.NextPage()
		case "prev":
			o.PrevPage()
		default:
			if req.Page < 1 {
				return fmt.Errorf("%w: page or action is required", ErrInvalidRequest)
			}
			o.GoToPage(req.Page)
		}
		return nil
	})
}

func (s *readerService) SetZoom(ctx context.Context, sessionID string, req *dto.SetZoomRequest) (*dto.SessionResponse, error) {
	return s.mutate(sessionID, func(o *overlay.Session) error {
		switch req.Action {
		case "in":
			o.ZoomIn()
		case "out":
			o.ZoomOut()
		default:
			if req.Zoom < 1 {
				return fmt.Errorf("%w: zoom or action is required", ErrInvalidRequest)
			}
			o.SetZoom(req.Zoom)
		}
		return nil
	})
}

func (s *readerService) Pointer(ctx context.Context, sessionID string, req *dto.PointerRequest) (*dto.PointerResponse, error) {
	session, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	ev := overlay.PointerEvent{ClientX: req.ClientX, ClientY: req.ClientY, Touch: req.Touch}
	for _, t := range req.Touches {
		ev.Touches = append(ev.Touches, overlay.Point{X: t.X, Y: t.Y})
	}
	bounds := overlay.Rect{Left: req.Bounds.Left, Top: req.Bounds.Top, Width: req.Bounds.Width, Height: req.Bounds.Height}

	var (
		change  overlay.Change
		segment *overlay.Segment
		snap    overlay.Snapshot
	)
	err = session.Do(func(o *overlay.Session) error {
		var err error
		switch req.Phase {
		case "down":
			change, err = o.PointerDown(ctx, ev, bounds, overlay.AnswerPrompt(req.Text))
		case "move":
			var (
				seg overlay.Segment
				ok  bool
			)
			seg, ok, err = o.PointerMove(ev, bounds)
			if ok {
				segment = &seg
			}
		case "up":
			change, err = o.PointerUp(ctx)
		case "leave":
			change, err = o.PointerLeave(ctx)
		default:
			err = fmt.Errorf("%w: %q", ErrInvalidPhase, req.Phase)
		}
		snap = o.Snapshot()
		return err
	})
	if err != nil {
		return nil, err
	}

	s.announce(ctx, session, change)
	return &dto.PointerResponse{
		Session: toSessionResponse(session, snap),
		Segment: segment,
		Change:  toChangeResponse(change),
	}, nil
}

func (s *readerService) Undo(ctx context.Context, sessionID string) (*dto.UndoResponse, error) {
	session, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	var (
		change overlay.Change
		snap   overlay.Snapshot
	)
	err = session.Do(func(o *overlay.Session) error {
		var err error
		change, err = o.Undo(ctx)
		snap = o.Snapshot()
		return err
	})
	if err != nil {
		return nil, err
	}

	s.announce(ctx, session, change)
	return &dto.UndoResponse{
		Session: toSessionResponse(session, snap),
		Change:  toChangeResponse(change),
	}, nil
}

// Render paints the overlay of the current page as PNG, optionally over a
// blank page surface.
func (s *readerService) Render(ctx context.Context, sessionID string, composite bool) ([]byte, error) {
	session, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	src := session.Source()

	var (
		layer     *image.RGBA
		page      int
		zoomScale float64
	)
	err = session.Do(func(o *overlay.Session) error {
		img, err := o.Render(s.renderer)
		if err != nil {
			return err
		}
		layer = img
		page = o.Page()
		zoomScale = float64(o.Zoom()) / 100
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := layer
	if composite && src != nil {
		pageImg, err := src.Render(ctx, page, zoomScale)
		if err != nil {
			return nil, fmt.Errorf("render page %d: %w", page, err)
		}
		out = overlay.RenderComposite(pageImg, layer)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *readerService) Annotations(ctx context.Context, sessionID string, req *dto.ListAnnotationsRequest) (*dto.ListAnnotationsResponse, error) {
	session, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	var kinds []overlay.Kind
	for _, raw := range strings.Split(req.Kinds, ",") {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		k, err := overlay.ParseKind(raw)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}

	var annotations []overlay.Annotation
	_ = session.Do(func(o *overlay.Session) error {
		annotations = o.Annotations(kinds...)
		return nil
	})
	if annotations == nil {
		annotations = []overlay.Annotation{}
	}
	return &dto.ListAnnotationsResponse{Total: len(annotations), Annotations: annotations}, nil
}

func (s *readerService) Close(ctx context.Context, sessionID string) error {
	if _, err := s.session(sessionID); err != nil {
		return err
	}
	s.sessions.Delete(sessionID)
	s.logger.Info("READER", "Session closed", map[string]interface{}{"session_id": sessionID})
	return nil
}

func (s *readerService) ReferenceOf(sessionID string) (string, error) {
	session, err := s.session(sessionID)
	if err != nil {
		return "", err
	}
	return session.ReferenceID, nil
}

func (s *readerService) session(sessionID string) (*store.ReaderSession, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (s *readerService) mutate(sessionID string, fn func(o *overlay.Session) error) (*dto.SessionResponse, error) {
	session, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	var snap overlay.Snapshot
	err = session.Do(func(o *overlay.Session) error {
		if err := fn(o); err != nil {
			return err
		}
		snap = o.Snapshot()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toSessionResponse(session, snap), nil
}

func (s *readerService) snapshot(session *store.ReaderSession) (*dto.SessionResponse, error) {
	var snap overlay.Snapshot
	_ = session.Do(func(o *overlay.Session) error {
		snap = o.Snapshot()
		return nil
	})
	return toSessionResponse(session, snap), nil
}

// announce publishes a non-empty change. Delivery problems are logged; the
// change is already persisted.
func (s *readerService) announce(ctx context.Context, session *store.ReaderSession, change overlay.Change) {
	if change.Empty() || s.publisher == nil {
		return
	}
	payload, err := json.Marshal(dto.AnnotationChangedMessage{
		ReferenceId: session.ReferenceID,
		SessionId:   session.ID,
		Kind:        change.Kind,
		Page:        change.Page,
		Annotations: change.Annotations,
		OccurredAt:  time.Now(),
	})
	if err == nil {
		err = s.publisher.Publish(ctx, payload)
	}
	if err != nil {
		s.logger.Warn("READER", "Failed to announce annotation change", map[string]interface{}{
			"session_id": session.ID,
			"kind":       change.Kind,
			"error":      err.Error(),
		})
	}
}

func toSessionResponse(session *store.ReaderSession, snap overlay.Snapshot) *dto.SessionResponse {
	return &dto.SessionResponse{
		Id:          session.ID,
		ReferenceId: session.ReferenceID,
		CreatedAt:   session.CreatedAt,
		Snapshot:    snap,
	}
}

func toChangeResponse(change overlay.Change) *dto.ChangeResponse {
	if change.Empty() {
		return nil
	}
	return &dto.ChangeResponse{
		Kind:        change.Kind,
		Page:        change.Page,
		Annotations: change.Annotations,
	}
}
