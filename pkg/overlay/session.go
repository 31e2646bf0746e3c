package overlay

import (
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/google/uuid"
)

// State is the document lifecycle of a session.
type State string

const (
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateFailed  State = "failed"
)

// EraserMode selects what a finished eraser stroke does to the store.
type EraserMode string

const (
	// EraserPreview wipes pixels of the live drag only; records are untouched
	// and reappear on the next repaint.
	EraserPreview EraserMode = "preview"
	// EraserHitTest removes every record on the page the stroke touches.
	EraserHitTest EraserMode = "hittest"
)

func ParseEraserMode(s string) (EraserMode, error) {
	switch m := EraserMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "", EraserPreview:
		return EraserPreview, nil
	case EraserHitTest:
		return EraserHitTest, nil
	default:
		return "", fmt.Errorf("unknown eraser mode %q", s)
	}
}

// PageGeometry is the part of a loaded document the session needs.
type PageGeometry interface {
	PageCount() int
	PageSize(page int) (width, height float64, err error)
}

// TextPrompt asks the user for the content of a text annotation. ok is
// false when the user cancelled.
type TextPrompt interface {
	Prompt(ctx context.Context) (text string, ok bool)
}

type answeredPrompt string

func (p answeredPrompt) Prompt(context.Context) (string, bool) {
	return string(p), p != ""
}

// AnswerPrompt returns a TextPrompt that immediately yields text. An empty
// answer behaves as a cancellation.
func AnswerPrompt(text string) TextPrompt {
	return answeredPrompt(text)
}

type Options struct {
	Palette     Palette
	Styles      Styles
	MinZoom     int
	MaxZoom     int
	ZoomStep    int
	DefaultZoom int
	EraserMode  EraserMode
	NewID       func() string
	Measurer    TextMeasurer
}

func DefaultOptions() Options {
	return Options{
		Palette:     DefaultPalette,
		Styles:      DefaultStyles(),
		MinZoom:     50,
		MaxZoom:     200,
		ZoomStep:    10,
		DefaultZoom: 100,
		EraserMode:  EraserPreview,
		NewID:       uuid.NewString,
	}
}

type ChangeKind string

const (
	ChangeCreated ChangeKind = "created"
	ChangeUndone  ChangeKind = "undone"
	ChangeErased  ChangeKind = "erased"
)

// Change describes a store mutation caused by a session operation. The zero
// value means nothing changed.
type Change struct {
	Kind        ChangeKind   `json:"kind"`
	Page        int          `json:"page"`
	Annotations []Annotation `json:"annotations"`
}

func (c Change) Empty() bool {
	return c.Kind == ""
}

// Snapshot is a read-only view of a session's interaction state.
type Snapshot struct {
	State       State  `json:"state"`
	Error       string `json:"error,omitempty"`
	Tool        Tool   `json:"tool"`
	Color       string `json:"color"`
	Page        int    `json:"page"`
	PageCount   int    `json:"page_count"`
	Zoom        int    `json:"zoom"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Drawing     bool   `json:"drawing"`
	Annotations int    `json:"annotations"`
}

// Session is the interaction state of one open document: active tool and
// color, the stroke in progress, the current page and zoom. A Session has a
// single owner; callers serialize access.
type Session struct {
	opts      Options
	store     *Store
	recorder  StrokeRecorder
	paginator *Paginator
	geometry  PageGeometry

	state    State
	err      error
	tool     Tool
	color    string
	zoom     int
	liveTool Tool
}

func NewSession(store *Store, opts Options) *Session {
	defaults := DefaultOptions()
	if len(opts.Palette) == 0 {
		opts.Palette = defaults.Palette
	}
	if opts.Styles == (Styles{}) {
		opts.Styles = defaults.Styles
	}
	if opts.MinZoom <= 0 {
		opts.MinZoom = defaults.MinZoom
	}
	if opts.MaxZoom < opts.MinZoom {
		opts.MaxZoom = max(defaults.MaxZoom, opts.MinZoom)
	}
	if opts.ZoomStep <= 0 {
		opts.ZoomStep = defaults.ZoomStep
	}
	if opts.DefaultZoom <= 0 {
		opts.DefaultZoom = defaults.DefaultZoom
	}
	if opts.EraserMode == "" {
		opts.EraserMode = defaults.EraserMode
	}
	if opts.NewID == nil {
		opts.NewID = defaults.NewID
	}

	color := DefaultColor
	if !opts.Palette.Contains(color) {
		color = opts.Palette[0]
	}

	s := &Session{
		opts:      opts,
		store:     store,
		paginator: NewPaginator(0),
		state:     StateLoading,
		tool:      ToolCursor,
		color:     color,
	}
	s.zoom = s.clampZoom(opts.DefaultZoom)
	return s
}

func (s *Session) State() State {
	return s.state
}

// Err returns the load failure of a failed session.
func (s *Session) Err() error {
	return s.err
}

// Attach installs a loaded document and makes the session ready. The
// session starts on page 1.
func (s *Session) Attach(geometry PageGeometry) error {
	if geometry == nil || geometry.PageCount() < 1 {
		err := fmt.Errorf("%w: document has no pages", ErrDocumentFailed)
		s.Fail(err)
		return err
	}
	s.geometry = geometry
	s.paginator.SetCount(geometry.PageCount())
	s.recorder.Finish()
	s.state = StateReady
	s.err = nil
	return nil
}

// Fail marks the document as unusable. Pointer handling stays disabled
// until a later successful Attach.
func (s *Session) Fail(err error) {
	s.recorder.Finish()
	s.state = StateFailed
	s.err = err
}

func (s *Session) Tool() Tool {
	return s.tool
}

func (s *Session) Color() string {
	return s.color
}

func (s *Session) Page() int {
	return s.paginator.Current()
}

func (s *Session) PageCount() int {
	return s.paginator.Count()
}

func (s *Session) Zoom() int {
	return s.zoom
}

func (s *Session) Store() *Store {
	return s.store
}

// SelectTool switches the active tool. A stroke in progress is discarded.
func (s *Session) SelectTool(t Tool) error {
	parsed, err := ParseTool(string(t))
	if err != nil {
		return err
	}
	s.recorder.Finish()
	s.tool = parsed
	return nil
}

func (s *Session) SelectColor(color string) error {
	c, err := s.opts.Palette.Normalize(color)
	if err != nil {
		return err
	}
	s.color = c
	return nil
}

// GoToPage moves to page n (clamped) and returns the resulting page. A
// stroke in progress is discarded.
func (s *Session) GoToPage(n int) int {
	s.recorder.Finish()
	return s.paginator.GoTo(n)
}

func (s *Session) NextPage() int {
	return s.GoToPage(s.paginator.Current() + 1)
}

func (s *Session) PrevPage() int {
	return s.GoToPage(s.paginator.Current() - 1)
}

// SetZoom sets the zoom percentage, clamped to the configured range.
func (s *Session) SetZoom(z int) int {
	z = s.clampZoom(z)
	if z != s.zoom {
		s.recorder.Finish()
		s.zoom = z
	}
	return s.zoom
}

func (s *Session) ZoomIn() int {
	return s.SetZoom(s.zoom + s.opts.ZoomStep)
}

func (s *Session) ZoomOut() int {
	return s.SetZoom(s.zoom - s.opts.ZoomStep)
}

func (s *Session) clampZoom(z int) int {
	if z < s.opts.MinZoom {
		return s.opts.MinZoom
	}
	if z > s.opts.MaxZoom {
		return s.opts.MaxZoom
	}
	return z
}

// Surface returns the overlay's pixel space for the current page and zoom.
func (s *Session) Surface() (Surface, error) {
	if err := s.ready(); err != nil {
		return Surface{}, err
	}
	w, h, err := s.geometry.PageSize(s.paginator.Current())
	if err != nil {
		return Surface{}, fmt.Errorf("%w: page %d: %v", ErrDocumentFailed, s.paginator.Current(), err)
	}
	return Surface{BaseWidth: w, BaseHeight: h, Zoom: s.zoom}, nil
}

func (s *Session) ready() error {
	switch s.state {
	case StateReady:
		return nil
	case StateFailed:
		if s.err != nil {
			return fmt.Errorf("%w: %v", ErrDocumentFailed, s.err)
		}
		return ErrDocumentFailed
	default:
		return ErrNotReady
	}
}

// pointerAllowed reports whether pointer input should be processed. Events
// arriving while the document is still loading are ignored.
func (s *Session) pointerAllowed() (bool, error) {
	switch s.state {
	case StateReady:
		return true, nil
	case StateFailed:
		return false, s.ready()
	default:
		return false, nil
	}
}

func (s *Session) documentPoint(ev PointerEvent, bounds Rect) (Point, error) {
	surface, err := s.Surface()
	if err != nil {
		return Point{}, err
	}
	return surface.ToDocument(MapPointer(ev, bounds)), nil
}

// PointerDown starts a stroke for drawing tools, or places a text record
// when the prompt yields non-empty text.
func (s *Session) PointerDown(ctx context.Context, ev PointerEvent, bounds Rect, prompt TextPrompt) (Change, error) {
	if ok, err := s.pointerAllowed(); !ok {
		return Change{}, err
	}
	p, err := s.documentPoint(ev, bounds)
	if err != nil {
		return Change{}, err
	}

	switch {
	case s.tool == ToolText:
		return s.placeText(ctx, p, prompt)
	case s.tool.Draws():
		s.recorder.Begin(p)
		s.liveTool = s.tool
	}
	return Change{}, nil
}

func (s *Session) placeText(ctx context.Context, at Point, prompt TextPrompt) (Change, error) {
	if prompt == nil {
		return Change{}, nil
	}
	text, ok := prompt.Prompt(ctx)
	if !ok || strings.TrimSpace(text) == "" {
		return Change{}, nil
	}
	rec := NewTextAnnotation(s.opts.NewID(), s.paginator.Current(), s.color, at, text, s.opts.Styles.FontSize)
	if err := s.store.Append(ctx, rec); err != nil {
		return Change{}, err
	}
	return Change{Kind: ChangeCreated, Page: rec.Page, Annotations: []Annotation{rec}}, nil
}

// PointerMove extends the active stroke. The returned segment is in
// document units; ok is false when no stroke is in progress.
func (s *Session) PointerMove(ev PointerEvent, bounds Rect) (Segment, bool, error) {
	if ok, err := s.pointerAllowed(); !ok || !s.recorder.Active() {
		return Segment{}, false, err
	}
	p, err := s.documentPoint(ev, bounds)
	if err != nil {
		return Segment{}, false, err
	}
	seg, ok := s.recorder.Extend(p)
	return seg, ok, nil
}

// PointerUp finalizes the active stroke. Strokes with fewer than two points
// are dropped.
func (s *Session) PointerUp(ctx context.Context) (Change, error) {
	if ok, err := s.pointerAllowed(); !ok || !s.recorder.Active() {
		return Change{}, err
	}
	tool := s.liveTool
	points := s.recorder.Finish()
	if len(points) < 2 {
		return Change{}, nil
	}

	page := s.paginator.Current()
	var rec Annotation
	switch tool {
	case ToolPen:
		rec = NewPathAnnotation(s.opts.NewID(), page, s.color, points, s.opts.Styles.Pen.Width)
	case ToolHighlight:
		rec = NewHighlightAnnotation(s.opts.NewID(), page, s.color, points, s.opts.Styles.Highlight.Width)
	case ToolEraser:
		return s.eraseStroke(ctx, page, points)
	default:
		return Change{}, nil
	}

	if err := s.store.Append(ctx, rec); err != nil {
		return Change{}, err
	}
	return Change{Kind: ChangeCreated, Page: page, Annotations: []Annotation{rec}}, nil
}

// PointerLeave ends a drag that leaves the surface exactly like a release.
func (s *Session) PointerLeave(ctx context.Context) (Change, error) {
	return s.PointerUp(ctx)
}

func (s *Session) eraseStroke(ctx context.Context, page int, points []Point) (Change, error) {
	if s.opts.EraserMode != EraserHitTest {
		return Change{}, nil
	}
	ids := HitTest(s.store.FilterByPage(page), page, points, s.opts.Styles.Eraser.Width, s.opts.Styles, s.opts.Measurer)
	removed, err := s.store.RemoveIDs(ctx, ids)
	if err != nil {
		return Change{}, err
	}
	if len(removed) == 0 {
		return Change{}, nil
	}
	return Change{Kind: ChangeErased, Page: page, Annotations: removed}, nil
}

// Undo removes the most recent record on the current page.
func (s *Session) Undo(ctx context.Context) (Change, error) {
	page := s.paginator.Current()
	removed, ok, err := s.store.UndoLast(ctx, page)
	if err != nil || !ok {
		return Change{}, err
	}
	return Change{Kind: ChangeUndone, Page: page, Annotations: []Annotation{removed}}, nil
}

// Frame assembles what the Renderer paints for the current page.
func (s *Session) Frame() (Frame, error) {
	surface, err := s.Surface()
	if err != nil {
		return Frame{}, err
	}
	f := Frame{
		Surface:     surface,
		Page:        s.paginator.Current(),
		Annotations: s.store.FilterByPage(s.paginator.Current()),
		LiveColor:   s.color,
		Styles:      s.opts.Styles,
	}
	if s.recorder.Active() {
		f.Live = s.recorder.Points()
		f.LiveTool = s.liveTool
	}
	return f, nil
}

// Render repaints the current page with r.
func (s *Session) Render(r *Renderer) (*image.RGBA, error) {
	f, err := s.Frame()
	if err != nil {
		return nil, err
	}
	return r.Render(f)
}

// Annotations lists every record of the document in insertion order,
// optionally restricted to the given kinds.
func (s *Session) Annotations(kinds ...Kind) []Annotation {
	all := s.store.All()
	if len(kinds) == 0 {
		return all
	}
	out := make([]Annotation, 0, len(all))
	for _, a := range all {
		for _, k := range kinds {
			if a.Kind == k {
				out = append(out, a)
				break
			}
		}
	}
	return out
}

func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		State:       s.state,
		Tool:        s.tool,
		Color:       s.color,
		Page:        s.paginator.Current(),
		PageCount:   s.paginator.Count(),
		Zoom:        s.zoom,
		Drawing:     s.recorder.Active(),
		Annotations: s.store.Len(),
	}
	if s.err != nil {
		snap.Error = s.err.Error()
	}
	if surface, err := s.Surface(); err == nil {
		snap.Width, snap.Height = surface.Width(), surface.Height()
	}
	return snap
}
