package overlay

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPenStrokeThenUndo(t *testing.T) {
	backend := newMemoryBackend()
	s := newReadySession(backend, 3)

	change, err := drag(s, ToolPen, Point{X: 10, Y: 10}, Point{X: 20, Y: 20}, Point{X: 30, Y: 10})
	require.NoError(t, err)
	assert.Equal(t, ChangeCreated, change.Kind)

	records := s.Store().All()
	require.Len(t, records, 1)
	assert.Equal(t, KindPath, records[0].Kind)
	assert.Equal(t, 1, records[0].Page)
	assert.Equal(t, []Point{{X: 10, Y: 10}, {X: 20, Y: 20}, {X: 30, Y: 10}}, records[0].Points)
	assert.Equal(t, 2.0, records[0].LineWidth)
	assert.Equal(t, DefaultColor, records[0].Color)

	change, err = s.Undo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ChangeUndone, change.Kind)
	assert.Zero(t, s.Store().Len())

	reloaded, err := backend.Load(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Empty(t, reloaded)
}

func TestGoToPageClampsToPageCount(t *testing.T) {
	s := newReadySession(newMemoryBackend(), 3)

	assert.Equal(t, 3, s.GoToPage(5))
	assert.Equal(t, 3, s.Page())
}

func TestTextToolCreatesRecord(t *testing.T) {
	s := newReadySession(newMemoryBackend(), 3)
	s.GoToPage(2)
	require.NoError(t, s.SelectTool(ToolText))

	change, err := s.PointerDown(context.Background(), mouse(50, 50), origin, AnswerPrompt("check this"))
	require.NoError(t, err)
	assert.Equal(t, ChangeCreated, change.Kind)

	records := s.Store().All()
	require.Len(t, records, 1)
	got := records[0]
	assert.Equal(t, KindText, got.Kind)
	assert.Equal(t, 2, got.Page)
	assert.Equal(t, 50.0, got.X)
	assert.Equal(t, 50.0, got.Y)
	assert.Equal(t, "check this", got.Text)
	assert.Equal(t, 16.0, got.FontSize)
}

func TestTextToolCancelledOrEmpty(t *testing.T) {
	s := newReadySession(newMemoryBackend(), 1)
	require.NoError(t, s.SelectTool(ToolText))

	for _, prompt := range []TextPrompt{nil, AnswerPrompt(""), AnswerPrompt("  \n")} {
		change, err := s.PointerDown(context.Background(), mouse(5, 5), origin, prompt)
		require.NoError(t, err)
		assert.True(t, change.Empty())
	}
	assert.Zero(t, s.Store().Len())
}

func TestDragLengthDecidesRecord(t *testing.T) {
	tests := []struct {
		name   string
		tool   Tool
		points []Point
		want   int
		kind   Kind
	}{
		{"pen single point", ToolPen, []Point{{X: 5, Y: 5}}, 0, ""},
		{"pen two points", ToolPen, []Point{{X: 5, Y: 5}, {X: 6, Y: 6}}, 1, KindPath},
		{"highlight single point", ToolHighlight, []Point{{X: 5, Y: 5}}, 0, ""},
		{"highlight many points", ToolHighlight, []Point{{X: 5, Y: 5}, {X: 6, Y: 6}, {X: 9, Y: 9}}, 1, KindHighlight},
		{"eraser never stores", ToolEraser, []Point{{X: 5, Y: 5}, {X: 6, Y: 6}}, 0, ""},
		{"cursor ignores pointer", ToolCursor, []Point{{X: 5, Y: 5}, {X: 6, Y: 6}}, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newReadySession(newMemoryBackend(), 1)

			_, err := drag(s, tt.tool, tt.points...)
			require.NoError(t, err)

			require.Equal(t, tt.want, s.Store().Len())
			if tt.want == 1 {
				assert.Equal(t, tt.kind, s.Store().All()[0].Kind)
			}
		})
	}
}

func TestHighlightUsesWideStroke(t *testing.T) {
	s := newReadySession(newMemoryBackend(), 1)
	require.NoError(t, s.SelectColor("#22C55E"))

	_, err := drag(s, ToolHighlight, Point{X: 1, Y: 1}, Point{X: 40, Y: 1})
	require.NoError(t, err)

	rec := s.Store().All()[0]
	assert.Equal(t, 20.0, rec.LineWidth)
	assert.Equal(t, "#22c55e", rec.Color)
}

func TestMoveWithoutDownIsIgnored(t *testing.T) {
	s := newReadySession(newMemoryBackend(), 1)
	require.NoError(t, s.SelectTool(ToolPen))

	_, ok, err := s.PointerMove(mouse(3, 3), origin)
	require.NoError(t, err)
	assert.False(t, ok)

	change, err := s.PointerUp(context.Background())
	require.NoError(t, err)
	assert.True(t, change.Empty())
}

func TestPointerLeaveFinalizesStroke(t *testing.T) {
	s := newReadySession(newMemoryBackend(), 1)
	require.NoError(t, s.SelectTool(ToolPen))
	ctx := context.Background()

	_, err := s.PointerDown(ctx, mouse(1, 1), origin, nil)
	require.NoError(t, err)
	_, _, err = s.PointerMove(mouse(8, 8), origin)
	require.NoError(t, err)

	change, err := s.PointerLeave(ctx)
	require.NoError(t, err)
	assert.Equal(t, ChangeCreated, change.Kind)
	assert.Equal(t, 1, s.Store().Len())
}

func TestToolOrPageChangeDiscardsStroke(t *testing.T) {
	ctx := context.Background()
	s := newReadySession(newMemoryBackend(), 2)
	require.NoError(t, s.SelectTool(ToolPen))

	_, err := s.PointerDown(ctx, mouse(1, 1), origin, nil)
	require.NoError(t, err)
	s.PointerMove(mouse(5, 5), origin)
	require.NoError(t, s.SelectTool(ToolHighlight))
	change, err := s.PointerUp(ctx)
	require.NoError(t, err)
	assert.True(t, change.Empty())

	_, err = s.PointerDown(ctx, mouse(1, 1), origin, nil)
	require.NoError(t, err)
	s.PointerMove(mouse(5, 5), origin)
	s.NextPage()
	change, err = s.PointerUp(ctx)
	require.NoError(t, err)
	assert.True(t, change.Empty())
	assert.Zero(t, s.Store().Len())
}

func TestSelectRejectsUnknownValues(t *testing.T) {
	s := newReadySession(newMemoryBackend(), 1)

	assert.ErrorIs(t, s.SelectTool("lasso"), ErrUnknownTool)
	assert.Equal(t, ToolCursor, s.Tool())

	assert.ErrorIs(t, s.SelectColor("#000000"), ErrColorNotInPalette)
	assert.Equal(t, DefaultColor, s.Color())
}

func TestZoomClampsAndSteps(t *testing.T) {
	s := newReadySession(newMemoryBackend(), 1)

	assert.Equal(t, 100, s.Zoom())
	assert.Equal(t, 110, s.ZoomIn())
	assert.Equal(t, 200, s.SetZoom(500))
	assert.Equal(t, 200, s.ZoomIn())
	assert.Equal(t, 50, s.SetZoom(10))
	assert.Equal(t, 50, s.ZoomOut())
}

func TestCaptureAtZoomStoresDocumentUnits(t *testing.T) {
	s := newReadySession(newMemoryBackend(), 1)
	s.SetZoom(200)

	_, err := drag(s, ToolPen, Point{X: 20, Y: 20}, Point{X: 60, Y: 40})
	require.NoError(t, err)

	assert.Equal(t, []Point{{X: 10, Y: 10}, {X: 30, Y: 20}}, s.Store().All()[0].Points)

	surface, err := s.Surface()
	require.NoError(t, err)
	assert.Equal(t, 200, surface.Width())
}

func TestUndoOnlyTouchesCurrentPage(t *testing.T) {
	s := newReadySession(newMemoryBackend(), 2)
	_, err := drag(s, ToolPen, Point{X: 1, Y: 1}, Point{X: 2, Y: 2})
	require.NoError(t, err)
	s.NextPage()

	change, err := s.Undo(context.Background())
	require.NoError(t, err)
	assert.True(t, change.Empty())
	assert.Equal(t, 1, s.Store().Len())
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	opts := DefaultOptions()
	s := NewSession(NewStore("doc", newMemoryBackend(), nil), opts)
	require.NoError(t, s.SelectTool(ToolPen))

	assert.Equal(t, StateLoading, s.State())
	change, err := s.PointerDown(ctx, mouse(1, 1), origin, nil)
	assert.NoError(t, err, "pointer events are ignored while loading")
	assert.True(t, change.Empty())
	_, err = s.Frame()
	assert.ErrorIs(t, err, ErrNotReady)

	s.Fail(errors.New("corrupt xref"))
	assert.Equal(t, StateFailed, s.State())
	_, err = s.PointerDown(ctx, mouse(1, 1), origin, nil)
	assert.ErrorIs(t, err, ErrDocumentFailed)
	assert.Equal(t, "corrupt xref", s.Snapshot().Error)

	require.NoError(t, s.Attach(fixedGeometry{pages: 2, width: 50, height: 80}))
	snap := s.Snapshot()
	assert.Equal(t, StateReady, snap.State)
	assert.Equal(t, 2, snap.PageCount)
	assert.Equal(t, 50, snap.Width)
	assert.Equal(t, 80, snap.Height)
	assert.Empty(t, snap.Error)
}

func TestAttachRejectsEmptyDocument(t *testing.T) {
	s := NewSession(NewStore("doc", newMemoryBackend(), nil), DefaultOptions())

	err := s.Attach(fixedGeometry{pages: 0})
	assert.ErrorIs(t, err, ErrDocumentFailed)
	assert.Equal(t, StateFailed, s.State())
}

func TestPersistFailureSurfacesToCaller(t *testing.T) {
	backend := newMemoryBackend()
	s := newReadySession(backend, 1)
	backend.fail = true

	_, err := drag(s, ToolPen, Point{X: 1, Y: 1}, Point{X: 9, Y: 9})
	assert.ErrorIs(t, err, errBackendDown)
	assert.Zero(t, s.Store().Len())
	assert.False(t, s.Snapshot().Drawing)
}

func TestEraserHitTestMode(t *testing.T) {
	backend := newMemoryBackend()
	opts := DefaultOptions()
	opts.NewID = sequentialIDs()
	opts.EraserMode = EraserHitTest
	s := NewSession(NewStore("doc", backend, nil), opts)
	require.NoError(t, s.Attach(fixedGeometry{pages: 2, width: 100, height: 100}))

	_, err := drag(s, ToolPen, Point{X: 10, Y: 50}, Point{X: 90, Y: 50})
	require.NoError(t, err)
	_, err = drag(s, ToolPen, Point{X: 10, Y: 5}, Point{X: 90, Y: 5})
	require.NoError(t, err)
	s.NextPage()
	_, err = drag(s, ToolPen, Point{X: 10, Y: 50}, Point{X: 90, Y: 50})
	require.NoError(t, err)
	s.PrevPage()

	change, err := drag(s, ToolEraser, Point{X: 50, Y: 30}, Point{X: 50, Y: 70})
	require.NoError(t, err)
	assert.Equal(t, ChangeErased, change.Kind)
	assert.Equal(t, []string{"ann-1"}, ids(change.Annotations))
	assert.Equal(t, []string{"ann-2", "ann-3"}, ids(s.Store().All()))
}

func TestAnnotationsFilterByKind(t *testing.T) {
	s := newReadySession(newMemoryBackend(), 1)
	_, err := drag(s, ToolPen, Point{X: 1, Y: 1}, Point{X: 2, Y: 2})
	require.NoError(t, err)
	_, err = drag(s, ToolHighlight, Point{X: 1, Y: 1}, Point{X: 2, Y: 2})
	require.NoError(t, err)
	require.NoError(t, s.SelectTool(ToolText))
	_, err = s.PointerDown(context.Background(), mouse(4, 4), origin, AnswerPrompt("n"))
	require.NoError(t, err)

	assert.Len(t, s.Annotations(), 3)
	sidebar := s.Annotations(KindText, KindHighlight)
	require.Len(t, sidebar, 2)
	assert.Equal(t, KindHighlight, sidebar[0].Kind)
	assert.Equal(t, KindText, sidebar[1].Kind)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind(" Highlight ")
	require.NoError(t, err)
	assert.Equal(t, KindHighlight, k)

	_, err = ParseKind("sticker")
	assert.ErrorIs(t, err, ErrUnknownKind)
}
