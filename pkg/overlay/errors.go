package overlay

import "errors"

var (
	ErrUnknownTool       = errors.New("unknown tool")
	ErrUnknownKind       = errors.New("unknown annotation kind")
	ErrColorNotInPalette = errors.New("color is not in the palette")
	ErrInvalidAnnotation = errors.New("invalid annotation")

	// ErrNotReady is returned while the document has not finished loading.
	ErrNotReady = errors.New("document not loaded")

	// ErrDocumentFailed is returned after the document failed to load. The
	// overlay stays disabled until a later load succeeds.
	ErrDocumentFailed = errors.New("document failed to load")
)
