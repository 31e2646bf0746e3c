package dto

import (
	"time"

	"smart-reader-be/pkg/overlay"

	"github.com/google/uuid"
)

type OpenSessionRequest struct {
	ReferenceId uuid.UUID `json:"reference_id" validate:"required"`
}

type SessionResponse struct {
	Id          string    `json:"id"`
	ReferenceId string    `json:"reference_id"`
	CreatedAt   time.Time `json:"created_at"`
	overlay.Snapshot
}

type SelectToolRequest struct {
	Tool string `json:"tool" validate:"required,oneof=cursor pen highlight text eraser"`
}

type SelectColorRequest struct {
	Color string `json:"color" validate:"required,hexcolor"`
}

// GoToPageRequest either jumps to Page or steps with Action.
type GoToPageRequest struct {
	Page   int    `json:"page" validate:"omitempty,min=1"`
	Action string `json:"action" validate:"omitempty,oneof=next prev"`
}

// SetZoomRequest either sets Zoom or steps with Action.
type SetZoomRequest struct {
	Zoom   int    `json:"zoom" validate:"omitempty,min=1"`
	Action string `json:"action" validate:"omitempty,oneof=in out"`
}

type PointDto struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type BoundsDto struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// PointerRequest carries one pointer event in client coordinates. Touch
// events set Touch and list their contacts in Touches.
type PointerRequest struct {
	Phase   string     `json:"phase" validate:"required,oneof=down move up leave"`
	ClientX float64    `json:"client_x"`
	ClientY float64    `json:"client_y"`
	Touch   bool       `json:"touch"`
	Touches []PointDto `json:"touches"`
	Bounds  BoundsDto  `json:"bounds"`
	Text    string     `json:"text"`
}

type ChangeResponse struct {
	Kind        overlay.ChangeKind   `json:"kind"`
	Page        int                  `json:"page"`
	Annotations []overlay.Annotation `json:"annotations"`
}

type PointerResponse struct {
	Session *SessionResponse `json:"session"`
	Segment *overlay.Segment `json:"segment,omitempty"`
	Change  *ChangeResponse  `json:"change,omitempty"`
}

type UndoResponse struct {
	Session *SessionResponse `json:"session"`
	Change  *ChangeResponse  `json:"change,omitempty"`
}

type ListAnnotationsRequest struct {
	Kinds string `query:"kinds"`
}

type ListAnnotationsResponse struct {
	Total       int                  `json:"total"`
	Annotations []overlay.Annotation `json:"annotations"`
}

// AnnotationChangedMessage travels on the in-process bus and out to
// websocket clients of the same reference.
type AnnotationChangedMessage struct {
	ReferenceId string               `json:"reference_id"`
	SessionId   string               `json:"session_id"`
	Kind        overlay.ChangeKind   `json:"kind"`
	Page        int                  `json:"page"`
	Annotations []overlay.Annotation `json:"annotations"`
	OccurredAt  time.Time            `json:"occurred_at"`
}
