package entity

import (
	"time"

	"smart-reader-be/pkg/overlay"

	"github.com/google/uuid"
)

type ReferenceType string

const (
	ReferenceTypeJournal    ReferenceType = "journal"
	ReferenceTypeBook       ReferenceType = "book"
	ReferenceTypeWebsite    ReferenceType = "website"
	ReferenceTypeConference ReferenceType = "conference"
)

type Reference struct {
	Id          uuid.UUID
	Type        ReferenceType
	Title       string
	Authors     []string
	Year        string
	Publication string
	Doi         string
	Url         string
	Abstract    string
	HasPdf      bool
	PdfName     string
	PdfSize     int64
	PdfPages    int
	PdfData     []byte // empty unless loaded explicitly
	Annotations []overlay.Annotation
	CreatedAt   time.Time
	UpdatedAt   *time.Time
	DeletedAt   *time.Time
	IsDeleted   bool
}
