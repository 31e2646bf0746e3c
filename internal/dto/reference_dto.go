package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateReferenceRequest struct {
	Type        string   `json:"type" validate:"required,oneof=journal book website conference"`
	Title       string   `json:"title" validate:"required,max=500"`
	Authors     []string `json:"authors" validate:"dive,required"`
	Year        string   `json:"year" validate:"omitempty,numeric,len=4"`
	Publication string   `json:"publication"`
	Doi         string   `json:"doi"`
	Url         string   `json:"url" validate:"omitempty,url"`
	Abstract    string   `json:"abstract"`
}

type CreateReferenceResponse struct {
	Id uuid.UUID `json:"id"`
}

type UpdateReferenceRequest struct {
	Id          uuid.UUID
	Type        string   `json:"type" validate:"required,oneof=journal book website conference"`
	Title       string   `json:"title" validate:"required,max=500"`
	Authors     []string `json:"authors" validate:"dive,required"`
	Year        string   `json:"year" validate:"omitempty,numeric,len=4"`
	Publication string   `json:"publication"`
	Doi         string   `json:"doi"`
	Url         string   `json:"url" validate:"omitempty,url"`
	Abstract    string   `json:"abstract"`
}

type UpdateReferenceResponse struct {
	Id uuid.UUID `json:"id"`
}

type ListReferencesRequest struct {
	Type   string `query:"type" validate:"omitempty,oneof=journal book website conference"`
	Query  string `query:"q"`
	HasPdf bool   `query:"has_pdf"`
	Limit  int    `query:"limit" validate:"omitempty,min=1,max=100"`
	Offset int    `query:"offset" validate:"omitempty,min=0"`
}

type ShowReferenceResponse struct {
	Id              uuid.UUID  `json:"id"`
	Type            string     `json:"type"`
	Title           string     `json:"title"`
	Authors         []string   `json:"authors"`
	Year            string     `json:"year"`
	Publication     string     `json:"publication"`
	Doi             string     `json:"doi"`
	Url             string     `json:"url"`
	Abstract        string     `json:"abstract"`
	HasPdf          bool       `json:"has_pdf"`
	PdfName         string     `json:"pdf_name,omitempty"`
	PdfSize         int64      `json:"pdf_size,omitempty"`
	PdfPages        int        `json:"pdf_pages,omitempty"`
	AnnotationCount int        `json:"annotation_count"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       *time.Time `json:"updated_at"`
}

type ListReferencesResponse struct {
	Total      int64                    `json:"total"`
	References []*ShowReferenceResponse `json:"references"`
}

type UploadPdfRequest struct {
	Id          uuid.UUID
	FileName    string `validate:"required"`
	ContentType string
	Data        []byte
}

type UploadPdfResponse struct {
	Id       uuid.UUID `json:"id"`
	PdfName  string    `json:"pdf_name"`
	PdfSize  int64     `json:"pdf_size"`
	PdfPages int       `json:"pdf_pages"`
}

type DownloadPdfResponse struct {
	FileName string
	Data     []byte
}
