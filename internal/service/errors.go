package service

import "errors"

var (
	ErrReferenceNotFound    = errors.New("reference not found")
	ErrReferenceHasNoPdf    = errors.New("reference has no pdf")
	ErrUnsupportedMediaType = errors.New("only application/pdf uploads are accepted")
	ErrPdfTooLarge          = errors.New("pdf exceeds the upload limit")
	ErrInvalidPdf           = errors.New("file is not a readable pdf")
	ErrSessionNotFound      = errors.New("reader session not found")
	ErrInvalidPhase         = errors.New("unknown pointer phase")
	ErrInvalidRequest       = errors.New("invalid request")
)
