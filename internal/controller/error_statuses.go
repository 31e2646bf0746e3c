package controller

import (
	"smart-reader-be/internal/pkg/logger"
	"smart-reader-be/internal/pkg/serverutils"
	"smart-reader-be/internal/repository/contract"
	"smart-reader-be/internal/service"
	"smart-reader-be/pkg/overlay"

	"github.com/gofiber/fiber/v2"
)

// ErrorStatuses maps domain errors to HTTP statuses.
var ErrorStatuses = []serverutils.ErrorStatus{
	{Err: service.ErrReferenceNotFound, Code: fiber.StatusNotFound},
	{Err: contract.ErrReferenceNotFound, Code: fiber.StatusNotFound},
	{Err: service.ErrSessionNotFound, Code: fiber.StatusNotFound},
	{Err: logger.ErrLogNotFound, Code: fiber.StatusNotFound},
	{Err: service.ErrReferenceHasNoPdf, Code: fiber.StatusConflict},
	{Err: service.ErrUnsupportedMediaType, Code: fiber.StatusUnsupportedMediaType},
	{Err: service.ErrPdfTooLarge, Code: fiber.StatusRequestEntityTooLarge},
	{Err: service.ErrInvalidPdf, Code: fiber.StatusUnprocessableEntity},
	{Err: service.ErrInvalidPhase, Code: fiber.StatusBadRequest},
	{Err: service.ErrInvalidRequest, Code: fiber.StatusBadRequest},
	{Err: overlay.ErrUnknownTool, Code: fiber.StatusBadRequest},
	{Err: overlay.ErrUnknownKind, Code: fiber.StatusBadRequest},
	{Err: overlay.ErrColorNotInPalette, Code: fiber.StatusBadRequest},
	{Err: overlay.ErrInvalidAnnotation, Code: fiber.StatusBadRequest},
	{Err: overlay.ErrNotReady, Code: fiber.StatusConflict},
	{Err: overlay.ErrDocumentFailed, Code: fiber.StatusUnprocessableEntity},
}
