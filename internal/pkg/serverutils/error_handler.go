package serverutils

import (
	"errors"

	"smart-reader-be/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// ErrorStatus maps a sentinel error to an HTTP status.
type ErrorStatus struct {
	Err  error
	Code int
}

// ErrorHandlerMiddleware turns errors returned by handlers into the JSON
// error envelope. Errors matching none of statuses become 500 and are
// logged; their text is not exposed.
func ErrorHandlerMiddleware(log logger.ILogger, statuses ...ErrorStatus) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}
		code, body := resolve(err, statuses)
		if code >= fiber.StatusInternalServerError && log != nil {
			log.Error("HTTP", "Request failed", map[string]interface{}{
				"method": ctx.Method(),
				"path":   ctx.Path(),
				"error":  err.Error(),
			})
		}
		return ctx.Status(code).JSON(body)
	}
}

func resolve(err error, statuses []ErrorStatus) (int, Response) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		res := ErrorResponse(fiber.StatusBadRequest, verr.Error())
		res.Errors = verr.Fields
		return fiber.StatusBadRequest, res
	}

	var ferr *fiber.Error
	if errors.As(err, &ferr) {
		return ferr.Code, ErrorResponse(ferr.Code, ferr.Message)
	}

	for _, s := range statuses {
		if errors.Is(err, s.Err) {
			return s.Code, ErrorResponse(s.Code, err.Error())
		}
	}

	return fiber.StatusInternalServerError, ErrorResponse(fiber.StatusInternalServerError, "internal server error")
}
