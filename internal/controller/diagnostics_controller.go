package controller

import (
	"smart-reader-be/internal/pkg/logger"
	"smart-reader-be/internal/pkg/serverutils"

	"github.com/gofiber/fiber/v2"
)

// SessionCounter reports how many reader sessions are open.
type SessionCounter interface {
	Count() int
}

type IDiagnosticsController interface {
	RegisterRoutes(r fiber.Router)
	Health(ctx *fiber.Ctx) error
	GetLogs(ctx *fiber.Ctx) error
	GetLogById(ctx *fiber.Ctx) error
}

type diagnosticsController struct {
	logger   logger.ILogger
	sessions SessionCounter
}

func NewDiagnosticsController(log logger.ILogger, sessions SessionCounter) IDiagnosticsController {
	return &diagnosticsController{logger: log, sessions: sessions}
}

func (c *diagnosticsController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/diagnostics/v1")
	h.Get("health", c.Health)
	h.Get("logs", c.GetLogs)
	h.Get("logs/:id", c.GetLogById)
}

func (c *diagnosticsController) Health(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("ok", fiber.Map{
		"open_sessions": c.sessions.Count(),
	}))
}

func (c *diagnosticsController) GetLogs(ctx *fiber.Ctx) error {
	limit := ctx.QueryInt("limit", 50)
	if limit < 1 || limit > 500 {
		limit = 50
	}
	offset := max(ctx.QueryInt("offset", 0), 0)

	logs, err := c.logger.GetLogs(ctx.Query("level"), limit, offset)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get logs", logs))
}

func (c *diagnosticsController) GetLogById(ctx *fiber.Ctx) error {
	entry, err := c.logger.GetLogById(ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get log", entry))
}
