package controller

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"smart-reader-be/internal/dto"
	"smart-reader-be/internal/pkg/logger"
	"smart-reader-be/internal/pkg/serverutils"
	"smart-reader-be/internal/service"
	internalWS "smart-reader-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

const wsPointerTimeout = 10 * time.Second

type IReaderController interface {
	RegisterRoutes(r fiber.Router)
	Open(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	SelectTool(ctx *fiber.Ctx) error
	SelectColor(ctx *fiber.Ctx) error
	GoToPage(ctx *fiber.Ctx) error
	SetZoom(ctx *fiber.Ctx) error
	Pointer(ctx *fiber.Ctx) error
	Undo(ctx *fiber.Ctx) error
	Render(ctx *fiber.Ctx) error
	Annotations(ctx *fiber.Ctx) error
	Close(ctx *fiber.Ctx) error
	ServeWs(ctx *fiber.Ctx) error
}

type readerController struct {
	readerService service.IReaderService
	hub           *internalWS.Hub
	logger        logger.ILogger
}

func NewReaderController(readerService service.IReaderService, hub *internalWS.Hub, log logger.ILogger) IReaderController {
	return &readerController{
		readerService: readerService,
		hub:           hub,
		logger:        log,
	}
}

func (c *readerController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/reader/v1/sessions")
	h.Post("", c.Open)
	h.Get(":id", c.Show)
	h.Put(":id/tool", c.SelectTool)
	h.Put(":id/color", c.SelectColor)
	h.Put(":id/page", c.GoToPage)
	h.Put(":id/zoom", c.SetZoom)
	h.Post(":id/pointer", c.Pointer)
	h.Post(":id/undo", c.Undo)
	h.Get(":id/render.png", c.Render)
	h.Get(":id/annotations", c.Annotations)
	h.Get(":id/ws", c.ServeWs)
	h.Delete(":id", c.Close)
}

func (c *readerController) Open(ctx *fiber.Ctx) error {
	var req dto.OpenSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.readerService.Open(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success open session", res))
}

func (c *readerController) Show(ctx *fiber.Ctx) error {
	res, err := c.readerService.Show(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show session", res))
}

func (c *readerController) SelectTool(ctx *fiber.Ctx) error {
	var req dto.SelectToolRequest
	if err := parseAndValidate(ctx, &req); err != nil {
		return err
	}

	res, err := c.readerService.SelectTool(ctx.UserContext(), ctx.Params("id"), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success select tool", res))
}

func (c *readerController) SelectColor(ctx *fiber.Ctx) error {
	var req dto.SelectColorRequest
	if err := parseAndValidate(ctx, &req); err != nil {
		return err
	}

	res, err := c.readerService.SelectColor(ctx.UserContext(), ctx.Params("id"), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success select color", res))
}

func (c *readerController) GoToPage(ctx *fiber.Ctx) error {
	var req dto.GoToPageRequest
	if err := parseAndValidate(ctx, &req); err != nil {
		return err
	}

	res, err := c.readerService.GoToPage(ctx.UserContext(), ctx.Params("id"), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success change page", res))
}

func (c *readerController) SetZoom(ctx *fiber.Ctx) error {
	var req dto.SetZoomRequest
	if err := parseAndValidate(ctx, &req); err != nil {
		return err
	}

	res, err := c.readerService.SetZoom(ctx.UserContext(), ctx.Params("id"), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success change zoom", res))
}

func (c *readerController) Pointer(ctx *fiber.Ctx) error {
	var req dto.PointerRequest
	if err := parseAndValidate(ctx, &req); err != nil {
		return err
	}

	res, err := c.readerService.Pointer(ctx.UserContext(), ctx.Params("id"), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success handle pointer", res))
}

func (c *readerController) Undo(ctx *fiber.Ctx) error {
	res, err := c.readerService.Undo(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success undo", res))
}

func (c *readerController) Render(ctx *fiber.Ctx) error {
	img, err := c.readerService.Render(ctx.UserContext(), ctx.Params("id"), ctx.QueryBool("composite", false))
	if err != nil {
		return err
	}
	ctx.Set(fiber.HeaderContentType, "image/png")
	ctx.Set(fiber.HeaderCacheControl, "no-store")
	return ctx.Send(img)
}

func (c *readerController) Annotations(ctx *fiber.Ctx) error {
	var req dto.ListAnnotationsRequest
	if err := ctx.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid query")
	}

	res, err := c.readerService.Annotations(ctx.UserContext(), ctx.Params("id"), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list annotations", res))
}

func (c *readerController) Close(ctx *fiber.Ctx) error {
	if err := c.readerService.Close(ctx.UserContext(), ctx.Params("id")); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success close session", nil))
}

// ServeWs upgrades to a websocket that accepts pointer messages for the
// session and pushes annotation changes of its reference.
func (c *readerController) ServeWs(ctx *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(ctx) {
		return fiber.ErrUpgradeRequired
	}

	sessionID := ctx.Params("id")
	referenceID, err := c.readerService.ReferenceOf(sessionID)
	if err != nil {
		return err
	}

	return websocket.New(func(conn *websocket.Conn) {
		c.logger.Info("ReaderController", "Starting WebSocket session", map[string]interface{}{"session_id": sessionID})
		internalWS.ServeWs(c.hub, conn, referenceID, sessionID, c.pointerMessageHandler(sessionID), func() {
			c.endDrag(sessionID)
		})
		c.logger.Info("ReaderController", "WebSocket session ended", map[string]interface{}{"session_id": sessionID})
	})(ctx)
}

type wsReply struct {
	Type    string      `json:"type"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

func (c *readerController) pointerMessageHandler(sessionID string) internalWS.MessageHandler {
	return func(data []byte) []byte {
		reply := c.handlePointerMessage(sessionID, data)
		out, err := json.Marshal(reply)
		if err != nil {
			return nil
		}
		return out
	}
}

func (c *readerController) handlePointerMessage(sessionID string, data []byte) wsReply {
	var req dto.PointerRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return wsReply{Type: "error", Message: "invalid message"}
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return wsReply{Type: "error", Message: err.Error()}
	}

	ctx, cancel := context.WithTimeout(context.Background(), wsPointerTimeout)
	defer cancel()
	res, err := c.readerService.Pointer(ctx, sessionID, &req)
	if err != nil {
		if !errors.Is(err, service.ErrSessionNotFound) {
			c.logger.Warn("ReaderController", "Pointer message failed", map[string]interface{}{
				"session_id": sessionID,
				"error":      err.Error(),
			})
		}
		return wsReply{Type: "error", Message: err.Error()}
	}
	return wsReply{Type: "pointer_result", Data: res}
}

// endDrag releases a drag left open by a dropped connection so the stroke is
// committed instead of staying half drawn.
func (c *readerController) endDrag(sessionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), wsPointerTimeout)
	defer cancel()
	if _, err := c.readerService.Pointer(ctx, sessionID, &dto.PointerRequest{Phase: "leave"}); err != nil && !errors.Is(err, service.ErrSessionNotFound) {
		c.logger.Warn("ReaderController", "Ending drag on close failed", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
	}
}

func parseAndValidate(ctx *fiber.Ctx, req interface{}) error {
	if err := ctx.BodyParser(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	return serverutils.ValidateRequest(req)
}
