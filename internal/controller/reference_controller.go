package controller

import (
	"fmt"
	"io"
	"mime/multipart"
	"strconv"

	"smart-reader-be/internal/dto"
	"smart-reader-be/internal/pkg/serverutils"
	"smart-reader-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IReferenceController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Update(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	UploadPdf(ctx *fiber.Ctx) error
	DownloadPdf(ctx *fiber.Ctx) error
}

type referenceController struct {
	referenceService service.IReferenceService
	maxPdfBytes      int64
}

func NewReferenceController(referenceService service.IReferenceService, maxPdfBytes int64) IReferenceController {
	return &referenceController{
		referenceService: referenceService,
		maxPdfBytes:      maxPdfBytes,
	}
}

func (c *referenceController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/reference/v1")
	h.Get("", c.List)
	h.Post("", c.Create)
	h.Get(":id", c.Show)
	h.Put(":id", c.Update)
	h.Delete(":id", c.Delete)
	h.Post(":id/pdf", c.UploadPdf)
	h.Get(":id/pdf", c.DownloadPdf)
}

func (c *referenceController) Create(ctx *fiber.Ctx) error {
	var req dto.CreateReferenceRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.referenceService.Create(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create reference", res))
}

func (c *referenceController) Show(ctx *fiber.Ctx) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}

	res, err := c.referenceService.Show(ctx.UserContext(), id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show reference", res))
}

func (c *referenceController) List(ctx *fiber.Ctx) error {
	var req dto.ListReferencesRequest
	if err := ctx.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid query")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.referenceService.List(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list references", res))
}

func (c *referenceController) Update(ctx *fiber.Ctx) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}

	var req dto.UpdateReferenceRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	req.Id = id

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.referenceService.Update(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success update reference", res))
}

func (c *referenceController) Delete(ctx *fiber.Ctx) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}

	if err := c.referenceService.Delete(ctx.UserContext(), id); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success delete reference", nil))
}

func (c *referenceController) UploadPdf(ctx *fiber.Ctx) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}

	file, err := ctx.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "multipart field 'file' is required")
	}
	data, err := c.readUpload(file)
	if err != nil {
		return err
	}

	res, err := c.referenceService.UploadPdf(ctx.UserContext(), &dto.UploadPdfRequest{
		Id:          id,
		FileName:    file.Filename,
		ContentType: file.Header.Get(fiber.HeaderContentType),
		Data:        data,
	})
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success upload pdf", res))
}

func (c *referenceController) DownloadPdf(ctx *fiber.Ctx) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}

	res, err := c.referenceService.DownloadPdf(ctx.UserContext(), id)
	if err != nil {
		return err
	}

	ctx.Set(fiber.HeaderContentType, "application/pdf")
	ctx.Set(fiber.HeaderContentDisposition, fmt.Sprintf("inline; filename=%s", strconv.Quote(res.FileName)))
	return ctx.Send(res.Data)
}

// readUpload reads at most one byte past the limit so the service can
// report oversized files.
func (c *referenceController) readUpload(file *multipart.FileHeader) ([]byte, error) {
	f, err := file.Open()
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "cannot read upload")
	}
	defer f.Close()

	var r io.Reader = f
	if c.maxPdfBytes > 0 {
		r = io.LimitReader(f, c.maxPdfBytes+1)
	}
	return io.ReadAll(r)
}

func idParam(ctx *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}
	return id, nil
}
