package compare

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"reconciler/core/failure"
	"reconciler/core/logger"
	"reconciler/core/reconcile"
	"reconciler/core/tabular"
	"reconciler/core/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for file inspection and comparisons.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the file and compare routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	files := app.Group("/files")
	files.Post("/validate", h.HandleValidate)
	files.Post("/headers", h.HandleHeaders)
	files.Post("/preview", h.HandlePreview)
	files.Get("/objects", h.HandleListObjects)

	group := app.Group("/compare")
	group.Post("/", h.HandleCompare)
	group.Post("/objects", h.HandleCompareObjects)
	group.Post("/batch", h.HandleCompareBatch)
	group.Get("/runs/:id", h.HandleRunStatus)
	group.Delete("/runs/:id", h.HandleCancelRun)
	group.Get("/runs/:id/report", h.HandleRunReport)
	group.Post("/runs/:id/export", h.HandleExportRun)
}

// HandleValidate checks an uploaded file's size and type.
// @Summary Validate File
// @Description Checks size and media type of an uploaded spreadsheet without reading it.
// @Tags files
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV or spreadsheet"
// @Success 200 {object} map[string]interface{} "File accepted"
// @Failure 400 {object} failure.Report "Validation Error"
// @Router /files/validate [post]
func (h *Handler) HandleValidate(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	f, err := uploadedFile(c, "file", "last_modified")
	if err == nil {
		err = h.service.ValidateFile(f)
	}
	if err != nil {
		return h.fail(c, l, "File validation failed", err)
	}

	return c.JSON(fiber.Map{
		"valid":      true,
		"name":       f.Name,
		"size":       f.Size,
		"media_type": f.MediaType,
	})
}

// HandleHeaders returns the header row of an uploaded file.
// @Summary Get Headers
// @Description Decodes only the first row of an uploaded spreadsheet.
// @Tags files
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV or spreadsheet"
// @Success 200 {object} map[string]interface{} "Header row"
// @Failure 400 {object} failure.Report "Validation Error"
// @Failure 422 {object} failure.Report "Decode Error"
// @Router /files/headers [post]
func (h *Handler) HandleHeaders(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	f, err := uploadedFile(c, "file", "last_modified")
	if err != nil {
		return h.fail(c, l, "Header extraction failed", err)
	}

	headers, err := h.service.Headers(c.Context(), f)
	if err != nil {
		return h.fail(c, l, "Header extraction failed", err)
	}

	return c.JSON(fiber.Map{"name": f.Name, "headers": headers})
}

// HandlePreview returns the first rows of an uploaded file.
// @Summary Preview File
// @Description Returns the first rows of an uploaded spreadsheet, header included.
// @Tags files
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV or spreadsheet"
// @Param rows query int false "Number of rows (default 5)"
// @Success 200 {object} map[string]interface{} "Preview rows"
// @Failure 400 {object} failure.Report "Validation Error"
// @Failure 422 {object} failure.Report "Decode Error"
// @Router /files/preview [post]
func (h *Handler) HandlePreview(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	f, err := uploadedFile(c, "file", "last_modified")
	if err != nil {
		return h.fail(c, l, "Preview failed", err)
	}

	rows, err := h.service.Preview(c.Context(), f, c.QueryInt("rows", 0))
	if err != nil {
		return h.fail(c, l, "Preview failed", err)
	}

	return c.JSON(fiber.Map{"name": f.Name, "rows": rows})
}

// HandleListObjects lists the spreadsheets stored in the bucket.
// @Summary List Objects
// @Description Lists bucket objects with a supported extension.
// @Tags files
// @Produce json
// @Param prefix query string false "Key prefix"
// @Success 200 {array} ObjectInfo "Objects"
// @Failure 400 {object} failure.Report "Storage disabled"
// @Router /files/objects [get]
func (h *Handler) HandleListObjects(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	objects, err := h.service.ListObjects(c.Context(), c.Query("prefix"))
	if err != nil {
		return h.fail(c, l, "Object listing failed", err)
	}
	if objects == nil {
		objects = []ObjectInfo{}
	}

	return c.JSON(objects)
}

// HandleCompare starts a comparison of two uploaded files.
// @Summary Compare Uploads
// @Description Starts a background comparison of two uploaded files, cancelling the active one.
// @Tags compare
// @Accept multipart/form-data
// @Produce json
// @Param left formData file true "Left file"
// @Param right formData file true "Right file"
// @Param key formData string true "Key field"
// @Param compare formData []string true "Compare fields (repeated or comma separated)"
// @Param batch_size formData int false "Rows per batch"
// @Success 202 {object} Run "Run started"
// @Failure 400 {object} failure.Report "Validation or Selection Error"
// @Router /compare [post]
func (h *Handler) HandleCompare(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	dir, err := os.MkdirTemp("", "reconciler-upload-*")
	if err != nil {
		return h.fail(c, l, "Comparison failed", fmt.Errorf("failed to create upload directory: %w", err))
	}
	cleanup := func() { _ = os.RemoveAll(dir) }

	left, err := spoolFile(c, dir, "left")
	if err != nil {
		cleanup()
		return h.fail(c, l, "Comparison rejected", err)
	}
	right, err := spoolFile(c, dir, "right")
	if err != nil {
		cleanup()
		return h.fail(c, l, "Comparison rejected", err)
	}

	var compare []string
	if form, err := c.MultipartForm(); err == nil {
		compare = form.Value["compare"]
	}

	run, err := h.service.Compare(c.Context(), CompareRequest{
		Left:  left,
		Right: right,
		Selection: reconcile.Selection{
			Key:     c.FormValue("key"),
			Compare: utils.SplitList(compare...),
		},
		BatchSize: utils.ToInt(c.FormValue("batch_size")),
		Cleanup:   cleanup,
	})
	if err != nil {
		return h.fail(c, l, "Comparison rejected", err)
	}

	return c.Status(fiber.StatusAccepted).JSON(run)
}

type objectCompareRequest struct {
	Left      string   `json:"left"`
	Right     string   `json:"right"`
	Key       string   `json:"key"`
	Compare   []string `json:"compare"`
	BatchSize int      `json:"batch_size"`
}

// HandleCompareObjects starts a comparison of two bucket objects.
// @Summary Compare Objects
// @Description Starts a background comparison of two spreadsheets stored in the bucket.
// @Tags compare
// @Accept json
// @Produce json
// @Param request body objectCompareRequest true "Objects and selection"
// @Success 202 {object} Run "Run started"
// @Failure 400 {object} failure.Report "Validation or Selection Error"
// @Router /compare/objects [post]
func (h *Handler) HandleCompareObjects(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	var req objectCompareRequest
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, l, "Comparison rejected", failure.Validation("invalid request body: %v", err))
	}

	left, err := h.service.ObjectFile(c.Context(), req.Left)
	if err != nil {
		return h.fail(c, l, "Comparison rejected", err)
	}
	right, err := h.service.ObjectFile(c.Context(), req.Right)
	if err != nil {
		return h.fail(c, l, "Comparison rejected", err)
	}

	run, err := h.service.Compare(c.Context(), CompareRequest{
		Left:      left,
		Right:     right,
		Selection: reconcile.Selection{Key: req.Key, Compare: utils.SplitList(req.Compare...)},
		BatchSize: req.BatchSize,
	})
	if err != nil {
		return h.fail(c, l, "Comparison rejected", err)
	}

	return c.Status(fiber.StatusAccepted).JSON(run)
}

type batchRequest struct {
	Pairs []struct {
		Left  string `json:"left"`
		Right string `json:"right"`
	} `json:"pairs"`
	Key       string   `json:"key"`
	Compare   []string `json:"compare"`
	BatchSize int      `json:"batch_size"`
}

// HandleCompareBatch compares several pairs of bucket objects in turn.
// @Summary Compare Batch
// @Description Compares each pair of bucket objects with the same selection and returns all results.
// @Tags compare
// @Accept json
// @Produce json
// @Param request body batchRequest true "Pairs and selection"
// @Success 200 {array} BatchResult "Results per pair"
// @Failure 400 {object} failure.Report "Validation Error"
// @Router /compare/batch [post]
func (h *Handler) HandleCompareBatch(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	var req batchRequest
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, l, "Batch rejected", failure.Validation("invalid request body: %v", err))
	}
	if len(req.Pairs) == 0 {
		return h.fail(c, l, "Batch rejected", failure.Validation("at least one pair is required"))
	}

	pairs := make([]Pair, 0, len(req.Pairs))
	for _, p := range req.Pairs {
		left, err := h.service.ObjectFile(c.Context(), p.Left)
		if err != nil {
			return h.fail(c, l, "Batch rejected", err)
		}
		right, err := h.service.ObjectFile(c.Context(), p.Right)
		if err != nil {
			return h.fail(c, l, "Batch rejected", err)
		}
		pairs = append(pairs, Pair{Left: left, Right: right})
	}

	sel := reconcile.Selection{Key: req.Key, Compare: utils.SplitList(req.Compare...)}
	return c.JSON(h.service.CompareBatch(c.Context(), pairs, sel, req.BatchSize))
}

// HandleRunStatus returns a run's state and a page of its differences.
// @Summary Run Status
// @Description Returns state, progress, summary and one page of differences.
// @Tags compare
// @Produce json
// @Param id path string true "Run ID"
// @Param offset query int false "First difference (default 0)"
// @Param limit query int false "Page size (default 100)"
// @Success 200 {object} RunPage "Run page"
// @Failure 404 {object} map[string]string "Run not found"
// @Router /compare/runs/{id} [get]
func (h *Handler) HandleRunStatus(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	page, err := h.service.RunPage(c.Params("id"), c.QueryInt("offset", 0), c.QueryInt("limit", DefaultPageSize))
	if err != nil {
		return h.fail(c, l, "Run lookup failed", err)
	}

	return c.JSON(page)
}

// HandleCancelRun cancels a run.
// @Summary Cancel Run
// @Tags compare
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} Run "Run"
// @Failure 404 {object} map[string]string "Run not found"
// @Router /compare/runs/{id} [delete]
func (h *Handler) HandleCancelRun(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	run, err := h.service.CancelRun(c.Params("id"))
	if err != nil {
		return h.fail(c, l, "Run cancellation failed", err)
	}

	l.Info("Run cancelled", zap.String("run_id", run.ID))
	return c.JSON(run)
}

// HandleRunReport downloads a finished run as an XLSX workbook.
// @Summary Download Report
// @Tags compare
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path string true "Run ID"
// @Success 200 {file} file "Report"
// @Failure 400 {object} failure.Report "Run not finished"
// @Failure 404 {object} map[string]string "Run not found"
// @Router /compare/runs/{id}/report [get]
func (h *Handler) HandleRunReport(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	id := c.Params("id")

	// Rendered into the response buffer so a failure can still change the status.
	if err := h.service.WriteRunReport(id, c.Response().BodyWriter()); err != nil {
		c.Response().ResetBody()
		return h.fail(c, l, "Report generation failed", err)
	}

	c.Attachment(id + ".xlsx")
	c.Set(fiber.HeaderContentType, tabular.MediaTypeXLSX)
	return nil
}

// HandleExportRun uploads a finished run's report to the bucket.
// @Summary Export Report
// @Tags compare
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} map[string]string "Object key"
// @Failure 400 {object} failure.Report "Run not finished or storage disabled"
// @Failure 404 {object} map[string]string "Run not found"
// @Router /compare/runs/{id}/export [post]
func (h *Handler) HandleExportRun(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	key, err := h.service.ExportRun(c.Context(), c.Params("id"))
	if err != nil {
		return h.fail(c, l, "Report export failed", err)
	}

	return c.JSON(fiber.Map{"key": key})
}

// fail logs err and writes the error body with the status matching its kind.
func (h *Handler) fail(c *fiber.Ctx, l *zap.Logger, msg string, err error) error {
	if errors.Is(err, ErrRunNotFound) {
		l.Warn(msg, zap.Error(err))
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error(), "kind": "NotFound"})
	}

	status := statusFor(failure.KindOf(err))
	if status >= fiber.StatusInternalServerError {
		l.Error(msg, zap.Error(err))
	} else {
		l.Warn(msg, zap.Error(err))
	}
	return c.Status(status).JSON(failure.Describe(err))
}

func statusFor(kind failure.Kind) int {
	switch kind {
	case failure.KindValidation, failure.KindSelection:
		return fiber.StatusBadRequest
	case failure.KindDecode:
		return fiber.StatusUnprocessableEntity
	case failure.KindTimeout:
		return fiber.StatusGatewayTimeout
	default:
		return fiber.StatusInternalServerError
	}
}

// uploadedFile reads a multipart file field. The file is only usable during the request.
func uploadedFile(c *fiber.Ctx, field, modField string) (tabular.File, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return tabular.File{}, failure.Validation("multipart field %q must contain a file", field)
	}
	return tabular.UploadedFile(fh, utils.MillisToTime(c.FormValue(modField))), nil
}

// spoolFile copies a multipart file into dir so a background run can read it after
// the request ends.
func spoolFile(c *fiber.Ctx, dir, field string) (tabular.File, error) {
	f, err := uploadedFile(c, field, field+"_last_modified")
	if err != nil {
		return tabular.File{}, err
	}
	fh, _ := c.FormFile(field)

	path := filepath.Join(dir, field+filepath.Ext(fh.Filename))
	if err := c.SaveFile(fh, path); err != nil {
		return tabular.File{}, fmt.Errorf("failed to store upload %s: %w", fh.Filename, err)
	}

	local, err := tabular.LocalFile(path)
	if err != nil {
		return tabular.File{}, err
	}
	f.Open = local.Open
	return f, nil
}
