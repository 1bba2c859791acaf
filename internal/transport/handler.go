package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"go-exam-scanner/internal/config"
	apperrors "go-exam-scanner/internal/errors"
	"go-exam-scanner/internal/normalizer"
	"go-exam-scanner/internal/service"
	"go-exam-scanner/internal/tracker"
	"go-exam-scanner/pkg/models"

	"github.com/gin-gonic/gin"
)

// multipart framing allowance on top of the image size limit
const formOverhead = 1 << 20

type handler struct {
	svc service.ScanService
	cfg *config.Config
}

// NewHandler builds the HTTP API.
func NewHandler(svc service.ScanService, cfg *config.Config) http.Handler {
	h := &handler{svc: svc, cfg: cfg}

	r := gin.New()
	r.Use(
		gin.Recovery(),
		requestLogger(),
		corsMiddleware(cfg.CORSOrigins),
		requestSizeLimiter(cfg.MaxUploadSize+formOverhead),
		errorHandler(),
	)

	r.GET("/health", h.healthCheck)

	api := r.Group("/api")
	api.POST("/normalize", h.normalize(false))
	api.POST("/crop", h.normalize(true))
	api.POST("/verify", h.verify)
	api.GET("/report", h.report)
	api.GET("/metrics", h.metrics)
	api.POST("/sessions/finish", h.finishAll)

	students := api.Group("/students")
	students.POST("/import", h.importRoster)
	students.POST("/sync", h.syncRoster)
	students.GET("", h.listStudents)
	students.DELETE("", h.clearRoster)
	students.GET("/stats", h.stats)
	students.GET("/stats/backend", h.backendStats)
	students.PATCH("/:id/status", h.updateStatus)
	students.DELETE("/:id", h.removeStudent)
	students.POST("/:id/session", h.startSession)
	students.GET("/:id/session", h.session)
	students.POST("/:id/session/pages", h.addPage)
	students.DELETE("/:id/session/pages/:pageId", h.removePage)
	students.POST("/:id/session/finish", h.finishSession)
	students.GET("/:id/pdf", h.downloadPDF)

	return r
}

func (h *handler) withTimeout(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), h.cfg.RequestTimeout)
}

// healthCheck answers 200 while the service runs. A records backend that
// does not respond is reported in the body, not the status code.
func (h *handler) healthCheck(c *gin.Context) {
	ctx, cancel := h.withTimeout(c)
	defer cancel()
	c.JSON(http.StatusOK, h.svc.Health(ctx))
}

// readUpload accepts a multipart "image" file or a raw image body.
func (h *handler) readUpload(c *gin.Context) (service.Upload, error) {
	limit := h.cfg.MaxUploadSize
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("image")
		if err != nil {
			return service.Upload{}, apperrors.NewValidationError("multipart field \"image\" is required", err)
		}
		data, err := readFileHeader(fh, limit)
		if err != nil {
			return service.Upload{}, err
		}
		return service.Upload{Data: data, Name: fh.Filename}, nil
	}

	data, err := io.ReadAll(io.LimitReader(c.Request.Body, limit+1))
	if err != nil {
		return service.Upload{}, apperrors.NewValidationError("failed to read request body", err)
	}
	if int64(len(data)) > limit {
		return service.Upload{}, apperrors.NewValidationError(fmt.Sprintf("image exceeds %d bytes", limit), nil)
	}
	return service.Upload{Data: data, Name: "body"}, nil
}

func readFileHeader(fh *multipart.FileHeader, limit int64) ([]byte, error) {
	if fh.Size > limit {
		return nil, apperrors.NewValidationError(fmt.Sprintf("image exceeds %d bytes", limit), nil)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, apperrors.NewValidationError("failed to open upload", err)
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, limit))
}

func bindCrop(c *gin.Context) (*normalizer.CropRequest, error) {
	var fields models.CropFields
	if err := c.ShouldBindQuery(&fields); err != nil {
		return nil, apperrors.NewValidationError("invalid crop parameters", err)
	}
	if fields.Width == nil && strings.HasPrefix(c.ContentType(), "multipart/") {
		if err := c.ShouldBind(&fields); err != nil {
			return nil, apperrors.NewValidationError("invalid crop parameters", err)
		}
	}
	return fields.Request(), nil
}

func wantsJPEG(c *gin.Context) bool {
	return c.Query("format") == "jpeg" || strings.Contains(c.GetHeader("Accept"), "image/jpeg")
}

func (h *handler) normalize(manual bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := h.withTimeout(c)
		defer cancel()

		crop, err := bindCrop(c)
		if err != nil {
			respondError(c, err)
			return
		}
		if manual && crop == nil {
			badRequest(c, "width and height are required for a manual crop", nil)
			return
		}
		if !manual {
			crop = nil
		}

		up, err := h.readUpload(c)
		if err != nil {
			respondError(c, err)
			return
		}
		up.Crop = crop

		img, resp, err := h.svc.Normalize(ctx, up)
		if err != nil {
			respondError(c, err)
			return
		}

		if wantsJPEG(c) {
			c.Header("X-Detector", string(img.Detector))
			c.Header("X-Region", fmt.Sprintf("%d,%d,%d,%d", img.Region.X, img.Region.Y, img.Region.Width, img.Region.Height))
			c.Data(http.StatusOK, "image/jpeg", img.Data)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

func (h *handler) verify(c *gin.Context) {
	ctx, cancel := h.withTimeout(c)
	defer cancel()

	var req models.VerifyRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, "invalid verification parameters", err)
		return
	}
	if req.RollNumber == "" && req.SubjectName == "" && strings.HasPrefix(c.ContentType(), "multipart/") {
		if err := c.ShouldBind(&req); err != nil {
			badRequest(c, "invalid verification parameters", err)
			return
		}
	}

	up, err := h.readUpload(c)
	if err != nil {
		respondError(c, err)
		return
	}
	res, err := h.svc.Verify(ctx, up.Data, req.Expectation())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *handler) importRoster(c *gin.Context) {
	ctx, cancel := h.withTimeout(c)
	defer cancel()

	var body io.Reader = c.Request.Body
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("file")
		if err != nil {
			badRequest(c, "multipart field \"file\" is required", err)
			return
		}
		data, err := readFileHeader(fh, h.cfg.MaxUploadSize)
		if err != nil {
			respondError(c, err)
			return
		}
		body = bytes.NewReader(data)
	}

	students, err := h.svc.ImportRoster(ctx, body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, importResponse(students))
}

func (h *handler) syncRoster(c *gin.Context) {
	ctx, cancel := h.withTimeout(c)
	defer cancel()

	students, err := h.svc.SyncRoster(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, importResponse(students))
}

func importResponse(students []tracker.Student) models.ImportResponse {
	list := models.NewStudentListResponse(students)
	return models.ImportResponse{Imported: list.Total, Students: list.Students}
}

func (h *handler) listStudents(c *gin.Context) {
	c.JSON(http.StatusOK, models.NewStudentListResponse(h.svc.ListStudents()))
}

func (h *handler) stats(c *gin.Context) {
	c.JSON(http.StatusOK, models.NewStatsResponse(h.svc.Stats()))
}

func (h *handler) backendStats(c *gin.Context) {
	ctx, cancel := h.withTimeout(c)
	defer cancel()
	stats, err := h.svc.BackendStats(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *handler) updateStatus(c *gin.Context) {
	ctx, cancel := h.withTimeout(c)
	defer cancel()

	var req models.StatusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request format", err)
		return
	}
	status, err := tracker.ParseStatus(req.Status)
	if err != nil {
		badRequest(c, "status must be Pending, Present or Absent", err)
		return
	}

	st, err := h.svc.UpdateStatus(ctx, c.Param("id"), status, req.Remark)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.NewStudentResponse(st))
}

func (h *handler) removeStudent(c *gin.Context) {
	ctx, cancel := h.withTimeout(c)
	defer cancel()

	if err := h.svc.RemoveStudent(ctx, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "student removed"})
}

func (h *handler) clearRoster(c *gin.Context) {
	ctx, cancel := h.withTimeout(c)
	defer cancel()

	if err := h.svc.ClearRoster(ctx); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "roster cleared"})
}

func (h *handler) startSession(c *gin.Context) {
	resp, err := h.svc.StartSession(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *handler) session(c *gin.Context) {
	resp, err := h.svc.Session(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handler) addPage(c *gin.Context) {
	ctx, cancel := h.withTimeout(c)
	defer cancel()

	crop, err := bindCrop(c)
	if err != nil {
		respondError(c, err)
		return
	}
	up, err := h.readUpload(c)
	if err != nil {
		respondError(c, err)
		return
	}
	up.Crop = crop
	up.Verify, _ = strconv.ParseBool(c.Query("verify"))

	resp, err := h.svc.AddPage(ctx, c.Param("id"), up)
	if err != nil {
		respondError(c, err)
		return
	}
	code := http.StatusCreated
	if !resp.Added {
		code = http.StatusOK
	}
	c.JSON(code, resp)
}

func (h *handler) removePage(c *gin.Context) {
	ctx, cancel := h.withTimeout(c)
	defer cancel()

	if err := h.svc.RemovePage(ctx, c.Param("id"), c.Param("pageId")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) finishSession(c *gin.Context) {
	ctx, cancel := h.withTimeout(c)
	defer cancel()

	resp, err := h.svc.FinishSession(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handler) finishAll(c *gin.Context) {
	ctx, cancel := h.withTimeout(c)
	defer cancel()

	c.JSON(http.StatusOK, h.svc.FinishAll(ctx))
}

func (h *handler) downloadPDF(c *gin.Context) {
	ctx, cancel := h.withTimeout(c)
	defer cancel()

	rc, name, err := h.svc.OpenPDF(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	defer rc.Close()

	c.Header("Content-Disposition", contentDisposition(name))
	c.DataFromReader(http.StatusOK, -1, "application/pdf", rc, nil)
}

func (h *handler) report(c *gin.Context) {
	var buf bytes.Buffer
	name, err := h.svc.Report(&buf)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", contentDisposition(name))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

func (h *handler) metrics(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Metrics())
}
