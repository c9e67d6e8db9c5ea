package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/utilityprofit/moveout-tracker/internal/models"
	"github.com/utilityprofit/moveout-tracker/pkg/apperr"
	"github.com/utilityprofit/moveout-tracker/pkg/response"
	"github.com/utilityprofit/moveout-tracker/pkg/storage"
)

// DataSource loads a company dashboard. Implemented by companies.Repository.
type DataSource interface {
	GetFullData(ctx context.Context, slug string) (*models.CompanyData, error)
}

// Archiver stores export files and signs download links. Implemented by storage.S3.
type Archiver interface {
	UploadExport(ctx context.Context, key, contentType string, body io.Reader) error
	PresignedDownloadURL(ctx context.Context, key string) (string, error)
}

// ArchiveResponse is returned by the archive endpoint.
type ArchiveResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// Handler serves dashboard exports.
type Handler struct {
	source  DataSource
	archive Archiver
	logger  *zap.Logger
	now     func() time.Time
}

// NewHandler creates an export handler. archive may be nil when S3 is not configured.
func NewHandler(source DataSource, archive Archiver, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{source: source, archive: archive, logger: logger, now: time.Now}
}

// load resolves slug and format and fetches the dashboard, writing the error response itself.
func (h *Handler) load(c *gin.Context) (string, Format, *models.CompanyData, bool) {
	slug := c.Query("slug")
	if slug == "" {
		response.BadRequest(c, "Missing slug")
		return "", "", nil, false
	}
	format := Format(strings.ToLower(c.DefaultQuery("format", string(FormatCSV))))
	if !format.Valid() {
		response.BadRequest(c, fmt.Sprintf("Invalid format: %s", format))
		return "", "", nil, false
	}
	data, err := h.source.GetFullData(c.Request.Context(), slug)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			response.NotFound(c, "Company not found")
		} else {
			h.logger.Error("load company for export", zap.String("slug", slug), zap.Error(err))
			response.Internal(c, "Failed to load data")
		}
		return "", "", nil, false
	}
	return slug, format, data, true
}

func render(buf *bytes.Buffer, slug string, format Format, data *models.CompanyData) error {
	if format == FormatXLSX {
		return WriteXLSX(buf, slug, data)
	}
	return WriteCSV(buf, data)
}

// Download handles GET /api/company/export?slug=&format=csv|xlsx.
func (h *Handler) Download(c *gin.Context) {
	slug, format, data, ok := h.load(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := render(&buf, slug, format, data); err != nil {
		h.logger.Error("render export", zap.String("slug", slug), zap.String("format", string(format)), zap.Error(err))
		response.Internal(c, "Failed to export")
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", Filename(slug, format, h.now())))
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

// Archive handles POST /api/company/export/archive?slug=&format=. The file is
// uploaded to the exports bucket and a pre-signed download link is returned.
func (h *Handler) Archive(c *gin.Context) {
	if h.archive == nil {
		response.ServiceUnavailable(c, "Export archive not configured")
		return
	}
	slug, format, data, ok := h.load(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := render(&buf, slug, format, data); err != nil {
		h.logger.Error("render export", zap.String("slug", slug), zap.Error(err))
		response.Internal(c, "Failed to export")
		return
	}

	ctx := c.Request.Context()
	key := storage.ExportKey(slug, Filename(slug, format, h.now()))
	if err := h.archive.UploadExport(ctx, key, format.ContentType(), &buf); err != nil {
		h.logger.Error("archive export", zap.String("key", key), zap.Error(err))
		response.Internal(c, "Failed to archive export")
		return
	}
	url, err := h.archive.PresignedDownloadURL(ctx, key)
	if err != nil {
		h.logger.Error("presign export", zap.String("key", key), zap.Error(err))
		response.Internal(c, "Failed to archive export")
		return
	}
	response.OK(c, ArchiveResponse{Key: key, URL: url})
}
