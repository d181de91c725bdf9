package handler

import (
	"context"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ConvertService defines the behavior consumed by the handler.
type ConvertService interface {
	Process(ctx context.Context, file multipart.File, header *multipart.FileHeader) (string, error)
	CanConvert(filename string) bool
	SupportedFormats() []string
}

// Response is the JSON body returned by the conversion endpoints.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Text    string `json:"text"`
}

// ConvertHandler manages conversion HTTP interactions.
type ConvertHandler struct {
	service      ConvertService
	maxFileBytes int64
	logger       *slog.Logger
}

// NewConvertHandler builds the handler.
func NewConvertHandler(svc ConvertService, maxFileBytes int64, logger *slog.Logger) *ConvertHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConvertHandler{service: svc, maxFileBytes: maxFileBytes, logger: logger}
}

// HandleConvert accepts a multipart upload in the "file" field and returns
// the extracted Markdown.
func (h *ConvertHandler) HandleConvert(c *gin.Context) {
	if err := c.Request.ParseMultipartForm(h.maxFileBytes); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, Response{
			Message: "invalid multipart payload",
		})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, Response{
			Message: "missing file",
		})
		return
	}
	defer file.Close()

	if h.maxFileBytes > 0 && header.Size > h.maxFileBytes {
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, Response{
			Message: "file too large",
		})
		return
	}
	if !h.service.CanConvert(header.Filename) {
		c.AbortWithStatusJSON(http.StatusUnsupportedMediaType, Response{
			Message: "unsupported file format",
		})
		return
	}

	text, err := h.service.Process(c.Request.Context(), file, header)
	if err != nil {
		h.logger.Error("conversion failed", "filename", header.Filename, "error", err)
		c.AbortWithStatusJSON(http.StatusBadGateway, Response{
			Message: "conversion failed",
		})
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Message: "file converted",
		Text:    text,
	})
}

// HandleFormats lists the supported file extensions.
func (h *ConvertHandler) HandleFormats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"formats": h.service.SupportedFormats()})
}
