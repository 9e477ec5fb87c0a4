package handlers

import (
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/speculative-artefact/compactImg/config"
	"github.com/speculative-artefact/compactImg/internal/imagefile"
	"github.com/speculative-artefact/compactImg/internal/logger"
	"github.com/speculative-artefact/compactImg/internal/metrics"
	"github.com/speculative-artefact/compactImg/internal/storage"
)

// allowedUploadTypes are the declared content types the upload endpoint
// accepts. Anything else is rejected before a storage write happens.
var allowedUploadTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/avif": true,
}

type UploadHandler struct {
	storageClient storage.Client
	config        *config.Config
}

// UploadBatchResponse is the multi-status body returned when a batch
// contains both accepted and rejected files.
type UploadBatchResponse struct {
	UploadedFiles []*imagefile.ImageRecord `json:"uploadedFiles"`
	UploadErrors  []string                 `json:"uploadErrors"`
}

func NewUploadHandler(storageClient storage.Client, config *config.Config) *UploadHandler {
	return &UploadHandler{
		storageClient: storageClient,
		config:        config,
	}
}

// Upload handles multipart image upload requests. Files are validated and
// stored independently: a rejected file never blocks the rest of the batch.
func (h *UploadHandler) Upload(c *gin.Context) {
	reqLogger := logger.FromContext(c.Request.Context())
	reqLogger.Info().Msg("Received image upload request")

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse multipart form"})
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No files provided"})
		return
	}

	var records []*imagefile.ImageRecord
	var uploadErrors []string

	for _, header := range files {
		record, err := h.uploadOne(c.Request.Context(), header)
		if err != nil {
			reqLogger.Warn().Err(err).Str("filename", header.Filename).Msg("File rejected")
			uploadErrors = append(uploadErrors, fmt.Sprintf("%s: %s", header.Filename, err))
			metrics.UploadsTotal.WithLabelValues("rejected").Inc()
			continue
		}

		reqLogger.Info().Str("image_id", record.ID).Str("filename", header.Filename).Msg("File uploaded")
		records = append(records, record)
		metrics.UploadsTotal.WithLabelValues("accepted").Inc()
	}

	switch {
	case len(records) == 0:
		c.JSON(http.StatusBadRequest, gin.H{"error": strings.Join(uploadErrors, "; ")})
	case len(uploadErrors) > 0:
		c.JSON(http.StatusMultiStatus, &UploadBatchResponse{
			UploadedFiles: records,
			UploadErrors:  uploadErrors,
		})
	default:
		c.JSON(http.StatusOK, records)
	}
}

// uploadOne validates a single file and, on acceptance, writes it to blob
// storage and builds its record. Validation precedes the storage write.
func (h *UploadHandler) uploadOne(ctx context.Context, header *multipart.FileHeader) (*imagefile.ImageRecord, error) {
	contentType := header.Header.Get("Content-Type")
	if !allowedUploadTypes[contentType] {
		return nil, fmt.Errorf("unsupported file type %q", contentType)
	}

	if header.Size > h.config.Upload.MaxFileSize {
		return nil, fmt.Errorf("file too large, max %d bytes", h.config.Upload.MaxFileSize)
	}

	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	id := uuid.New().String()
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(header.Filename), "."))
	if ext == "" {
		ext = "bin"
	}
	objectName := fmt.Sprintf("%s.%s", id, ext)

	info, err := h.storageClient.Upload(ctx, objectName, file, header.Size, contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	return imagefile.NewRecord(id, header.Filename, header.Size, contentType, info.URL), nil
}
