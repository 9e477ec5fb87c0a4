package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/speculative-artefact/compactImg/internal/imagefile"
	"github.com/speculative-artefact/compactImg/internal/logger"
	"github.com/speculative-artefact/compactImg/internal/metrics"
	imageprocessor "github.com/speculative-artefact/compactImg/internal/processor/image"
	"github.com/speculative-artefact/compactImg/internal/storage"
	"github.com/speculative-artefact/compactImg/internal/tracing"
)

type ProcessHandler struct {
	processor *imageprocessor.Processor
}

// ProcessMetadata carries the descriptive fields a process request may
// write into the output image.
type ProcessMetadata struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ProcessSettings is the compression configuration plus the metadata edits
// for one process request.
type ProcessSettings struct {
	imagefile.CompressionSettings
	Metadata ProcessMetadata `json:"metadata"`
}

// ProcessRequest is the body of a process request.
type ProcessRequest struct {
	ImageFile *imagefile.ImageRecord `json:"imageFile"`
	Settings  *ProcessSettings       `json:"settings"`
}

func NewProcessHandler(storageClient storage.Client) *ProcessHandler {
	return &ProcessHandler{
		processor: imageprocessor.New(storageClient),
	}
}

// Process handles image processing requests. On failure the response is a
// 500 that still carries the best-effort updated record: callers must not
// assume a non-success status means no data.
func (h *ProcessHandler) Process(c *gin.Context) {
	reqLogger := logger.FromContext(c.Request.Context())

	var req ProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if req.ImageFile == nil || req.ImageFile.RawStorageReference == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "imageFile with a storage reference is required"})
		return
	}
	if req.Settings == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "settings is required"})
		return
	}

	record := req.ImageFile
	settings := req.Settings.CompressionSettings
	tags := imageprocessor.TagUpdate{
		Title:       req.Settings.Metadata.Title,
		Description: req.Settings.Metadata.Description,
	}

	reqLogger.Info().
		Str("image_id", record.ID).
		Str("target_format", settings.TargetFormat).
		Int("quality", settings.Quality).
		Msg("Processing image request")

	ctx, span := tracing.StartSpan(c.Request.Context(), "process-image")
	defer span.End()

	start := time.Now()
	result, err := h.processor.Process(ctx, record, &settings, tags)
	record.ProcessingTimeMs = time.Since(start).Milliseconds()

	if err != nil {
		reqLogger.Error().Err(err).Str("image_id", record.ID).Msg("Image processing failed")
		tracing.RecordError(ctx, err)

		record.Status = imagefile.StatusFailed
		record.ErrorMessage = err.Error()
		if record.ErrorMessage == "" {
			record.ErrorMessage = "image processing failed"
		}

		metrics.RecordProcessingTime(ctx, "failed", start)
		c.JSON(http.StatusInternalServerError, record)
		return
	}

	record.Status = imagefile.StatusCompleted
	record.CompressedSize = result.CompressedSize
	record.CompressionRatio = imagefile.CompressionRatio(record.OriginalSize, result.CompressedSize)
	record.DownloadURL = result.DownloadURL
	record.ProcessingSettings = &settings
	if tags.Title != "" {
		record.Metadata.Title = tags.Title
	}
	if tags.Description != "" {
		record.Metadata.Description = tags.Description
	}

	metrics.RecordProcessingTime(ctx, "completed", start)
	metrics.RecordSizeReduction(ctx, record.OriginalSize, record.CompressedSize)

	reqLogger.Info().
		Str("image_id", record.ID).
		Int64("compressed_size", record.CompressedSize).
		Float64("compression_ratio", record.CompressionRatio).
		Int64("processing_time_ms", record.ProcessingTimeMs).
		Msg("Image processed successfully")

	c.JSON(http.StatusOK, record)
}
