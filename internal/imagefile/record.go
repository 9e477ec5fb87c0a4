package imagefile

// Status tracks an image record through its lifecycle.
type Status string

const (
	StatusUploaded   Status = "uploaded"
	StatusQueued     Status = "queued" // reserved, not entered by the current flow
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Metadata holds the user-editable descriptive fields of an image.
type Metadata struct {
	Title       string            `json:"title,omitempty"`
	Description string            `json:"description,omitempty"`
	Author      string            `json:"author,omitempty"`
	Copyright   string            `json:"copyright,omitempty"`
	Keywords    []string          `json:"keywords,omitempty"`
	Custom      map[string]string `json:"custom,omitempty"`
}

// ResizeSettings is declared for API compatibility; the processing step
// does not consult it.
type ResizeSettings struct {
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`
}

// CompressionSettings is the configuration for one processing request.
// StripMetadata, PreserveMetadata and Resize are reserved no-op fields.
type CompressionSettings struct {
	Quality          int             `json:"quality"`
	TargetFormat     string          `json:"targetFormat"`
	StripMetadata    bool            `json:"stripMetadata,omitempty"`
	PreserveMetadata bool            `json:"preserveMetadata,omitempty"`
	Resize           *ResizeSettings `json:"resize,omitempty"`
}

// ImageRecord represents one user-submitted image through its lifecycle.
// ID is assigned at upload, stays stable and is reused as the storage key
// prefix for the processed artifact.
type ImageRecord struct {
	ID                  string               `json:"id"`
	OriginalName        string               `json:"originalName"`
	OriginalSize        int64                `json:"originalSize"`
	OriginalFormat      string               `json:"originalFormat"`
	Status              Status               `json:"status"`
	Metadata            Metadata             `json:"metadata"`
	OriginalMetadata    map[string]string    `json:"originalMetadata,omitempty"`
	ProcessingSettings  *CompressionSettings `json:"processingSettings,omitempty"`
	CompressedSize      int64                `json:"compressedSize,omitempty"`
	CompressionRatio    float64              `json:"compressionRatio,omitempty"`
	ProcessingTimeMs    int64                `json:"processingTimeMs,omitempty"`
	DownloadURL         string               `json:"downloadUrl,omitempty"`
	ErrorMessage        string               `json:"errorMessage,omitempty"`
	RawStorageReference string               `json:"rawStorageReference,omitempty"`
}

// NewRecord creates a record for a freshly uploaded file.
func NewRecord(id, originalName string, originalSize int64, originalFormat, rawStorageReference string) *ImageRecord {
	return &ImageRecord{
		ID:                  id,
		OriginalName:        originalName,
		OriginalSize:        originalSize,
		OriginalFormat:      originalFormat,
		Status:              StatusUploaded,
		Metadata:            Metadata{},
		RawStorageReference: rawStorageReference,
	}
}

// CompressionRatio returns the percentage reduction from original to
// compressed size. A non-positive original size yields 0.
func CompressionRatio(originalSize, compressedSize int64) float64 {
	if originalSize <= 0 {
		return 0
	}
	return (1 - float64(compressedSize)/float64(originalSize)) * 100
}
