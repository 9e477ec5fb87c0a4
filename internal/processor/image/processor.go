package image

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"math"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"

	// webp sources are decodable even though webp is not an encode target.
	_ "golang.org/x/image/webp"

	"github.com/speculative-artefact/compactImg/internal/imagefile"
	"github.com/speculative-artefact/compactImg/internal/logger"
	"github.com/speculative-artefact/compactImg/internal/storage"
)

// Error kinds for the processing pipeline. The HTTP layer collapses all of
// them into a failed record; the kinds exist so callers and tests can tell
// the failure modes apart.
var (
	ErrUpstreamFetch     = errors.New("upstream fetch failed")
	ErrUnsupportedFormat = errors.New("unsupported target format")
	ErrEncode            = errors.New("encode failed")
	ErrStorageWrite      = errors.New("storage write failed")
)

// supported encode targets. Requests for anything else fail hard, there is
// no fallback codec.
const (
	FormatJPEG = "jpeg"
	FormatPNG  = "png"
)

type Processor struct {
	storageClient storage.Client
	logger        zerolog.Logger
}

// Result carries the outcome of one processing run.
type Result struct {
	CompressedSize int64
	DownloadURL    string
	StoragePath    string
	Format         string
}

func New(storageClient storage.Client) *Processor {
	return &Processor{
		storageClient: storageClient,
		logger:        logger.GetLogger("image-processor"),
	}
}

// Process fetches the record's original blob, transcodes it to the
// effective target format at the requested quality, injects descriptive
// tags when supplied and stores the result under the record's id. A single
// attempt; every failure mode is reported through one of the error kinds.
func (p *Processor) Process(ctx context.Context, record *imagefile.ImageRecord, settings *imagefile.CompressionSettings, tags TagUpdate) (*Result, error) {
	p.logger.Info().
		Str("image_id", record.ID).
		Str("target_format", settings.TargetFormat).
		Int("quality", settings.Quality).
		Msg("Processing image")

	raw, err := p.storageClient.Fetch(ctx, record.RawStorageReference)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUpstreamFetch, err)
	}

	format := ResolveTargetFormat(settings.TargetFormat, record.OriginalFormat)
	if format != FormatJPEG && format != FormatPNG {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	img, sourceFormat, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: decoding source image: %s", ErrEncode, err)
	}

	p.logger.Debug().
		Str("image_id", record.ID).
		Str("source_format", sourceFormat).
		Int("original_size", len(raw)).
		Msg("Source image decoded")

	var buf bytes.Buffer
	switch format {
	case FormatJPEG:
		err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(settings.Quality))
	case FormatPNG:
		level := PNGCompressionLevel(settings.Quality)
		err = imaging.Encode(&buf, img, imaging.PNG, imaging.PNGCompressionLevel(pngEncoderLevel(level)))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrEncode, err)
	}

	encoded := buf.Bytes()
	if tags.Title != "" || tags.Description != "" {
		encoded, err = WriteDescriptiveTags(encoded, format, tags)
		if err != nil {
			return nil, fmt.Errorf("%w: writing tags: %s", ErrEncode, err)
		}
	}

	objectName := fmt.Sprintf("%s.%s", record.ID, format)
	info, err := p.storageClient.Upload(ctx, objectName, bytes.NewReader(encoded), int64(len(encoded)), "image/"+format)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrStorageWrite, err)
	}

	p.logger.Info().
		Str("image_id", record.ID).
		Str("object", objectName).
		Int("original_size", len(raw)).
		Int("compressed_size", len(encoded)).
		Msg("Image processed and stored")

	return &Result{
		CompressedSize: int64(len(encoded)),
		DownloadURL:    info.URL,
		StoragePath:    info.Pathname,
		Format:         format,
	}, nil
}

// ResolveTargetFormat resolves "original" against the source MIME type,
// otherwise returns the requested format as-is.
func ResolveTargetFormat(requested, originalMIME string) string {
	if requested == "" || requested == "original" {
		if i := strings.IndexByte(originalMIME, '/'); i >= 0 {
			return originalMIME[i+1:]
		}
		return originalMIME
	}
	return requested
}

// PNGCompressionLevel maps the 60-100 quality scale onto a 0-9
// compression-effort scale. Higher quality means a lower effort number;
// out-of-range quality values clamp rather than error.
func PNGCompressionLevel(quality int) int {
	level := int(math.Round(float64(100-quality) / 10))
	if level < 0 {
		level = 0
	}
	if level > 9 {
		level = 9
	}
	return level
}

// pngEncoderLevel buckets the 0-9 effort scale onto the encoder's
// compression levels.
func pngEncoderLevel(level int) png.CompressionLevel {
	switch {
	case level <= 2:
		return png.BestSpeed
	case level <= 6:
		return png.DefaultCompression
	default:
		return png.BestCompression
	}
}
