// Package client is a small API client that drives the upload and process
// endpoints while maintaining the in-memory file list a UI renders from.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"github.com/rs/zerolog"

	"github.com/speculative-artefact/compactImg/internal/filelist"
	"github.com/speculative-artefact/compactImg/internal/imagefile"
	"github.com/speculative-artefact/compactImg/internal/logger"
)

// File is one file payload for an upload request.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Metadata carries the descriptive edits sent with a process request.
type Metadata struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// Settings is the process request configuration.
type Settings struct {
	imagefile.CompressionSettings
	Metadata Metadata `json:"metadata"`
}

type uploadBatchResponse struct {
	UploadedFiles []*imagefile.ImageRecord `json:"uploadedFiles"`
	UploadErrors  []string                 `json:"uploadErrors"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	list       *filelist.List
	logger     zerolog.Logger
}

func New(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
		list:       filelist.New(),
		logger:     logger.GetLogger("api-client"),
	}
}

// Files returns the current file list in insertion order.
func (c *Client) Files() []imagefile.ImageRecord {
	return c.list.Records()
}

// AnyProcessing reports the advisory "some file is processing" flag used
// to gate UI controls.
func (c *Client) AnyProcessing() bool {
	return c.list.AnyProcessing()
}

// Upload sends the files to the upload endpoint and merges the returned
// records into the file list. Per-file rejection reasons are returned
// alongside the accepted records.
func (c *Client) Upload(ctx context.Context, files []File) ([]*imagefile.ImageRecord, []string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	for _, f := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename="%s"`, f.Name))
		header.Set("Content-Type", f.ContentType)

		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, nil, fmt.Errorf("error building multipart body: %w", err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, nil, fmt.Errorf("error writing file payload: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, nil, fmt.Errorf("error closing multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload", &body)
	if err != nil {
		return nil, nil, fmt.Errorf("error building upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("error sending upload request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("error reading upload response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		var records []*imagefile.ImageRecord
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, nil, fmt.Errorf("error decoding upload response: %w", err)
		}
		added := c.list.Merge(records)
		c.logger.Info().Int("uploaded", len(records)).Int("merged", added).Msg("Upload completed")
		return records, nil, nil

	case http.StatusMultiStatus:
		var batch uploadBatchResponse
		if err := json.Unmarshal(data, &batch); err != nil {
			return nil, nil, fmt.Errorf("error decoding upload response: %w", err)
		}
		added := c.list.Merge(batch.UploadedFiles)
		c.logger.Warn().
			Int("uploaded", len(batch.UploadedFiles)).
			Int("merged", added).
			Strs("errors", batch.UploadErrors).
			Msg("Upload partially completed")
		return batch.UploadedFiles, batch.UploadErrors, nil

	default:
		var errResp errorResponse
		if err := json.Unmarshal(data, &errResp); err != nil || errResp.Error == "" {
			return nil, nil, fmt.Errorf("upload failed with status %d", resp.StatusCode)
		}
		return nil, nil, fmt.Errorf("upload failed: %s", errResp.Error)
	}
}

// Process sends a process request for the record with the given id. The
// record is optimistically marked processing, then overwritten with
// whatever the handler returned; a 500 response still carries a usable
// failed record, so it is applied rather than discarded.
func (c *Client) Process(ctx context.Context, id string, settings Settings) (imagefile.ImageRecord, error) {
	record, ok := c.list.Get(id)
	if !ok {
		return imagefile.ImageRecord{}, fmt.Errorf("unknown record id %q", id)
	}

	c.list.BeginProcessing(id)

	payload, err := json.Marshal(map[string]any{
		"imageFile": record,
		"settings":  settings,
	})
	if err != nil {
		return imagefile.ImageRecord{}, fmt.Errorf("error encoding process request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/process", bytes.NewReader(payload))
	if err != nil {
		return imagefile.ImageRecord{}, fmt.Errorf("error building process request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return imagefile.ImageRecord{}, fmt.Errorf("error sending process request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return imagefile.ImageRecord{}, fmt.Errorf("error reading process response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusInternalServerError:
		var updated imagefile.ImageRecord
		if err := json.Unmarshal(data, &updated); err != nil {
			return imagefile.ImageRecord{}, fmt.Errorf("error decoding process response: %w", err)
		}
		c.list.Apply(&updated)
		c.logger.Info().
			Str("image_id", updated.ID).
			Str("status", string(updated.Status)).
			Bool("any_processing", c.list.AnyProcessing()).
			Msg("Process response applied")
		return updated, nil

	default:
		var errResp errorResponse
		if err := json.Unmarshal(data, &errResp); err != nil || errResp.Error == "" {
			return imagefile.ImageRecord{}, fmt.Errorf("process failed with status %d", resp.StatusCode)
		}
		return imagefile.ImageRecord{}, fmt.Errorf("process failed: %s", errResp.Error)
	}
}
