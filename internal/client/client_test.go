package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/speculative-artefact/compactImg/config"
	"github.com/speculative-artefact/compactImg/internal/api/router"
	"github.com/speculative-artefact/compactImg/internal/imagefile"
	"github.com/speculative-artefact/compactImg/internal/storage"
)

type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{objects: make(map[string][]byte)}
}

func (s *memStore) Upload(_ context.Context, objectName string, reader io.Reader, _ int64, _ string) (storage.ObjectInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := io.ReadAll(reader)
	if err != nil {
		return storage.ObjectInfo{}, err
	}
	s.objects[objectName] = data
	return storage.ObjectInfo{URL: "mem://" + objectName, Pathname: objectName}, nil
}

func (s *memStore) Fetch(_ context.Context, url string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.objects[strings.TrimPrefix(url, "mem://")]
	if !ok {
		return nil, errors.New("failed to fetch blob, status code: 404")
	}
	return data, nil
}

func (s *memStore) ObjectURL(_ context.Context, objectName string) (string, error) {
	return "mem://" + objectName, nil
}

func (s *memStore) Close() error { return nil }

func startServer(t *testing.T) (*httptest.Server, *memStore) {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{Mode: gin.TestMode},
		Upload: config.UploadConfig{MaxFileSize: 10 * 1024 * 1024, CacheTTL: time.Hour},
	}

	store := newMemStore()
	srv := httptest.NewServer(router.Setup(cfg, store))
	t.Cleanup(srv.Close)
	return srv, store
}

func jpegBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 80, 60))
	for x := 0; x < 80; x++ {
		for y := 0; y < 60; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 3), G: uint8(y * 4), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}))
	return buf.Bytes()
}

func TestUploadThenProcess(t *testing.T) {
	srv, _ := startServer(t)
	c := New(srv.URL)

	data := jpegBytes(t)
	records, uploadErrors, err := c.Upload(context.Background(), []File{
		{Name: "sunset.jpg", ContentType: "image/jpeg", Data: data},
	})
	require.NoError(t, err)
	require.Empty(t, uploadErrors)
	require.Len(t, records, 1)

	rec := records[0]
	require.Equal(t, imagefile.StatusUploaded, rec.Status)
	require.Equal(t, int64(len(data)), rec.OriginalSize)
	require.Equal(t, "image/jpeg", rec.OriginalFormat)
	require.Equal(t, 1, len(c.Files()))

	updated, err := c.Process(context.Background(), rec.ID, Settings{
		CompressionSettings: imagefile.CompressionSettings{Quality: 80, TargetFormat: "original"},
		Metadata:            Metadata{Title: "Sunset"},
	})
	require.NoError(t, err)

	require.Equal(t, imagefile.StatusCompleted, updated.Status)
	require.NotEmpty(t, updated.DownloadURL)
	require.Equal(t, "Sunset", updated.Metadata.Title)
	require.Positive(t, updated.CompressedSize)
	require.False(t, c.AnyProcessing())

	// the list reflects the applied response
	got, ok := c.list.Get(rec.ID)
	require.True(t, ok)
	require.Equal(t, imagefile.StatusCompleted, got.Status)
}

func TestUploadPartialBatch(t *testing.T) {
	srv, _ := startServer(t)
	c := New(srv.URL)

	records, uploadErrors, err := c.Upload(context.Background(), []File{
		{Name: "ok.jpg", ContentType: "image/jpeg", Data: jpegBytes(t)},
		{Name: "nope.txt", ContentType: "text/plain", Data: []byte("hi")},
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Len(t, uploadErrors, 1)
	require.Contains(t, uploadErrors[0], "nope.txt")
	require.Equal(t, 1, len(c.Files()))
}

func TestUploadAllRejected(t *testing.T) {
	srv, _ := startServer(t)
	c := New(srv.URL)

	_, _, err := c.Upload(context.Background(), []File{
		{Name: "nope.txt", ContentType: "text/plain", Data: []byte("hi")},
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported file type")
	require.Zero(t, len(c.Files()))
}

func TestUploadDeduplicatesRepeatedMerge(t *testing.T) {
	srv, store := startServer(t)
	c := New(srv.URL)

	_, _, err := c.Upload(context.Background(), []File{
		{Name: "a.jpg", ContentType: "image/jpeg", Data: jpegBytes(t)},
	})
	require.NoError(t, err)
	require.Equal(t, 1, len(c.Files()))

	// re-merging records with an already known storage reference drops them
	existing := c.Files()
	dup := existing[0]
	require.Equal(t, 0, c.list.Merge([]*imagefile.ImageRecord{&dup}))
	require.Equal(t, 1, len(c.Files()))
	require.NotEmpty(t, store.objects)
}

func TestProcessFailureAppliesFailedRecord(t *testing.T) {
	srv, _ := startServer(t)
	c := New(srv.URL)

	records, _, err := c.Upload(context.Background(), []File{
		{Name: "pic.jpg", ContentType: "image/jpeg", Data: jpegBytes(t)},
	})
	require.NoError(t, err)

	updated, err := c.Process(context.Background(), records[0].ID, Settings{
		CompressionSettings: imagefile.CompressionSettings{Quality: 80, TargetFormat: "webp"},
	})
	require.NoError(t, err, "a 500 with a record body is not a client error")
	require.Equal(t, imagefile.StatusFailed, updated.Status)
	require.NotEmpty(t, updated.ErrorMessage)
	require.False(t, c.AnyProcessing())
}

func TestConcurrentDoubleSubmit(t *testing.T) {
	srv, _ := startServer(t)
	c := New(srv.URL)

	records, _, err := c.Upload(context.Background(), []File{
		{Name: "pic.jpg", ContentType: "image/jpeg", Data: jpegBytes(t)},
	})
	require.NoError(t, err)
	id := records[0].ID

	// nothing prevents overlapping process requests for the same record;
	// both must complete and the last applied response wins
	var wg sync.WaitGroup
	results := make([]imagefile.ImageRecord, 2)
	errs := make([]error, 2)
	for i, quality := range []int{60, 90} {
		wg.Add(1)
		go func(slot, q int) {
			defer wg.Done()
			results[slot], errs[slot] = c.Process(context.Background(), id, Settings{
				CompressionSettings: imagefile.CompressionSettings{Quality: q, TargetFormat: "original"},
			})
		}(i, quality)
	}
	wg.Wait()

	for i := 0; i < 2; i++ {
		require.NoError(t, errs[i], fmt.Sprintf("request %d", i))
		require.Equal(t, imagefile.StatusCompleted, results[i].Status)
	}

	got, ok := c.list.Get(id)
	require.True(t, ok)
	require.Equal(t, imagefile.StatusCompleted, got.Status)
	require.Equal(t, 1, len(c.Files()))
}
