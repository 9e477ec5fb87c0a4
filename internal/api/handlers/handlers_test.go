package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/speculative-artefact/compactImg/config"
	"github.com/speculative-artefact/compactImg/internal/storage"
)

// memStore is an in-memory storage.Client. URLs use a mem:// scheme that
// Fetch resolves, so no network is involved.
type memStore struct {
	mu          sync.Mutex
	objects     map[string][]byte
	uploadCalls int
	failUpload  bool
}

func newMemStore() *memStore {
	return &memStore{objects: make(map[string][]byte)}
}

func (s *memStore) Upload(_ context.Context, objectName string, reader io.Reader, _ int64, _ string) (storage.ObjectInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.uploadCalls++
	if s.failUpload {
		return storage.ObjectInfo{}, errors.New("simulated upload failure")
	}

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
		return nil, fmt.Errorf("failed to fetch blob, status code: 404")
	}
	return data, nil
}

func (s *memStore) ObjectURL(_ context.Context, objectName string) (string, error) {
	return "mem://" + objectName, nil
}

func (s *memStore) Close() error { return nil }

func (s *memStore) uploads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uploadCalls
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Mode: gin.TestMode},
		Upload: config.UploadConfig{
			MaxFileSize: 10 * 1024 * 1024,
			CacheTTL:    time.Hour,
		},
	}
}

type uploadFile struct {
	name        string
	contentType string
	data        []byte
}

func multipartBody(t *testing.T, files ...uploadFile) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, f := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename="%s"`, f.name))
		header.Set("Content-Type", f.contentType)

		part, err := writer.CreatePart(header)
		if err != nil {
			t.Fatalf("creating multipart part: %v", err)
		}
		if _, err := part.Write(f.data); err != nil {
			t.Fatalf("writing multipart part: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("closing multipart writer: %v", err)
	}
	return body, writer.FormDataContentType()
}
