// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package media

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/vidstream/internal/platform/apperr"
)

// # Fakes

type fakeObjectStore struct {
	mu       sync.Mutex
	puts     []fakePut
	deletes  []string
	putErr   error
	blockPut bool
}

type fakePut struct {
	bucket      string
	key         string
	contentType string
	body        string
}

func (f *fakeObjectStore) PutObject(ctx context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.blockPut {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.putErr != nil {
		return nil, f.putErr
	}

	body, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts = append(f.puts, fakePut{
		bucket:      aws.ToString(params.Bucket),
		key:         aws.ToString(params.Key),
		contentType: aws.ToString(params.ContentType),
		body:        string(body),
	})
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjectStore) DeleteObject(_ context.Context, params *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, aws.ToString(params.Key))
	return &s3.DeleteObjectOutput{}, nil
}

// # Helpers

var pngHeader = "\x89PNG\r\n\x1a\n" + strings.Repeat("\x00", 16)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func newTestUploader(store ObjectStore, timeout time.Duration) *S3Uploader {
	uploader := NewS3Uploader(store, Config{
		Bucket:        "vidstream-media",
		PublicBaseURL: "https://cdn.example.com/",
		Timeout:       timeout,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	uploader.now = func() time.Time { return time.Date(2026, 3, 7, 10, 0, 0, 0, time.UTC) }
	return uploader
}

// # Tests

/*
TestUpload_Success verifies the object key layout, returned URL and temp file removal.
*/
func TestUpload_Success(t *testing.T) {
	store := &fakeObjectStore{}
	uploader := newTestUploader(store, time.Second)
	path := writeTemp(t, "avatar.PNG", pngHeader)

	url, err := uploader.Upload(context.Background(), path)
	require.NoError(t, err)

	require.Len(t, store.puts, 1)
	put := store.puts[0]
	assert.Equal(t, "vidstream-media", put.bucket)
	assert.True(t, strings.HasPrefix(put.key, "uploads/2026/03/07/"), put.key)
	assert.True(t, strings.HasSuffix(put.key, ".png"), put.key)
	assert.Equal(t, "image/png", put.contentType)
	assert.Equal(t, pngHeader, put.body)
	assert.Equal(t, "https://cdn.example.com/"+put.key, url)

	_, statErr := os.Stat(path)
	assert.True(t, errors.Is(statErr, os.ErrNotExist), "temp file must be removed")
}

/*
TestUpload_FailureRemovesFile verifies a rejected upload still cleans up the temp file.
*/
func TestUpload_FailureRemovesFile(t *testing.T) {
	store := &fakeObjectStore{putErr: errors.New("access denied")}
	uploader := newTestUploader(store, time.Second)
	path := writeTemp(t, "cover.jpg", "jpeg-bytes")

	url, err := uploader.Upload(context.Background(), path)
	assert.Empty(t, url)
	assert.True(t, apperr.HasCode(err, apperr.CodeUploadFailed))

	_, statErr := os.Stat(path)
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
}

/*
TestUpload_MissingFile verifies a missing local file is an upload failure.
*/
func TestUpload_MissingFile(t *testing.T) {
	uploader := newTestUploader(&fakeObjectStore{}, time.Second)

	_, err := uploader.Upload(context.Background(), filepath.Join(t.TempDir(), "gone.png"))
	assert.True(t, apperr.HasCode(err, apperr.CodeUploadFailed))
}

/*
TestUpload_Timeout verifies a slow object store surfaces as a retryable error.
*/
func TestUpload_Timeout(t *testing.T) {
	store := &fakeObjectStore{blockPut: true}
	uploader := newTestUploader(store, 20*time.Millisecond)
	path := writeTemp(t, "avatar.png", pngHeader)

	_, err := uploader.Upload(context.Background(), path)
	assert.True(t, apperr.IsRetryable(err))
	assert.True(t, apperr.HasCode(err, apperr.CodeUnavailable))
}

/*
TestDelete_OnlyOwnedObjects verifies foreign and empty URLs are ignored.
*/
func TestDelete_OnlyOwnedObjects(t *testing.T) {
	store := &fakeObjectStore{}
	uploader := newTestUploader(store, time.Second)

	require.NoError(t, uploader.Delete(context.Background(), "https://cdn.example.com/uploads/2026/03/07/a.png"))
	require.NoError(t, uploader.Delete(context.Background(), "https://elsewhere.example.com/a.png"))
	require.NoError(t, uploader.Delete(context.Background(), ""))

	assert.Equal(t, []string{"uploads/2026/03/07/a.png"}, store.deletes)
}

/*
TestNewS3Client_PathStyleEndpoint verifies the real SDK client talks to a custom
S3-compatible endpoint with path-style addressing.
*/
func TestNewS3Client_PathStyleEndpoint(t *testing.T) {
	var gotMethod, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		gotMethod = request.Method
		gotPath = request.URL.Path
		_, _ = io.Copy(io.Discard, request.Body)
		writer.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, err := NewS3Client(context.Background(), Config{
		Region:          "auto",
		Endpoint:        server.URL,
		AccessKeyID:     "test",
		SecretAccessKey: "test",
	})
	require.NoError(t, err)

	uploader := newTestUploader(client, 5*time.Second)
	uploader.bucket = "vidstream-media"
	path := writeTemp(t, "avatar.png", pngHeader)

	url, err := uploader.Upload(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, gotMethod)
	assert.True(t, strings.HasPrefix(gotPath, "/vidstream-media/uploads/2026/03/07/"), gotPath)
	assert.True(t, strings.HasPrefix(url, "https://cdn.example.com/uploads/"))
}
