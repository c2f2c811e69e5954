// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package media uploads user images (avatars, cover images) to an S3-compatible
object store and returns their public URLs.

Multipart files are first spooled to a local temp file by the request layer.
[S3Uploader.Upload] takes ownership of that file: it is removed whether the
upload succeeds or fails.

Errors:

  - SERVICE_UNAVAILABLE: the object store did not answer within the media timeout.
  - UPLOAD_FAILED: any other failure (missing file, rejected PutObject).
*/
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/taibuivan/vidstream/internal/platform/apperr"
	"github.com/taibuivan/vidstream/internal/platform/constants"
	"github.com/taibuivan/vidstream/pkg/uuid"
)

// LocalFile is a multipart upload spooled to disk.
type LocalFile struct {
	Path        string
	Filename    string
	ContentType string
	Size        int64
}

// Uploader moves local files to the media host.
type Uploader interface {
	Upload(ctx context.Context, localPath string) (string, error)
	Delete(ctx context.Context, url string) error
}

// ObjectStore is the subset of [*s3.Client] used by [S3Uploader].
type ObjectStore interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Config holds object store settings.
type Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PublicBaseURL   string
	Timeout         time.Duration
}

// # Client Construction

// NewS3Client builds an S3 client from static credentials. A non-empty
// Endpoint points the client at an S3-compatible host (R2, MinIO) using
// path-style addressing.
func NewS3Client(ctx context.Context, cfg Config) (*s3.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("media: failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return client, nil
}

// # Uploader

// S3Uploader implements [Uploader] on top of an [ObjectStore].
type S3Uploader struct {
	client        ObjectStore
	bucket        string
	publicBaseURL string
	timeout       time.Duration
	now           func() time.Time
	logger        *slog.Logger
}

// NewS3Uploader creates a new [S3Uploader].
func NewS3Uploader(client ObjectStore, cfg Config, logger *slog.Logger) *S3Uploader {
	return &S3Uploader{
		client:        client,
		bucket:        cfg.Bucket,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		timeout:       cfg.Timeout,
		now:           time.Now,
		logger:        logger,
	}
}

/*
Upload sends the file at localPath to the bucket and returns its public URL.

The local file is always removed before returning.

Parameters:
  - ctx: context.Context
  - localPath: string (temp file written by the request layer)

Returns:
  - string: Public URL of the stored object
  - error: apperr.UploadFailed or apperr.Unavailable
*/
func (uploader *S3Uploader) Upload(ctx context.Context, localPath string) (string, error) {
	defer uploader.removeLocal(localPath)

	file, err := os.Open(localPath)
	if err != nil {
		return "", apperr.UploadFailed("Error while uploading file", fmt.Errorf("media_upload_open: %w", err))
	}
	defer file.Close()

	contentType, err := detectContentType(file, localPath)
	if err != nil {
		return "", apperr.UploadFailed("Error while uploading file", fmt.Errorf("media_upload_sniff: %w", err))
	}

	key := uploader.objectKey(localPath)

	uploadCtx := ctx
	if uploader.timeout > 0 {
		var cancel context.CancelFunc
		uploadCtx, cancel = context.WithTimeout(ctx, uploader.timeout)
		defer cancel()
	}

	_, err = uploader.client.PutObject(uploadCtx, &s3.PutObjectInput{
		Bucket:      aws.String(uploader.bucket),
		Key:         aws.String(key),
		Body:        file,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", apperr.Unavailable(fmt.Errorf("media_upload_put: %w", err))
		}
		return "", apperr.UploadFailed("Error while uploading file", fmt.Errorf("media_upload_put: %w", err))
	}

	uploader.logger.DebugContext(ctx, "media_uploaded",
		slog.String("key", key),
		slog.String("content_type", contentType),
	)

	return uploader.publicBaseURL + "/" + key, nil
}

// Delete removes an object previously returned by [S3Uploader.Upload].
// URLs outside the public base URL (including empty ones) are ignored.
func (uploader *S3Uploader) Delete(ctx context.Context, url string) error {
	key, ok := strings.CutPrefix(url, uploader.publicBaseURL+"/")
	if !ok || key == "" {
		return nil
	}

	deleteCtx := ctx
	if uploader.timeout > 0 {
		var cancel context.CancelFunc
		deleteCtx, cancel = context.WithTimeout(ctx, uploader.timeout)
		defer cancel()
	}

	_, err := uploader.client.DeleteObject(deleteCtx, &s3.DeleteObjectInput{
		Bucket: aws.String(uploader.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("media_delete: %w", err)
	}
	return nil
}

// objectKey builds "uploads/YYYY/MM/DD/<uuid><ext>".
func (uploader *S3Uploader) objectKey(localPath string) string {
	d := uploader.now().UTC()
	ext := strings.ToLower(filepath.Ext(localPath))
	return fmt.Sprintf("%s/%04d/%02d/%02d/%s%s", constants.MediaKeyPrefix, d.Year(), d.Month(), d.Day(), uuid.New(), ext)
}

func (uploader *S3Uploader) removeLocal(localPath string) {
	if err := os.Remove(localPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		uploader.logger.Warn("media_temp_cleanup_failed",
			slog.String("path", localPath),
			slog.Any("error", err),
		)
	}
}

// detectContentType sniffs the first 512 bytes, falling back to the file
// extension, and rewinds the file for the upload.
func detectContentType(file *os.File, localPath string) (string, error) {
	head := make([]byte, 512)
	n, err := file.Read(head)
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}

	contentType := http.DetectContentType(head[:n])
	if contentType == "application/octet-stream" {
		if byExt := mime.TypeByExtension(filepath.Ext(localPath)); byExt != "" {
			contentType = byExt
		}
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return contentType, nil
}
