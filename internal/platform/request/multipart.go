// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package requestutil

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/taibuivan/vidstream/internal/platform/apperr"
	"github.com/taibuivan/vidstream/internal/platform/constants"
	"github.com/taibuivan/vidstream/internal/platform/media"
)

// multipartMemory is how much of a multipart form is held in memory before
// the standard library spills parts to disk.
const multipartMemory = 1 << 20

/*
ParseMultipart parses a multipart/form-data body capped at maxBytes.

Returns:
  - error: apperr.ValidationError for oversized or malformed forms
*/
func ParseMultipart(writer http.ResponseWriter, request *http.Request, maxBytes int64) error {
	request.Body = http.MaxBytesReader(writer, request.Body, maxBytes)

	if err := request.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperr.ValidationError(fmt.Sprintf("Upload exceeds %d bytes", maxBytes))
		}
		return apperr.ValidationError("Invalid multipart form")
	}
	return nil
}

/*
FormValue returns a trimmed text field from a parsed multipart form.
*/
func FormValue(request *http.Request, field string) string {
	return strings.TrimSpace(request.FormValue(field))
}

/*
SaveFormFile copies the named multipart file into dir and returns it.

Description: The temp file keeps the original extension so the media host can
serve it with a sensible content type. Ownership passes to the caller, who
hands it to the media uploader (which removes it) or to [RemoveFiles].

Returns:
  - *media.LocalFile: nil when the field is absent or empty
  - error: Disk failures
*/
func SaveFormFile(request *http.Request, field, dir string) (*media.LocalFile, error) {
	if request.MultipartForm == nil {
		return nil, nil
	}

	headers := request.MultipartForm.File[field]
	if len(headers) == 0 || headers[0].Size == 0 {
		return nil, nil
	}
	header := headers[0]

	source, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("request_save_form_file_open: %w", err)
	}
	defer source.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	target, err := os.CreateTemp(dir, constants.UploadTempPattern+ext)
	if err != nil {
		return nil, fmt.Errorf("request_save_form_file_create: %w", err)
	}

	written, copyErr := io.Copy(target, source)
	closeErr := target.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = os.Remove(target.Name())
		return nil, fmt.Errorf("request_save_form_file_copy: %w", err)
	}

	return &media.LocalFile{
		Path:        target.Name(),
		Filename:    filepath.Base(header.Filename),
		ContentType: header.Header.Get("Content-Type"),
		Size:        written,
	}, nil
}

/*
RemoveFiles deletes spooled uploads that never reached the media uploader.
Nil entries are skipped.
*/
func RemoveFiles(files ...*media.LocalFile) {
	for _, file := range files {
		if file != nil {
			_ = os.Remove(file.Path)
		}
	}
}

/*
CleanupMultipart removes the standard library's own temp files for the form.
*/
func CleanupMultipart(request *http.Request) {
	if request.MultipartForm != nil {
		_ = request.MultipartForm.RemoveAll()
	}
}
