// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package requestutil_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/vidstream/internal/platform/apperr"
	"github.com/taibuivan/vidstream/internal/platform/ctxutil"
	requestutil "github.com/taibuivan/vidstream/internal/platform/request"
	"github.com/taibuivan/vidstream/internal/users/identity"
)

/*
TestBearerToken verifies the scheme and its separator are both stripped.
*/
func TestBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"standard", "Bearer abc.def.ghi", "abc.def.ghi"},
		{"lowercase_scheme", "bearer abc.def.ghi", "abc.def.ghi"},
		{"extra_spaces", "Bearer    abc.def.ghi  ", "abc.def.ghi"},
		{"empty", "", ""},
		{"scheme_only", "Bearer", ""},
		{"other_scheme", "Basic dXNlcjpwYXNz", ""},
		{"no_scheme", "abc.def.ghi", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := requestutil.BearerToken(tt.header)
			assert.Equal(t, tt.want, got)
			assert.False(t, strings.HasPrefix(got, " "))
		})
	}
}

/*
TestAccessToken_CookieFirst verifies the cookie wins over the header.
*/
func TestAccessToken_CookieFirst(t *testing.T) {
	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.Header.Set("Authorization", "Bearer from-header")
	assert.Equal(t, "from-header", requestutil.AccessToken(request))

	request.AddCookie(&http.Cookie{Name: "accessToken", Value: "from-cookie"})
	assert.Equal(t, "from-cookie", requestutil.AccessToken(request))
}

/*
TestRequiredUser verifies anonymous requests are rejected.
*/
func TestRequiredUser(t *testing.T) {
	request := httptest.NewRequest(http.MethodGet, "/", nil)

	_, err := requestutil.RequiredUser(request)
	assert.True(t, apperr.HasCode(err, apperr.CodeUnauthorized))

	user := &identity.PublicUser{ID: "u1"}
	request = request.WithContext(ctxutil.WithAuthUser(request.Context(), user))

	got, err := requestutil.RequiredUser(request)
	require.NoError(t, err)
	assert.Same(t, user, got)
}

func newMultipartRequest(t *testing.T, fields map[string]string, files map[string]string) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for name, value := range fields {
		require.NoError(t, writer.WriteField(name, value))
	}
	for name, filename := range files {
		part, err := writer.CreateFormFile(name, filename)
		require.NoError(t, err)
		_, err = part.Write([]byte("image-bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	request := httptest.NewRequest(http.MethodPost, "/register", body)
	request.Header.Set("Content-Type", writer.FormDataContentType())
	return request
}

/*
TestSaveFormFile verifies present files are spooled with their extension and absent ones yield nil.
*/
func TestSaveFormFile(t *testing.T) {
	dir := t.TempDir()
	request := newMultipartRequest(t,
		map[string]string{"username": "  alice  "},
		map[string]string{"avatar": "me.PNG"},
	)
	require.NoError(t, requestutil.ParseMultipart(httptest.NewRecorder(), request, 1<<20))
	defer requestutil.CleanupMultipart(request)

	assert.Equal(t, "alice", requestutil.FormValue(request, "username"))

	avatar, err := requestutil.SaveFormFile(request, "avatar", dir)
	require.NoError(t, err)
	require.NotNil(t, avatar)
	assert.Equal(t, dir, filepath.Dir(avatar.Path))
	assert.Equal(t, ".png", filepath.Ext(avatar.Path))
	assert.Equal(t, int64(len("image-bytes")), avatar.Size)

	cover, err := requestutil.SaveFormFile(request, "coverImage", dir)
	require.NoError(t, err)
	assert.Nil(t, cover)

	requestutil.RemoveFiles(avatar, cover)
	_, statErr := os.Stat(avatar.Path)
	assert.True(t, os.IsNotExist(statErr))
}

/*
TestParseMultipart_TooLarge verifies the size cap is a validation error.
*/
func TestParseMultipart_TooLarge(t *testing.T) {
	request := newMultipartRequest(t, nil, map[string]string{"avatar": "big.png"})

	err := requestutil.ParseMultipart(httptest.NewRecorder(), request, 16)
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))
}
