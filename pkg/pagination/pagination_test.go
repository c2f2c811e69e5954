// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package pagination_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/vidstream/pkg/pagination"
)

func TestFromRequest(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  pagination.Params
	}{
		{"defaults", "", pagination.Params{Page: 1, Limit: 20}},
		{"explicit", "?page=3&limit=50", pagination.Params{Page: 3, Limit: 50}},
		{"malformed", "?page=x&limit=y", pagination.Params{Page: 1, Limit: 20}},
		{"negative", "?page=-2&limit=0", pagination.Params{Page: 1, Limit: 20}},
		{"limit_too_large", "?limit=1000", pagination.Params{Page: 1, Limit: 20}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodGet, "/history"+tt.query, nil)
			assert.Equal(t, tt.want, pagination.FromRequest(request))
		})
	}
}

func TestParams_Offset(t *testing.T) {
	assert.Equal(t, 0, pagination.Params{Page: 1, Limit: 20}.Offset())
	assert.Equal(t, 40, pagination.Params{Page: 3, Limit: 20}.Offset())
}

func TestNewMeta(t *testing.T) {
	assert.Equal(t, pagination.Meta{Page: 1, Limit: 20, Total: 41, TotalPages: 3}, pagination.NewMeta(1, 20, 41))
	assert.Equal(t, 0, pagination.NewMeta(1, 20, 0).TotalPages)
}
