// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/vidstream/internal/platform/sec"
)

func TestTokenMatches(t *testing.T) {
	digest := sec.HashToken("refresh-token-a")

	assert.Len(t, digest, 64)
	assert.True(t, sec.TokenMatches("refresh-token-a", digest))
	assert.False(t, sec.TokenMatches("refresh-token-b", digest))
	assert.False(t, sec.TokenMatches("refresh-token-a", ""))
	assert.False(t, sec.TokenMatches("", ""))
}
