package utils_test

import (
	"testing"

	"github.com/gi8lino/ricefwboard/internal/utils"
	"github.com/stretchr/testify/assert"
)

func TestObfuscateHeader(t *testing.T) {
	t.Parallel()

	t.Run("returns empty on empty input", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "", utils.ObfuscateHeader(""))
	})

	t.Run("returns invalid if no scheme", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "[invalid header]", utils.ObfuscateHeader("invalidheader"))
	})

	t.Run("obfuscates token with full length > 4", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "Bearer ab********kl", utils.ObfuscateHeader("Bearer abcdefghijkl"))
	})

	t.Run("obfuscates short token length <= 4", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "Bearer ****", utils.ObfuscateHeader("Bearer abcd"))
		assert.Equal(t, "Bearer *", utils.ObfuscateHeader("Bearer a"))
		assert.Equal(t, "Bearer ", utils.ObfuscateHeader("Bearer "))
	})
}

func TestMaskToken(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", utils.MaskToken(""))
	assert.Equal(t, "***", utils.MaskToken("abc"))
	assert.Equal(t, "12******78", utils.MaskToken("1234abcd78"))
}

func TestNormalizeRoutePrefix(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"":                          "",
		"/":                         "",
		"board":                     "/board",
		"/board/":                   "/board",
		" /a/b/ ":                   "/a/b",
		"https://example.com/board": "/board",
	}
	for in, want := range cases {
		t.Run(in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, want, utils.NormalizeRoutePrefix(in))
		})
	}
}

func TestEmailDomainLabel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "acme", utils.EmailDomainLabel("user@acme.com"))
	assert.Equal(t, "acme", utils.EmailDomainLabel("user@ACME.co.uk"))
	assert.Equal(t, "", utils.EmailDomainLabel("no-at-sign"))
}
