package urlutil_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sneakyhydra/sneakdex/crawler/internal/urlutil"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases scheme and host", "HTTPS://Example.COM/Path", "https://example.com/Path"},
		{"strips fragment", "https://example.com/page#section", "https://example.com/page"},
		{"strips query", "https://example.com/page?a=1&b=2", "https://example.com/page"},
		{"trims trailing slash", "https://example.com/page/", "https://example.com/page"},
		{"keeps root slash", "https://example.com/", "https://example.com/"},
		{"empty path untouched", "https://example.com", "https://example.com"},
		{"path case preserved", "https://example.com/CaseSensitive", "https://example.com/CaseSensitive"},
		{"everything at once", "HTTP://WWW.Example.com/a/b/?q=1#frag", "http://www.example.com/a/b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := urlutil.Normalize(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"HTTPS://Example.COM/Path/?q=1#x",
		"http://a.test/",
		"https://b.test/deep/path/",
	}
	for _, in := range inputs {
		once, err := urlutil.Normalize(in)
		require.NoError(t, err)
		twice, err := urlutil.Normalize(once)
		require.NoError(t, err)
		assert.Equal(t, once, twice, "normalize must be idempotent for %q", in)
	}
}

func TestNormalizeInvalid(t *testing.T) {
	_, err := urlutil.Normalize("http://exa mple.com/%zz")
	assert.Error(t, err)
}
