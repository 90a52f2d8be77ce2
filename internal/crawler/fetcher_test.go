package crawler

import (
	"testing"

	"github.com/gocolly/colly/v2"
	"github.com/stretchr/testify/assert"
)

func TestDepthOf(t *testing.T) {
	r := &colly.Request{Ctx: colly.NewContext()}
	assert.Equal(t, 1, depthOf(r), "missing depth defaults to 1")

	r.Ctx.Put(depthCtxKey, 3)
	assert.Equal(t, 3, depthOf(r))
}

func TestSkipExtensions(t *testing.T) {
	for _, ext := range []string{".pdf", ".jpg", ".jpeg", ".png", ".gif", ".css", ".js", ".ico", ".svg", ".woff", ".ttf", ".mp4", ".mp3", ".zip", ".exe"} {
		_, ok := skipExts[ext]
		assert.True(t, ok, "extension %s must be skipped", ext)
	}

	_, ok := skipExts[".html"]
	assert.False(t, ok)
}
