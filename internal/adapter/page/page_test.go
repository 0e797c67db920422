package page

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRenderer(t *testing.T) {
	r, err := NewRenderer("https://smartconvert.example.com")
	require.NoError(t, err)

	page := string(r.Index())
	assert.Contains(t, page, "<title>Smart Convert</title>")
	assert.Contains(t, page, "Paste a link, pick a quality, download the file.")
	assert.Contains(t, page, "<h1")
	assert.Contains(t, page, `data-endpoint="https://smartconvert.example.com/probe"`)
	assert.NotContains(t, page, "title:", "frontmatter must not leak into the page")
}

func TestIndexIsStable(t *testing.T) {
	r, err := NewRenderer("")
	require.NoError(t, err)

	assert.Equal(t, r.Index(), r.Index())
}
