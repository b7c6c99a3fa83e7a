package clipper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/quill-ai/quill/internal/errors"
	"github.com/quill-ai/quill/internal/vault"
)

const samplePage = `<!DOCTYPE html>
<html>
<head>
  <title>Go Concurrency Patterns</title>
  <script>trackEverything();</script>
  <style>body { color: red }</style>
</head>
<body>
  <nav><a href="/">Home</a></nav>
  <article>
    <h1>Go Concurrency Patterns</h1>
    <p>Channels orchestrate; mutexes serialize.</p>
    <ul><li>fan-in</li><li>fan-out</li></ul>
  </article>
  <footer>Copyright 2025</footer>
</body>
</html>`

func TestExtractStripsNoise(t *testing.T) {
	page, err := Extract(samplePage)
	require.NoError(t, err)

	assert.Equal(t, "Go Concurrency Patterns", page.Title)
	assert.Contains(t, page.Markdown, "Channels orchestrate; mutexes serialize.")
	assert.Contains(t, page.Markdown, "fan-in")
	assert.NotContains(t, page.Markdown, "trackEverything")
	assert.NotContains(t, page.Markdown, "color: red")
	assert.NotContains(t, page.Markdown, "Copyright 2025")
	assert.NotContains(t, page.Markdown, "Home")
}

func TestExtractPrefersOpenGraphTitle(t *testing.T) {
	html := `<html><head>
		<title>site.com | Page</title>
		<meta property="og:title" content="Clean Title">
	</head><body><p>text</p></body></html>`

	page, err := Extract(html)
	require.NoError(t, err)
	assert.Equal(t, "Clean Title", page.Title)
}

func TestExtractFallsBackToBody(t *testing.T) {
	page, err := Extract(`<html><body><p>no article element</p></body></html>`)
	require.NoError(t, err)
	assert.Contains(t, page.Markdown, "no article element")
}

func TestClipCreatesNote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	v, err := vault.NewFS(t.TempDir(), ".md")
	require.NoError(t, err)

	note, err := New(v).Clip(context.Background(), srv.URL, "Clippings")
	require.NoError(t, err)
	assert.Equal(t, "Clippings/Go Concurrency Patterns.md", note.Path)

	content, err := v.Read(context.Background(), note.Path)
	require.NoError(t, err)
	assert.Contains(t, content, "Source: "+srv.URL)
	assert.Contains(t, content, "Channels orchestrate")
}

func TestClipDuplicateTitleGetsSuffix(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	v, err := vault.NewFS(t.TempDir(), ".md")
	require.NoError(t, err)
	c := New(v)

	first, err := c.Clip(context.Background(), srv.URL, "")
	require.NoError(t, err)
	second, err := c.Clip(context.Background(), srv.URL, "")
	require.NoError(t, err)

	assert.NotEqual(t, first.Path, second.Path)
	assert.True(t, strings.HasPrefix(second.Title, first.Title))
}

func TestFetchNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := New(nil).Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Equal(t, apperrors.CategoryTransport, apperrors.GetCategory(err))
	assert.Contains(t, err.Error(), "404")
}

func TestSanitizeTitle(t *testing.T) {
	cases := map[string]string{
		"Plain Title":              "Plain Title",
		"a/b\\c":                   "a-b-c",
		"Q: what?":                 "Q - what",
		"  spaced   out  ":         "spaced out",
		"":                         "Untitled",
		"notes [draft] | v2":       "notes (draft) - v2",
		strings.Repeat("x", 200):   strings.Repeat("x", 120),
	}
	for in, want := range cases {
		assert.Equal(t, want, SanitizeTitle(in), "input %q", in)
	}
}
