// Package clipper imports web pages into the vault as markdown notes.
package clipper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"

	apperrors "github.com/quill-ai/quill/internal/errors"
	"github.com/quill-ai/quill/internal/vault"
)

// maxBodyBytes bounds how much of a page is read.
const maxBodyBytes = 4 << 20

// noiseSelectors are stripped before conversion.
var noiseSelectors = []string{
	"script", "style", "noscript", "iframe", "svg",
	"nav", "header", "footer", "aside", "form",
}

// Page is the extracted content of a fetched web page.
type Page struct {
	Title    string
	Markdown string
}

// Clipper fetches pages and saves them as notes.
type Clipper struct {
	client *http.Client
	vault  vault.Vault
}

// New creates a clipper writing into the given vault.
func New(v vault.Vault) *Clipper {
	return &Clipper{
		client: &http.Client{Timeout: 30 * time.Second},
		vault:  v,
	}
}

// Clip fetches the page at url and saves it under folder (vault root when
// empty), returning the created note.
func (c *Clipper) Clip(ctx context.Context, url, folder string) (vault.Note, error) {
	page, err := c.Fetch(ctx, url)
	if err != nil {
		return vault.Note{}, err
	}

	title := page.Title
	if title == "" {
		title = "Clipped " + time.Now().Format("2006-01-02 15:04")
	}

	path := SanitizeTitle(title)
	if folder != "" {
		path = strings.TrimSuffix(folder, "/") + "/" + path
	}

	content := fmt.Sprintf("Source: %s\nClipped: %s\n\n# %s\n\n%s\n",
		url, time.Now().Format("2006-01-02"), title, page.Markdown)

	// Existing note with the same title gets a timestamp suffix rather
	// than an overwrite.
	if c.vault.NoteExists(path + c.vault.Extension()) {
		path += " " + time.Now().Format("2006-01-02 150405")
	}

	return c.vault.Create(ctx, path+c.vault.Extension(), content)
}

// Fetch downloads and extracts a single page.
func (c *Clipper) Fetch(ctx context.Context, url string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeClipFetchFailed, "invalid URL", apperrors.CategoryTransport)
	}
	req.Header.Set("User-Agent", "quill-clipper/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeClipFetchFailed, "failed to fetch page", apperrors.CategoryTransport)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.Transport(apperrors.CodeClipFetchFailed,
			fmt.Sprintf("fetch failed (status %d) for %s", resp.StatusCode, url))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeClipFetchFailed, "failed to read page body", apperrors.CategoryTransport)
	}

	return Extract(string(body))
}

// Extract parses HTML and converts its main content to markdown.
func Extract(html string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeClipParseFailed, "failed to parse HTML", apperrors.CategoryInternal)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok && og != "" {
		title = strings.TrimSpace(og)
	}

	for _, sel := range noiseSelectors {
		doc.Find(sel).Remove()
	}

	content := doc.Find("article").First()
	if content.Length() == 0 {
		content = doc.Find("main").First()
	}
	if content.Length() == 0 {
		content = doc.Find("body").First()
	}
	if content.Length() == 0 {
		content = doc.Selection
	}

	converter := md.NewConverter("", true, nil)
	markdown := strings.TrimSpace(converter.Convert(content))

	return &Page{Title: title, Markdown: markdown}, nil
}

// SanitizeTitle turns a page title into a safe note name.
func SanitizeTitle(title string) string {
	replacer := strings.NewReplacer(
		"/", "-", "\\", "-", ":", " -", "#", "", "^", "",
		"[", "(", "]", ")", "|", "-", "?", "", "*", "",
		"<", "", ">", "", "\"", "'",
	)
	name := strings.TrimSpace(replacer.Replace(title))
	name = strings.Join(strings.Fields(name), " ")
	if len(name) > 120 {
		name = strings.TrimSpace(name[:120])
	}
	if name == "" {
		name = "Untitled"
	}
	return name
}
