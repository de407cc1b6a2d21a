package generator

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
	"github.com/microcosm-cc/bluemonday"
)

// PageReader fetches a page and reduces it to readable text the model can
// use as context.
type PageReader struct {
	Client    *http.Client
	UserAgent string
	MaxChars  int
}

func NewPageReader() *PageReader {
	return &PageReader{
		Client:    &http.Client{Timeout: 30 * time.Second},
		UserAgent: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0 Safari/537.36 stepwright",
		MaxChars:  20000,
	}
}

// Read returns the title, excerpt and sanitized main text of rawURL.
func (p *PageReader) Read(ctx context.Context, rawURL string) (string, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", p.UserAgent)

	resp, err := p.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch URL: status code %d", resp.StatusCode)
	}

	article, err := readability.FromReader(resp.Body, parsedURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse page: %w", err)
	}

	sanitized := strings.TrimSpace(bluemonday.StrictPolicy().Sanitize(article.TextContent))

	var b strings.Builder
	fmt.Fprintf(&b, "TITLE: %s\n", article.Title)
	if article.Excerpt != "" {
		fmt.Fprintf(&b, "EXCERPT: %s\n", article.Excerpt)
	}
	b.WriteString("\n-- CONTENT --\n")
	if p.MaxChars > 0 && len(sanitized) > p.MaxChars {
		sanitized = sanitized[:p.MaxChars] + "\n... (content truncated) ..."
	}
	b.WriteString(sanitized)
	return b.String(), nil
}
