package web

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// FetchPageText downloads a page and extracts its readable text: scripts and
// styles stripped, whitespace collapsed, bounded to maxContent characters.
// Returns "" on any failure.
func (c *Client) FetchPageText(ctx context.Context, pageURL string) string {
	if pageURL == "" {
		return ""
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		log.Printf("Warning: page fetch request build failed for %s: %v", pageURL, err)
		return ""
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("Warning: page fetch failed for %s: %v", pageURL, err)
		return ""
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		log.Printf("Warning: page parse failed for %s: %v", pageURL, err)
		return ""
	}

	doc.Find("script, style, noscript").Remove()
	text := normalizeWhitespace(doc.Find("body").Text())
	if text == "" {
		text = normalizeWhitespace(doc.Text())
	}

	if len(text) > c.maxContent {
		text = text[:c.maxContent]
	}
	return text
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
