package web

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"videoAssistant/config"
	"videoAssistant/core"
)

const searchEndpoint = "https://html.duckduckgo.com/html/"

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// videoContextLimit caps how much video title/description is appended to a
// search query for disambiguation.
const videoContextLimit = 100

// SearchResult is one web search hit.
type SearchResult struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url"`
}

// Client gathers external web context. Every method recovers from failure by
// returning empty results; callers degrade instead of erroring.
type Client struct {
	httpClient *http.Client
	results    int
	topPages   int
	maxContent int
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		results:    cfg.WebSearchResults,
		topPages:   cfg.WebSearchTopPages,
		maxContent: cfg.MaxWebpageContent,
	}
}

// Search queries DuckDuckGo's HTML endpoint and parses the result list.
// Returns nil on any failure.
func (c *Client) Search(ctx context.Context, query string, n int) []SearchResult {
	if n <= 0 {
		n = c.results
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchEndpoint+"?q="+url.QueryEscape(query), nil)
	if err != nil {
		log.Printf("Warning: web search request build failed: %v", err)
		return nil
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("Warning: web search failed: %v", err)
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Printf("Warning: web search returned status %d", resp.StatusCode)
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		log.Printf("Warning: web search parse failed: %v", err)
		return nil
	}

	var results []SearchResult
	doc.Find(".result").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		link := s.Find("a.result__a").First()
		title := strings.TrimSpace(link.Text())
		body := strings.TrimSpace(s.Find(".result__snippet").First().Text())
		href, _ := link.Attr("href")
		target := resolveRedirect(href)
		if title == "" || target == "" {
			return true
		}
		results = append(results, SearchResult{Title: title, Body: body, URL: target})
		return len(results) < n
	})
	return results
}

// resolveRedirect unwraps DuckDuckGo's /l/?uddg= redirect links.
func resolveRedirect(href string) string {
	if href == "" {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	if u.Scheme == "" {
		return "https:" + href
	}
	return href
}

// CollectDocuments runs a search for the question (disambiguated with a bit
// of video context) and returns search snippets plus fetched page text for
// the top results. Returns nil when the search yields nothing.
func (c *Client) CollectDocuments(ctx context.Context, question, videoContext string) []core.WebDocument {
	query := question
	if videoContext != "" {
		excerpt := videoContext
		if len(excerpt) > videoContextLimit {
			excerpt = excerpt[:videoContextLimit]
		}
		query = question + " " + excerpt
	}

	results := c.Search(ctx, query, c.results)

	var docs []core.WebDocument
	for i, result := range results {
		docs = append(docs, core.WebDocument{
			Text:   result.Title + "\n\n" + result.Body,
			URL:    result.URL,
			Source: "web_search",
		})
		if i < c.topPages {
			if content := c.FetchPageText(ctx, result.URL); content != "" {
				docs = append(docs, core.WebDocument{
					Text:   content,
					URL:    result.URL,
					Source: "webpage",
				})
			}
		}
	}
	return docs
}
