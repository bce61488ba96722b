package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"videoAssistant/core"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// Client fetches transcripts and metadata for public YouTube videos by
// scraping the watch page and its caption tracks.
type Client struct {
	httpClient *http.Client
}

func NewClient() *Client {
	return &Client{httpClient: &http.Client{Timeout: 10 * time.Second}}
}

var urlPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:https?://)?(?:www\.)?(?:youtube\.com/watch\?v=|youtu\.be/|youtube\.com/embed/)([^&\n?#]+)`),
	regexp.MustCompile(`^([a-zA-Z0-9_-]{11})$`),
}

// ExtractVideoID pulls the 11-character video id out of a watch, share, or
// embed URL; a bare id passes through.
func ExtractVideoID(rawURL string) (string, error) {
	for _, pattern := range urlPatterns {
		if match := pattern.FindStringSubmatch(rawURL); match != nil {
			return match[1], nil
		}
	}
	return "", core.ErrInvalidURL
}

var (
	titleRe       = regexp.MustCompile(`"title":"([^"]+)"`)
	authorRe      = regexp.MustCompile(`"author":"([^"]+)"`)
	descriptionRe = regexp.MustCompile(`"shortDescription":"([^"]+)"`)
	publishDateRe = regexp.MustCompile(`"publishDate":"([^"]+)"`)
	viewCountRe   = regexp.MustCompile(`"viewCount":"(\d+)"`)
	captionsRe    = regexp.MustCompile(`"captionTracks":(\[.*?\])`)
)

// FetchMetadata scrapes the watch page for basic video metadata. Missing
// fields keep their placeholder values; scraping failures are not fatal to
// processing.
func (c *Client) FetchMetadata(ctx context.Context, videoID string) core.VideoMetadata {
	metadata := core.VideoMetadata{
		Title:       "Unknown Title",
		ChannelName: "Unknown Channel",
	}

	body, err := c.fetchWatchPage(ctx, videoID)
	if err != nil {
		fmt.Printf("Warning: metadata fetch failed for %s: %v\n", videoID, err)
		return metadata
	}

	if match := titleRe.FindStringSubmatch(body); match != nil {
		metadata.Title = unescapeJSONString(match[1])
	}
	if match := authorRe.FindStringSubmatch(body); match != nil {
		metadata.ChannelName = unescapeJSONString(match[1])
	}
	if match := descriptionRe.FindStringSubmatch(body); match != nil {
		description := unescapeJSONString(match[1])
		if len(description) > 500 {
			description = description[:500]
		}
		metadata.Description = description
	}
	if match := publishDateRe.FindStringSubmatch(body); match != nil {
		metadata.PublishDate = match[1]
	}
	if match := viewCountRe.FindStringSubmatch(body); match != nil {
		var views int64
		fmt.Sscanf(match[1], "%d", &views)
		metadata.ViewCount = views
	}

	return metadata
}

// FetchTranscript downloads the video's caption track and returns ordered
// timestamped snippets. English tracks are preferred; auto-generated captions
// are accepted when nothing else exists.
func (c *Client) FetchTranscript(ctx context.Context, videoID string) ([]core.TranscriptSnippet, error) {
	body, err := c.fetchWatchPage(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("fetch watch page: %w", err)
	}

	match := captionsRe.FindStringSubmatch(body)
	if match == nil {
		return nil, core.ErrNoTranscript
	}

	var tracks []captionTrack
	if err := json.Unmarshal([]byte(match[1]), &tracks); err != nil {
		return nil, fmt.Errorf("parse caption tracks: %w", err)
	}
	if len(tracks) == 0 {
		return nil, core.ErrNoTranscript
	}

	track := pickTrack(tracks)
	snippets, err := c.fetchTrack(ctx, track.BaseURL)
	if err != nil {
		return nil, err
	}
	if len(snippets) == 0 {
		return nil, core.ErrNoTranscript
	}
	return snippets, nil
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"` // "asr" for auto-generated
}

// pickTrack prefers manual English captions, then any English track, then the
// first track available.
func pickTrack(tracks []captionTrack) captionTrack {
	for _, t := range tracks {
		if strings.HasPrefix(t.LanguageCode, "en") && t.Kind != "asr" {
			return t
		}
	}
	for _, t := range tracks {
		if strings.HasPrefix(t.LanguageCode, "en") {
			return t
		}
	}
	return tracks[0]
}

func (c *Client) fetchTrack(ctx context.Context, baseURL string) ([]core.TranscriptSnippet, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch caption track: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("caption track returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return ParseTimedText(string(data)), nil
}

var timedTextRe = regexp.MustCompile(`<text start="([\d.]+)" dur="([\d.]+)"[^>]*>(.*?)</text>`)

var entityReplacer = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
	"&apos;", "'",
	"&amp;#39;", "'",
	"\n", " ",
)

// ParseTimedText parses YouTube's timedtext XML into snippets.
func ParseTimedText(xmlBody string) []core.TranscriptSnippet {
	var snippets []core.TranscriptSnippet
	for _, match := range timedTextRe.FindAllStringSubmatch(xmlBody, -1) {
		var start, dur float64
		fmt.Sscanf(match[1], "%f", &start)
		fmt.Sscanf(match[2], "%f", &dur)
		text := strings.TrimSpace(entityReplacer.Replace(match[3]))
		if text == "" {
			continue
		}
		snippets = append(snippets, core.TranscriptSnippet{Text: text, Start: start, Duration: dur})
	}
	return snippets
}

func (c *Client) fetchWatchPage(ctx context.Context, videoID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://www.youtube.com/watch?v="+videoID, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("watch page returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// unescapeJSONString handles the escape sequences YouTube embeds in its
// inline JSON.
func unescapeJSONString(s string) string {
	var out string
	if err := json.Unmarshal([]byte(`"`+s+`"`), &out); err != nil {
		return s
	}
	return out
}
