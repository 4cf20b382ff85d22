package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mark3labs/mcp-go/mcp"
)

const (
	DefaultFetchTimeout        = 30 * time.Second
	DefaultFetchMaxBytes int64 = 5 * 1024 * 1024
	DefaultFetchMaxChars       = 20000
)

// FetchResult holds the fetched and extracted content of a URL.
type FetchResult struct {
	URL         string `json:"url"`
	Title       string `json:"title,omitempty"`
	Content     string `json:"content"`
	ContentType string `json:"content_type,omitempty"`
	Truncated   bool   `json:"truncated"`
	StatusCode  int    `json:"status_code"`
}

// Fetcher downloads pages and extracts readable text.
type Fetcher struct {
	client   *http.Client
	maxBytes int64
}

func NewFetcher() *Fetcher {
	return &Fetcher{
		client:   &http.Client{Timeout: DefaultFetchTimeout},
		maxBytes: DefaultFetchMaxBytes,
	}
}

// NewFetcherWithClient uses client for all requests.
func NewFetcherWithClient(client *http.Client) *Fetcher {
	return &Fetcher{client: client, maxBytes: DefaultFetchMaxBytes}
}

// Fetch downloads rawURL and extracts readable text, capped at maxChars
// (0 uses the default).
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, maxChars int) (*FetchResult, error) {
	if rawURL == "" {
		return nil, fmt.Errorf("url is required")
	}
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		rawURL = "https://" + rawURL
	}
	if maxChars <= 0 {
		maxChars = DefaultFetchMaxChars
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,text/plain;q=0.8,*/*;q=0.7")
	req.Header.Set("User-Agent", "agentui/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	result := &FetchResult{URL: rawURL, ContentType: contentType, StatusCode: resp.StatusCode}

	switch {
	case isHTML(contentType):
		result.Title, result.Content = extractHTML(string(body))
	case utf8.Valid(body):
		result.Content = string(body)
	default:
		result.Content = fmt.Sprintf("Binary content (%s), %d bytes", contentType, len(body))
		return result, nil
	}

	if utf8.RuneCountInString(result.Content) > maxChars {
		result.Content = truncateRunes(result.Content, maxChars)
		result.Truncated = true
	}
	return result, nil
}

func isHTML(ct string) bool {
	ct = strings.ToLower(ct)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml")
}

func truncateRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count >= n {
			return s[:i]
		}
		count++
	}
	return s
}

type fetchURLTool struct{ fetcher *Fetcher }

func (t *fetchURLTool) Descriptor() mcp.Tool {
	return mcp.NewTool("fetch_url",
		mcp.WithDescription("Fetch a web page and return its readable text."),
		mcp.WithString("url", mcp.Required(), mcp.Description("http or https URL")),
		mcp.WithNumber("max_chars", mcp.Description("Maximum characters of text to return (default 20000)")),
	)
}

func (t *fetchURLTool) Validate(args Args) error {
	return ValidateSchema(t.Descriptor(), args)
}

func (t *fetchURLTool) Execute(ctx context.Context, args Args) (string, error) {
	result, err := t.fetcher.Fetch(ctx, args.String("url"), args.Int("max_chars", 0))
	if err != nil {
		return "", err
	}
	if result.StatusCode >= 400 {
		return "", fmt.Errorf("fetch %s: HTTP %d", result.URL, result.StatusCode)
	}
	return jsonResult(result)
}
