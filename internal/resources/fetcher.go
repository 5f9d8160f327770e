package resources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"

	"matbot/internal/logging"
)

// Article is the readable text extracted from a documentation page
type Article struct {
	URL     string
	Title   string
	Excerpt string
	Text    string
}

// Fetcher retrieves MATLAB documentation pages and extracts readable
// content. Only allowlisted hosts are fetched.
type Fetcher struct {
	client       *http.Client
	allowedHosts []string
	maxBodySize  int64
	logger       *logging.Logger
}

// NewFetcher creates a fetcher. With no hosts given, only mathworks.com
// and its subdomains are allowed.
func NewFetcher(allowedHosts []string, logger *logging.Logger) *Fetcher {
	if len(allowedHosts) == 0 {
		allowedHosts = []string{"mathworks.com"}
	}
	return &Fetcher{
		client:       &http.Client{Timeout: 15 * time.Second},
		allowedHosts: allowedHosts,
		maxBodySize:  5 * 1024 * 1024,
		logger:       logger,
	}
}

// Lookup fetches a documentation page and extracts its readable text
func (f *Fetcher) Lookup(ctx context.Context, rawURL string) (*Article, error) {
	logger := f.logger.WithContext("url", rawURL)

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme: %s", parsed.Scheme)
	}
	if !f.hostAllowed(parsed.Hostname()) {
		logger.Warn("blocked lookup for disallowed host")
		return nil, fmt.Errorf("host not allowed: %s", parsed.Hostname())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		logger.WithContext("error", err.Error()).Error("failed to fetch page")
		return nil, fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, rawURL)
	}

	body := http.MaxBytesReader(nil, resp.Body, f.maxBodySize)
	article, err := readability.FromReader(body, parsed)
	if err != nil {
		logger.WithContext("error", err.Error()).Error("failed to parse page")
		return nil, fmt.Errorf("failed to parse %s: %w", rawURL, err)
	}

	logger.WithContext("text_size", len(article.TextContent)).Debug("documentation page fetched")
	return &Article{
		URL:     rawURL,
		Title:   article.Title,
		Excerpt: article.Excerpt,
		Text:    article.TextContent,
	}, nil
}

// hostAllowed matches the host or any subdomain of an allowed host
func (f *Fetcher) hostAllowed(host string) bool {
	host = strings.ToLower(host)
	for _, allowed := range f.allowedHosts {
		allowed = strings.ToLower(allowed)
		if host == allowed || strings.HasSuffix(host, "."+allowed) {
			return true
		}
	}
	return false
}
