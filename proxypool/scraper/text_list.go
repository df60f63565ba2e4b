package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"viewsim/internal/shared/logger"
	"viewsim/proxypool/model"
)

// maxListBytes bounds how much of a list endpoint is read.
const maxListBytes = 8 << 20

// TextListScraper 抓取纯文本代理列表 (每行 address:port)。
type TextListScraper struct {
	url    string
	name   string
	client *http.Client
}

// NewTextListScraper creates a scraper for a plain-text endpoint. The source
// name used in logs and on the records is the endpoint host.
func NewTextListScraper(endpoint string, timeout time.Duration) Scraper {
	name := endpoint
	if u, err := url.Parse(endpoint); err == nil && u.Host != "" {
		name = u.Host
	}
	return &TextListScraper{
		url:  endpoint,
		name: name,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

func (s *TextListScraper) Name() string {
	return s.name
}

func (s *TextListScraper) Scrape(ctx context.Context) ([]*model.ProxyRecord, error) {
	l := logger.WithComponent("ProxyPool/Scraper")
	l.Debug().Str("source", s.Name()).Str("url", s.url).Msg("Starting scrape...")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", s.Name(), err)
	}
	req.Header.Set("User-Agent", defaultUserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch list from %s: %w", s.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("received non-200 status code (%d) from %s", resp.StatusCode, s.Name())
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxListBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read list from %s: %w", s.Name(), err)
	}

	proxies, rejected := ParseList(string(body), s.url)
	l.Info().Int("count", len(proxies)).Int("rejected", rejected).Str("source", s.Name()).Msg("Scrape finished.")
	return proxies, nil
}
