package scraper

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"viewsim/internal/shared/logger"
	"viewsim/proxypool/model"
)

// HTMLTableScraper 抓取以 HTML 表格发布的代理列表 (第一列地址，第二列端口)。
type HTMLTableScraper struct {
	url         string
	name        string
	rowSelector string
	timeout     time.Duration
}

// NewHTMLTableScraper creates a scraper for an HTML page whose rows, matched by
// rowSelector, carry the address and port in their first two cells.
func NewHTMLTableScraper(pageURL, rowSelector string, timeout time.Duration) Scraper {
	name := pageURL
	if u, err := url.Parse(pageURL); err == nil && u.Host != "" {
		name = u.Host
	}
	if rowSelector == "" {
		rowSelector = "table tbody tr"
	}
	return &HTMLTableScraper{url: pageURL, name: name, rowSelector: rowSelector, timeout: timeout}
}

func (s *HTMLTableScraper) Name() string {
	return s.name
}

func (s *HTMLTableScraper) Scrape(ctx context.Context) ([]*model.ProxyRecord, error) {
	l := logger.WithComponent("ProxyPool/Scraper")
	l.Debug().Str("source", s.Name()).Str("url", s.url).Msg("Starting scrape...")

	// A collector per call: colly callbacks are not safe to re-register concurrently.
	c := colly.NewCollector(
		colly.UserAgent(defaultUserAgent),
		colly.StdlibContext(ctx),
	)
	c.SetRequestTimeout(s.timeout)

	var (
		proxies   []*model.ProxyRecord
		rejected  int
		scrapeErr error
		mu        sync.Mutex
	)

	c.OnHTML(s.rowSelector, func(e *colly.HTMLElement) {
		address, portStr := rowCells(e.DOM)
		if address == "" && portStr == "" {
			return
		}
		mu.Lock()
		defer mu.Unlock()

		port, err := strconv.Atoi(portStr)
		if address == "" || err != nil || port < 1 || port > 65535 {
			rejected++
			return
		}
		proxies = append(proxies, &model.ProxyRecord{
			Address:  address,
			Port:     port,
			Protocol: model.ProtocolHTTP,
			Status:   model.StatusUnchecked,
			Source:   s.url,
		})
	})

	c.OnError(func(r *colly.Response, err error) {
		mu.Lock()
		defer mu.Unlock()
		scrapeErr = fmt.Errorf("scrape of %s failed with status %d: %w", s.Name(), r.StatusCode, err)
	})

	if err := c.Visit(s.url); err != nil {
		return nil, fmt.Errorf("failed to visit %s: %w", s.Name(), err)
	}
	c.Wait()

	if scrapeErr != nil {
		return nil, scrapeErr
	}

	l.Info().Int("count", len(proxies)).Int("rejected", rejected).Str("source", s.Name()).Msg("Scrape finished.")
	return proxies, nil
}

// rowCells returns the trimmed text of the first two cells of a table row.
// Some sources render the address cell as th.
func rowCells(row *goquery.Selection) (string, string) {
	cells := row.Find("td, th")
	return strings.TrimSpace(cells.Eq(0).Text()), strings.TrimSpace(cells.Eq(1).Text())
}
