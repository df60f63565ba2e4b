package scraper

import (
	"context"

	"viewsim/proxypool/model"
)

// Scraper 接口定义了从代理源抓取代理信息的行为。
type Scraper interface {
	// Scrape 执行抓取操作，并返回解析后的候选代理。
	// 实现者只负责抓取和初步解析，不进行验证。
	Scrape(ctx context.Context) ([]*model.ProxyRecord, error)

	// Name 返回抓取器的名称，用于日志记录。
	Name() string
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
