package manager

import (
	"errors"
	"strings"

	"viewsim/proxypool/model"
	"viewsim/proxypool/scraper"
)

// ErrMalformedProxyList is returned when non-blank manual input holds no valid entry.
var ErrMalformedProxyList = errors.New("please enter valid proxy addresses in format IP:PORT")

const manualSource = "manual"

// ParseManualList parses proxy text entered by a user. Entries are
// deduplicated by address:port, keeping the first occurrence. Blank input
// yields an empty list.
func ParseManualList(text string) ([]*model.ProxyRecord, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	parsed, _ := scraper.ParseList(text, manualSource)
	if len(parsed) == 0 {
		return nil, ErrMalformedProxyList
	}

	seen := make(map[string]struct{}, len(parsed))
	out := make([]*model.ProxyRecord, 0, len(parsed))
	for _, p := range parsed {
		if _, dup := seen[p.Key()]; dup {
			continue
		}
		seen[p.Key()] = struct{}{}
		out = append(out, p)
	}
	return out, nil
}
