package scraper

import (
	"fmt"
	"sort"
	"time"
)

// TablePreset is a known HTML proxy-list page and the selector of its rows.
type TablePreset struct {
	URL         string
	RowSelector string
}

// TablePresets are the free proxy sites whose listings are plain tables with
// the address and port in the first two cells.
var TablePresets = map[string]TablePreset{
	"ip3366":            {URL: "http://www.ip3366.net/?stype=1&page=1", RowSelector: "table.table-bordered tbody tr"},
	"qiyunip":           {URL: "https://www.qiyunip.com/freeProxy/1.html", RowSelector: "table#proxyTable tbody tr"},
	"proxydb":           {URL: "https://proxydb.net/?protocol=http&protocol=https", RowSelector: "tbody tr"},
	"proxylistdownload": {URL: "https://www.proxy-list.download/HTTP", RowSelector: "table#example1 tbody#tabli tr"},
	"zdaye":             {URL: "https://www.zdaye.com/free/", RowSelector: "table#ipc tbody tr"},
}

// NewPresetScraper returns an HTMLTableScraper for a named preset.
func NewPresetScraper(name string, timeout time.Duration) (Scraper, error) {
	p, ok := TablePresets[name]
	if !ok {
		return nil, fmt.Errorf("unknown proxy source preset %q (known: %v)", name, PresetNames())
	}
	return NewHTMLTableScraper(p.URL, p.RowSelector, timeout), nil
}

// PresetNames lists the preset names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(TablePresets))
	for n := range TablePresets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
