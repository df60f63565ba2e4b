package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTextListScraper(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte("1.1.1.1:8080\n2.2.2.2:3128\nnot-a-proxy\n"))
	}))
	defer srv.Close()

	s := NewTextListScraper(srv.URL+"/list.txt", time.Second)
	require.Equal(t, strings.TrimPrefix(srv.URL, "http://"), s.Name())

	proxies, err := s.Scrape(context.Background())
	require.NoError(t, err)
	require.Len(t, proxies, 2)
	require.Equal(t, "2.2.2.2:3128", proxies[1].Key())
	require.Equal(t, srv.URL+"/list.txt", proxies[0].Source)
	require.Equal(t, defaultUserAgent, gotUA)
}

func TestTextListScraper_Non200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewTextListScraper(srv.URL, time.Second).Scrape(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "429")
}

const tablePage = `<html><body>
<table id="list"><thead><tr><th>IP</th><th>Port</th></tr></thead>
<tbody>
<tr><td> 5.5.5.5 </td><td>8000</td><td>HTTP</td></tr>
<tr><td>6.6.6.6</td><td>bad</td></tr>
<tr><th>7.7.7.7</th><td>9000</td></tr>
</tbody></table>
</body></html>`

func TestHTMLTableScraper(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(tablePage))
	}))
	defer srv.Close()

	proxies, err := NewHTMLTableScraper(srv.URL, "table#list tbody tr", time.Second).Scrape(context.Background())
	require.NoError(t, err)
	require.Len(t, proxies, 2)
	require.Equal(t, "5.5.5.5:8000", proxies[0].Key())
	require.Equal(t, "7.7.7.7:9000", proxies[1].Key())
}

func TestHTMLTableScraper_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewHTMLTableScraper(srv.URL, "", time.Second).Scrape(context.Background())
	require.Error(t, err)
}

func TestPresets(t *testing.T) {
	for _, name := range PresetNames() {
		s, err := NewPresetScraper(name, time.Second)
		require.NoError(t, err, name)
		require.NotEmpty(t, s.Name())
	}
	_, err := NewPresetScraper("missing", time.Second)
	require.Error(t, err)
}
