package scraper

import (
	"testing"

	"github.com/stretchr/testify/require"

	"viewsim/proxypool/model"
)

func TestParseLine(t *testing.T) {
	p, err := ParseLine("  10.0.0.1:8080  ", "src")
	require.NoError(t, err)
	require.Equal(t, &model.ProxyRecord{
		Address:  "10.0.0.1",
		Port:     8080,
		Protocol: model.ProtocolHTTP,
		Status:   model.StatusUnchecked,
		Source:   "src",
	}, p)

	p, err = ParseLine("10.0.0.1:3128:user:pass", "src")
	require.NoError(t, err)
	require.Equal(t, 3128, p.Port)

	cases := map[string]error{
		":8080":          ErrEmptyAddress,
		"10.0.0.1":       ErrMissingPort,
		"10.0.0.1:":      ErrMissingPort,
		"10.0.0.1:abc":   ErrInvalidPort,
		"10.0.0.1:0":     ErrInvalidPort,
		"10.0.0.1:70000": ErrInvalidPort,
	}
	for line, want := range cases {
		_, err := ParseLine(line, "src")
		require.ErrorIs(t, err, want, line)
	}
}

func TestParseList(t *testing.T) {
	text := "1.1.1.1:80\n\n  \nbroken\n2.2.2.2:8080\r\n3.3.3.3:x\n"
	proxies, rejected := ParseList(text, "list")
	require.Equal(t, 2, rejected)
	require.Len(t, proxies, 2)
	require.Equal(t, "1.1.1.1:80", proxies[0].Key())
	require.Equal(t, "2.2.2.2:8080", proxies[1].Key())
	require.Equal(t, "list", proxies[1].Source)
}
