package scraper

import (
	"errors"
	"strconv"
	"strings"

	"viewsim/proxypool/model"
)

var (
	ErrEmptyAddress = errors.New("empty address")
	ErrMissingPort  = errors.New("missing port")
	ErrInvalidPort  = errors.New("invalid port")
)

// ParseLine parses one "address:port" line. Tokens after the port are ignored.
func ParseLine(line, source string) (*model.ProxyRecord, error) {
	parts := strings.Split(strings.TrimSpace(line), ":")
	address := strings.TrimSpace(parts[0])
	if address == "" {
		return nil, ErrEmptyAddress
	}
	if len(parts) < 2 || strings.TrimSpace(parts[1]) == "" {
		return nil, ErrMissingPort
	}
	port, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || port < 1 || port > 65535 {
		return nil, ErrInvalidPort
	}
	return &model.ProxyRecord{
		Address:  address,
		Port:     port,
		Protocol: model.ProtocolHTTP,
		Status:   model.StatusUnchecked,
		Source:   source,
	}, nil
}

// ParseList parses proxy list text, one candidate per line. Blank lines are
// ignored and malformed lines are dropped; the count of dropped lines is returned.
func ParseList(text, source string) ([]*model.ProxyRecord, int) {
	var proxies []*model.ProxyRecord
	rejected := 0
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		p, err := ParseLine(line, source)
		if err != nil {
			rejected++
			continue
		}
		proxies = append(proxies, p)
	}
	return proxies, rejected
}
