package validator

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/net/proxy"

	"viewsim/proxypool/model"
)

// ErrProbeFailed is returned by probes that reject a candidate without an I/O error.
var ErrProbeFailed = errors.New("probe failed")

// Probe tests one candidate and reports its response time when it works.
type Probe interface {
	Probe(ctx context.Context, p *model.ProxyRecord) (time.Duration, error)
}

// RandomProbe marks roughly workRate of the candidates as working with a
// random latency of 100-1099ms. It performs no I/O.
type RandomProbe struct {
	mu       sync.Mutex
	rng      *rand.Rand
	workRate float64
}

func NewRandomProbe(workRate float64, seed int64) *RandomProbe {
	return &RandomProbe{rng: rand.New(rand.NewSource(seed)), workRate: workRate}
}

// SetWorkRate changes the share of candidates marked working.
func (r *RandomProbe) SetWorkRate(rate float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.workRate = rate
}

func (r *RandomProbe) Probe(ctx context.Context, p *model.ProxyRecord) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	working := r.rng.Float64() < r.workRate
	latency := time.Duration(r.rng.Intn(1000)+100) * time.Millisecond
	r.mu.Unlock()

	if !working {
		return 0, ErrProbeFailed
	}
	return latency, nil
}

// ConnectProbe sends a HEAD request to a TLS target through the candidate,
// which forces an HTTP CONNECT tunnel, and measures the round trip.
type ConnectProbe struct {
	mu      sync.RWMutex
	target  string
	timeout time.Duration
}

func NewConnectProbe(target string, timeout time.Duration) *ConnectProbe {
	return &ConnectProbe{target: target, timeout: timeout}
}

// SetTimeout changes the bound applied to each probe.
func (c *ConnectProbe) SetTimeout(timeout time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timeout = timeout
}

func (c *ConnectProbe) Probe(ctx context.Context, p *model.ProxyRecord) (time.Duration, error) {
	c.mu.RLock()
	timeout := c.timeout
	c.mu.RUnlock()

	proxyURL, err := url.Parse("http://" + p.Key())
	if err != nil {
		return 0, fmt.Errorf("invalid proxy url %s: %w", p.Key(), err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	transport := &http.Transport{
		Proxy:               http.ProxyURL(proxyURL),
		DialContext:         proxy.Direct.DialContext,
		TLSClientConfig:     &tls.Config{InsecureSkipVerify: true},
		TLSHandshakeTimeout: timeout / 2,
		DisableKeepAlives:   true,
	}
	defer transport.CloseIdleConnections()

	client := &http.Client{Transport: transport, Timeout: timeout}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, "https://"+c.target, nil)
	if err != nil {
		return 0, err
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return 0, fmt.Errorf("%w: status %d", ErrProbeFailed, resp.StatusCode)
	}
	return time.Since(start), nil
}
