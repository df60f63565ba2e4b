package validator

import (
	"context"
	"sync"

	"viewsim/internal/shared/logger"
	"viewsim/internal/shared/metrics"
	"viewsim/proxypool/model"
)

// Validator runs a Probe against candidate proxies.
type Validator struct {
	probe Probe
}

func NewValidator(probe Probe) *Validator {
	return &Validator{probe: probe}
}

// Validate probes every candidate in its own goroutine and returns new records
// with Status and ResponseTimeMs filled in, in input order. The input records
// are not modified.
func (v *Validator) Validate(ctx context.Context, proxies []*model.ProxyRecord) []*model.ProxyRecord {
	l := logger.WithComponent("ProxyPool/Validator")
	if len(proxies) == 0 {
		return nil
	}

	l.Debug().Int("count", len(proxies)).Msg("Starting validation batch...")

	results := make([]*model.ProxyRecord, len(proxies))
	var wg sync.WaitGroup
	for i, p := range proxies {
		wg.Add(1)
		go func(i int, p *model.ProxyRecord) {
			defer wg.Done()
			results[i] = v.ValidateOne(ctx, p)
		}(i, p)
	}
	wg.Wait()

	working := 0
	for _, r := range results {
		if r.Status == model.StatusWorking {
			working++
		}
	}
	l.Info().Int("validated", len(results)).Int("working", working).Msg("Validation batch finished.")
	return results
}

// ValidateOne probes a single candidate.
func (v *Validator) ValidateOne(ctx context.Context, p *model.ProxyRecord) *model.ProxyRecord {
	out := p.Clone()
	latency, err := v.probe.Probe(ctx, p)
	if err != nil {
		out.Status = model.StatusFailed
		out.ResponseTimeMs = nil
		metrics.Validations.WithLabelValues("failed").Inc()
		logger.Debug().Str("proxy", p.Key()).Err(err).Msg("Proxy probe failed.")
		return out
	}
	ms := int(latency.Milliseconds())
	out.Status = model.StatusWorking
	out.ResponseTimeMs = &ms
	metrics.Validations.WithLabelValues("working").Inc()
	return out
}
