package manager

import (
	"viewsim/proxypool/model"
)

// DefaultCandidateCap bounds how many candidates a pool fetch keeps.
const DefaultCandidateCap = 50

// Merge concatenates the per-source lists in order and deduplicates them by
// address:port. On collision the later record wins but the key keeps its first
// position. The result is truncated to limit (limit <= 0 means no limit).
func Merge(lists [][]*model.ProxyRecord, limit int) []*model.ProxyRecord {
	index := make(map[string]int)
	merged := make([]*model.ProxyRecord, 0)
	for _, list := range lists {
		for _, p := range list {
			key := p.Key()
			if i, ok := index[key]; ok {
				merged[i] = p
				continue
			}
			index[key] = len(merged)
			merged = append(merged, p)
		}
	}
	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}
