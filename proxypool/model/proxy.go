package model

import "fmt"

// Protocol 是代理协议。目前只有 http。
type Protocol string

const ProtocolHTTP Protocol = "http"

// ProxyStatus 是一次验证后的结果。
type ProxyStatus string

const (
	StatusUnchecked ProxyStatus = "unchecked"
	StatusWorking   ProxyStatus = "working"
	StatusFailed    ProxyStatus = "failed"
)

// ProxyRecord 是从代理源或手工输入解析出的一条候选代理。
// 身份由 "address:port" 决定，只在一次拉取过程中存活，不做持久化。
type ProxyRecord struct {
	Address        string      `json:"address"`
	Port           int         `json:"port"`
	Protocol       Protocol    `json:"protocol"`
	Status         ProxyStatus `json:"status"`
	ResponseTimeMs *int        `json:"responseTimeMs,omitempty"` // 仅在 working 时填写
	Source         string      `json:"source,omitempty"`
}

// Key returns the identity of the proxy, "address:port". It is also the
// proxy list text form.
func (p *ProxyRecord) Key() string {
	return fmt.Sprintf("%s:%d", p.Address, p.Port)
}

// Clone returns a deep copy.
func (p *ProxyRecord) Clone() *ProxyRecord {
	c := *p
	if p.ResponseTimeMs != nil {
		rt := *p.ResponseTimeMs
		c.ResponseTimeMs = &rt
	}
	return &c
}

// PoolResult 是一次 GetValidatedProxies 调用返回的不可变快照。
type PoolResult struct {
	TotalFound     int            `json:"totalFound"`
	ValidatedCount int            `json:"validatedCount"`
	WorkingCount   int            `json:"workingCount"`
	Proxies        []*ProxyRecord `json:"proxies"`
}
