package settings

// ConfigurableModule 是所有希望其配置能被在线管理的模块必须实现的接口。
// 当相关配置发生变更时，SettingsManager 会调用此方法。
type ConfigurableModule interface {
	// OnSettingsUpdate 在配置变更时被 SettingsManager 调用。
	// moduleKey: 告知是哪个模块的配置发生了变化 (e.g., "simulator", "proxypool")。
	// newSettings: 是对应模块的、已经解析好的新配置结构体指针 (e.g., *SimulatorSettings)。
	OnSettingsUpdate(moduleKey string, newSettings interface{}) error
}

// RuntimeSettings 是 settings.json 文件的顶层结构。
// 使用指针类型确保了当JSON文件中缺少某个模块时，对应的字段为nil，而不是一个空的结构体。
type RuntimeSettings struct {
	Simulator *SimulatorSettings `json:"simulator"`
	ProxyPool *ProxyPoolSettings `json:"proxypool"`
}

// SimulatorSettings 对应 settings.json 中的 "simulator" 模块。
type SimulatorSettings struct {
	TickIntervalMs  int `json:"tick_interval_ms"`
	WatchIntervalMs int `json:"watch_interval_ms"`
	MinViewStep     int `json:"min_view_step"` // seconds added to a running tab per tick
	MaxViewStep     int `json:"max_view_step"`
}

// ProxyPoolSettings 对应 settings.json 中的 "proxypool" 模块。
type ProxyPoolSettings struct {
	CandidateCap   int     `json:"candidate_cap"`
	ProbeTimeoutMs int     `json:"probe_timeout_ms"`
	StubWorkRate   float64 `json:"stub_work_rate"` // only used by the random probe
}

func DefaultSimulatorSettings() *SimulatorSettings {
	return &SimulatorSettings{TickIntervalMs: 3000, WatchIntervalMs: 1000, MinViewStep: 5, MaxViewStep: 14}
}

func DefaultProxyPoolSettings() *ProxyPoolSettings {
	return &ProxyPoolSettings{CandidateCap: 50, ProbeTimeoutMs: 5000, StubWorkRate: 0.7}
}

func createDefaultSettings() *RuntimeSettings {
	return &RuntimeSettings{
		Simulator: DefaultSimulatorSettings(),
		ProxyPool: DefaultProxyPoolSettings(),
	}
}

func ensureDefaultModules(s *RuntimeSettings) {
	if s.Simulator == nil {
		s.Simulator = DefaultSimulatorSettings()
	}
	if s.ProxyPool == nil {
		s.ProxyPool = DefaultProxyPoolSettings()
	}
}
