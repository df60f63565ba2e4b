package types

// LocalConf contains the web surface configuration.
type LocalConf struct {
	WebPort     int    `ini:"web_port"`
	WebUser     string `ini:"web_user"`
	WebPassword string `ini:"web_password"`
}

// LogConf contains logging specific configuration
type LogConf struct {
	Level  string `ini:"level"`
	Format string `ini:"format"` // "console" (default) or "json"
}

// ProxyPoolConf 描述代理源与验证方式。
type ProxyPoolConf struct {
	Sources            []string `ini:"sources" delim:","`
	HTMLSources        []string `ini:"html_sources" delim:","`
	HTMLRowSelector    string   `ini:"html_row_selector"`
	HTMLPresets        []string `ini:"html_presets" delim:","` // names from scraper.TablePresets
	FetchTimeoutSecond int      `ini:"fetch_timeout_seconds"`
	Probe              string   `ini:"probe"` // "random" (default) or "connect"
	ProbeTarget        string   `ini:"probe_target"`
}

// SimulatorConf contains the store behaviour used by the simulator.
type SimulatorConf struct {
	StoreLatencyMs int  `ini:"store_latency_ms"`
	SeedFixtures   bool `ini:"seed_fixtures"`
}

// WindowConf selects how viewer windows are opened.
type WindowConf struct {
	Backend    string `ini:"backend"` // "rod" or "none"
	BrowserBin string `ini:"browser_bin"`
	ControlURL string `ini:"control_url"`
	Headless   bool   `ini:"headless"`
}

// Config 是 viewsim.ini 的统一配置结构体
type Config struct {
	LocalConf     `ini:"local"`
	LogConf       `ini:"log"`
	ProxyPoolConf `ini:"proxypool"`
	SimulatorConf `ini:"simulator"`
	WindowConf    `ini:"window"`
}

// DefaultConfig returns the values used when the ini file leaves a key unset.
func DefaultConfig() *Config {
	return &Config{
		LocalConf: LocalConf{WebPort: 8090},
		LogConf:   LogConf{Level: "info", Format: "console"},
		ProxyPoolConf: ProxyPoolConf{
			Sources: []string{
				"https://api.proxyscrape.com/v2/?request=get&protocol=http&timeout=10000&country=all&ssl=all&anonymity=all",
				"https://raw.githubusercontent.com/TheSpeedX/PROXY-List/master/http.txt",
				"https://raw.githubusercontent.com/clarketm/proxy-list/master/proxy-list-raw.txt",
			},
			HTMLRowSelector:    "table tbody tr",
			FetchTimeoutSecond: 20,
			Probe:              "random",
			ProbeTarget:        "www.google.com:443",
		},
		SimulatorConf: SimulatorConf{SeedFixtures: true},
		WindowConf:    WindowConf{Backend: "rod"},
	}
}
