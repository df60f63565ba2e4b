package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"viewsim/internal/shared/logger"
)

var (
	ErrUnknownModule = errors.New("unknown settings module")
	ErrInvalidJSON   = errors.New("failed to parse JSON")
)

// SettingsManager 是运行时配置的核心管理器。
// 它线程安全，并使用原子操作和发布/订阅模式来处理配置的读取和热重载。
type SettingsManager struct {
	filePath    string
	settings    atomic.Value // 存储一个 *RuntimeSettings 指针，用于无锁读取
	subscribers map[string][]ConfigurableModule
	mu          sync.RWMutex // 用于保护 subscribers map 和文件写入操作
}

// NewSettingsManager 创建并初始化一个新的配置管理器。
// filePath 为空时只在内存中运行；文件不存在时写入默认配置。
func NewSettingsManager(filePath string) (*SettingsManager, error) {
	sm := &SettingsManager{
		filePath:    filePath,
		subscribers: make(map[string][]ConfigurableModule),
	}

	if filePath == "" {
		sm.settings.Store(createDefaultSettings())
		return sm, nil
	}

	if err := sm.load(); err != nil {
		return nil, fmt.Errorf("failed to load initial settings: %w", err)
	}
	return sm, nil
}

func (sm *SettingsManager) load() error {
	l := logger.WithComponent("Settings")
	data, err := os.ReadFile(sm.filePath)
	settings := &RuntimeSettings{}

	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to read settings file: %w", err)
		}
		l.Warn().Str("path", sm.filePath).Msg("settings.json not found, creating with default values.")
		settings = createDefaultSettings()
		if err := sm.persist(settings); err != nil {
			return fmt.Errorf("failed to write default settings file: %w", err)
		}
	} else {
		if err := json.Unmarshal(data, settings); err != nil {
			return fmt.Errorf("failed to parse settings.json: %w", err)
		}
		ensureDefaultModules(settings)
	}

	sm.settings.Store(settings)
	return nil
}

// Register 将一个模块注册为特定配置主题的订阅者。
func (sm *SettingsManager) Register(moduleKey string, module ConfigurableModule) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.subscribers[moduleKey] = append(sm.subscribers[moduleKey], module)
}

// Get 返回当前运行时配置的一个快照。此操作是无锁的。
func (sm *SettingsManager) Get() *RuntimeSettings {
	return sm.settings.Load().(*RuntimeSettings)
}

// Update 接收一个模块的原始JSON数据，原子性地更新内存中的配置、持久化到磁盘，
// 并同步通知所有相关订阅者。
func (sm *SettingsManager) Update(moduleKey string, newSettingsData json.RawMessage) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	newSettings := deepCopy(sm.Get())

	targetModule := getModuleByKey(newSettings, moduleKey)
	if targetModule == nil {
		return fmt.Errorf("%w: %s", ErrUnknownModule, moduleKey)
	}
	if err := json.Unmarshal(newSettingsData, targetModule); err != nil {
		return fmt.Errorf("%w for module %s: %v", ErrInvalidJSON, moduleKey, err)
	}

	if sm.filePath != "" {
		if err := sm.persist(newSettings); err != nil {
			return fmt.Errorf("failed to save updated settings to disk: %w", err)
		}
	}

	sm.settings.Store(newSettings)
	sm.notify(moduleKey, targetModule, sm.subscribers[moduleKey])
	return nil
}

// Apply pushes the current settings of every registered module to its
// subscribers. Called once at startup after registration.
func (sm *SettingsManager) Apply() {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	current := sm.Get()
	for k, subs := range sm.subscribers {
		if module := getModuleByKey(current, k); module != nil {
			sm.notify(k, module, subs)
		}
	}
}

func (sm *SettingsManager) persist(settings *RuntimeSettings) error {
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(sm.filePath, data, 0644)
}

// notify must be called with sm.mu held.
func (sm *SettingsManager) notify(moduleKey string, newSettings interface{}, subscribers []ConfigurableModule) {
	l := logger.WithComponent("Settings")
	if len(subscribers) == 0 {
		return
	}
	l.Debug().Str("module", moduleKey).Int("subscribers", len(subscribers)).Msg("Notifying subscribers of settings update.")
	for _, sub := range subscribers {
		if err := sub.OnSettingsUpdate(moduleKey, newSettings); err != nil {
			l.Error().Err(err).Str("module", moduleKey).Msg("Error notifying subscriber.")
		}
	}
}

func deepCopy(s *RuntimeSettings) *RuntimeSettings {
	newS := *s
	if s.Simulator != nil {
		simCopy := *s.Simulator
		newS.Simulator = &simCopy
	}
	if s.ProxyPool != nil {
		poolCopy := *s.ProxyPool
		newS.ProxyPool = &poolCopy
	}
	return &newS
}

func getModuleByKey(s *RuntimeSettings, key string) interface{} {
	switch key {
	case "simulator":
		return s.Simulator
	case "proxypool":
		return s.ProxyPool
	default:
		return nil
	}
}
