package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/ini.v1"

	"viewsim/internal/shared/types"
)

// Load reads <configDir>/.env (optional) and <configDir>/viewsim.ini on top of
// the defaults, then applies environment overrides.
func Load(configDir string) (*types.Config, error) {
	envPath := filepath.Join(configDir, ".env")
	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load %s: %w", envPath, err)
	}

	cfg := types.DefaultConfig()
	iniPath := filepath.Join(configDir, "viewsim.ini")
	if err := LoadIni(cfg, iniPath); err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		// No ini file: defaults plus env overrides.
		applyEnvOverrides(cfg)
	}
	return cfg, nil
}

// LoadIni 加载 viewsim.ini 行为配置文件。
func LoadIni(cfg *types.Config, fileName string) error {
	if _, err := os.Stat(fileName); err != nil {
		return err
	}
	iniFile, err := ini.Load(fileName)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", fileName, err)
	}
	if err := iniFile.MapTo(cfg); err != nil {
		return fmt.Errorf("failed to map %s: %w", fileName, err)
	}
	applyEnvOverrides(cfg)
	return nil
}

// LoadIniBytes maps ini content that is already in memory.
func LoadIniBytes(cfg *types.Config, data []byte) error {
	iniFile, err := ini.Load(data)
	if err != nil {
		return fmt.Errorf("failed to parse ini content: %w", err)
	}
	if err := iniFile.MapTo(cfg); err != nil {
		return fmt.Errorf("failed to map ini content: %w", err)
	}
	applyEnvOverrides(cfg)
	return nil
}

func applyEnvOverrides(cfg *types.Config) {
	overrideFromEnvInt(&cfg.LocalConf.WebPort, "WEB_PORT")
	overrideFromEnvString(&cfg.LocalConf.WebUser, "WEB_USER")
	overrideFromEnvString(&cfg.LocalConf.WebPassword, "WEB_PASSWORD")
	overrideFromEnvString(&cfg.LogConf.Level, "LOG_LEVEL")
	overrideFromEnvString(&cfg.WindowConf.Backend, "WINDOW_BACKEND")
	overrideFromEnvString(&cfg.WindowConf.ControlURL, "BROWSER_CONTROL_URL")
}

func overrideFromEnvInt(target *int, envName string) {
	envValue := os.Getenv(envName)
	if envValue != "" {
		if intValue, err := strconv.Atoi(envValue); err == nil {
			*target = intValue
		}
	}
}

func overrideFromEnvString(target *string, envName string) {
	if envValue := os.Getenv(envName); envValue != "" {
		*target = envValue
	}
}
