// Package config loads and holds the process configuration. The current
// settings live in an atomic.Value so request handlers can read them
// without taking a lock.
package config

import (
	_ "embed"
	"encoding/json"
	"os"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/fa993/rama/internal/support"
)

// Source names where proxy records are ingested from.
const (
	SourceCSV   = "csv"
	SourceRedis = "redis"
)

// Backend names for the proxy store.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

type Config struct {
	Server struct {
		Port         int `json:"port"`
		ReadTimeout  int `json:"read_timeout"`
		WriteTimeout int `json:"write_timeout"`
	} `json:"server"`

	Pool struct {
		Source   string `json:"source"`
		CSVPath  string `json:"csv_path"`
		RedisKey string `json:"redis_key"`
	} `json:"pool"`

	GeoLite struct {
		CountryDBPath string `json:"country_db_path"`
		ASNDBPath     string `json:"asn_db_path"`
	} `json:"geolite"`

	Storage struct {
		Backend string `json:"backend"`
	} `json:"storage"`
}

const settingsFilePath = "data/settings.json"

var (
	//go:embed default_settings.json
	defaultConfig []byte

	configValue atomic.Value
	configMu    sync.Mutex
)

func init() {
	configValue.Store(Config{})
}

// ReadSettings loads the settings file, creating it from the embedded
// defaults when missing, and then applies environment overrides.
func ReadSettings() {
	data, err := os.ReadFile(settingsFilePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn("Settings file not found, creating with default configuration")

			err = os.MkdirAll("data", os.ModePerm)
			if err != nil {
				log.Error("Error creating directory for settings file:", err)
				return
			}

			err = os.WriteFile(settingsFilePath, defaultConfig, os.ModePerm)
			if err != nil {
				log.Error("Error writing default settings file:", err)
				return
			}

			data = defaultConfig
		} else {
			log.Error("Error reading settings file:", err)
			return
		}
	}

	var newConfig Config
	err = json.Unmarshal(data, &newConfig)
	if err != nil {
		log.Error("Error unmarshalling settings file:", err)
		return
	}

	applyEnvOverrides(&newConfig)
	applyConfigUpdate(newConfig, "file")

	log.Debug("Settings file loaded successfully")
}

// SetConfig replaces the active configuration and persists it.
func SetConfig(newConfig Config) {
	applyConfigUpdate(newConfig, "local")

	data, err := json.MarshalIndent(newConfig, "", "  ")
	if err != nil {
		log.Error("Error marshalling new configuration:", err)
		return
	}
	if err := os.WriteFile(settingsFilePath, data, os.ModePerm); err != nil {
		log.Error("Error writing new configuration to file:", err)
		return
	}

	log.Debug("Configuration updated and written to file successfully")
}

func applyEnvOverrides(cfg *Config) {
	cfg.Server.Port = support.GetEnvInt("SERVER_PORT", cfg.Server.Port)
	cfg.Pool.Source = support.GetEnv("POOL_SOURCE", cfg.Pool.Source)
	cfg.Pool.CSVPath = support.GetEnv("POOL_CSV_PATH", cfg.Pool.CSVPath)
	cfg.Pool.RedisKey = support.GetEnv("POOL_REDIS_KEY", cfg.Pool.RedisKey)
	cfg.GeoLite.CountryDBPath = support.GetEnv("GEOLITE_COUNTRY_DB", cfg.GeoLite.CountryDBPath)
	cfg.GeoLite.ASNDBPath = support.GetEnv("GEOLITE_ASN_DB", cfg.GeoLite.ASNDBPath)
	cfg.Storage.Backend = support.GetEnv("STORAGE_BACKEND", cfg.Storage.Backend)
}

func applyConfigUpdate(newConfig Config, source string) {
	configMu.Lock()
	defer configMu.Unlock()

	configValue.Store(newConfig)
	log.Debug("Configuration applied", "source", source)
}

func GetConfig() Config {
	return configValue.Load().(Config)
}
