package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	DataDir         string
	EnvFile         string
	ConfigFile      string
	RPCAddr         string
	RPCToken        string
	RPCTimeout      time.Duration
	RemoteURL       string
	RemoteToken     string
	AuthSecret      string
	NoteScheme      string
	DBBusyTimeout   time.Duration
	DBLockTimeout   time.Duration
	SyncLockTimeout time.Duration
	LogLevel        string
	LogPretty       bool
	LogFile         string
}

// Load reads the configuration. Environment variables win over the YAML
// file named by GPAD_CONFIG_FILE, which wins over the defaults. The .env file
// in the data directory is created on first run and fills unset variables.
func Load() (Config, error) {
	file, err := readFile(os.Getenv("GPAD_CONFIG_FILE"))
	if err != nil {
		return Config{}, err
	}
	v := values{file: file}
	dataDir := v.envOr("GPAD_DATA_DIR", defaultDataDir())
	envFile := v.envOr("GPAD_ENV_FILE", filepath.Join(dataDir, envFileName))
	if err := initEnvFile(envFile); err != nil {
		return Config{}, err
	}
	cfg := v.load()
	cfg.DataDir = dataDir
	cfg.EnvFile = envFile
	cfg.ConfigFile = os.Getenv("GPAD_CONFIG_FILE")
	return cfg, nil
}

func (v values) load() Config {
	cfg := Config{
		RPCAddr:     v.envOr("GPAD_RPC_ADDR", "127.0.0.1:7412"),
		RPCToken:    v.get("GPAD_RPC_TOKEN"),
		RemoteURL:   strings.TrimRight(v.get("GPAD_REMOTE_URL"), "/"),
		RemoteToken: v.get("GPAD_REMOTE_TOKEN"),
		AuthSecret:  v.get("GPAD_AUTH_SECRET"),
		NoteScheme:  v.envOr("GPAD_NOTE_SCHEME", "evernote"),
		LogLevel:    v.envOr("GPAD_LOG_LEVEL", "info"),
		LogFile:     v.get("GPAD_LOG_FILE"),
	}
	cfg.LogPretty = v.parseBoolOr("GPAD_LOG_PRETTY", false)
	cfg.RPCTimeout = v.parseDurationOr("GPAD_RPC_TIMEOUT", 30*time.Second)
	cfg.DBBusyTimeout = v.parseDurationOr("GPAD_DB_BUSY_TIMEOUT", 5*time.Second)
	cfg.DBLockTimeout = v.parseDurationOr("GPAD_DB_LOCK_TIMEOUT", 2*time.Second)
	cfg.SyncLockTimeout = v.parseDurationOr("GPAD_SYNC_LOCK_TIMEOUT", 10*time.Second)
	return cfg
}

// RPCURL is the base URL clients use to reach the provider daemon.
func (c Config) RPCURL() string {
	if strings.HasPrefix(c.RPCAddr, "http://") || strings.HasPrefix(c.RPCAddr, "https://") {
		return strings.TrimRight(c.RPCAddr, "/")
	}
	return "http://" + c.RPCAddr
}

func (c Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "gpad.sqlite")
}

func (c Config) TokenPath() string {
	return filepath.Join(c.DataDir, "auth.token")
}

func (c Config) LockPath() string {
	return filepath.Join(c.DataDir, "provider.lock")
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil && dir != "" {
		return filepath.Join(dir, "gpad")
	}
	return ".gpad"
}

// values resolves a key from the environment first and the config file second.
type values struct {
	file map[string]string
}

func (v values) get(key string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return v.file[key]
}

func (v values) envOr(key, fallback string) string {
	if val := v.get(key); val != "" {
		return val
	}
	return fallback
}

func (v values) parseDurationOr(key string, fallback time.Duration) time.Duration {
	if val := v.get(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}

func (v values) parseBoolOr(key string, fallback bool) bool {
	if val := v.get(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}
