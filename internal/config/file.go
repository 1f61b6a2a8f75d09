package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type fileConfig struct {
	DataDir         string `yaml:"data_dir"`
	RPCAddr         string `yaml:"rpc_addr"`
	RPCToken        string `yaml:"rpc_token"`
	RPCTimeout      string `yaml:"rpc_timeout"`
	RemoteURL       string `yaml:"remote_url"`
	RemoteToken     string `yaml:"remote_token"`
	NoteScheme      string `yaml:"note_scheme"`
	DBBusyTimeout   string `yaml:"db_busy_timeout"`
	DBLockTimeout   string `yaml:"db_lock_timeout"`
	SyncLockTimeout string `yaml:"sync_lock_timeout"`
	LogLevel        string `yaml:"log_level"`
	LogPretty       *bool  `yaml:"log_pretty"`
	LogFile         string `yaml:"log_file"`
}

// readFile loads the optional YAML config file keyed by the environment
// variable each field stands in for.
func readFile(path string) (map[string]string, error) {
	out := map[string]string{}
	if path == "" {
		return out, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return out, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	set := func(key, value string) {
		if value != "" {
			out[key] = value
		}
	}
	set("GPAD_DATA_DIR", fc.DataDir)
	set("GPAD_RPC_ADDR", fc.RPCAddr)
	set("GPAD_RPC_TOKEN", fc.RPCToken)
	set("GPAD_RPC_TIMEOUT", fc.RPCTimeout)
	set("GPAD_REMOTE_URL", fc.RemoteURL)
	set("GPAD_REMOTE_TOKEN", fc.RemoteToken)
	set("GPAD_NOTE_SCHEME", fc.NoteScheme)
	set("GPAD_DB_BUSY_TIMEOUT", fc.DBBusyTimeout)
	set("GPAD_DB_LOCK_TIMEOUT", fc.DBLockTimeout)
	set("GPAD_SYNC_LOCK_TIMEOUT", fc.SyncLockTimeout)
	set("GPAD_LOG_LEVEL", fc.LogLevel)
	set("GPAD_LOG_FILE", fc.LogFile)
	if fc.LogPretty != nil {
		out["GPAD_LOG_PRETTY"] = strconv.FormatBool(*fc.LogPretty)
	}
	return out, nil
}
