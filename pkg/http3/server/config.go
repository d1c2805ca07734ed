package server

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config holds the runtime settings of the HTTP/3 server.
type Config struct {
	Addr        string
	CertFile    string
	KeyFile     string
	MetricsAddr string // empty disables the /metrics endpoint
	LogLevel    string
}

func DefaultConfig() Config {
	return Config{
		Addr:     "localhost:4433",
		LogLevel: "info",
	}
}

// fileConfig mirrors the TOML keys of a server config file.
type fileConfig struct {
	Addr        string `toml:"addr"`
	CertFile    string `toml:"cert_file"`
	KeyFile     string `toml:"key_file"`
	MetricsAddr string `toml:"metrics_addr"`
	LogLevel    string `toml:"log_level"`
}

// LoadConfig overlays the TOML file at path on top of the defaults. Keys
// absent from the file keep their default value.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load server config: %w", err)
	}

	if meta.IsDefined("addr") {
		cfg.Addr = strings.TrimSpace(raw.Addr)
	}
	if meta.IsDefined("cert_file") {
		cfg.CertFile = strings.TrimSpace(raw.CertFile)
	}
	if meta.IsDefined("key_file") {
		cfg.KeyFile = strings.TrimSpace(raw.KeyFile)
	}
	if meta.IsDefined("metrics_addr") {
		cfg.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}

	if cfg.CertFile != "" && cfg.KeyFile == "" || cfg.CertFile == "" && cfg.KeyFile != "" {
		return Config{}, fmt.Errorf("cert_file and key_file must be set together")
	}

	return cfg, nil
}
