package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port        string   `yaml:"port"`
		CORSOrigins []string `yaml:"cors_origins"`
	} `yaml:"server"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	SQLite struct {
		Path string `yaml:"path"`
	} `yaml:"sqlite"`
	Cache struct {
		TTL string `yaml:"ttl"`
	} `yaml:"cache"`
	Generator struct {
		// Provider is "mock" or "genai".
		Provider string `yaml:"provider"`
		APIKey   string `yaml:"api_key"`
		Model    string `yaml:"model"`
		Timeout  string `yaml:"timeout"`
	} `yaml:"generator"`
	Client struct {
		APIBase      string   `yaml:"api_base"`
		Prefixes     []string `yaml:"prefixes"`
		Timeout      string   `yaml:"timeout"`
		NumQuestions int      `yaml:"num_questions"`
		Language     string   `yaml:"language"`
	} `yaml:"client"`
}

// Load reads YAML config from path. A missing file yields the defaults so the
// service can start with flags and environment only.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return cfg, err
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if c.Generator.APIKey == "" {
		c.Generator.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if c.Generator.Provider == "" {
		c.Generator.Provider = "mock"
	}
	if len(c.Server.CORSOrigins) == 0 {
		c.Server.CORSOrigins = []string{"*"}
	}
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
