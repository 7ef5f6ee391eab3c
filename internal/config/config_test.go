package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadReadsYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
server:
  port: "9090"
  cors_origins: ["http://localhost:5173"]
generator:
  provider: genai
  api_key: from-file
  timeout: 5s
client:
  api_base: http://localhost:9090
  prefixes: ["/api"]
  num_questions: 6
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("GEMINI_API_KEY", "from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" || cfg.Server.CORSOrigins[0] != "http://localhost:5173" {
		t.Fatalf("unexpected server config %+v", cfg.Server)
	}
	if cfg.Generator.APIKey != "from-file" {
		t.Fatalf("expected file api key to win, got %q", cfg.Generator.APIKey)
	}
	if got := TTLDuration(cfg.Generator.Timeout, time.Second); got != 5*time.Second {
		t.Fatalf("expected 5s timeout, got %v", got)
	}
	if cfg.Client.NumQuestions != 6 || cfg.Client.Prefixes[0] != "/api" {
		t.Fatalf("unexpected client config %+v", cfg.Client)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "from-env")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Generator.Provider != "mock" {
		t.Fatalf("expected mock provider, got %q", cfg.Generator.Provider)
	}
	if cfg.Generator.APIKey != "from-env" {
		t.Fatalf("expected env api key, got %q", cfg.Generator.APIKey)
	}
	if len(cfg.Server.CORSOrigins) != 1 || cfg.Server.CORSOrigins[0] != "*" {
		t.Fatalf("expected permissive cors default, got %v", cfg.Server.CORSOrigins)
	}
}

func TestTTLDuration(t *testing.T) {
	if got := TTLDuration("", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback, got %v", got)
	}
	if got := TTLDuration("nonsense", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback on parse error, got %v", got)
	}
	if got := TTLDuration("90s", time.Minute); got != 90*time.Second {
		t.Fatalf("expected 90s, got %v", got)
	}
}
