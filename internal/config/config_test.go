package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/eduflash/core/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "dsn: root:pw@tcp(localhost:3306)/quiz\n")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != 3000 {
		t.Fatalf("expected default port 3000, got %d", cfg.Port)
	}
	if cfg.Env != "production" {
		t.Fatalf("expected default env production, got %q", cfg.Env)
	}
	if cfg.AI.TimeoutSeconds != 5 {
		t.Fatalf("expected default ai timeout 5s, got %d", cfg.AI.TimeoutSeconds)
	}
	if cfg.IsDev() {
		t.Fatal("expected production config, got dev")
	}
}

func TestLoadBuildsDSNFromDatabaseSection(t *testing.T) {
	path := writeConfig(t, `
database:
  host: db.internal
  user: quiz
  password: secret
  name: eduflash
`)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := "quiz:secret@tcp(db.internal:3306)/eduflash?charset=utf8mb4&parseTime=True&loc=Local"
	if cfg.DSN != want {
		t.Fatalf("expected dsn %q, got %q", want, cfg.DSN)
	}
}

func TestLoadRequiresDSN(t *testing.T) {
	path := writeConfig(t, "port: 8080\n")
	if _, err := config.Load(path); err == nil {
		t.Fatal("expected error for missing dsn, got nil")
	}
}

func TestHasUsableKey(t *testing.T) {
	cases := []struct {
		key  string
		want bool
	}{
		{"", false},
		{"   ", false},
		{"your_openai_api_key_here", false},
		{"YOUR_HF_API_KEY_HERE", false},
		{"changeme", false},
		{"sk-real-key", true},
	}
	for _, tc := range cases {
		p := config.AIProvider{APIKey: tc.key}
		if got := p.HasUsableKey(); got != tc.want {
			t.Fatalf("HasUsableKey(%q) = %v, want %v", tc.key, got, tc.want)
		}
	}
}
