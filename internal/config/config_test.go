package config_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"storyline/internal/config"
)

func TestLoadDefaultConfigWhenMissing(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("STORYLINE_API_TOKEN", "")
	t.Chdir(t.TempDir())

	cfg, path, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatalf("expected exists=false, got true (path=%s)", path)
	}

	expectedData := filepath.Join(tempHome, ".local", "share", "storyline")
	if cfg.Paths.DataDir != expectedData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, expectedData)
	}
	if cfg.Paths.APIBind != "127.0.0.1:7650" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if !cfg.Pipeline.RequireContributor || !cfg.Pipeline.RequireSocialApproval {
		t.Fatalf("expected pipeline rules enabled by default: %+v", cfg.Pipeline)
	}
	if cfg.Store.BusyTimeoutMS != 5000 {
		t.Fatalf("unexpected busy timeout: %d", cfg.Store.BusyTimeoutMS)
	}
	if got := cfg.DatabasePath(); got != filepath.Join(expectedData, "storyline.db") {
		t.Fatalf("unexpected database path: %q", got)
	}
}

func TestLoadCustomConfigOverridesDefaults(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("STORYLINE_API_TOKEN", "")

	configPath := filepath.Join(t.TempDir(), "config.toml")
	content := `[paths]
data_dir = "~/pipeline"
api_bind = "127.0.0.1:9999"
api_token = " secret "

[pipeline]
require_director = false

[logging]
format = "JSON"
level = "Debug"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected config at %q to be used, got %q exists=%v", configPath, resolved, exists)
	}
	if cfg.Paths.DataDir != filepath.Join(tempHome, "pipeline") {
		t.Fatalf("unexpected data dir: %q", cfg.Paths.DataDir)
	}
	if cfg.Paths.APIToken != "secret" {
		t.Fatalf("expected trimmed token, got %q", cfg.Paths.APIToken)
	}
	if cfg.Pipeline.RequireDirector {
		t.Fatal("expected require_director to be disabled")
	}
	if !cfg.Pipeline.RequireScriptWriter {
		t.Fatal("expected unspecified rules to keep defaults")
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("expected normalized logging, got %+v", cfg.Logging)
	}
	if cfg.APIBaseURL() != "http://127.0.0.1:9999" {
		t.Fatalf("unexpected base url: %q", cfg.APIBaseURL())
	}
}

func TestAPITokenFromEnvironment(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("STORYLINE_API_TOKEN", "from-env")
	t.Chdir(t.TempDir())

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.APIToken != "from-env" {
		t.Fatalf("expected env token, got %q", cfg.Paths.APIToken)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]func(*config.Config){
		"logging.format": func(c *config.Config) { c.Logging.Format = "xml" },
		"logging.level":  func(c *config.Config) { c.Logging.Level = "trace" },
		"paths.api_bind": func(c *config.Config) { c.Paths.APIBind = "nohostport" },
		"store.max_open_conns": func(c *config.Config) {
			c.Store.MaxOpenConns = -1
		},
	}
	for key, mutate := range cases {
		t.Run(key, func(t *testing.T) {
			cfg := config.Default()
			cfg.Paths.DataDir = t.TempDir()
			cfg.Paths.LogDir = t.TempDir()
			mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected validation error for %s", key)
			}
			if !strings.Contains(err.Error(), key) {
				t.Fatalf("expected error to name %s, got %v", key, err)
			}
		})
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	if _, _, exists, err := config.Load(path); err != nil || !exists {
		t.Fatalf("sample config should load: exists=%v err=%v", exists, err)
	}
}

func TestWriteTOMLRedactsToken(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.APIToken = "hunter2"
	var buf bytes.Buffer
	if err := cfg.WriteTOML(&buf); err != nil {
		t.Fatalf("WriteTOML: %v", err)
	}
	if strings.Contains(buf.String(), "hunter2") {
		t.Fatalf("token leaked in output:\n%s", buf.String())
	}
	if !strings.Contains(buf.String(), "require_social_approval") {
		t.Fatalf("expected pipeline section in output:\n%s", buf.String())
	}
}
