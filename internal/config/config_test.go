package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) {
	t.Helper()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "config"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config", "test.yaml"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoad_Defaults(t *testing.T) {
	writeConfig(t, `
http:
  port: 8091
search:
  host_url: https://ai.api.nvidia.com/v1/omniverse/nvidia/usdsearch
`)

	cfg, err := Load("test")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Search.Mode != "api" {
		t.Errorf("mode = %q, want api", cfg.Search.Mode)
	}
	if cfg.Search.Limit != 30 {
		t.Errorf("limit = %d, want 30", cfg.Search.Limit)
	}
	if cfg.Search.CutoffThreshold != 1.05 {
		t.Errorf("cutoff = %v, want 1.05", cfg.Search.CutoffThreshold)
	}
	if cfg.Search.FileExtensionInclude != "usd*" {
		t.Errorf("file_extension_include = %q, want usd*", cfg.Search.FileExtensionInclude)
	}
	if cfg.Storage.ScratchDir == "" {
		t.Error("scratch_dir default missing")
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_USDSEARCH_KEY", "nvapi-secret")
	writeConfig(t, `
http:
  port: 8091
search:
  host_url: ${TEST_USDSEARCH_HOST:-https://search.example.com/v1}
auth:
  nvidia_api_key: ${TEST_USDSEARCH_KEY}
`)

	cfg, err := Load("test")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Search.HostURL != "https://search.example.com/v1" {
		t.Errorf("host_url = %q", cfg.Search.HostURL)
	}
	if cfg.Auth.NvidiaAPIKey != "nvapi-secret" {
		t.Errorf("nvidia_api_key = %q", cfg.Auth.NvidiaAPIKey)
	}
}

func TestValidate_RejectsBadMode(t *testing.T) {
	cfg := Config{}
	cfg.HTTP.Port = 8091
	cfg.Search.HostURL = "https://search.example.com"
	cfg.Search.Mode = "rpc"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestValidate_RequireAuthNeedsNucleus(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	cfg.HTTP.Port = 8091
	cfg.Search.HostURL = "https://search.internal.example.com"
	cfg.Auth.RequireAuthorization = true
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when nucleus_server is empty")
	}
}

func TestAuthConfig_APIKeyEnvFallback(t *testing.T) {
	t.Setenv("NVIDIA_API_KEY", "nvapi-from-env")
	a := AuthConfig{}
	if got := a.APIKey(); got != "nvapi-from-env" {
		t.Errorf("APIKey = %q, want env fallback", got)
	}
	a.NvidiaAPIKey = "nvapi-from-config"
	if got := a.APIKey(); got != "nvapi-from-config" {
		t.Errorf("APIKey = %q, want config value to win", got)
	}
}
