package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"buildcheck/internal/config"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	SetBuildInfo("1.2.3", "abc1234", "2026-08-30")

	got, err := runCommand(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	for _, want := range []string{"buildcheck 1.2.3", "commit: abc1234", "built:  2026-08-30"} {
		if !strings.Contains(got, want) {
			t.Errorf("version output missing %q in:\n%s", want, got)
		}
	}
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	old := configFile
	configFile = path
	defer func() { configFile = old }()

	got, err := runCommand(t, "config", "init")
	if err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if !strings.Contains(got, "Configuration written to") {
		t.Errorf("unexpected output: %s", got)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("generated config does not load: %v", err)
	}
	if cfg.Parallelism.MaxWorkers != 8 {
		t.Errorf("generated config workers = %d, want 8", cfg.Parallelism.MaxWorkers)
	}

	// Running init again must refuse to overwrite.
	if _, err := os.Stat(path); err != nil {
		t.Fatal(err)
	}
	if err := config.WriteDefault(path); err == nil {
		t.Error("expected overwrite refusal")
	}
}

func TestConfigShowRedactsToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("organization: acme\ntoken: supersecret\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	old := configFile
	configFile = path
	defer func() { configFile = old }()

	got, err := runCommand(t, "config", "show")
	if err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	if strings.Contains(got, "supersecret") {
		t.Fatal("token must be redacted")
	}
	if !strings.Contains(got, "organization: acme") {
		t.Errorf("expected organization in output:\n%s", got)
	}
}

func TestCacheListEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("organization: acme\ncaching:\n  directory: "+filepath.Join(dir, "cache")+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	old := configFile
	configFile = path
	defer func() { configFile = old }()

	got, err := runCommand(t, "cache", "list")
	if err != nil {
		t.Fatalf("cache list failed: %v", err)
	}
	if !strings.Contains(got, "Cache is empty") {
		t.Errorf("unexpected output: %s", got)
	}
}
