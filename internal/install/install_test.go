package install

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"servus/internal/daemon"
	"servus/internal/global"
	"strings"
	"testing"
)

func TestCreateTemplateConfig(t *testing.T) {
	tests := []struct {
		name          string
		authenticator string
		wantSeed      bool
	}{
		{name: "literal authenticator", authenticator: "secret"},
		{name: "generated seed", authenticator: "", wantSeed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "servus.json")
			if err := CreateTemplateConfig(path, tt.authenticator); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			jsonCfg, err := daemon.LoadConfig(path)
			if err != nil {
				t.Fatalf("template does not load: %v", err)
			}
			if tt.wantSeed {
				if jsonCfg.Primus.AuthenticatorSeed == "" || jsonCfg.Primus.Authenticator != "" {
					t.Fatalf("expected only a seed, got %+v", jsonCfg.Primus)
				}
			} else if jsonCfg.Primus.Authenticator != tt.authenticator {
				t.Fatalf("expected authenticator %q, got %q", tt.authenticator, jsonCfg.Primus.Authenticator)
			}

			cfg, err := jsonCfg.NewDaemonConf()
			if err != nil {
				t.Fatalf("template does not convert: %v", err)
			}
			if cfg.Primus.Authenticator == "" {
				t.Fatalf("expected an authenticator after conversion")
			}
			if len(cfg.Listeners) != 1 || cfg.Listeners[0].Port != global.DefaultFabulatoriumPort {
				t.Fatalf("expected one listener on the default port, got %+v", cfg.Listeners)
			}
		})
	}

	if err := CreateTemplateConfig("", "secret"); err == nil {
		t.Fatalf("expected error without path")
	}
}

func TestGenerateSeed(t *testing.T) {
	first, err := GenerateSeed()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, _ := GenerateSeed()
	if first == second {
		t.Fatalf("expected distinct seeds")
	}
	raw, err := base64.StdEncoding.DecodeString(first)
	if err != nil || len(raw) != seedLength {
		t.Fatalf("expected %d decoded bytes, got %d (%v)", seedLength, len(raw), err)
	}
}

func TestRenderUnit(t *testing.T) {
	unit, err := renderUnit()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text := string(unit)
	if strings.Contains(text, "$executableFilePath") || strings.Contains(text, "$configFilePath") {
		t.Fatalf("expected placeholders replaced, got:\n%s", text)
	}
	if !strings.Contains(text, global.DefaultBinaryPath+" run --config "+global.DefaultConfigPath) {
		t.Fatalf("expected exec line with binary and config, got:\n%s", text)
	}
	if !strings.Contains(text, "Type=notify") {
		t.Fatalf("expected notify service type")
	}
}

func TestCopyExecutable(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "build", "servus")
	if err := os.MkdirAll(filepath.Dir(source), 0755); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := os.WriteFile(source, []byte("binary v2"), 0700); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name     string
		existing []byte
	}{
		{name: "fresh install"},
		{name: "replaces older binary", existing: []byte("binary v1, longer than the new one")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			destination := filepath.Join(t.TempDir(), "servus")
			if tt.existing != nil {
				if err := os.WriteFile(destination, tt.existing, 0755); err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
			}

			if err := copyExecutable(source, destination); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			content, err := os.ReadFile(destination)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(content) != "binary v2" {
				t.Fatalf("expected copied content, got %q", content)
			}
			info, err := os.Stat(destination)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if info.Mode().Perm() != 0755 {
				t.Fatalf("expected mode 0755, got %v", info.Mode().Perm())
			}

			leftovers, _ := filepath.Glob(filepath.Join(filepath.Dir(destination), ".servus-install-*"))
			if len(leftovers) != 0 {
				t.Fatalf("expected no temp files, got %v", leftovers)
			}
		})
	}

	// Installing onto itself is a no-op
	if err := copyExecutable(source, source); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := copyExecutable(filepath.Join(dir, "missing"), filepath.Join(dir, "out")); err == nil {
		t.Fatalf("expected error for missing source")
	}
}

func TestRemoveIfPresent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "servus.json")
	if err := os.WriteFile(path, []byte("{}"), 0600); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := removeIfPresent(path); err != nil {
			t.Fatalf("expected removal %d to succeed, got %v", i+1, err)
		}
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected file removed, got %v", err)
	}
}
