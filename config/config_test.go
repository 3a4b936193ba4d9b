package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEmbeddedDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") = %v", err)
	}
	if cfg.Harness.MaxCycles <= 0 {
		t.Errorf("Harness.MaxCycles = %d, want > 0", cfg.Harness.MaxCycles)
	}
	if cfg.Derived.ReferenceTemperatureK != cfg.ReferenceTemperatureC+273.15 {
		t.Errorf("Derived.ReferenceTemperatureK not computed correctly")
	}
}

func TestLoadUserFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "user.yaml")
	content := []byte("harness:\n  max_cycles: 42\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load(%q) = %v", path, err)
	}
	if cfg.Harness.MaxCycles != 42 {
		t.Errorf("Harness.MaxCycles = %d, want 42 (overridden)", cfg.Harness.MaxCycles)
	}
	if cfg.Harness.PercolationStride == 0 {
		t.Errorf("Harness.PercolationStride = 0, want embedded default to survive partial override")
	}
}

func TestCfgPanicsBeforeInit(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("Cfg() did not panic before Init()")
		}
	}()
	saved := global
	global = nil
	defer func() { global = saved }()
	Cfg()
}

func TestInitThenCfg(t *testing.T) {
	if err := Init(""); err != nil {
		t.Fatalf("Init(\"\") = %v", err)
	}
	if Cfg() == nil {
		t.Fatal("Cfg() = nil after Init")
	}
}
