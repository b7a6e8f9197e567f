package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Session.HitRadius != 15 {
		t.Errorf("HitRadius: got %v, want 15", cfg.Session.HitRadius)
	}
	if cfg.Session.MinBoxSize != 5 {
		t.Errorf("MinBoxSize: got %d, want 5", cfg.Session.MinBoxSize)
	}
	if cfg.Paths.MaskDir != "masks" || cfg.Paths.XMLDir != "xml" {
		t.Errorf("Paths: got %+v", cfg.Paths)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("missing config should fall back to defaults: %v", err)
	}
	if cfg.Session.PenSize != 5 {
		t.Errorf("PenSize: got %d, want 5", cfg.Session.PenSize)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "annotator.yaml")
	content := `
session:
  hit_radius: 8
  min_box_size: 3
paths:
  mask_dir: out/masks
labels:
  - id: 1
    name: cat
    color: "#ff0000"
  - id: 2
    name: dog
log:
  mode: release
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Session.HitRadius != 8 {
		t.Errorf("HitRadius: got %v, want 8", cfg.Session.HitRadius)
	}
	if cfg.Session.MinBoxSize != 3 {
		t.Errorf("MinBoxSize: got %d, want 3", cfg.Session.MinBoxSize)
	}
	if cfg.Session.PenSize != 5 {
		t.Errorf("PenSize should keep default, got %d", cfg.Session.PenSize)
	}
	if cfg.Paths.MaskDir != "out/masks" {
		t.Errorf("MaskDir: got %s", cfg.Paths.MaskDir)
	}
	if cfg.Paths.XMLDir != "xml" {
		t.Errorf("XMLDir should keep default, got %s", cfg.Paths.XMLDir)
	}
	if len(cfg.Labels) != 2 || cfg.Labels[0].Name != "cat" || cfg.Labels[0].Color != "#ff0000" {
		t.Errorf("Labels: got %+v", cfg.Labels)
	}
	if cfg.Log.Mode != "release" {
		t.Errorf("Log.Mode: got %s", cfg.Log.Mode)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("ANNOTATOR_SESSION_HIT_RADIUS", "22")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Session.HitRadius != 22 {
		t.Errorf("HitRadius: got %v, want 22", cfg.Session.HitRadius)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"negative radius", func(c *Config) { c.Session.HitRadius = -1 }, true},
		{"negative min size", func(c *Config) { c.Session.MinBoxSize = -2 }, true},
		{"label id zero", func(c *Config) { c.Labels = []LabelConfig{{ID: 0, Name: "bg"}} }, true},
		{"label id too large", func(c *Config) { c.Labels = []LabelConfig{{ID: 256, Name: "x"}} }, true},
		{"duplicate label", func(c *Config) {
			c.Labels = []LabelConfig{{ID: 1, Name: "a"}, {ID: 1, Name: "b"}}
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
