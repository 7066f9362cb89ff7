package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" || cfg.DBPath != "burrow.db" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.Chores.HorizonDays != 14 || cfg.Chores.PreviewCount != 5 {
		t.Errorf("unexpected chore defaults: %+v", cfg.Chores)
	}
	if cfg.Chores.WeeklyAnchor != "monday" {
		t.Errorf("weekly anchor = %q", cfg.Chores.WeeklyAnchor)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "burrow.yaml")
	data := []byte("port: \"9090\"\nchores:\n  horizon-days: 30\n  weekly-anchor: sunday\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("port = %q", cfg.Port)
	}
	if cfg.Chores.HorizonDays != 30 || cfg.Chores.WeeklyAnchor != "sunday" {
		t.Errorf("chores = %+v", cfg.Chores)
	}
	// Values absent from the file keep their defaults.
	if cfg.Chores.PreviewCount != 5 {
		t.Errorf("preview count = %d, want default 5", cfg.Chores.PreviewCount)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("port = %q", cfg.Port)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("BURROW_PORT", "3000")
	t.Setenv("BURROW_HORIZON_DAYS", "7")
	t.Setenv("BURROW_PRUNE_ON_RESCHEDULE", "true")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "3000" {
		t.Errorf("port = %q", cfg.Port)
	}
	if cfg.Chores.HorizonDays != 7 {
		t.Errorf("horizon = %d", cfg.Chores.HorizonDays)
	}
	if !cfg.Chores.PruneOnReschedule {
		t.Error("prune override not applied")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Setenv("BURROW_HORIZON_DAYS", "0")
	if _, err := Load(""); err == nil {
		t.Error("expected error for zero horizon")
	}
}

func TestParseWeekday(t *testing.T) {
	d, err := ParseWeekday(" Sunday ")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if d != time.Sunday {
		t.Errorf("got %v", d)
	}
	if _, err := ParseWeekday("someday"); err == nil {
		t.Error("expected error for unknown weekday")
	}
}
