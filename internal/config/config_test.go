package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Teacher != "您" || cfg.Student != "秋璇" {
		t.Errorf("identities = %q/%q", cfg.Teacher, cfg.Student)
	}
	if cfg.DBPath != filepath.Join(home, ".config", "chatdigest", "chatdigest.db") {
		t.Errorf("DBPath = %s", cfg.DBPath)
	}
	want := []string{"math", "physics", "chemistry"}
	if len(cfg.Subjects) != len(want) {
		t.Fatalf("got %d subjects", len(cfg.Subjects))
	}
	for i, s := range cfg.Subjects {
		if s.Subject != want[i] {
			t.Errorf("subject[%d] = %s, want %s", i, s.Subject, want[i])
		}
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := filepath.Join(home, "custom.toml")
	body := `
teacher = "老师"
known_senders = ["甲", "乙"]
db_path = "~/data/x.db"
start_date = "2025-10-01"

[[subjects]]
subject = "chemistry"
label = "化学"
keywords = ["反应"]

[[subjects]]
subject = "math"
keywords = ["方程"]
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CHATDIGEST_STUDENT", "学生")
	t.Setenv("CHATDIGEST_ANSWER_WINDOW", "2")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Teacher != "老师" || cfg.Student != "学生" {
		t.Errorf("identities = %q/%q", cfg.Teacher, cfg.Student)
	}
	if len(cfg.KnownSenders) != 2 || cfg.KnownSenders[0] != "甲" {
		t.Errorf("KnownSenders = %v", cfg.KnownSenders)
	}
	if cfg.DBPath != filepath.Join(home, "data", "x.db") {
		t.Errorf("DBPath = %s", cfg.DBPath)
	}
	if cfg.AnswerWindow != 2 {
		t.Errorf("AnswerWindow = %d", cfg.AnswerWindow)
	}
	if len(cfg.Subjects) != 2 || cfg.Subjects[0].Subject != "chemistry" {
		t.Fatalf("Subjects = %+v", cfg.Subjects)
	}
	if got := cfg.SubjectLabel("math"); got != "math" {
		t.Errorf("SubjectLabel(math) = %s", got)
	}
	if got := cfg.SubjectLabel("chemistry"); got != "化学" {
		t.Errorf("SubjectLabel(chemistry) = %s", got)
	}
}

func TestLoadMissingExplicitPath(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatal("expected error for missing explicit config")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"bad start", func(c *Config) { c.StartDate = "2025-9-1" }, false},
		{"inverted window", func(c *Config) { c.StartDate, c.EndDate = "2025-10-01", "2025-09-01" }, false},
		{"empty teacher", func(c *Config) { c.Teacher = "" }, false},
		{"negative window", func(c *Config) { c.AnswerWindow = -1 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default("/home/x")
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err == nil) != tt.ok {
				t.Fatalf("Validate() err = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}

func TestWindowResolvesOpenEnd(t *testing.T) {
	cfg := Default("/home/x")
	now := time.Date(2025, 11, 3, 8, 0, 0, 0, time.Local)
	start, end := cfg.Window(now)
	if start != "2025-09-01" || end != "2025-11-03" {
		t.Fatalf("Window = %s..%s", start, end)
	}
}
