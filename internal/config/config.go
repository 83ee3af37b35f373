package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const envPrefix = "CHATDIGEST_"

// SubjectKeywords is one row of the ordered subject table. Row order is the
// match priority.
type SubjectKeywords struct {
	Subject  string   `toml:"subject"`
	Label    string   `toml:"label"`
	Keywords []string `toml:"keywords"`
}

type Config struct {
	ChatDir  string `toml:"chat_dir"`
	DocsDir  string `toml:"docs_dir"`
	DBPath   string `toml:"db_path"`
	LogLevel string `toml:"log_level"`

	Teacher      string   `toml:"teacher"`
	Student      string   `toml:"student"`
	KnownSenders []string `toml:"known_senders"`

	StartDate string `toml:"start_date"` // inclusive, YYYY-MM-DD
	EndDate   string `toml:"end_date"`   // inclusive, empty = today

	AnswerWindow     int               `toml:"answer_window"`
	Subjects         []SubjectKeywords `toml:"subjects"`
	QuestionKeywords []string          `toml:"question_keywords"`
}

// Default returns the built-in configuration. Every call builds fresh slices
// so decoding a file on top of it never aliases shared state.
func Default(home string) *Config {
	return &Config{
		ChatDir:  filepath.Join("assets", "chat"),
		DocsDir:  "docs",
		DBPath:   filepath.Join(home, ".config", "chatdigest", "chatdigest.db"),
		LogLevel: "info",

		Teacher:      "您",
		Student:      "秋璇",
		KnownSenders: []string{"孟秋璇", "孟祥志", "秋璇", "四叔"},

		StartDate: "2025-09-01",

		AnswerWindow: 4,
		Subjects: []SubjectKeywords{
			{
				Subject:  "math",
				Label:    "数学",
				Keywords: []string{"数学", "代数", "几何", "函数", "方程", "不等式", "数列", "三角函数", "导数", "积分", "概率", "统计"},
			},
			{
				Subject:  "physics",
				Label:    "物理",
				Keywords: []string{"物理", "力学", "运动", "力", "能量", "动量", "电", "磁", "光", "波", "热", "原子", "核", "牛顿", "加速度", "速度"},
			},
			{
				Subject:  "chemistry",
				Label:    "化学",
				Keywords: []string{"化学", "元素", "化合物", "反应", "离子", "分子", "原子", "有机", "无机", "酸碱", "氧化还原"},
			},
		},
		QuestionKeywords: []string{"?", "？", "什么", "为什么", "怎么", "如何", "哪个", "哪些", "请", "能否", "可以"},
	}
}

// DefaultPath is where Load looks for a config file when none is given.
func DefaultPath(home string) string {
	return filepath.Join(home, ".config", "chatdigest", "config.toml")
}

// Load builds the configuration: defaults, then the TOML file, then a .env
// file in the working directory, then CHATDIGEST_* environment variables.
// An explicit path must exist; the default path is optional.
func Load(path string) (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	cfg := Default(home)

	cfgPath := path
	if cfgPath == "" {
		cfgPath = DefaultPath(home)
	}
	if data, err := os.ReadFile(cfgPath); err == nil {
		if err := decodeFile(string(data), cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", cfgPath, err)
		}
	} else if path != "" {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	// expand ~ in paths
	cfg.ChatDir = expandHome(cfg.ChatDir, home)
	cfg.DocsDir = expandHome(cfg.DocsDir, home)
	cfg.DBPath = expandHome(cfg.DBPath, home)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decodeFile decodes a TOML document over cfg. The subject table is replaced
// wholesale when the file defines one, since toml reuses existing slice
// elements and would leave stale labels behind.
func decodeFile(doc string, cfg *Config) error {
	md, err := toml.Decode(doc, cfg)
	if err != nil {
		return err
	}
	if md.IsDefined("subjects") {
		var table struct {
			Subjects []SubjectKeywords `toml:"subjects"`
		}
		if _, err := toml.Decode(doc, &table); err != nil {
			return err
		}
		cfg.Subjects = table.Subjects
	}
	return nil
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"CHAT_DIR":   &c.ChatDir,
		"DOCS_DIR":   &c.DocsDir,
		"DB_PATH":    &c.DBPath,
		"LOG_LEVEL":  &c.LogLevel,
		"TEACHER":    &c.Teacher,
		"STUDENT":    &c.Student,
		"START_DATE": &c.StartDate,
		"END_DATE":   &c.EndDate,
	}
	for name, dst := range strs {
		if v, ok := os.LookupEnv(envPrefix + name); ok {
			*dst = v
		}
	}
	if v, ok := os.LookupEnv(envPrefix + "ANSWER_WINDOW"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sANSWER_WINDOW: %w", envPrefix, err)
		}
		c.AnswerWindow = n
	}
	return nil
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Teacher == "" {
		return errors.New("config: teacher identity is empty")
	}
	if c.Student == "" {
		return errors.New("config: student identity is empty")
	}
	for name, d := range map[string]string{"start_date": c.StartDate, "end_date": c.EndDate} {
		if d == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return fmt.Errorf("config: %s %q is not YYYY-MM-DD", name, d)
		}
	}
	if c.StartDate != "" && c.EndDate != "" && c.StartDate > c.EndDate {
		return fmt.Errorf("config: start_date %s is after end_date %s", c.StartDate, c.EndDate)
	}
	if c.AnswerWindow < 0 {
		return fmt.Errorf("config: answer_window %d is negative", c.AnswerWindow)
	}
	for _, s := range c.Subjects {
		if s.Subject == "" {
			return errors.New("config: subject row without a subject name")
		}
	}
	return nil
}

// Window returns the inclusive date window, with an empty end date resolved
// to the date of now.
func (c *Config) Window(now time.Time) (start, end string) {
	end = c.EndDate
	if end == "" {
		end = now.Format("2006-01-02")
	}
	return c.StartDate, end
}

// SubjectLabel returns the display label for a subject, or the subject name
// itself when no label is configured.
func (c *Config) SubjectLabel(subject string) string {
	for _, s := range c.Subjects {
		if s.Subject == subject && s.Label != "" {
			return s.Label
		}
	}
	return subject
}

func expandHome(path, home string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		return filepath.Join(home, path[2:])
	}
	return path
}
