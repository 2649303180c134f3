package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/jadenj13/notesync/internals/git"
	"github.com/jadenj13/notesync/internals/syncer"
)

const fileName = "notesync.toml"

type Config struct {
	Directory  string       `toml:"directory"`
	Platform   string       `toml:"platform"`
	LabelColor string       `toml:"label_color"`
	GitHub     GitHubConfig `toml:"github"`
	GitLab     GitLabConfig `toml:"gitlab"`
	Slack      SlackConfig  `toml:"slack"`
}

type GitHubConfig struct {
	BaseURL string `toml:"base_url"`
	Token   string `toml:"-"` // env only
}

type GitLabConfig struct {
	BaseURL string `toml:"base_url"`
	Token   string `toml:"-"`
}

type SlackConfig struct {
	Channel string `toml:"channel"`
	Token   string `toml:"-"`
}

func DefaultConfig() *Config {
	return &Config{
		Directory:  "examples",
		Platform:   "github",
		LabelColor: syncer.DefaultLabelColor,
		GitLab:     GitLabConfig{BaseURL: "https://gitlab.com"},
	}
}

// Path is $NOTESYNC_CONFIG, or notesync.toml in the user config directory.
func Path() (string, error) {
	if p := os.Getenv("NOTESYNC_CONFIG"); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

// Load reads the TOML file at path over the defaults, then applies the
// environment. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	cfg.ApplyEnv(os.Getenv)
	return cfg, nil
}

// ApplyEnv overlays environment variables; set values win over the file.
func (c *Config) ApplyEnv(getenv func(string) string) {
	c.GitHub.Token = getenv("GITHUB_TOKEN")
	c.GitLab.Token = getenv("GITLAB_TOKEN")
	c.Slack.Token = getenv("SLACK_BOT_TOKEN")

	if v := getenv("GITHUB_BASE_URL"); v != "" {
		c.GitHub.BaseURL = v
	}
	if v := getenv("GITLAB_BASE_URL"); v != "" {
		c.GitLab.BaseURL = v
	}
	if v := getenv("SLACK_NOTIFY_CHANNEL"); v != "" {
		c.Slack.Channel = v
	}
}

// RequireToken returns the credential for the configured platform, failing
// when it is absent.
func (c *Config) RequireToken() (git.Platform, error) {
	platform, err := git.ParsePlatform(c.Platform)
	if err != nil {
		return 0, err
	}
	switch platform {
	case git.PlatformGitHub:
		if c.GitHub.Token == "" {
			return platform, errors.New("GITHUB_TOKEN not found in environment variables")
		}
	case git.PlatformGitLab:
		if c.GitLab.Token == "" {
			return platform, errors.New("GITLAB_TOKEN not found in environment variables")
		}
	}
	return platform, nil
}

// SlackEnabled reports whether both a bot token and a channel are set.
func (c *Config) SlackEnabled() bool {
	return c.Slack.Token != "" && c.Slack.Channel != ""
}

// LoadDotEnv loads KEY=value pairs from path into the process environment
// without overriding variables that are already set. A missing file is fine.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// ExpandPath resolves a leading "~/" against the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
