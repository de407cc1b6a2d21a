package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"
)

type Config struct {
	App       AppConfig                 `json:"app"`
	Browser   BrowserConfig             `json:"browser"`
	Gateways  map[string]GatewayConfig  `json:"gateways"`
	Providers map[string]ProviderConfig `json:"providers"`
	Memory    MemoryConfig              `json:"memory"`
	Policy    PolicyConfig              `json:"policy"`
}

type AppConfig struct {
	Name       string `json:"name"`
	User       string `json:"user"`
	BaseURL    string `json:"base_url"`
	PromptsDir string `json:"prompts_dir"`
	LogDir     string `json:"log_dir"`
}

type BrowserConfig struct {
	Headless        bool `json:"headless"`
	Width           int  `json:"width"`
	Height          int  `json:"height"`
	ScreenWidth     int  `json:"screen_width"`
	ScreenHeight    int  `json:"screen_height"`
	ActionTimeoutMs int  `json:"action_timeout_ms"`
}

func (b BrowserConfig) ActionTimeout() time.Duration {
	return time.Duration(b.ActionTimeoutMs) * time.Millisecond
}

type GatewayConfig struct {
	Token   string `json:"token"`
	ChatID  string `json:"chat_id"`
	Enabled bool   `json:"enabled"`
}

// TelegramChatID parses ChatID as a numeric telegram chat id.
func (g GatewayConfig) TelegramChatID() (int64, error) {
	id, err := strconv.ParseInt(g.ChatID, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid chat ID: %q", g.ChatID)
	}
	return id, nil
}

type ProviderConfig struct {
	APIKey  string `json:"api_key"`
	Model   string `json:"model"`
	BaseURL string `json:"base_url,omitempty"`
	Enabled bool   `json:"enabled"`
}

type MemoryConfig struct {
	Type string `json:"type"`
	Path string `json:"path"`
}

type PolicyConfig struct {
	DeniedURLs []string `json:"denied_urls"`
	// DeniedActions names step types the live engine refuses to run.
	DeniedActions []string `json:"denied_actions"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		App: AppConfig{
			Name:       "stepwright",
			User:       "local",
			BaseURL:    "http://localhost:3000",
			PromptsDir: "./prompts",
			LogDir:     "logs",
		},
		Browser: BrowserConfig{
			Width:           1280,
			Height:          800,
			ScreenWidth:     1920,
			ScreenHeight:    1080,
			ActionTimeoutMs: 10000,
		},
		Gateways:  map[string]GatewayConfig{},
		Providers: map[string]ProviderConfig{},
		Memory:    MemoryConfig{Type: "sqlite", Path: "stepwright.db"},
	}
}

// Load reads a JSON config file over the defaults. A missing file yields
// the defaults. Secrets written as $VAR are expanded from the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	for name, p := range cfg.Providers {
		p.APIKey = os.ExpandEnv(p.APIKey)
		cfg.Providers[name] = p
	}
	for name, g := range cfg.Gateways {
		g.Token = os.ExpandEnv(g.Token)
		cfg.Gateways[name] = g
	}
	return cfg, nil
}

// GetDefaultProvider returns the first enabled provider by name.
func (c *Config) GetDefaultProvider() (string, ProviderConfig) {
	names := make([]string, 0, len(c.Providers))
	for name := range c.Providers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if p := c.Providers[name]; p.Enabled {
			return name, p
		}
	}
	return "", ProviderConfig{}
}

// GetGatewayConfig returns the named gateway if it is enabled and has a token.
func (c *Config) GetGatewayConfig(name string) (GatewayConfig, bool) {
	g, ok := c.Gateways[name]
	if ok && g.Enabled && g.Token != "" {
		return g, true
	}
	return GatewayConfig{}, false
}

// GetTelegramConfig returns telegram config if enabled
func (c *Config) GetTelegramConfig() (GatewayConfig, bool) {
	return c.GetGatewayConfig("telegram")
}

// GetDiscordConfig returns discord config if enabled
func (c *Config) GetDiscordConfig() (GatewayConfig, bool) {
	return c.GetGatewayConfig("discord")
}
