package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Chat    TargetConfig  `mapstructure:"chat"`
	Compare CompareConfig `mapstructure:"compare"`
	Crew    CrewConfig    `mapstructure:"crew"`
	Keys    KeysConfig    `mapstructure:"keys"`
}

type ServerConfig struct {
	URL   string `mapstructure:"url"`
	Token string `mapstructure:"token"`
}

// TargetConfig names one provider/model pair.
type TargetConfig struct {
	Provider string `mapstructure:"provider"`
	Model    string `mapstructure:"model"`
}

type CompareConfig struct {
	Left  TargetConfig `mapstructure:"left"`
	Right TargetConfig `mapstructure:"right"`
}

type CrewConfig struct {
	Name           string  `mapstructure:"name"`
	BudgetLimitUSD float64 `mapstructure:"budget_limit_usd"`
}

// KeysConfig selects how provider credentials reach the server: "vault"
// resolves them server-side, "local" forwards the key configured here.
type KeysConfig struct {
	Mode       string `mapstructure:"mode"`
	OpenRouter string `mapstructure:"openrouter"`
}

func Load() (*Config, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config dir: %w", err)
	}

	configPath := filepath.Join(configDir, "codeswap")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configPath)
	viper.AddConfigPath(".")

	// Set defaults
	viper.SetDefault("server.url", "http://localhost:8000")
	viper.SetDefault("chat.provider", "anthropic")
	viper.SetDefault("chat.model", "claude-sonnet-4.5")
	viper.SetDefault("compare.left.provider", "anthropic")
	viper.SetDefault("compare.left.model", "claude-sonnet-4.5")
	viper.SetDefault("compare.right.provider", "openai")
	viper.SetDefault("compare.right.model", "gpt-5")
	viper.SetDefault("crew.name", "default")
	viper.SetDefault("crew.budget_limit_usd", 5.0)
	viper.SetDefault("keys.mode", "vault")

	viper.BindEnv("server.url", "CODESWAP_SERVER")
	viper.BindEnv("server.token", "CODESWAP_TOKEN")
	viper.BindEnv("keys.openrouter", "OPENROUTER_API_KEY")

	// Read config file (optional - won't error if missing)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Secrets may use magic schemes (op://, $(...), ${VAR})
	if cfg.Server.Token, err = ResolveValue(cfg.Server.Token); err != nil {
		return nil, fmt.Errorf("resolve server.token: %w", err)
	}
	if cfg.Keys.OpenRouter, err = ResolveValue(cfg.Keys.OpenRouter); err != nil {
		return nil, fmt.Errorf("resolve keys.openrouter: %w", err)
	}
	if cfg.Server.URL, err = ResolveValue(cfg.Server.URL); err != nil {
		return nil, fmt.Errorf("resolve server.url: %w", err)
	}

	return &cfg, nil
}

// ApplyChatOverrides applies command-line provider/model overrides without
// touching values the flags left empty.
func (c *Config) ApplyChatOverrides(provider, model string) {
	if provider != "" {
		c.Chat.Provider = provider
	}
	if model != "" {
		c.Chat.Model = model
	}
}

// expandEnv expands ${VAR} or $VAR in a string
func expandEnv(s string) string {
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		varName := s[2 : len(s)-1]
		return os.Getenv(varName)
	}
	if strings.HasPrefix(s, "$") {
		return os.Getenv(s[1:])
	}
	return s
}

// GetConfigPath returns the path where the config file should be located
func GetConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "codeswap", "config.yaml"), nil
}

// Exists returns true if a config file exists
func Exists() bool {
	path, err := GetConfigPath()
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Save writes the config to disk
func Save(cfg *Config) error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	content := fmt.Sprintf(`server:
  url: %s
  # token: ${CODESWAP_TOKEN}

chat:
  provider: %s
  model: %s

compare:
  left:
    provider: %s
    model: %s
  right:
    provider: %s
    model: %s

crew:
  name: %s
  budget_limit_usd: %.2f

keys:
  mode: %s
`, cfg.Server.URL,
		cfg.Chat.Provider, cfg.Chat.Model,
		cfg.Compare.Left.Provider, cfg.Compare.Left.Model,
		cfg.Compare.Right.Provider, cfg.Compare.Right.Model,
		cfg.Crew.Name, cfg.Crew.BudgetLimitUSD,
		cfg.Keys.Mode)

	return os.WriteFile(path, []byte(content), 0600)
}
