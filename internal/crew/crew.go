// Package crew loads and saves crew definitions: named collections of LLM
// agents that collaborate on a task. Exactly one agent has the orchestrator
// role; the rest are specialists. Definitions live as YAML files under the
// user config dir.
package crew

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Roles an agent can hold.
const (
	RoleOrchestrator = "orchestrator"
	RoleSpecialist   = "specialist"
)

// Agent is one member of a crew.
type Agent struct {
	Model        string `yaml:"model"`
	Role         string `yaml:"role"`
	SystemPrompt string `yaml:"system_prompt"`
	MaxTokens    int    `yaml:"max_tokens"`
}

// Config is a complete crew definition.
type Config struct {
	Name           string           `yaml:"name"`
	Description    string           `yaml:"description"`
	Orchestrator   string           `yaml:"orchestrator"`
	Agents         map[string]Agent `yaml:"agents"`
	BudgetLimitUSD float64          `yaml:"budget_limit_usd"`
}

// Specialists returns the non-orchestrator agent names, sorted.
func (c *Config) Specialists() []string {
	var names []string
	for name, agent := range c.Agents {
		if agent.Role == RoleSpecialist {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Dir returns the directory holding crew definitions.
func Dir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config dir: %w", err)
	}
	return filepath.Join(configDir, "codeswap", "crews"), nil
}

// Load reads the named crew from its YAML file.
func Load(name string) (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	return loadFrom(filepath.Join(dir, name+".yaml"))
}

func loadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			available, _ := List()
			hint := "no crews found"
			if len(available) > 0 {
				hint = "available crews: " + strings.Join(available, ", ")
			}
			return nil, fmt.Errorf("crew config not found: %s (%s)", path, hint)
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := cfg.validate(path); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate(path string) error {
	if c.Name == "" {
		return fmt.Errorf("crew config %s is missing required key 'name'", path)
	}
	if c.Orchestrator == "" {
		return fmt.Errorf("crew config %s is missing required key 'orchestrator'", path)
	}
	if len(c.Agents) == 0 {
		return fmt.Errorf("crew config %s: 'agents' must be a non-empty mapping", path)
	}
	for name, agent := range c.Agents {
		if agent.Model == "" {
			return fmt.Errorf("crew config %s: agent %q is missing required field 'model'", path, name)
		}
		if agent.Role != RoleOrchestrator && agent.Role != RoleSpecialist {
			return fmt.Errorf("crew config %s: agent %q has invalid role %q", path, name, agent.Role)
		}
	}
	if _, ok := c.Agents[c.Orchestrator]; !ok {
		names := make([]string, 0, len(c.Agents))
		for name := range c.Agents {
			names = append(names, name)
		}
		sort.Strings(names)
		return fmt.Errorf("crew config %s: orchestrator %q is not listed in agents (available: %s)",
			path, c.Orchestrator, strings.Join(names, ", "))
	}
	if c.BudgetLimitUSD <= 0 {
		c.BudgetLimitUSD = 5.0
	}
	for name, agent := range c.Agents {
		if agent.MaxTokens <= 0 {
			agent.MaxTokens = 4096
			c.Agents[name] = agent
		}
	}
	return nil
}

// Save persists cfg to its YAML file, returning the path written.
func Save(cfg *Config) (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, cfg.Name+".yaml")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	return path, nil
}

// List returns the names of all saved crews, sorted.
func List() ([]string, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names, nil
}

// EnsureDefaults writes the built-in default crew if no crews exist yet.
func EnsureDefaults() error {
	names, err := List()
	if err != nil {
		return err
	}
	if len(names) > 0 {
		return nil
	}
	_, err = Save(DefaultCrew())
	return err
}

// DefaultCrew is a general-purpose crew: one orchestrator on a strong model
// and two cheap specialists.
func DefaultCrew() *Config {
	return &Config{
		Name:         "default",
		Description:  "General-purpose crew with a planner and two specialists",
		Orchestrator: "lead",
		Agents: map[string]Agent{
			"lead": {
				Model:        "anthropic/claude-sonnet-4.5",
				Role:         RoleOrchestrator,
				SystemPrompt: "You are the lead of a small team. Break tasks into focused subtasks and synthesize results.",
				MaxTokens:    4096,
			},
			"researcher": {
				Model:        "google/gemini-2.5-flash",
				Role:         RoleSpecialist,
				SystemPrompt: "You research topics thoroughly and report findings with sources.",
				MaxTokens:    4096,
			},
			"coder": {
				Model:        "deepseek/deepseek-chat-v3-0324",
				Role:         RoleSpecialist,
				SystemPrompt: "You write clean, working code with brief explanations.",
				MaxTokens:    4096,
			},
		},
		BudgetLimitUSD: 5.0,
	}
}
