package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Version string `yaml:"version" json:"version"`
	Server  Server `yaml:"server" json:"server"`
	Data    Data   `yaml:"data" json:"data"`
	AI      AI     `yaml:"ai" json:"ai"`
	Board   Board  `yaml:"board" json:"board"`
}

type Server struct {
	Addr string `yaml:"addr" json:"addr"`
}

type Data struct {
	Dir string `yaml:"dir" json:"dir"`
}

// AI configures the chat-completions backend used for question generation,
// answer evaluation, and mock interviews. An empty APIKey disables the AI
// features; the rest of the app works without them.
type AI struct {
	BaseURL        string `yaml:"base_url" json:"base_url"`
	APIKey         string `yaml:"api_key" json:"api_key"`
	Model          string `yaml:"model" json:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds" json:"timeout_seconds"`
}

type Board struct {
	Statuses []string `yaml:"statuses" json:"statuses"`
}

func (c *Config) ApplyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Data.Dir == "" {
		c.Data.Dir = "data"
	}
	if c.AI.Model == "" {
		c.AI.Model = "gpt-4o-mini"
	}
	if c.AI.TimeoutSeconds == 0 {
		c.AI.TimeoutSeconds = 60
	}
	if len(c.Board.Statuses) == 0 {
		c.Board.Statuses = []string{"todo", "in-progress", "review", "done"}
	}
}

// Load reads a YAML config file. A missing file is not an error: defaults
// plus environment overrides are enough to run.
func Load(path string) (*Config, error) {
	var r Config
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			r.ApplyDefaults()
			return &r, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(b, &r); err != nil {
		return nil, err
	}
	r.ApplyDefaults()
	return &r, nil
}
