package utils

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"server"`

	Session struct {
		CookieName string `yaml:"cookie_name"`
		TTLMinutes int    `yaml:"ttl_minutes"`
		// Store selects the backend: "memory" or "redis".
		Store    string `yaml:"store"`
		RedisURL string `yaml:"redis_url"`
	} `yaml:"session"`

	Logging struct {
		Verbose bool `yaml:"verbose"`
	} `yaml:"logging"`
}

// DefaultConfig returns the config used when no file is given.
func DefaultConfig() Config {
	var config Config
	applyDefaults(&config)
	return config
}

// LoadConfig loads configuration from a YAML file and fills in
// defaults for anything left unset.
func LoadConfig(filename string) (Config, error) {
	var config Config

	if !FileExists(filename) {
		return config, fmt.Errorf("config file %s does not exist", filename)
	}

	file, err := os.Open(filename)
	if err != nil {
		return config, err
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&config); err != nil {
		return config, err
	}

	applyDefaults(&config)
	return config, nil
}

func applyDefaults(config *Config) {
	if config.Server.Host == "" {
		config.Server.Host = "127.0.0.1"
	}
	if config.Server.Port == 0 {
		config.Server.Port = 8080
	}
	if config.Session.CookieName == "" {
		config.Session.CookieName = "breachsim_session"
	}
	if config.Session.TTLMinutes == 0 {
		config.Session.TTLMinutes = 24 * 60
	}
	if config.Session.Store == "" {
		config.Session.Store = "memory"
	}
	if config.Session.RedisURL == "" {
		config.Session.RedisURL = "redis://127.0.0.1:6379"
	}
}

// Validate rejects values the server cannot run with.
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be in 1-65535")
	}
	if c.Session.TTLMinutes <= 0 {
		return fmt.Errorf("session ttl_minutes must be greater than 0")
	}
	if !StringInSlice(c.Session.Store, []string{"memory", "redis"}) {
		return fmt.Errorf("session store must be \"memory\" or \"redis\", got %q", c.Session.Store)
	}
	return nil
}
