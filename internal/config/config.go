// Package config defines the report configuration document and its
// validation. The document is JSON, usually stored as a blob next to the
// spreadsheets; the CLI reads it from a local file instead.
package config

import (
	"encoding/json"
	"fmt"
)

// Person is one roster entry of the configuration document.
type Person struct {
	Name     string `json:"Name"`
	Email    string `json:"Email"`
	Accounts []int  `json:"Accounts"`
}

// Config is the report configuration document.
//
// Owner and OwnerEmail are aliases for the sender address; revisions of the
// config document disagree on the key name, so both are accepted and
// OwnerEmail wins when both are set.
type Config struct {
	Owner       string            `json:"Owner"`
	OwnerEmail  string            `json:"OwnerEmail"`
	People      []Person          `json:"People"`
	Categories  map[string]string `json:"Categories"`
	MonthFilter bool              `json:"MonthFilter"`
}

// Parse decodes and validates a configuration document. It never returns a
// partially valid config: any missing or mistyped key is an error.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config document: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that all required keys are present and well formed.
func (c *Config) Validate() error {
	if c.SenderEmail() == "" {
		return fmt.Errorf("config missing Owner/OwnerEmail")
	}
	if len(c.People) == 0 {
		return fmt.Errorf("config missing People")
	}
	for i, p := range c.People {
		if p.Name == "" {
			return fmt.Errorf("config People[%d] missing Name", i)
		}
		if p.Email == "" {
			return fmt.Errorf("config People[%d] (%s) missing Email", i, p.Name)
		}
		if len(p.Accounts) == 0 {
			return fmt.Errorf("config People[%d] (%s) has no Accounts", i, p.Name)
		}
	}
	return nil
}

// SenderEmail returns the configured sender address.
func (c *Config) SenderEmail() string {
	if c.OwnerEmail != "" {
		return c.OwnerEmail
	}
	return c.Owner
}
