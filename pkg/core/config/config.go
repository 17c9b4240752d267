// Package config loads the financial policy constants. Values come from
// config/policy.yaml with sensible defaults; connection strings stay in
// the environment.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"construction_forecast/pkg/core/forecast"
)

// Policy holds the tunable constants of the forecast engine. Anything
// project-specific lives in the request assumptions; these are
// company-wide conventions.
type Policy struct {
	AnnualDiscountRate float64 `yaml:"annual_discount_rate"`

	// Disbursement split of incurred cost.
	CostSplit forecast.CostSplit `yaml:"cost_split"`

	// Logistic k used when a request supplies no steepness.
	CurveSteepness float64 `yaml:"curve_steepness"`

	CacheTTLMinutes int    `yaml:"cache_ttl_minutes"`
	ServerPort      string `yaml:"server_port"`
}

// Default returns the standard policy: 10% annual discounting and the
// 60/30/10 subcontract/material/other split.
func Default() Policy {
	return Policy{
		AnnualDiscountRate: 0.10,
		CostSplit:          forecast.DefaultCostSplit,
		CurveSteepness:     10.0,
		CacheTTLMinutes:    60,
		ServerPort:         ":8080",
	}
}

// Load reads the policy file at path, falling back to defaults when the
// file does not exist. A present-but-invalid file is an error.
func Load(path string) (Policy, error) {
	p := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return p, nil
		}
		return p, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

// Validate rejects policies the engine cannot run with.
func (p Policy) Validate() error {
	if p.AnnualDiscountRate <= -1 {
		return fmt.Errorf("config: annual discount rate must exceed -100%%, got %v", p.AnnualDiscountRate)
	}
	if err := p.CostSplit.Validate(); err != nil {
		return err
	}
	if p.CacheTTLMinutes < 0 {
		return fmt.Errorf("config: cache TTL cannot be negative, got %d", p.CacheTTLMinutes)
	}
	if p.ServerPort == "" {
		return fmt.Errorf("config: server port not set")
	}
	return nil
}

// CacheTTL is the result-cache lifetime.
func (p Policy) CacheTTL() time.Duration {
	return time.Duration(p.CacheTTLMinutes) * time.Minute
}
