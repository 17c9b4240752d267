package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"construction_forecast/pkg/core/config"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	p, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if p.AnnualDiscountRate != 0.10 {
		t.Errorf("discount rate %v, want 0.10", p.AnnualDiscountRate)
	}
	if p.CostSplit.Subcontract != 0.60 {
		t.Errorf("subcontract share %v, want 0.60", p.CostSplit.Subcontract)
	}
}

func TestLoad_FileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	content := []byte(`
annual_discount_rate: 0.08
cost_split:
  subcontract: 0.50
  material: 0.40
  other: 0.10
curve_steepness: 6.0
cache_ttl_minutes: 15
server_port: ":9090"
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if p.AnnualDiscountRate != 0.08 {
		t.Errorf("discount rate %v, want 0.08", p.AnnualDiscountRate)
	}
	if p.CostSplit.Material != 0.40 {
		t.Errorf("material share %v, want 0.40", p.CostSplit.Material)
	}
	if p.ServerPort != ":9090" {
		t.Errorf("port %q, want :9090", p.ServerPort)
	}
}

func TestLoad_InvalidSplitRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	content := []byte(`
cost_split:
  subcontract: 0.80
  material: 0.40
  other: 0.10
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := config.Load(path); err == nil {
		t.Error("expected error for split summing to 1.3")
	}
}
