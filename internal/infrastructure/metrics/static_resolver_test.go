package metrics

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"stagegate/internal/ports"
)

const sampleSource = `
version = 1

[defaults]
pass_rate = 87.5
defect_count = 3
coverage = 92

[entities."test_cycle/9"]
pass_rate = 60
`

func writeSource(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "metrics.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write metric source: %v", err)
	}
	return path
}

func TestResolveDefaultsAndOverrides(t *testing.T) {
	t.Parallel()

	resolver, err := NewStaticResolver(writeSource(t, sampleSource))
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}
	ctx := context.Background()

	value, err := resolver.Resolve(ctx, ports.MetricQuery{CriteriaType: "pass_rate", EntityType: "test_cycle", EntityID: "1"})
	if err != nil || value != 87.5 {
		t.Fatalf("default pass_rate = %v, %v", value, err)
	}

	value, err = resolver.Resolve(ctx, ports.MetricQuery{CriteriaType: "pass_rate", EntityType: "test_cycle", EntityID: "9"})
	if err != nil || value != 60 {
		t.Fatalf("entity override = %v, %v; want 60", value, err)
	}

	// Unconfigured type resolves to the safe default, never an error.
	value, err = resolver.Resolve(ctx, ports.MetricQuery{CriteriaType: "sla_compliance", EntityType: "release", EntityID: "r1"})
	if err != nil || value != 0 {
		t.Fatalf("missing metric = %v, %v; want 0", value, err)
	}
}

func TestResolveCustomValues(t *testing.T) {
	t.Parallel()

	resolver, err := NewStaticResolver(writeSource(t, sampleSource))
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}

	value, err := resolver.Resolve(context.Background(), ports.MetricQuery{
		CriteriaType:  "custom",
		CriterionName: "migration readiness",
		CustomValues:  map[string]float64{"migration readiness": 75},
	})
	if err != nil || value != 75 {
		t.Fatalf("custom value = %v, %v; want 75", value, err)
	}

	value, err = resolver.Resolve(context.Background(), ports.MetricQuery{CriteriaType: "custom", CriterionName: "unset"})
	if err != nil || value != 0 {
		t.Fatalf("absent custom value = %v, %v; want 0", value, err)
	}
}

func TestReloadKeepsTableOnParseError(t *testing.T) {
	t.Parallel()

	path := writeSource(t, sampleSource)
	resolver, err := NewStaticResolver(path)
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}

	if err := os.WriteFile(path, []byte("version = ["), 0o644); err != nil {
		t.Fatalf("corrupt source: %v", err)
	}
	if err := resolver.Reload(); err == nil {
		t.Fatal("reload of malformed source should error")
	}

	value, err := resolver.Resolve(context.Background(), ports.MetricQuery{CriteriaType: "coverage"})
	if err != nil || value != 92 {
		t.Fatalf("previous table lost after failed reload: %v, %v", value, err)
	}
}
