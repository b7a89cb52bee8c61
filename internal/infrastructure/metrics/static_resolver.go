// Package metrics provides the shipped MetricResolver: a TOML-backed table of
// measurement values per criteria type, with optional per-entity overrides.
// Production deployments replace this with a resolver querying live
// test-execution and defect data; the table keeps gates usable before those
// integrations exist.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"stagegate/internal/bootstrap/logging"
	"stagegate/internal/errs"
	"stagegate/internal/ports"
)

type metricSource struct {
	Version  int                           `toml:"version"`
	Defaults map[string]float64            `toml:"defaults"`
	Entities map[string]map[string]float64 `toml:"entities"`
}

// StaticResolver serves metric values from an in-memory table loaded from a
// TOML file. Reload is safe for concurrent Resolve calls.
type StaticResolver struct {
	mu     sync.RWMutex
	source metricSource
	path   string
}

func NewStaticResolver(path string) (*StaticResolver, error) {
	r := &StaticResolver{path: strings.TrimSpace(path)}
	if r.path == "" {
		return nil, errors.New("metric source path is required")
	}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// NewEmptyResolver builds a resolver with no table loaded. Every lookup
// resolves to 0 until a later Reload succeeds, e.g. via the file watcher.
func NewEmptyResolver(path string) *StaticResolver {
	return &StaticResolver{path: strings.TrimSpace(path)}
}

// Reload re-reads the source file. On parse failure the previous table stays
// in effect and the error is returned to the caller.
func (r *StaticResolver) Reload() error {
	raw, err := os.ReadFile(r.path)
	if err != nil {
		return errs.Wrapf(err, "read metric source %q", r.path)
	}

	var source metricSource
	if err := toml.Unmarshal(raw, &source); err != nil {
		return errs.Wrapf(err, "parse metric source %q", r.path)
	}

	r.mu.Lock()
	r.source = source
	r.mu.Unlock()
	return nil
}

// Resolve looks up, in order: a caller-supplied custom value, a per-entity
// override, then the criteria-type default. Missing entries resolve to 0 so a
// misconfigured table never fails a gate run.
func (r *StaticResolver) Resolve(ctx context.Context, query ports.MetricQuery) (float64, error) {
	if query.CriteriaType == "custom" {
		if value, ok := query.CustomValues[query.CriterionName]; ok {
			return value, nil
		}
		return 0, nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	entityKey := entityKey(query.EntityType, query.EntityID)
	if overrides, ok := r.source.Entities[entityKey]; ok {
		if value, ok := overrides[query.CriteriaType]; ok {
			return value, nil
		}
	}

	if value, ok := r.source.Defaults[query.CriteriaType]; ok {
		return value, nil
	}

	logging.Warn(ctx, "no metric value configured, resolving to 0",
		slog.String("criteria_type", query.CriteriaType),
		slog.String("entity", entityKey),
	)
	return 0, nil
}

func entityKey(entityType string, entityID string) string {
	return fmt.Sprintf("%s/%s", entityType, entityID)
}

var _ ports.MetricResolver = (*StaticResolver)(nil)
