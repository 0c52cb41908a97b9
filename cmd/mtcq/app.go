package main

import (
	"fmt"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/lu-w/stars-logic-mtcq/internal/cache"
	"github.com/lu-w/stars-logic-mtcq/internal/config"
	"github.com/lu-w/stars-logic-mtcq/internal/logging"
	"github.com/lu-w/stars-logic-mtcq/internal/query"
	"github.com/lu-w/stars-logic-mtcq/internal/scenario"
	"github.com/lu-w/stars-logic-mtcq/internal/temporal"
)

// app wires configuration into the assembly cache and the evaluator.
type app struct {
	cfg       *config.Config
	registry  *prometheus.Registry
	assembly  temporal.Config
	cache     *temporal.Cache
	evaluator *query.Evaluator
}

func newApp(cfg *config.Config, registry *prometheus.Registry) (*app, error) {
	template, err := cfg.Ontology.LoadTemplate()
	if err != nil {
		return nil, err
	}
	types, err := scenario.TypeSet(cfg.Mapping.MappableTypes)
	if err != nil {
		return nil, fmt.Errorf("mapping.mappable_types: %w", err)
	}
	metrics, err := temporal.NewMetrics(registry)
	if err != nil {
		return nil, err
	}
	cacheMetrics, err := cache.NewMetrics(registry, "segments")
	if err != nil {
		return nil, err
	}

	assembly := temporal.Config{
		Template:       template,
		Prefix:         cfg.Ontology.NamePrefix(),
		Types:          types,
		StrictIdentity: cfg.Mapping.StrictIdentity,
		Workers:        cfg.Assembly.Workers,
		Metrics:        metrics,
	}
	segments := temporal.NewCache(assembly, cache.WithMetricsSet(cacheMetrics))
	engine := query.NewDatalogEngine(
		query.WithTimeout(cfg.GetQueryTimeout()),
		query.WithDerivedFactLimit(cfg.Query.DerivedFactLimit),
	)

	logging.Get(logging.CategoryBoot).Info("ready",
		zap.String("template", cfg.Ontology.TemplatePath),
		zap.Int("template_facts", template.Len()),
		zap.String("prefix", assembly.Prefix),
		zap.Strings("mappable_types", types.Names()))

	return &app{
		cfg:       cfg,
		registry:  registry,
		assembly:  assembly,
		cache:     segments,
		evaluator: query.NewEvaluator(engine, segments),
	}, nil
}

// expandSegments resolves doublestar patterns to a sorted, de-duplicated
// file list.
func expandSegments(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("glob error: %w", err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match pattern: %s", pattern)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	sort.Strings(files)
	return files, nil
}
