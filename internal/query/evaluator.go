// Package query evaluates Datalog queries over temporal stores.
package query

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/lu-w/stars-logic-mtcq/internal/logging"
	"github.com/lu-w/stars-logic-mtcq/internal/temporal"
)

// ErrNoCache is returned by segment evaluation on an evaluator built without
// a cache.
var ErrNoCache = errors.New("evaluator has no segment cache")

const slowQueryThreshold = 5 * time.Second

// Engine runs a query against a temporal store.
type Engine interface {
	Execute(ctx context.Context, store *temporal.Store, query string) (*Result, error)
}

// Evaluator is the entry point for callers: it hands stores to an engine and,
// for segments, fetches the store through the assembly cache first.
type Evaluator struct {
	engine Engine
	cache  *temporal.Cache
	logger *zap.Logger
	slow   time.Duration
}

// NewEvaluator returns an evaluator. cache may be nil if only Evaluate is
// used.
func NewEvaluator(engine Engine, cache *temporal.Cache) *Evaluator {
	return &Evaluator{
		engine: engine,
		cache:  cache,
		logger: logging.Get(logging.CategoryQuery),
		slow:   slowQueryThreshold,
	}
}

// Evaluate runs query over store. The engine's result and error are returned
// unchanged.
func (e *Evaluator) Evaluate(ctx context.Context, store *temporal.Store, query string) (*Result, error) {
	e.logger.Debug("evaluation called for store", zap.Int("size", store.Len()))
	timer := logging.StartTimer(logging.CategoryQuery, "evaluate")
	defer timer.StopWithThreshold(e.slow)
	return e.engine.Execute(ctx, store, query)
}

// EvaluateSegment assembles seg (or reuses the cached store) and evaluates
// query over it.
func (e *Evaluator) EvaluateSegment(ctx context.Context, seg temporal.Source, query string) (*Result, error) {
	if e.cache == nil {
		return nil, ErrNoCache
	}
	store, err := e.cache.GetOrAssemble(ctx, seg)
	if err != nil {
		return nil, err
	}
	return e.Evaluate(ctx, store, query)
}

// Holds reports whether query holds at every instant of seg.
func (e *Evaluator) Holds(ctx context.Context, seg temporal.Source, query string) (bool, error) {
	res, err := e.EvaluateSegment(ctx, seg, query)
	if err != nil {
		return false, err
	}
	return res.Always(), nil
}
