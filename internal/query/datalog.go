package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/mangle/analysis"
	"github.com/google/mangle/ast"
	_ "github.com/google/mangle/builtin"
	"github.com/google/mangle/engine"
	"github.com/google/mangle/factstore"
	"go.uber.org/zap"

	"github.com/lu-w/stars-logic-mtcq/internal/kb"
	"github.com/lu-w/stars-logic-mtcq/internal/logging"
	"github.com/lu-w/stars-logic-mtcq/internal/temporal"
)

// ErrUnknownPredicate is returned when the goal names a predicate that is
// neither declared nor defined by any rule or fact.
var ErrUnknownPredicate = errors.New("unknown goal predicate")

const (
	defaultTimeout          = 30 * time.Second
	defaultDerivedFactLimit = 500000
)

// DatalogOption configures a DatalogEngine.
type DatalogOption func(*DatalogEngine)

// WithTimeout bounds a whole Execute call when the context has no deadline.
func WithTimeout(d time.Duration) DatalogOption {
	return func(e *DatalogEngine) { e.timeout = d }
}

// WithDerivedFactLimit caps the facts derived per frame.
func WithDerivedFactLimit(n int) DatalogOption {
	return func(e *DatalogEngine) { e.derivedFactLimit = n }
}

// WithEngineLogger sets the logger.
func WithEngineLogger(logger *zap.Logger) DatalogOption {
	return func(e *DatalogEngine) { e.logger = logger }
}

// DatalogEngine answers queries with Mangle. For each frame it copies the
// snapshot into a scratch store, evaluates the template rules together with
// the query's rules to fixpoint, and collects the goal's answers. Cached
// snapshots are never written to.
type DatalogEngine struct {
	timeout          time.Duration
	derivedFactLimit int
	logger           *zap.Logger
}

var _ Engine = (*DatalogEngine)(nil)

// NewDatalogEngine returns an engine with a 30s default timeout.
func NewDatalogEngine(opts ...DatalogOption) *DatalogEngine {
	e := &DatalogEngine{
		timeout:          defaultTimeout,
		derivedFactLimit: defaultDerivedFactLimit,
		logger:           logging.Get(logging.CategoryQuery),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute evaluates src over every frame of store.
//
// Cancellation is checked between frames. Mangle evaluation of a single frame
// cannot be interrupted, so after a timeout the worker goroutine keeps running
// until the current frame finishes; the derived-fact limit bounds that tail.
func (e *DatalogEngine) Execute(ctx context.Context, store *temporal.Store, src string) (*Result, error) {
	q, err := Parse(src)
	if err != nil {
		return nil, err
	}

	if _, ok := ctx.Deadline(); !ok && e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("query not started: %w", err)
	}

	start := time.Now()
	resultCh := make(chan []InstantResult, 1)
	errCh := make(chan error, 1)

	go func() {
		instants, err := e.run(ctx, store, q)
		if err != nil {
			errCh <- err
			return
		}
		resultCh <- instants
	}()

	select {
	case instants := <-resultCh:
		res := &Result{Query: src, Instants: instants, Duration: time.Since(start)}
		e.logger.Debug("query evaluated",
			zap.String("goal", q.Goal.String()),
			zap.Int("frames", len(instants)),
			zap.Duration("elapsed", res.Duration))
		return res, nil
	case err := <-errCh:
		return nil, err
	case <-ctx.Done():
		return nil, fmt.Errorf("query execution timed out after %v: %w", time.Since(start), ctx.Err())
	}
}

func (e *DatalogEngine) run(ctx context.Context, store *temporal.Store, q *Query) ([]InstantResult, error) {
	programs := make(map[*kb.Program]*analysis.ProgramInfo)
	out := make([]InstantResult, 0, store.Len())

	for i := 0; i < store.Len(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		frame := store.Frame(i)

		program := frame.Snapshot.Program()
		info, ok := programs[program]
		if !ok {
			var err error
			info, err = program.Extend(q.Rules)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformedQuery, err)
			}
			if !definesPredicate(info, q.Goal.Predicate) {
				return nil, fmt.Errorf("%w: %s", ErrUnknownPredicate, q.Goal.Predicate)
			}
			programs[program] = info
		}

		scratch := factstore.NewSimpleInMemoryStore()
		frame.Snapshot.CopyTo(scratch)
		if _, err := engine.EvalProgramWithStats(info, scratch,
			engine.WithCreatedFactLimit(e.derivedFactLimit)); err != nil {
			return nil, fmt.Errorf("frame %d (%s): failed to evaluate program: %w", i, frame.Label, err)
		}

		bindings, err := collect(scratch, q)
		if err != nil {
			return nil, err
		}
		out = append(out, InstantResult{Label: frame.Label, Bindings: bindings})
	}
	return out, nil
}

func collect(store factstore.FactStore, q *Query) ([]Binding, error) {
	var bindings []Binding
	err := store.GetFacts(ast.NewQuery(q.Goal.Predicate), func(fact ast.Atom) error {
		bound, ok := q.match(fact)
		if !ok {
			return nil
		}
		b := make(Binding, len(bound))
		for name, c := range bound {
			b[name] = kb.ConstantValue(c)
		}
		bindings = append(bindings, b)
		return nil
	})
	return bindings, err
}

func definesPredicate(info *analysis.ProgramInfo, sym ast.PredicateSym) bool {
	if _, ok := info.Decls[sym]; ok {
		return true
	}
	for _, rule := range info.Rules {
		if rule.Head.Predicate == sym {
			return true
		}
	}
	for _, fact := range info.InitialFacts {
		if fact.Predicate == sym {
			return true
		}
	}
	return false
}
