// Package temporal assembles per-instant knowledge-base snapshots into an
// ordered temporal store.
package temporal

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lu-w/stars-logic-mtcq/internal/convert"
	"github.com/lu-w/stars-logic-mtcq/internal/kb"
	"github.com/lu-w/stars-logic-mtcq/internal/logging"
)

// Config holds everything one assembly needs. The template is only read.
type Config struct {
	// Template is cloned once per instant. Nil means an empty snapshot.
	Template *kb.Snapshot
	// Prefix is prepended to every class, individual and property name.
	Prefix string
	// Types admits unmarked struct types.
	Types convert.TypeSet
	// StrictIdentity rejects mappable objects without an id.
	StrictIdentity bool
	// Workers > 1 maps instants concurrently.
	Workers int

	Metrics *Metrics
	Logger  *zap.Logger
}

func (c Config) logger() *zap.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return logging.Get(logging.CategoryAssembly)
}

// Assemble builds one snapshot per instant: a clone of the template plus the
// facts of the instant's roots, mapped in a single pass. The store has
// exactly one frame per instant, in input order. The first mapping error
// aborts the assembly.
func Assemble(ctx context.Context, cfg Config, instants []Instant) (*Store, error) {
	log := cfg.logger()
	start := time.Now()

	template := cfg.Template
	if template == nil {
		template = kb.NewSnapshot()
	}
	opts := []convert.Option{convert.WithLogger(logging.Get(logging.CategoryMapper))}
	if cfg.StrictIdentity {
		opts = append(opts, convert.WithStrictIdentity())
	}
	mapper := convert.New(cfg.Prefix, cfg.Types, opts...)

	frames := make([]Frame, len(instants))
	build := func(i int) error {
		in := instants[i]
		log.Debug("initializing snapshot for instant",
			zap.Int("index", i),
			zap.String("label", in.Label),
			zap.Int("roots", len(in.Roots)))

		snap := template.Clone()
		if err := mapper.Map(snap, in.Roots...); err != nil {
			return fmt.Errorf("instant %d (%s): %w", i, in.Label, err)
		}
		frames[i] = Frame{Label: in.Label, Snapshot: snap}
		return nil
	}

	if cfg.Workers > 1 && len(instants) > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(cfg.Workers)
		for i := range instants {
			if err := gctx.Err(); err != nil {
				break
			}
			i := i
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				return build(i)
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	} else {
		for i := range instants {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if err := build(i); err != nil {
				return nil, err
			}
		}
	}

	elapsed := time.Since(start)
	cfg.Metrics.observe(elapsed, len(frames))
	store := NewStore(frames)
	log.Debug("assembled temporal store",
		zap.Int("instants", len(frames)),
		zap.Int("facts", store.FactCount()),
		zap.Duration("elapsed", elapsed))
	return store, nil
}
