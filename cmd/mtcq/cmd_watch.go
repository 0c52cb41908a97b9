package main

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lu-w/stars-logic-mtcq/internal/logging"
	"github.com/lu-w/stars-logic-mtcq/internal/scenario"
	"github.com/lu-w/stars-logic-mtcq/internal/watch"
)

func newWatchCmd(opts *rootOptions) *cobra.Command {
	var (
		q           queryFlags
		metricsAddr string
		debounce    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "watch [dir...]",
		Short: "Re-evaluate a query whenever scenario files change",
		Long: `Watches directories for segment files (*.yaml) and re-evaluates the query
for each changed segment. A change to the configured template reloads it.
With --metrics-addr, cache and assembly metrics are served on /metrics.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := q.source()
			if err != nil {
				return err
			}
			log := logging.Get(logging.CategoryWatch)
			registry := prometheus.NewRegistry()

			a, err := newApp(opts.cfg, registry)
			if err != nil {
				return err
			}
			var mu sync.Mutex
			out := cmd.OutOrStdout()
			templatePath, _ := filepath.Abs(opts.cfg.Ontology.TemplatePath)

			handle := func(ctx context.Context, path string, removed bool) {
				mu.Lock()
				defer mu.Unlock()

				if abs, _ := filepath.Abs(path); abs == templatePath {
					next, err := newApp(opts.cfg, registry)
					if err != nil {
						log.Error("template reload failed", zap.String("path", path), zap.Error(err))
						return
					}
					a = next
					log.Info("template reloaded", zap.String("path", path))
					return
				}
				if removed || filepath.Ext(path) != ".yaml" {
					return
				}

				seg, err := scenario.Load(path)
				if err != nil {
					log.Error("segment load failed", zap.String("path", path), zap.Error(err))
					return
				}
				res, err := a.evaluator.EvaluateSegment(ctx, seg, src)
				if err != nil {
					log.Error("evaluation failed", zap.String("segment", seg.ID), zap.Error(err))
					return
				}
				renderResult(out, seg.ID, res)
			}

			dirs := append([]string(nil), args...)
			if tp := opts.cfg.Ontology.TemplatePath; tp != "" {
				dirs = append(dirs, filepath.Dir(tp))
			}
			w, err := watch.New(dedupe(dirs), handle,
				watch.WithDebounce(debounce),
				watch.WithPatterns("**/*.yaml", "**/*.mg"))
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if err := w.Start(ctx); err != nil {
				w.Stop()
				return err
			}
			defer w.Stop()

			if metricsAddr != "" {
				srv := &http.Server{Addr: metricsAddr, Handler: metricsMux(registry)}
				go func() {
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						log.Error("metrics server failed", zap.Error(err))
					}
				}()
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
					defer cancel()
					_ = srv.Shutdown(shutdownCtx)
				}()
				log.Info("serving metrics", zap.String("addr", metricsAddr))
			}

			<-ctx.Done()
			return nil
		},
	}
	q.register(cmd)
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve prometheus metrics on this address (e.g. :9090)")
	cmd.Flags().DurationVar(&debounce, "debounce", 300*time.Millisecond, "Quiet period before a changed file is processed")
	return cmd
}

func metricsMux(registry *prometheus.Registry) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{EnableOpenMetrics: true}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	return mux
}

func dedupe(dirs []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, d := range dirs {
		abs, err := filepath.Abs(d)
		if err != nil {
			abs = d
		}
		if !seen[abs] {
			seen[abs] = true
			out = append(out, abs)
		}
	}
	return out
}
