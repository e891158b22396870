// cmd/runtime/watch.go

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"rgehrsitz/rexchain/internal/config"
	"rgehrsitz/rexchain/internal/preprocessor"
	"rgehrsitz/rexchain/internal/registry"
	"rgehrsitz/rexchain/internal/runtime"
	"rgehrsitz/rexchain/internal/session"
	"rgehrsitz/rexchain/internal/watch"
	"rgehrsitz/rexchain/pkg/rex"
)

func newWatchCmd(opts *rootOptions) *cobra.Command {
	var factsPath string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Serve the configured rule sets, re-running the facts whenever a rule file changes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.configPath == "" {
				return errors.New("watch requires --config")
			}
			return runWatch(cmd.Context(), opts.cfg, factsPath, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&factsPath, "facts", "", "fact document re-run after every reload")
	_ = cmd.MarkFlagRequired("facts")
	return cmd
}

func runWatch(ctx context.Context, cfg *config.Config, factsPath string, out io.Writer) error {
	promReg := prometheus.NewRegistry()
	metrics, err := runtime.NewMetrics(promReg)
	if err != nil {
		return err
	}
	if err := rex.RegisterAll(registry.Default, cfg); err != nil {
		return err
	}

	rl, err := newReloader(registry.Default, cfg, factsPath, out, session.WithMetrics(metrics))
	if err != nil {
		return err
	}
	rl.runAll()

	w, err := watch.New(rl.paths(), cfg.Watch.Debounce, rl.handle)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.Run(ctx) })

	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

		g.Go(func() error {
			log.Info().Str("addr", srv.Addr).Str("path", cfg.Metrics.Path).Msg("Serving metrics")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	log.Info().Strs("uris", registry.Default.Registrations()).Msg("Watching rule sets")
	return g.Wait()
}

// reloader re-registers rule sets when their documents change and re-runs the
// facts through every registered rule set.
type reloader struct {
	mu       sync.Mutex
	reg      *registry.Registry
	maxRules int
	sets     map[string][]config.RuleSetConfig
	uris     []string
	facts    string
	out      io.Writer
	opts     []session.Option
}

func newReloader(reg *registry.Registry, cfg *config.Config, factsPath string, out io.Writer, opts ...session.Option) (*reloader, error) {
	facts, err := filepath.Abs(factsPath)
	if err != nil {
		return nil, err
	}
	rl := &reloader{
		reg:      reg,
		maxRules: cfg.MaxRules,
		sets:     make(map[string][]config.RuleSetConfig, len(cfg.RuleSets)),
		facts:    facts,
		out:      out,
		opts:     opts,
	}
	for _, rsc := range cfg.RuleSets {
		abs, err := filepath.Abs(rsc.Path)
		if err != nil {
			return nil, err
		}
		rl.sets[abs] = append(rl.sets[abs], rsc)
		rl.uris = append(rl.uris, rsc.URI)
	}
	return rl, nil
}

func (rl *reloader) paths() []string {
	out := []string{rl.facts}
	for p := range rl.sets {
		if p != rl.facts {
			out = append(out, p)
		}
	}
	return out
}

// handle is the watch callback. A rule document that fails to load keeps the
// previously registered version.
func (rl *reloader) handle(_ context.Context, path string) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if path == rl.facts {
		rl.runLocked(rl.uris)
		return nil
	}
	var uris []string
	var errs []error
	for _, rsc := range rl.sets[path] {
		rs, err := rex.LoadConfigured(rl.reg, rsc, rl.maxRules)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		log.Info().Str("uri", rsc.URI).Str("ruleset", rs.Name).Int("rules", len(rs.Rules)).Msg("Rule set reloaded")
		uris = append(uris, rsc.URI)
	}
	rl.runLocked(uris)
	return errors.Join(errs...)
}

func (rl *reloader) runAll() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.runLocked(rl.uris)
}

func (rl *reloader) runLocked(uris []string) {
	if len(uris) == 0 {
		return
	}
	facts, err := preprocessor.LoadFacts(rl.facts)
	if err != nil {
		log.Error().Err(err).Str("path", rl.facts).Msg("Failed to load facts")
		return
	}
	for _, uri := range uris {
		rs, err := rl.reg.Lookup(uri)
		if err != nil {
			log.Error().Err(err).Str("uri", uri).Msg("Rule set not registered")
			continue
		}
		result, err := rex.Run(rl.reg, uri, rex.NewVocabulary(), facts, rl.opts...)
		if err != nil {
			log.Error().Err(err).Str("uri", uri).Msg("Run failed")
			continue
		}
		if err := writeFacts(rl.out, rs.Name, result); err != nil {
			log.Error().Err(err).Str("uri", uri).Msg("Failed to write facts")
		}
	}
}
