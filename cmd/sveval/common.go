package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/inodb/sveval/internal/bed"
	"github.com/inodb/sveval/internal/duckdb"
	"github.com/inodb/sveval/internal/eval"
	"github.com/inodb/sveval/internal/output"
	"github.com/inodb/sveval/internal/sv"
	"github.com/inodb/sveval/internal/vcf"
)

func (a *app) bind(key string, f *pflag.Flag) {
	if err := a.v.BindPFlag(key, f); err != nil {
		panic(fmt.Sprintf("bind %s: %v", key, err))
	}
}

// store opens (once) the DuckDB file at path.
func (a *app) store(path string) (*duckdb.Store, error) {
	if s, ok := a.stores[path]; ok {
		return s, nil
	}
	s, err := duckdb.Open(path)
	if err != nil {
		return nil, err
	}
	a.stores[path] = s
	return s, nil
}

// source returns the callset source for opts, backed by the callset cache
// when cache_db is set.
func (a *app) source(opts vcf.LoadOptions) (eval.Source, error) {
	loader := vcf.NewLoader(opts)
	loader.SetLogger(a.logger)

	path := a.v.GetString("cache_db")
	if path == "" {
		return loader, nil
	}
	s, err := a.store(path)
	if err != nil {
		return nil, fmt.Errorf("open callset cache: %w", err)
	}
	cache := duckdb.NewCallsetCache(s, loader)
	cache.SetLogger(a.logger)
	return cache, nil
}

// results returns the result store, or nil when db is unset.
func (a *app) results() (*duckdb.Store, error) {
	path := a.v.GetString("db")
	if path == "" {
		return nil, nil
	}
	s, err := a.store(path)
	if err != nil {
		return nil, fmt.Errorf("open result store: %w", err)
	}
	return s, nil
}

// loadAll loads paths in parallel and returns the callsets in argument order.
func loadAll(src eval.Source, paths ...string) ([]*sv.Callset, error) {
	out := make([]*sv.Callset, 0, len(paths))
	err := eval.OrderedCollect(eval.ParallelLoad(src, paths, 0), func(r eval.LoadResult) error {
		if r.Err != nil {
			return r.Err
		}
		out = append(out, r.Callset)
		return nil
	})
	return out, err
}

// restrict keeps only records with a breakpoint inside the BED regions at
// path. An empty path leaves the callsets unchanged.
func (a *app) restrict(path string, callsets []*sv.Callset) ([]*sv.Callset, error) {
	if path == "" {
		return callsets, nil
	}
	idx, err := bed.Load(path)
	if err != nil {
		return nil, err
	}
	a.logger.Info("restricting to regions", zap.String("bed", path), zap.Int("regions", idx.Len()))

	out := make([]*sv.Callset, len(callsets))
	for i, cs := range callsets {
		out[i] = bed.Restrict(cs, idx)
	}
	return out, nil
}

// writeDiscordant writes records to the side file at path.
func (a *app) writeDiscordant(path string, records []*sv.Record) error {
	if path == "" {
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create side file: %w", err)
	}

	w := output.NewDiscordantWriter(f)
	err = w.WriteAll(records)
	if err == nil {
		err = w.Flush()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	a.logger.Info("wrote unconfirmed records", zap.String("path", path), zap.Int("records", w.Count()))
	return nil
}

// logConcordance emits one summary line per row.
func (a *app) logConcordance(label string, rows []eval.ConcordanceRow) {
	for _, r := range rows {
		a.logger.Info(label,
			zap.String("svtype", r.Label),
			zap.Int("records", r.Total),
			zap.Int("unconfirmed", r.Unconfirmed),
			zap.String("rate", fmt.Sprintf("%.2f", r.Rate)))
	}
}

// saveConcordance persists a trio or replicate run when db is set.
func (a *app) saveConcordance(run duckdb.Run, callset string, rows []eval.ConcordanceRow, unconfirmed []*sv.Record) error {
	s, err := a.results()
	if err != nil || s == nil {
		return err
	}

	stored := make([]duckdb.ConcordanceRow, len(rows))
	for i, r := range rows {
		stored[i] = duckdb.ConcordanceRow{Callset: callset, SVType: r.Label, Concordance: r.Concordance}
	}

	if err := s.WriteRun(run); err != nil {
		return err
	}
	if err := s.WriteConcordance(run.ID, stored); err != nil {
		return err
	}
	if err := s.WriteDiscordant(run.ID, callset, "unconfirmed", unconfirmed); err != nil {
		return err
	}
	a.logger.Info("saved run", zap.String("run_id", run.ID), zap.String("db", s.Path()))
	return nil
}
