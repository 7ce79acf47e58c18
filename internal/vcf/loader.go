package vcf

import (
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/inodb/sveval/internal/sv"
)

// LoadOptions configures how a VCF is turned into a callset.
type LoadOptions struct {
	Scheme Scheme
	// RequirePass drops records whose FILTER column is not PASS.
	RequirePass bool
	// DropUnknownGenotype drops records whose zygosity is unknown.
	DropUnknownGenotype bool
}

// LoadStats counts what happened to the lines of one input.
type LoadStats struct {
	Records   int // data lines read
	Malformed int // lines skipped by the parser
	Filtered  int // records dropped by FILTER or genotype
	Dropped   int // records the classifier rejected
	Kept      int
}

// Loader builds callsets from VCF files.
type Loader struct {
	opts   LoadOptions
	logger *zap.Logger
}

// NewLoader creates a loader with the given options.
func NewLoader(opts LoadOptions) *Loader {
	return &Loader{
		opts:   opts,
		logger: zap.NewNop(),
	}
}

// SetLogger sets the logger for per-file load summaries.
func (l *Loader) SetLogger(logger *zap.Logger) {
	l.logger = logger
}

// Options returns the loader configuration.
func (l *Loader) Options() LoadOptions {
	return l.opts
}

// Load reads the VCF at path into a callset named after the file.
func (l *Loader) Load(path string) (*sv.Callset, error) {
	p, err := NewParser(path)
	if err != nil {
		return nil, err
	}
	defer p.Close()

	cs, stats, err := l.LoadFrom(filepath.Base(path), p)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	l.logger.Debug("loaded callset",
		zap.String("path", path),
		zap.Int("records", stats.Records),
		zap.Int("malformed", stats.Malformed),
		zap.Int("filtered", stats.Filtered),
		zap.Int("dropped", stats.Dropped),
		zap.Int("kept", stats.Kept))
	return cs, nil
}

// LoadFrom drains a parser into a new callset. Malformed lines are skipped;
// any other parser error aborts the load.
func (l *Loader) LoadFrom(name string, p VariantParser) (*sv.Callset, LoadStats, error) {
	cs := sv.NewCallset(name)
	var stats LoadStats

	for {
		v, err := p.Next()
		if err != nil {
			var perr *ParseError
			if errors.As(err, &perr) {
				stats.Malformed++
				continue
			}
			return nil, stats, err
		}
		if v == nil {
			break
		}
		stats.Records++

		if l.opts.RequirePass && !v.IsPass() {
			stats.Filtered++
			continue
		}

		rec, ok := Classify(v, l.opts.Scheme)
		if !ok {
			stats.Dropped++
			continue
		}
		if l.opts.DropUnknownGenotype && rec.Zygosity == sv.Unknown {
			stats.Filtered++
			continue
		}

		cs.Add(rec)
		stats.Kept++
	}

	return cs, stats, nil
}
