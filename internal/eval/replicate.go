package eval

import (
	"go.uber.org/zap"

	"github.com/inodb/sveval/internal/match"
	"github.com/inodb/sveval/internal/metrics"
	"github.com/inodb/sveval/internal/sv"
)

// ReplicateResult is the outcome of a replicate comparison.
type ReplicateResult struct {
	// Rows holds the DEL, INS and ALL concordance of the second replicate.
	Rows    []ConcordanceRow
	Jaccard float64
	// Unconfirmed lists second-replicate calls absent from the first.
	Unconfirmed []*sv.Record
}

// Replicate measures the reproducibility of two runs of the same sample.
type Replicate struct {
	params match.Params
	logger *zap.Logger
}

// NewReplicate creates a replicate evaluator.
func NewReplicate(params match.Params) *Replicate {
	return &Replicate{
		params: params,
		logger: zap.NewNop(),
	}
}

// SetLogger sets the logger.
func (r *Replicate) SetLogger(logger *zap.Logger) {
	r.logger = logger
}

// Evaluate flags the records of f2 confirmed by f1.
func (r *Replicate) Evaluate(f1, f2 *sv.Callset) ReplicateResult {
	f1.Reset()
	f2.Reset()

	runPasses(r.params, []pass{
		{subject: f2, reference: f1, gts: sv.HomAndHet},
	})

	res := ReplicateResult{
		Rows:        concordanceRows(f2, sv.HomAndHet),
		Jaccard:     metrics.Jaccard(f1.All(), f2.All(), sv.HomAndHet),
		Unconfirmed: unconfirmed(f2, sv.HomAndHet),
	}
	r.logger.Debug("replicate compared",
		zap.String("f1", f1.Name),
		zap.String("f2", f2.Name),
		zap.Float64("jaccard", res.Jaccard))
	return res
}
