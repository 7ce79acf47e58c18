package eval

import (
	"go.uber.org/zap"

	"github.com/inodb/sveval/internal/match"
	"github.com/inodb/sveval/internal/metrics"
	"github.com/inodb/sveval/internal/sv"
)

// TrioResult is the outcome of a trio comparison.
type TrioResult struct {
	// Child holds the DEL, INS and ALL concordance of offspring hom/het calls.
	Child []ConcordanceRow
	// Father and Mother count parental hom calls confirmed in the child.
	Father metrics.Concordance
	Mother metrics.Concordance
	// Unconfirmed lists child hom/het calls no parent supports.
	Unconfirmed []*sv.Record
}

// Trio checks offspring calls for Mendelian support in the parents.
type Trio struct {
	params match.Params
	logger *zap.Logger
}

// NewTrio creates a trio evaluator.
func NewTrio(params match.Params) *Trio {
	return &Trio{
		params: params,
		logger: zap.NewNop(),
	}
}

// SetLogger sets the logger for parental concordance details.
func (t *Trio) SetLogger(logger *zap.Logger) {
	t.logger = logger
}

// Evaluate compares the child callset against both parents. All matched flags
// are cleared first.
func (t *Trio) Evaluate(child, father, mother *sv.Callset) TrioResult {
	for _, cs := range []*sv.Callset{child, father, mother} {
		cs.Reset()
	}

	runPasses(t.params, []pass{
		{subject: father, reference: child, gts: sv.HomOnly},
		{subject: mother, reference: child, gts: sv.HomOnly},
		{subject: child, reference: father, gts: sv.HomAndHet},
		{subject: child, reference: mother, gts: sv.HomAndHet},
	})

	res := TrioResult{
		Child:       concordanceRows(child, sv.HomAndHet),
		Father:      metrics.Concordant(father.All(), sv.HomOnly),
		Mother:      metrics.Concordant(mother.All(), sv.HomOnly),
		Unconfirmed: unconfirmed(child, sv.HomAndHet),
	}

	t.logger.Debug("parental hom calls confirmed in child",
		zap.String("father", father.Name),
		zap.Int("father_total", res.Father.Total),
		zap.Int("father_confirmed", res.Father.Confirmed),
		zap.String("mother", mother.Name),
		zap.Int("mother_total", res.Mother.Total),
		zap.Int("mother_confirmed", res.Mother.Confirmed))

	return res
}
