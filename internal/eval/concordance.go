package eval

import (
	"github.com/samber/lo"

	"github.com/inodb/sveval/internal/match"
	"github.com/inodb/sveval/internal/metrics"
	"github.com/inodb/sveval/internal/sv"
)

// GenotypedTypes are the SV types the trio and replicate modes report.
var GenotypedTypes = []sv.Type{sv.TypeDEL, sv.TypeINS}

// ConcordanceRow is the concordance of one SV type, or of ALL.
type ConcordanceRow struct {
	Label string
	metrics.Concordance
}

// concordanceRows reports cs per genotyped type followed by the ALL row.
func concordanceRows(cs *sv.Callset, gts sv.Genotypes) []ConcordanceRow {
	rows := make([]ConcordanceRow, 0, len(GenotypedTypes)+1)
	var all metrics.Concordance
	for _, t := range GenotypedTypes {
		c := metrics.Concordant(cs.Records(t), gts)
		rows = append(rows, ConcordanceRow{Label: string(t), Concordance: c})
		all = all.Add(c)
	}
	return append(rows, ConcordanceRow{Label: metrics.AllLabel, Concordance: all})
}

// unconfirmed lists the records of cs in gts that are not matched, types in
// first-seen order.
func unconfirmed(cs *sv.Callset, gts sv.Genotypes) []*sv.Record {
	return lo.Filter(cs.All(), func(r *sv.Record, _ int) bool {
		return gts.Contains(r.Zygosity) && !r.Matched
	})
}

// pass is one directed Greedy comparison within a type.
type pass struct {
	subject, reference *sv.Callset
	gts                sv.Genotypes
}

// runPasses runs the passes for every genotyped type. Types run
// concurrently; passes within a type run in order since several of them may
// flag the same callset.
func runPasses(params match.Params, passes []pass) {
	match.ForEachType(GenotypedTypes, func(_ int, t sv.Type) {
		pred := match.ForType(t, params)
		for _, p := range passes {
			match.Greedy(p.subject.Records(t), p.reference.Records(t), pred, p.gts)
		}
	})
}
