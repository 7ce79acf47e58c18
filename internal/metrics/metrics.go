// Package metrics aggregates match outcomes into confusion-matrix rates and
// genotype concordance figures.
package metrics

import (
	"github.com/samber/lo"

	"github.com/inodb/sveval/internal/sv"
)

// AllLabel is the row label of the cross-type totals.
const AllLabel = "ALL"

// Counts is a TP/FP/FN tally.
type Counts struct {
	TP int
	FP int
	FN int
}

// Add returns the element-wise sum of c and o.
func (c Counts) Add(o Counts) Counts {
	return Counts{TP: c.TP + o.TP, FP: c.FP + o.FP, FN: c.FN + o.FN}
}

// Precision is TP/(TP+FP), 0 when nothing was called.
func (c Counts) Precision() float64 {
	return ratio(c.TP, c.TP+c.FP)
}

// Recall is TP/(TP+FN), 0 when the truth set is empty.
func (c Counts) Recall() float64 {
	return ratio(c.TP, c.TP+c.FN)
}

// F1 is the harmonic mean of precision and recall.
func (c Counts) F1() float64 {
	p, r := c.Precision(), c.Recall()
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// Row is one labelled line of a metric table.
type Row struct {
	Label string
	Counts
}

// Table holds per-type counts in insertion order.
type Table struct {
	rows []Row
}

// Set records the counts of one type, replacing an earlier entry.
func (t *Table) Set(label string, c Counts) {
	for i := range t.rows {
		if t.rows[i].Label == label {
			t.rows[i].Counts = c
			return
		}
	}
	t.rows = append(t.rows, Row{Label: label, Counts: c})
}

// Get returns the counts stored for label.
func (t *Table) Get(label string) (Counts, bool) {
	r, ok := lo.Find(t.rows, func(r Row) bool { return r.Label == label })
	return r.Counts, ok
}

// Rows returns the per-type rows without the total.
func (t *Table) Rows() []Row {
	return t.rows
}

// Total sums the counts of all rows.
func (t *Table) Total() Counts {
	return lo.Reduce(t.rows, func(acc Counts, r Row, _ int) Counts {
		return acc.Add(r.Counts)
	}, Counts{})
}

// WithTotal returns the per-type rows followed by the ALL row.
func (t *Table) WithTotal() []Row {
	rows := make([]Row, 0, len(t.rows)+1)
	rows = append(rows, t.rows...)
	return append(rows, Row{Label: AllLabel, Counts: t.Total()})
}

// Concordance summarizes how many records of one callset were confirmed.
type Concordance struct {
	Total       int
	Confirmed   int
	Unconfirmed int
	// Rate is the unconfirmed percentage, 0 when Total is 0.
	Rate float64
}

// NewConcordance builds a concordance from its total and confirmed counts.
func NewConcordance(total, confirmed int) Concordance {
	c := Concordance{Total: total, Confirmed: confirmed, Unconfirmed: total - confirmed}
	if total > 0 {
		c.Rate = 100 * float64(c.Unconfirmed) / float64(total)
	}
	return c
}

// Add combines two concordances and recomputes the rate.
func (c Concordance) Add(o Concordance) Concordance {
	return NewConcordance(c.Total+o.Total, c.Confirmed+o.Confirmed)
}

// Concordant counts the records in gts and how many of them are matched.
func Concordant(records []*sv.Record, gts sv.Genotypes) Concordance {
	in := lo.Filter(records, func(r *sv.Record, _ int) bool { return gts.Contains(r.Zygosity) })
	return NewConcordance(len(in), lo.CountBy(in, func(r *sv.Record) bool { return r.Matched }))
}

// Jaccard returns intersection/union. The intersection counts matched
// records in gts on both sides; the union is len(a) + len(b) minus the
// intersection. It is 0 when the union is empty.
func Jaccard(a, b []*sv.Record, gts sv.Genotypes) float64 {
	inter := Concordant(a, gts).Confirmed + Concordant(b, gts).Confirmed
	return ratio(inter, len(a)+len(b)-inter)
}
