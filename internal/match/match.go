// Package match implements the type-specific greedy matching of SV records
// between two callsets.
//
// Matching is first-match, not an optimal assignment: each subject record
// scans the reference records of its type in file order and stops at the
// first one satisfying the predicate. Reference records are never consumed,
// so one reference record may confirm several subject records.
package match

import (
	"github.com/exascience/pargo/parallel"

	"github.com/inodb/sveval/internal/sv"
)

// Params are the tolerances of a size-aware match.
type Params struct {
	// Offset is the maximum positional distance, inclusive.
	Offset int64
	// Bias is the minimum min(len)/max(len) ratio, inclusive.
	Bias float64
}

// Default parameters per comparison mode.
var (
	TrioParams      = Params{Offset: 1000, Bias: 0.5}
	ReplicateParams = Params{Offset: 500, Bias: 0.7}
	SomaticParams   = Params{Offset: 500, Bias: 0.7}
)

// Fixed tolerances of the somatic comparison.
const (
	SomaticBreakendOffset = 1000
	SomaticFPTolerance    = 500
)

// Predicate reports whether record a is confirmed by record b.
// Every predicate requires a.Chrom == b.Chrom.
type Predicate func(a, b *sv.Record) bool

// LengthRatio returns min(a,b)/max(a,b), or 0 when the larger length is 0.
func LengthRatio(a, b int64) float64 {
	lo, hi := a, b
	if lo > hi {
		lo, hi = hi, lo
	}
	if hi <= 0 {
		return 0
	}
	return float64(lo) / float64(hi)
}

func within(a, b, offset int64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= offset
}

// Insertion matches records on the same chromosome whose positions are within
// p.Offset and whose lengths have a ratio of at least p.Bias.
func Insertion(p Params) Predicate {
	return func(a, b *sv.Record) bool {
		return a.Chrom == b.Chrom &&
			within(a.Pos, b.Pos, p.Offset) &&
			LengthRatio(a.Length, b.Length) >= p.Bias
	}
}

// Deletion matches records on the same chromosome whose spans overlap once a's
// span is widened by p.Offset on both sides, and whose lengths have a ratio of
// at least p.Bias.
func Deletion(p Params) Predicate {
	return func(a, b *sv.Record) bool {
		if a.Chrom != b.Chrom {
			return false
		}
		return max(a.Pos-p.Offset, b.Pos) <= min(a.End+p.Offset, b.End) &&
			LengthRatio(a.Length, b.Length) >= p.Bias
	}
}

// Point is the size-aware point predicate of grouped INDEL records. It has the
// same shape as Insertion.
func Point(p Params) Predicate {
	return Insertion(p)
}

// Breakend matches records with identical (chrom, partner) pairs whose two
// breakpoints are each within offset. A swapped pair never matches.
func Breakend(offset int64) Predicate {
	return func(a, b *sv.Record) bool {
		return a.Chrom == b.Chrom &&
			a.PartnerChrom == b.PartnerChrom &&
			within(a.Pos, b.Pos, offset) &&
			within(a.End, b.End, offset)
	}
}

// ForType returns the genotyped-mode predicate of t: Insertion for INS and
// Deletion for every other type.
func ForType(t sv.Type, p Params) Predicate {
	if t == sv.TypeINS {
		return Insertion(p)
	}
	return Deletion(p)
}

// Result summarizes one Greedy pass.
type Result struct {
	// Considered counts subject records whose zygosity was accepted.
	Considered int
	// Matched counts considered records confirmed during this pass.
	Matched int
	// Unmatched lists considered records not confirmed during this pass,
	// in file order.
	Unmatched []*sv.Record
}

// Greedy marks every subject record whose zygosity is in gts and that is
// confirmed by some reference record. A nil gts accepts every zygosity.
// Flags already set by an earlier pass are kept.
func Greedy(subject, reference []*sv.Record, pred Predicate, gts sv.Genotypes) Result {
	var res Result

	// Reference records bucketed by chromosome keep file order, so the scan
	// visits candidates in the same order as a full scan would.
	byChrom := make(map[string][]*sv.Record)
	for _, r := range reference {
		byChrom[r.Chrom] = append(byChrom[r.Chrom], r)
	}

	for _, a := range subject {
		if !gts.Contains(a.Zygosity) {
			continue
		}
		res.Considered++

		found := false
		for _, b := range byChrom[a.Chrom] {
			if pred(a, b) {
				found = true
				break
			}
		}
		if found {
			a.Matched = true
			res.Matched++
		} else {
			res.Unmatched = append(res.Unmatched, a)
		}
	}

	return res
}

// FalsePositives returns the comparison records that have no base record on
// the same chromosome within tolerance of their position. This proximity test
// ignores types' size and partner rules and the Matched flags.
func FalsePositives(comp, base []*sv.Record, tolerance int64) []*sv.Record {
	byChrom := make(map[string][]*sv.Record)
	for _, b := range base {
		byChrom[b.Chrom] = append(byChrom[b.Chrom], b)
	}

	var fps []*sv.Record
	for _, c := range comp {
		near := false
		for _, b := range byChrom[c.Chrom] {
			if within(c.Pos, b.Pos, tolerance) {
				near = true
				break
			}
		}
		if !near {
			fps = append(fps, c)
		}
	}
	return fps
}

// ForEachType calls fn once per type with its index in types, running types
// concurrently. Records of different types never alias, so fn may mutate the
// flags of its own type.
func ForEachType(types []sv.Type, fn func(int, sv.Type)) {
	if len(types) == 0 {
		return
	}
	parallel.Range(0, len(types), len(types), func(low, high int) {
		for i := low; i < high; i++ {
			fn(i, types[i])
		}
	})
}
