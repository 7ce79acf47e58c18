package eval

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/inodb/sveval/internal/match"
	"github.com/inodb/sveval/internal/metrics"
	"github.com/inodb/sveval/internal/sv"
)

// SomaticTypes are the grouped types reported by the somatic mode, in
// report order.
var SomaticTypes = []sv.Type{sv.TypeINDEL, sv.TypeINV, sv.TypeTRA}

// SomaticOptions are the tolerances of the somatic comparison.
type SomaticOptions struct {
	Point          match.Params
	BreakendOffset int64
	FPTolerance    int64
	// Workers bounds parallel loading of comparison files; 0 means NumCPU.
	Workers int
}

// DefaultSomaticOptions returns the standard somatic tolerances.
func DefaultSomaticOptions() SomaticOptions {
	return SomaticOptions{
		Point:          match.SomaticParams,
		BreakendOffset: match.SomaticBreakendOffset,
		FPTolerance:    match.SomaticFPTolerance,
	}
}

// TypeOutcome holds the matching detail of one SV type for one tool.
type TypeOutcome struct {
	Type           sv.Type
	Counts         metrics.Counts
	FalseNegatives []*sv.Record // base records no comparison record matched
	FalsePositives []*sv.Record // comparison records with no nearby base record
}

// ToolResult is the evaluation of one comparison callset against the base.
type ToolResult struct {
	Tool     string // Tool_<n>, numbered from 1 in argument order
	Path     string
	Outcomes []TypeOutcome
	Table    metrics.Table
}

// SomaticReport collects the per-tool results of one somatic run.
type SomaticReport struct {
	Base  string
	Tools []ToolResult
}

// SummaryRow is the result of one tool within a summary group.
type SummaryRow struct {
	Tool string
	metrics.Counts
}

// SummaryGroup is one "Summary of <TYPE>" block.
type SummaryGroup struct {
	Label string
	Rows  []SummaryRow
}

// Summary regroups the tool tables by SV type, followed by ALL.
func (r *SomaticReport) Summary() []SummaryGroup {
	labels := make([]string, 0, len(SomaticTypes)+1)
	for _, t := range SomaticTypes {
		labels = append(labels, string(t))
	}
	labels = append(labels, metrics.AllLabel)

	groups := make([]SummaryGroup, 0, len(labels))
	for _, label := range labels {
		g := SummaryGroup{Label: label}
		for i := range r.Tools {
			tool := &r.Tools[i]
			c := tool.Table.Total()
			if label != metrics.AllLabel {
				c, _ = tool.Table.Get(label)
			}
			g.Rows = append(g.Rows, SummaryRow{Tool: tool.Tool, Counts: c})
		}
		groups = append(groups, g)
	}
	return groups
}

// Somatic benchmarks one or more tumor callsets against a truth callset.
type Somatic struct {
	opts   SomaticOptions
	logger *zap.Logger
}

// NewSomatic creates a somatic evaluator.
func NewSomatic(opts SomaticOptions) *Somatic {
	return &Somatic{
		opts:   opts,
		logger: zap.NewNop(),
	}
}

// SetLogger sets the logger.
func (s *Somatic) SetLogger(logger *zap.Logger) {
	s.logger = logger
}

// ToolName returns the report name of the i-th (0-based) comparison callset.
func ToolName(i int) string {
	return fmt.Sprintf("Tool_%d", i+1)
}

func (s *Somatic) predicate(t sv.Type) match.Predicate {
	if t.IsBreakend() {
		return match.Breakend(s.opts.BreakendOffset)
	}
	return match.Point(s.opts.Point)
}

// EvaluateTool compares comp against base for every somatic type. Base flags
// are cleared first, so base can be reused across tools.
func (s *Somatic) EvaluateTool(tool string, base, comp *sv.Callset) ToolResult {
	base.Reset()

	outcomes := make([]TypeOutcome, len(SomaticTypes))
	match.ForEachType(SomaticTypes, func(i int, t sv.Type) {
		baseRecs, compRecs := base.Records(t), comp.Records(t)

		res := match.Greedy(baseRecs, compRecs, s.predicate(t), nil)
		fps := match.FalsePositives(compRecs, baseRecs, s.opts.FPTolerance)

		outcomes[i] = TypeOutcome{
			Type:           t,
			Counts:         metrics.Counts{TP: res.Matched, FP: len(fps), FN: len(res.Unmatched)},
			FalseNegatives: res.Unmatched,
			FalsePositives: fps,
		}
	})

	tr := ToolResult{Tool: tool, Path: comp.Name, Outcomes: outcomes}
	for _, o := range outcomes {
		tr.Table.Set(string(o.Type), o.Counts)
	}

	total := tr.Table.Total()
	s.logger.Debug("evaluated tool",
		zap.String("tool", tool),
		zap.String("callset", comp.Name),
		zap.Int("tp", total.TP),
		zap.Int("fp", total.FP),
		zap.Int("fn", total.FN))
	return tr
}

// Run loads the base and comparison files from src and evaluates each
// comparison file in argument order. Comparison files load in parallel.
func (s *Somatic) Run(src Source, basePath string, compPaths []string) (*SomaticReport, error) {
	base, err := src.Load(basePath)
	if err != nil {
		return nil, err
	}

	report := &SomaticReport{Base: basePath}
	results := ParallelLoad(src, compPaths, s.opts.Workers)
	err = OrderedCollect(results, func(r LoadResult) error {
		if r.Err != nil {
			return r.Err
		}
		tr := s.EvaluateTool(ToolName(r.Seq), base, r.Callset)
		tr.Path = r.Path
		report.Tools = append(report.Tools, tr)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}
