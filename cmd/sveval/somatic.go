package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inodb/sveval/internal/bed"
	"github.com/inodb/sveval/internal/duckdb"
	"github.com/inodb/sveval/internal/eval"
	"github.com/inodb/sveval/internal/match"
	"github.com/inodb/sveval/internal/output"
	"github.com/inodb/sveval/internal/vcf"
)

func (a *app) newSomaticCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "somatic <base.vcf> <comp.vcf> [comp.vcf...] [regions.bed]",
		Short: "Benchmark somatic SV callers against a truth callset",
		Long: `Evaluate one or more comparison callsets against a base callset by grouped
type (INDEL, INV, TRA). Only PASS records are used. When the last argument ends
in .bed, every VCF is first reduced to records overlapping those regions and the
filtered copies are written as <name>_filtered.vcf.`,
		Example: `  sveval somatic truth.vcf caller1.vcf caller2.vcf
  sveval somatic truth.vcf caller1.vcf regions.bed --xlsx summary.xlsx`,
		RunE: func(cmd *cobra.Command, args []string) error {
			bedPath, vcfs := splitBedArg(args)
			if len(vcfs) < 2 {
				_ = cmd.Usage()
				return &exitError{code: ExitError, err: errors.New("need a base VCF and at least one comparison VCF")}
			}
			return a.runSomatic(vcfs[0], vcfs[1:], bedPath)
		},
	}

	def := eval.DefaultSomaticOptions()
	f := cmd.Flags()
	f.Float64P("bias", "b", def.Point.Bias, "minimum length ratio of matching INDEL calls")
	f.Int64("point-offset", def.Point.Offset, "maximum position distance of matching INDEL calls")
	f.Int64("breakend-offset", def.BreakendOffset, "maximum distance of both breakpoints of matching INV/TRA calls")
	f.Int64("fp-tolerance", def.FPTolerance, "distance within which a base call excuses a comparison call")
	f.String("filtered-dir", ".", "directory for region-filtered VCF copies")
	f.String("xlsx", "", "also write the report as an xlsx workbook")
	a.bind("somatic.bias", f.Lookup("bias"))
	a.bind("somatic.point_offset", f.Lookup("point-offset"))
	a.bind("somatic.breakend_offset", f.Lookup("breakend-offset"))
	a.bind("somatic.fp_tolerance", f.Lookup("fp-tolerance"))
	a.bind("somatic.filtered_dir", f.Lookup("filtered-dir"))
	a.bind("somatic.xlsx", f.Lookup("xlsx"))

	return cmd
}

// splitBedArg separates a trailing .bed argument from the VCF arguments.
func splitBedArg(args []string) (string, []string) {
	if n := len(args); n > 0 && strings.HasSuffix(args[n-1], ".bed") {
		return args[n-1], args[:n-1]
	}
	return "", args
}

func (a *app) somaticOptions() eval.SomaticOptions {
	return eval.SomaticOptions{
		Point: match.Params{
			Bias:   a.v.GetFloat64("somatic.bias"),
			Offset: a.v.GetInt64("somatic.point_offset"),
		},
		BreakendOffset: a.v.GetInt64("somatic.breakend_offset"),
		FPTolerance:    a.v.GetInt64("somatic.fp_tolerance"),
	}
}

// filterByRegions writes region-filtered copies of paths and returns their
// locations in the same order.
func (a *app) filterByRegions(bedPath string, paths []string) ([]string, error) {
	idx, err := bed.Load(bedPath)
	if err != nil {
		return nil, err
	}
	dir := a.v.GetString("somatic.filtered_dir")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create filtered directory: %w", err)
	}

	a.logger.Info("filtering VCFs by regions", zap.String("bed", bedPath), zap.Int("regions", idx.Len()))
	out := make([]string, len(paths))
	for i, p := range paths {
		filtered, stats, err := bed.FilterFile(p, dir, idx)
		if err != nil {
			return nil, err
		}
		a.logger.Debug("filtered vcf",
			zap.String("input", p),
			zap.String("output", filtered),
			zap.Int("records", stats.Records),
			zap.Int("kept", stats.Kept))
		out[i] = filtered
	}
	return out, nil
}

func (a *app) runSomatic(basePath string, compPaths []string, bedPath string) error {
	if bedPath != "" {
		filtered, err := a.filterByRegions(bedPath, append([]string{basePath}, compPaths...))
		if err != nil {
			return err
		}
		basePath, compPaths = filtered[0], filtered[1:]
	}

	src, err := a.source(vcf.LoadOptions{Scheme: vcf.SchemeGrouped, RequirePass: true})
	if err != nil {
		return err
	}

	opts := a.somaticOptions()
	s := eval.NewSomatic(opts)
	s.SetLogger(a.logger)
	report, err := s.Run(src, basePath, compPaths)
	if err != nil {
		return err
	}

	tw := output.NewTabWriter(a.stdout)
	for i := range report.Tools {
		if err := tw.WriteTool(&report.Tools[i]); err != nil {
			return err
		}
	}
	if err := tw.WriteSummary(report.Summary()); err != nil {
		return err
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if path := a.v.GetString("somatic.xlsx"); path != "" {
		if err := writeWorkbookFile(path, report); err != nil {
			return err
		}
		a.logger.Info("wrote workbook", zap.String("path", path))
	}

	return a.saveSomatic(opts, report, compPaths)
}

func writeWorkbookFile(path string, report *eval.SomaticReport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create workbook: %w", err)
	}
	err = output.WriteWorkbook(f, report)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

func (a *app) saveSomatic(opts eval.SomaticOptions, report *eval.SomaticReport, compPaths []string) error {
	s, err := a.results()
	if err != nil || s == nil {
		return err
	}

	params := fmt.Sprintf("bias=%g;point_offset=%d;breakend_offset=%d;fp_tolerance=%d",
		opts.Point.Bias, opts.Point.Offset, opts.BreakendOffset, opts.FPTolerance)
	run := duckdb.NewRun("somatic", params, append([]string{report.Base}, compPaths...)...)
	if err := s.WriteRun(run); err != nil {
		return err
	}

	for _, tr := range report.Tools {
		var rows []duckdb.MetricRow
		for _, r := range tr.Table.WithTotal() {
			rows = append(rows, duckdb.MetricRow{Tool: tr.Tool, SVType: r.Label, Counts: r.Counts})
		}
		if err := s.WriteMetrics(run.ID, rows); err != nil {
			return err
		}
		for _, o := range tr.Outcomes {
			if err := s.WriteDiscordant(run.ID, tr.Tool, "fn", o.FalseNegatives); err != nil {
				return err
			}
			if err := s.WriteDiscordant(run.ID, tr.Tool, "fp", o.FalsePositives); err != nil {
				return err
			}
		}
	}
	a.logger.Info("saved run", zap.String("run_id", run.ID), zap.String("db", s.Path()))
	return nil
}
