package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inodb/sveval/internal/duckdb"
	"github.com/inodb/sveval/internal/eval"
	"github.com/inodb/sveval/internal/match"
	"github.com/inodb/sveval/internal/vcf"
)

func (a *app) newReplicateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replicate <f1.vcf> <f2.vcf>",
		Short: "Measure reproducibility between two runs of one sample",
		Long: `Check the hom/het calls of the second replicate against the first and report
the unconfirmed fraction per SV type together with a Jaccard index. Calls with
an unknown genotype are dropped at load.`,
		Args: usageArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runReplicate(args[0], args[1])
		},
	}

	f := cmd.Flags()
	f.SetNormalizeFunc(offectAlias)
	f.Float64P("bias", "b", match.ReplicateParams.Bias, "minimum length ratio of matching calls")
	f.Int64P("offset", "o", match.ReplicateParams.Offset, "maximum breakpoint distance of matching calls")
	f.String("discordant", "", "side file of unconfirmed second-replicate calls")
	f.String("bed", "", "only evaluate calls with a breakpoint inside these regions")
	a.bind("replicate.bias", f.Lookup("bias"))
	a.bind("replicate.offset", f.Lookup("offset"))
	a.bind("replicate.discordant", f.Lookup("discordant"))
	a.bind("replicate.bed", f.Lookup("bed"))

	return cmd
}

func (a *app) runReplicate(f1Path, f2Path string) error {
	params := match.Params{
		Bias:   a.v.GetFloat64("replicate.bias"),
		Offset: a.v.GetInt64("replicate.offset"),
	}

	src, err := a.source(vcf.LoadOptions{Scheme: vcf.SchemeGenotyped, DropUnknownGenotype: true})
	if err != nil {
		return err
	}
	a.logger.Info("loading callsets")
	callsets, err := loadAll(src, f1Path, f2Path)
	if err != nil {
		return err
	}
	callsets, err = a.restrict(a.v.GetString("replicate.bed"), callsets)
	if err != nil {
		return err
	}
	f1, f2 := callsets[0], callsets[1]

	a.logger.Info("evaluating")
	rep := eval.NewReplicate(params)
	rep.SetLogger(a.logger)
	res := rep.Evaluate(f1, f2)

	a.logConcordance("F2", res.Rows)
	a.logger.Info("jaccard", zap.String("index", fmt.Sprintf("%.4f", res.Jaccard)))

	if err := a.writeDiscordant(a.v.GetString("replicate.discordant"), res.Unconfirmed); err != nil {
		return err
	}

	run := duckdb.NewRun("replicate", fmt.Sprintf("bias=%g;offset=%d", params.Bias, params.Offset),
		f1Path, f2Path)
	return a.saveConcordance(run, f2.Name, res.Rows, res.Unconfirmed)
}
