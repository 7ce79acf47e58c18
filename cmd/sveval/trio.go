package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/inodb/sveval/internal/duckdb"
	"github.com/inodb/sveval/internal/eval"
	"github.com/inodb/sveval/internal/match"
	"github.com/inodb/sveval/internal/vcf"
)

// offectAlias accepts the historical --offect spelling for --offset.
func offectAlias(f *pflag.FlagSet, name string) pflag.NormalizedName {
	if name == "offect" {
		name = "offset"
	}
	return pflag.NormalizedName(name)
}

func (a *app) newTrioCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trio <father.vcf> <mother.vcf> <child.vcf>",
		Short: "Check offspring SV calls for support in both parents",
		Long: `Compare an offspring callset against its parents. Parental hom calls are
checked against the child, and child hom/het calls are checked against each
parent. Child calls no parent supports are written to the de novo side file.`,
		Example: `  sveval trio father.vcf mother.vcf child.vcf
  sveval trio -b 0.5 -o 1000 --denovo denovo.bed father.vcf mother.vcf child.vcf`,
		Args: usageArgs(cobra.ExactArgs(3)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTrio(args[0], args[1], args[2])
		},
	}

	f := cmd.Flags()
	f.SetNormalizeFunc(offectAlias)
	f.Float64P("bias", "b", match.TrioParams.Bias, "minimum length ratio of matching calls")
	f.Int64P("offset", "o", match.TrioParams.Offset, "maximum breakpoint distance of matching calls")
	f.String("denovo", "denovo_sniffles.bed", "side file of unsupported child calls (empty to skip)")
	f.String("bed", "", "only evaluate calls with a breakpoint inside these regions")
	a.bind("trio.bias", f.Lookup("bias"))
	a.bind("trio.offset", f.Lookup("offset"))
	a.bind("trio.denovo", f.Lookup("denovo"))
	a.bind("trio.bed", f.Lookup("bed"))

	return cmd
}

func (a *app) runTrio(fatherPath, motherPath, childPath string) error {
	params := match.Params{
		Bias:   a.v.GetFloat64("trio.bias"),
		Offset: a.v.GetInt64("trio.offset"),
	}

	src, err := a.source(vcf.LoadOptions{Scheme: vcf.SchemeGenotyped})
	if err != nil {
		return err
	}
	a.logger.Info("loading callsets")
	callsets, err := loadAll(src, fatherPath, motherPath, childPath)
	if err != nil {
		return err
	}
	callsets, err = a.restrict(a.v.GetString("trio.bed"), callsets)
	if err != nil {
		return err
	}
	father, mother, child := callsets[0], callsets[1], callsets[2]

	a.logger.Info("evaluating")
	trio := eval.NewTrio(params)
	trio.SetLogger(a.logger)
	res := trio.Evaluate(child, father, mother)

	a.logConcordance("F1", res.Child)

	if err := a.writeDiscordant(a.v.GetString("trio.denovo"), res.Unconfirmed); err != nil {
		return err
	}

	run := duckdb.NewRun("trio", fmt.Sprintf("bias=%g;offset=%d", params.Bias, params.Offset),
		fatherPath, motherPath, childPath)
	return a.saveConcordance(run, child.Name, res.Child, res.Unconfirmed)
}
