package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inodb/sveval/internal/eval"
	"github.com/inodb/sveval/internal/vcf"
)

func (a *app) newSpecificCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "specific <tumor.vcf> <normal.vcf> <out.vcf>",
		Short: "Extract tumor calls with no nearby normal call of the same class",
		Args:  usageArgs(cobra.ExactArgs(3)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSpecific(args[0], args[1], args[2])
		},
	}

	f := cmd.Flags()
	f.Int64("distance", eval.DefaultSpecificDistance, "maximum distance of a supporting normal call")
	a.bind("specific.distance", f.Lookup("distance"))

	return cmd
}

func (a *app) runSpecific(tumorPath, normalPath, outPath string) error {
	tumor, err := vcf.NewParser(tumorPath)
	if err != nil {
		return err
	}
	defer tumor.Close()

	normal, err := vcf.NewParser(normalPath)
	if err != nil {
		return err
	}
	defer normal.Close()

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}

	s := eval.NewSpecific(a.v.GetInt64("specific.distance"))
	s.SetLogger(a.logger)
	stats, err := s.Extract(tumor, normal, out)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	a.logger.Info("tumor-specific calls",
		zap.String("output", outPath),
		zap.Int("records", stats.Records),
		zap.Int("specific", stats.Specific))
	return nil
}
