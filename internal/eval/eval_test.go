package eval

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/sveval/internal/match"
	"github.com/inodb/sveval/internal/metrics"
	"github.com/inodb/sveval/internal/sv"
	"github.com/inodb/sveval/internal/vcf"
)

func del(chrom string, pos, end int64, z sv.Zygosity) *sv.Record {
	return &sv.Record{Chrom: chrom, Pos: pos, End: end, Length: end - pos, Type: sv.TypeDEL, Zygosity: z}
}

func ins(chrom string, pos, length int64, z sv.Zygosity) *sv.Record {
	return &sv.Record{Chrom: chrom, Pos: pos, End: pos + length, Length: length, Type: sv.TypeINS, Zygosity: z}
}

func callset(name string, records ...*sv.Record) *sv.Callset {
	cs := sv.NewCallset(name)
	for _, r := range records {
		cs.Add(r)
	}
	return cs
}

func TestTrio_Evaluate(t *testing.T) {
	denovo := ins("chr3", 100, 80, sv.Het)
	child := callset("child",
		del("chr1", 1000, 1500, sv.Het),
		ins("chr2", 5000, 100, sv.Hom),
		denovo,
		del("chr4", 100, 900, sv.Unknown),
	)
	father := callset("father",
		del("chr1", 1010, 1510, sv.Hom),
		ins("chr2", 5000, 40, sv.Hom),
	)
	mother := callset("mother",
		ins("chr2", 5100, 90, sv.Het),
	)

	res := NewTrio(match.TrioParams).Evaluate(child, father, mother)

	require.Len(t, res.Child, 3)
	assert.Equal(t, ConcordanceRow{Label: "DEL", Concordance: metrics.NewConcordance(1, 1)}, res.Child[0])
	assert.Equal(t, ConcordanceRow{Label: "INS", Concordance: metrics.NewConcordance(2, 1)}, res.Child[1])
	assert.Equal(t, "ALL", res.Child[2].Label)
	assert.Equal(t, 3, res.Child[2].Total)
	assert.Equal(t, 1, res.Child[2].Unconfirmed)
	assert.InDelta(t, 33.33, res.Child[2].Rate, 0.01)

	assert.Equal(t, metrics.NewConcordance(2, 1), res.Father)
	assert.Equal(t, metrics.NewConcordance(0, 0), res.Mother)

	assert.Equal(t, []*sv.Record{denovo}, res.Unconfirmed)
}

func TestTrio_EvaluateResetsFlags(t *testing.T) {
	child := callset("child", ins("chr1", 100, 100, sv.Het))
	child.Records(sv.TypeINS)[0].Matched = true
	empty := sv.NewCallset("empty")

	res := NewTrio(match.TrioParams).Evaluate(child, empty, sv.NewCallset("empty2"))
	assert.Equal(t, 1, res.Child[2].Unconfirmed)
	assert.InDelta(t, 100.0, res.Child[2].Rate, 1e-9)
}

func TestReplicate_Evaluate(t *testing.T) {
	f1 := callset("f1",
		del("chr1", 1000, 1500, sv.Het),
		ins("chr2", 5000, 100, sv.Hom),
	)
	f2 := callset("f2",
		del("chr1", 1010, 1510, sv.Hom),
		ins("chr2", 5000, 40, sv.Het),
		ins("chr5", 100, 60, sv.Het),
	)

	res := NewReplicate(match.ReplicateParams).Evaluate(f1, f2)

	require.Len(t, res.Rows, 3)
	assert.Equal(t, metrics.NewConcordance(1, 1), res.Rows[0].Concordance)
	assert.Equal(t, metrics.NewConcordance(2, 0), res.Rows[1].Concordance)
	assert.Equal(t, metrics.NewConcordance(3, 1), res.Rows[2].Concordance)
	assert.InDelta(t, 0.25, res.Jaccard, 1e-9)

	require.Len(t, res.Unconfirmed, 2)
	assert.Equal(t, "chr2", res.Unconfirmed[0].Chrom)
	assert.Equal(t, "chr5", res.Unconfirmed[1].Chrom)

	assert.False(t, f1.Records(sv.TypeDEL)[0].Matched, "reference side is not flagged")
}

func indel(chrom string, pos, length int64) *sv.Record {
	return &sv.Record{Chrom: chrom, Pos: pos, End: pos + length, Length: length, Type: sv.TypeINDEL}
}

func breakend(typ sv.Type, chrom string, pos int64, partner string, end int64) *sv.Record {
	return &sv.Record{Chrom: chrom, Pos: pos, End: end, PartnerChrom: partner, Type: typ}
}

func somaticBase() *sv.Callset {
	return callset("base.vcf",
		indel("chr1", 1000, 500),
		indel("chr2", 5000, 100),
		breakend(sv.TypeTRA, "chr1", 5000, "chr5", 9000),
		breakend(sv.TypeINV, "chr3", 100, "chr3", 5000),
	)
}

func somaticComp() *sv.Callset {
	return callset("comp.vcf",
		indel("chr1", 1010, 500),
		indel("chr2", 5000, 40),
		breakend(sv.TypeTRA, "chr5", 5000, "chr1", 5000),
		indel("chr7", 100, 100),
	)
}

func TestSomatic_EvaluateTool(t *testing.T) {
	s := NewSomatic(DefaultSomaticOptions())
	tr := s.EvaluateTool("Tool_1", somaticBase(), somaticComp())

	require.Len(t, tr.Outcomes, 3)
	assert.Equal(t, sv.TypeINDEL, tr.Outcomes[0].Type)
	assert.Equal(t, metrics.Counts{TP: 1, FP: 1, FN: 1}, tr.Outcomes[0].Counts)
	assert.Equal(t, metrics.Counts{TP: 0, FP: 0, FN: 1}, tr.Outcomes[1].Counts)
	assert.Equal(t, metrics.Counts{TP: 0, FP: 1, FN: 1}, tr.Outcomes[2].Counts)

	assert.Equal(t, "chr7", tr.Outcomes[0].FalsePositives[0].Chrom)
	assert.Equal(t, "chr2", tr.Outcomes[0].FalseNegatives[0].Chrom)

	assert.Equal(t, metrics.Counts{TP: 1, FP: 2, FN: 3}, tr.Table.Total())
	assert.Len(t, tr.Table.Rows(), 3)
}

func TestSomatic_EmptyComparison(t *testing.T) {
	s := NewSomatic(DefaultSomaticOptions())
	tr := s.EvaluateTool("Tool_1", somaticBase(), sv.NewCallset("empty"))

	total := tr.Table.Total()
	assert.Equal(t, metrics.Counts{FN: 4}, total)
	assert.Zero(t, total.Precision())
	assert.Zero(t, total.Recall())
}

type mapSource map[string]func() *sv.Callset

func (m mapSource) Load(path string) (*sv.Callset, error) {
	build, ok := m[path]
	if !ok {
		return nil, errors.New("no such callset: " + path)
	}
	return build(), nil
}

func TestSomatic_Run(t *testing.T) {
	src := mapSource{
		"base.vcf": somaticBase,
		"a.vcf":    somaticComp,
		"b.vcf":    somaticBase,
	}

	report, err := NewSomatic(DefaultSomaticOptions()).Run(src, "base.vcf", []string{"a.vcf", "b.vcf"})
	require.NoError(t, err)
	require.Len(t, report.Tools, 2)
	assert.Equal(t, "Tool_1", report.Tools[0].Tool)
	assert.Equal(t, "a.vcf", report.Tools[0].Path)
	assert.Equal(t, "Tool_2", report.Tools[1].Tool)

	summary := report.Summary()
	require.Len(t, summary, 4)
	labels := []string{summary[0].Label, summary[1].Label, summary[2].Label, summary[3].Label}
	assert.Equal(t, []string{"INDEL", "INV", "TRA", "ALL"}, labels)

	assert.Equal(t, []SummaryRow{
		{Tool: "Tool_1", Counts: metrics.Counts{TP: 1, FP: 1, FN: 1}},
		{Tool: "Tool_2", Counts: metrics.Counts{TP: 2}},
	}, summary[0].Rows)
	assert.Equal(t, []SummaryRow{
		{Tool: "Tool_1", Counts: metrics.Counts{TP: 1, FP: 2, FN: 3}},
		{Tool: "Tool_2", Counts: metrics.Counts{TP: 4}},
	}, summary[3].Rows)
}

func TestSomatic_RunLoadError(t *testing.T) {
	src := mapSource{"base.vcf": somaticBase}

	_, err := NewSomatic(DefaultSomaticOptions()).Run(src, "base.vcf", []string{"missing.vcf"})
	assert.Error(t, err)

	_, err = NewSomatic(DefaultSomaticOptions()).Run(src, "nope.vcf", nil)
	assert.Error(t, err)
}

func TestParallelLoad_Order(t *testing.T) {
	src := mapSource{}
	var paths []string
	for i := range 20 {
		name := ToolName(i)
		src[name] = func() *sv.Callset { return sv.NewCallset(name) }
		paths = append(paths, name)
	}

	var got []string
	err := OrderedCollect(ParallelLoad(src, paths, 4), func(r LoadResult) error {
		require.NoError(t, r.Err)
		got = append(got, r.Callset.Name)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, paths, got)
}

func TestOrderedCollect_StopsOnError(t *testing.T) {
	src := mapSource{"a": func() *sv.Callset { return sv.NewCallset("a") }}

	calls := 0
	err := OrderedCollect(ParallelLoad(src, []string{"a", "b", "a"}, 2), func(r LoadResult) error {
		calls++
		return r.Err
	})
	assert.Error(t, err)
	assert.Equal(t, 2, calls)
}

const tumorVCF = "##fileformat=VCFv4.2\n" +
	"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\n" +
	"chr1\t1000\tt1\tN\t<DEL>\t.\tPASS\tSVTYPE=DEL;END=2000\n" +
	"chr1\t1000\tt2\tN\t<INS>\t.\tPASS\tSVTYPE=INS;SVLEN=300\n" +
	"chr2\t100\tt3\tN\tN[chr5:100[\t.\tPASS\tSVTYPE=BND\n" +
	"chr3\t100\tt4\tN\t<DUP>\t.\tPASS\tSVTYPE=DUP:TANDEM;END=900\n" +
	"chr3\tbad\tt5\tN\t<DEL>\t.\tPASS\tSVTYPE=DEL\n"

const normalVCF = "##fileformat=VCFv4.2\n" +
	"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\n" +
	"chr1\t1500\tn1\tN\t<DEL>\t.\tPASS\tSVTYPE=DEL;END=2500\n" +
	"chr2\t900\tn2\tN\tN]chr9:5]\t.\tPASS\tSVTYPE=BND\n" +
	"chr3\t2000\tn3\tN\t<DUP>\t.\tPASS\tSVTYPE=DUP;END=3000\n"

func TestSpecificClass(t *testing.T) {
	tests := []struct {
		info string
		want string
	}{
		{"SVTYPE=INS", "INS"},
		{"SVTYPE=DEL", "DEL"},
		{"SVTYPE=DUP:TANDEM", "DUP"},
		{"SVTYPE=FOLDBACK", "INV"},
		{"SVTYPE=BND", "TRA"},
		{".", "TRA"},
		{"SVTYPE=BND;INV3", "INV"},
		{"EVENTTYPE=INS;SVTYPE=DEL", "INS"},
		{"svtype=del", "DEL"},
	}
	for _, tt := range tests {
		t.Run(tt.info, func(t *testing.T) {
			v := &vcf.Variant{Chrom: "1", Pos: 1, Info: tt.info, Line: "1\t1\tx\tN\tN\t.\tPASS\t" + tt.info}
			assert.Equal(t, tt.want, SpecificClass(v))
		})
	}
}

func TestSpecificClass_UntaggedIsTRA(t *testing.T) {
	v := &vcf.Variant{Chrom: "1", Pos: 1, Alt: "<DEL>", Info: ".", Line: "1\t1\tx\tN\t<DEL>\t.\tPASS\t."}
	assert.Equal(t, "TRA", SpecificClass(v))
}

func TestSpecific_Extract(t *testing.T) {
	tumor := vcf.NewParserFromReader(strings.NewReader(tumorVCF))
	normal := vcf.NewParserFromReader(strings.NewReader(normalVCF))

	var out bytes.Buffer
	stats, err := NewSpecific(DefaultSpecificDistance).Extract(tumor, normal, &out)
	require.NoError(t, err)
	assert.Equal(t, SpecificStats{Records: 4, Specific: 2}, stats)

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "##fileformat=VCFv4.2", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "#CHROM"))
	assert.Contains(t, lines[2], "\tt2\t")
	assert.Contains(t, lines[3], "\tt4\t")
}

func TestSpecific_HeaderOnly(t *testing.T) {
	tumor := vcf.NewParserFromReader(strings.NewReader("##fileformat=VCFv4.2\n#CHROM\tPOS\n"))
	normal := vcf.NewParserFromReader(strings.NewReader(""))

	var out bytes.Buffer
	stats, err := NewSpecific(DefaultSpecificDistance).Extract(tumor, normal, &out)
	require.NoError(t, err)
	assert.Zero(t, stats.Records)
	assert.Equal(t, "##fileformat=VCFv4.2\n#CHROM\tPOS\n", out.String())
}
