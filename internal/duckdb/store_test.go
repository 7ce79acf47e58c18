package duckdb

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/sveval/internal/metrics"
	"github.com/inodb/sveval/internal/sv"
	"github.com/inodb/sveval/internal/vcf"
)

func openInMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// --- Result store tests ---

func TestOpenClose(t *testing.T) {
	s := openInMemory(t)
	assert.NotNil(t, s.DB())
	assert.Empty(t, s.Path())
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "results.duckdb")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestWriteAndReadRuns(t *testing.T) {
	s := openInMemory(t)

	run := NewRun("somatic", "point_offset=500", "base.vcf", "a.vcf")
	assert.Len(t, run.ID, 36)
	require.NoError(t, s.WriteRun(run))

	runs, err := s.Runs()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)
	assert.Equal(t, "somatic", runs[0].Mode)
	assert.Equal(t, []string{"base.vcf", "a.vcf"}, runs[0].Inputs)
	assert.Equal(t, "point_offset=500", runs[0].Params)

	other := NewRun("trio", "")
	assert.NotEqual(t, run.ID, other.ID)
}

func TestWriteAndReadMetrics(t *testing.T) {
	s := openInMemory(t)
	run := NewRun("somatic", "")
	require.NoError(t, s.WriteRun(run))

	rows := []MetricRow{
		{Tool: "Tool_1", SVType: "INDEL", Counts: metrics.Counts{TP: 3, FP: 1, FN: 2}},
		{Tool: "Tool_1", SVType: "ALL", Counts: metrics.Counts{TP: 3, FP: 1, FN: 2}},
	}
	require.NoError(t, s.WriteMetrics(run.ID, rows))
	require.NoError(t, s.WriteMetrics(run.ID, nil))

	got, err := s.RunMetrics(run.ID)
	require.NoError(t, err)
	assert.Equal(t, rows, got)

	none, err := s.RunMetrics("missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestWriteAndReadConcordance(t *testing.T) {
	s := openInMemory(t)

	rows := []ConcordanceRow{
		{Callset: "child.vcf", SVType: "DEL", Concordance: metrics.NewConcordance(4, 3)},
		{Callset: "child.vcf", SVType: "ALL", Concordance: metrics.NewConcordance(0, 0)},
	}
	require.NoError(t, s.WriteConcordance("run-1", rows))

	got, err := s.RunConcordance("run-1")
	require.NoError(t, err)
	assert.Equal(t, rows, got)
}

func TestWriteDiscordant(t *testing.T) {
	s := openInMemory(t)

	recs := []*sv.Record{
		{Chrom: "chr1", Pos: 100, End: 600, Length: 500, Type: sv.TypeINDEL},
		{Chrom: "chr1", Pos: 100, End: 900, Type: sv.TypeTRA, PartnerChrom: "chr5"},
	}
	require.NoError(t, s.WriteDiscordant("run-1", "Tool_1", "fn", recs))
	require.NoError(t, s.WriteDiscordant("run-1", "Tool_1", "fp", recs[:1]))

	n, err := s.CountDiscordant("run-1", "fn")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = s.CountDiscordant("run-1", "fp")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

// --- Callset cache tests ---

const cacheVCF = "##fileformat=VCFv4.2\n" +
	"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tS1\n" +
	"chr1\t1000\tv1\tN\t<DEL>\t.\tPASS\tSVTYPE=DEL;END=1500;SVLEN=-500\tGT\t0/1\n" +
	"chr2\t5000\tv2\tN\t<INS>\t.\tPASS\tSVTYPE=INS;SVLEN=120\tGT\t1/1\n" +
	"chr2\t7000\tv3\tN\t<INS>\t.\tPASS\tSVTYPE=INS;SVLEN=20\tGT\t1/1\n"

func writeVCF(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestCallsetCache_HitAndMiss(t *testing.T) {
	s := openInMemory(t)
	path := filepath.Join(t.TempDir(), "calls.vcf")
	writeVCF(t, path, cacheVCF)

	c := NewCallsetCache(s, vcf.NewLoader(vcf.LoadOptions{Scheme: vcf.SchemeGenotyped}))

	first, err := c.Load(path)
	require.NoError(t, err)
	second, err := c.Load(path)
	require.NoError(t, err)

	hits, misses := c.Stats()
	assert.Equal(t, 1, hits)
	assert.Equal(t, 1, misses)

	assert.Equal(t, "calls.vcf", second.Name)
	assert.Equal(t, first.Types(), second.Types())
	assert.Equal(t, first.All(), second.All())
	assert.Equal(t, 2, second.Len())
	assert.Equal(t, sv.Hom, second.Records(sv.TypeINS)[0].Zygosity)
}

func TestCallsetCache_StaleFile(t *testing.T) {
	s := openInMemory(t)
	path := filepath.Join(t.TempDir(), "calls.vcf")
	writeVCF(t, path, cacheVCF)

	c := NewCallsetCache(s, vcf.NewLoader(vcf.LoadOptions{Scheme: vcf.SchemeGenotyped}))
	_, err := c.Load(path)
	require.NoError(t, err)

	extra := "chr3\t100\tv4\tN\t<DEL>\t.\tPASS\tSVTYPE=DEL;END=400\tGT\t1/1\n"
	writeVCF(t, path, cacheVCF+extra)
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, later, later))

	cs, err := c.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cs.Len())

	hits, misses := c.Stats()
	assert.Zero(t, hits)
	assert.Equal(t, 2, misses)
}

func TestCallsetCache_OptionsAreSeparate(t *testing.T) {
	s := openInMemory(t)
	path := filepath.Join(t.TempDir(), "calls.vcf")
	writeVCF(t, path, cacheVCF)

	genotyped := NewCallsetCache(s, vcf.NewLoader(vcf.LoadOptions{Scheme: vcf.SchemeGenotyped}))
	grouped := NewCallsetCache(s, vcf.NewLoader(vcf.LoadOptions{Scheme: vcf.SchemeGrouped, RequirePass: true}))

	a, err := genotyped.Load(path)
	require.NoError(t, err)
	b, err := grouped.Load(path)
	require.NoError(t, err)

	assert.True(t, a.Has(sv.TypeDEL))
	assert.True(t, b.Has(sv.TypeINDEL))

	_, err = genotyped.Load(path)
	require.NoError(t, err)
	hits, _ := genotyped.Stats()
	assert.Equal(t, 1, hits)
}

func TestCallsetCache_Invalidate(t *testing.T) {
	s := openInMemory(t)
	path := filepath.Join(t.TempDir(), "calls.vcf")
	writeVCF(t, path, cacheVCF)

	c := NewCallsetCache(s, vcf.NewLoader(vcf.LoadOptions{Scheme: vcf.SchemeGenotyped}))
	_, err := c.Load(path)
	require.NoError(t, err)
	require.NoError(t, c.Invalidate(path))

	_, err = c.Load(path)
	require.NoError(t, err)
	hits, misses := c.Stats()
	assert.Zero(t, hits)
	assert.Equal(t, 2, misses)
}

func TestCallsetCache_MissingFile(t *testing.T) {
	s := openInMemory(t)
	c := NewCallsetCache(s, vcf.NewLoader(vcf.LoadOptions{}))
	_, err := c.Load(filepath.Join(t.TempDir(), "missing.vcf"))
	assert.Error(t, err)
}

func TestStatFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.vcf")
	writeVCF(t, path, "abc")

	fp, err := StatFile(path)
	require.NoError(t, err)
	assert.Equal(t, int64(3), fp.Size)
	assert.Equal(t, path, fp.Path)
}
