package bed

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/sveval/internal/sv"
)

const testBed = `# regions of interest
track name=roi
browser position chr1:1-1000
chr1	5000	6000	geneB
chr1	1000	2000	geneA
chr1	1500	1600
chr2	100	200
chr2	x	300
short
`

func readIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := Read(strings.NewReader(testBed))
	require.NoError(t, err)
	return idx
}

func TestRead_SortsAndSkips(t *testing.T) {
	idx := readIndex(t)

	assert.Equal(t, 4, idx.Len())
	assert.Equal(t, []string{"chr1", "chr2"}, idx.Chromosomes())
	assert.Equal(t, []Interval{{1000, 2000}, {1500, 1600}, {5000, 6000}}, idx.Regions("chr1"))
	assert.Empty(t, idx.Regions("chr3"))
}

func TestNew_StableOnEqualStarts(t *testing.T) {
	idx := New(map[string][]Interval{
		"1": {{10, 30}, {5, 6}, {10, 20}},
	})
	assert.Equal(t, []Interval{{5, 6}, {10, 30}, {10, 20}}, idx.Regions("1"))
}

func TestOverlaps(t *testing.T) {
	idx := readIndex(t)

	tests := []struct {
		name     string
		chrom    string
		pos, end int64
		want     bool
	}{
		{"inside", "chr1", 1100, 1200, true},
		{"spans region", "chr1", 900, 2100, true},
		{"touches start", "chr1", 900, 1000, true},
		{"touches end", "chr1", 2000, 2500, true},
		{"gap between regions", "chr1", 2001, 4999, false},
		{"before all", "chr1", 1, 999, false},
		{"after all", "chr1", 6001, 7000, false},
		{"long region reaches past later start", "chr1", 1700, 1800, true},
		{"unknown chromosome", "chrX", 1000, 2000, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, idx.Overlaps(tt.chrom, tt.pos, tt.end))
		})
	}
}

func TestInBed(t *testing.T) {
	idx := readIndex(t)

	assert.True(t, idx.InBed("chr1", 1100, 3000), "start inside")
	assert.True(t, idx.InBed("chr1", 500, 1000), "end on region start")
	assert.True(t, idx.InBed("chr1", 5500, 9000), "start in later region")
	assert.False(t, idx.InBed("chr1", 900, 2100), "region strictly inside span")
	assert.False(t, idx.InBed("chr1", 100, 999), "stops before first region")
	assert.False(t, idx.InBed("chr2", 201, 300))
	assert.False(t, idx.InBed("chr9", 100, 200))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.bed"))
	assert.Error(t, err)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roi.bed")
	require.NoError(t, os.WriteFile(path, []byte(testBed), 0644))

	idx, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, idx.Len())
}

func TestRestrict(t *testing.T) {
	idx := readIndex(t)

	cs := sv.NewCallset("x")
	cs.Add(&sv.Record{Chrom: "chr1", Pos: 1100, End: 1300, Length: 200, Type: sv.TypeDEL})
	cs.Add(&sv.Record{Chrom: "chr1", Pos: 3000, End: 3400, Length: 400, Type: sv.TypeDEL, Matched: true})
	cs.Add(&sv.Record{Chrom: "chr2", Pos: 150, Length: 80, Type: sv.TypeINS})
	cs.Add(&sv.Record{Chrom: "chr1", Pos: 5100, End: 100, Type: sv.TypeTRA, PartnerChrom: "chr2"})

	out := Restrict(cs, idx)
	assert.Equal(t, 3, out.Len())
	assert.Len(t, out.Records(sv.TypeDEL), 1)
	assert.Len(t, out.Records(sv.TypeTRA), 1)

	// Restricted records are copies.
	out.Records(sv.TypeDEL)[0].Matched = true
	assert.False(t, cs.Records(sv.TypeDEL)[0].Matched)
}
