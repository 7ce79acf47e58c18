// Package bed provides a per-chromosome region index built from BED files
// and the region filters used to restrict SV callsets.
package bed

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	psort "github.com/exascience/pargo/sort"

	"github.com/inodb/sveval/internal/vcf"
)

// Interval is a region with inclusive bounds as compared by the filters.
type Interval struct {
	Start, End int64
}

type stableIntervalSorter []Interval

func (s stableIntervalSorter) SequentialSort(i, j int) {
	part := s[i:j]
	sort.SliceStable(part, func(a, b int) bool {
		return part[a].Start < part[b].Start
	})
}

func (s stableIntervalSorter) NewTemp() psort.StableSorter {
	return stableIntervalSorter(make([]Interval, len(s)))
}

func (s stableIntervalSorter) Len() int {
	return len(s)
}

func (s stableIntervalSorter) Less(i, j int) bool {
	return s[i].Start < s[j].Start
}

func (s stableIntervalSorter) Assign(source psort.StableSorter) func(i, j, len int) {
	dst, src := s, source.(stableIntervalSorter)
	return func(i, j, len int) {
		copy(dst[i:i+len], src[j:j+len])
	}
}

// Index maps chromosome names onto regions sorted by start.
// It is read-only once built.
type Index struct {
	regions map[string][]Interval
	// maxEnd[c][i] is the largest End among regions[c][0..i].
	maxEnd map[string][]int64
}

// Load parses a plain or gzipped BED file into an index.
func Load(path string) (*Index, error) {
	rc, err := vcf.Open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	idx, err := Read(rc)
	if err != nil {
		return nil, fmt.Errorf("read bed %s: %w", path, err)
	}
	return idx, nil
}

// Read parses BED text. Comment, track, browser and blank lines are skipped,
// as are lines whose start or end is not an integer.
func Read(r io.Reader) (*Index, error) {
	regions := make(map[string][]Interval)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "#") ||
			strings.HasPrefix(line, "track") ||
			strings.HasPrefix(line, "browser") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		start, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			continue
		}
		end, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil {
			continue
		}
		regions[fields[0]] = append(regions[fields[0]], Interval{Start: start, End: end})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return New(regions), nil
}

// New builds an index from unsorted per-chromosome regions. The slices are
// sorted in place.
func New(regions map[string][]Interval) *Index {
	idx := &Index{
		regions: regions,
		maxEnd:  make(map[string][]int64, len(regions)),
	}
	for chrom, rs := range regions {
		psort.StableSort(stableIntervalSorter(rs))

		maxEnd := make([]int64, len(rs))
		for i, r := range rs {
			maxEnd[i] = r.End
			if i > 0 && maxEnd[i-1] > maxEnd[i] {
				maxEnd[i] = maxEnd[i-1]
			}
		}
		idx.maxEnd[chrom] = maxEnd
	}
	return idx
}

// Regions returns the sorted regions of a chromosome.
func (idx *Index) Regions(chrom string) []Interval {
	return idx.regions[chrom]
}

// Chromosomes returns the indexed chromosome names in sorted order.
func (idx *Index) Chromosomes() []string {
	chroms := make([]string, 0, len(idx.regions))
	for c := range idx.regions {
		chroms = append(chroms, c)
	}
	sort.Strings(chroms)
	return chroms
}

// Len returns the total number of regions.
func (idx *Index) Len() int {
	n := 0
	for _, rs := range idx.regions {
		n += len(rs)
	}
	return n
}

// Overlaps reports whether the span [pos, end] intersects any region on the
// same chromosome, i.e. !(end < region.Start || pos > region.End).
func (idx *Index) Overlaps(chrom string, pos, end int64) bool {
	rs := idx.regions[chrom]
	// Candidates are the regions starting at or before end.
	hi := sort.Search(len(rs), func(i int) bool {
		return rs[i].Start > end
	})
	if hi == 0 {
		return false
	}
	return idx.maxEnd[chrom][hi-1] >= pos
}

// InBed reports whether start or end falls inside a region of chrom.
// The scan stops at the first region starting after end.
func (idx *Index) InBed(chrom string, start, end int64) bool {
	for _, r := range idx.regions[chrom] {
		if end < r.Start {
			break
		}
		if (r.Start <= start && start <= r.End) || (r.Start <= end && end <= r.End) {
			return true
		}
	}
	return false
}
