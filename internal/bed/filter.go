package bed

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/inodb/sveval/internal/sv"
	"github.com/inodb/sveval/internal/vcf"
)

// FilterStats counts the records seen and kept by FilterVCF.
type FilterStats struct {
	Records int
	Kept    int
}

// FilterVCF copies header lines from r to w and keeps only the records whose
// span intersects a region of idx. The span runs from POS to END, or to
// POS+|SVLEN| when END is absent, or is the single base POS. Lines without a
// parseable position are dropped.
func FilterVCF(r io.Reader, w io.Writer, idx *Index) (FilterStats, error) {
	var stats FilterStats
	bw := bufio.NewWriter(w)

	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if err != nil && err != io.EOF {
			return stats, fmt.Errorf("read vcf line: %w", err)
		}
		if line == "" {
			break
		}

		if strings.HasPrefix(line, "#") {
			if _, werr := bw.WriteString(line); werr != nil {
				return stats, werr
			}
		} else if strings.TrimSpace(line) != "" {
			stats.Records++
			if keepLine(line, idx) {
				stats.Kept++
				if _, werr := bw.WriteString(line); werr != nil {
					return stats, werr
				}
			}
		}

		if err == io.EOF {
			break
		}
	}

	return stats, bw.Flush()
}

func keepLine(line string, idx *Index) bool {
	fields := strings.Split(strings.TrimRight(line, "\r\n"), "\t")
	if len(fields) < 8 {
		return false
	}
	pos, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return false
	}

	v := &vcf.Variant{Chrom: fields[0], Pos: pos, Info: fields[7]}
	end := pos
	if n, ok := v.InfoInt("END"); ok {
		end = n
	} else if n, ok := v.InfoInt("SVLEN"); ok {
		if n < 0 {
			n = -n
		}
		end = pos + n
	}

	return idx.Overlaps(v.Chrom, pos, end)
}

// FilteredName returns the file name FilterFile writes for a VCF path:
// the base name with its .vcf (or .vcf.gz) suffix replaced by _filtered.vcf.
func FilteredName(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, ".gz")
	base = strings.TrimSuffix(base, ".vcf")
	return base + "_filtered.vcf"
}

// FilterFile writes the region-filtered copy of the VCF at path into dir and
// returns the path of the new file.
func FilterFile(path, dir string, idx *Index) (string, FilterStats, error) {
	in, err := vcf.Open(path)
	if err != nil {
		return "", FilterStats{}, err
	}
	defer in.Close()

	outPath := filepath.Join(dir, FilteredName(path))
	out, err := os.Create(outPath)
	if err != nil {
		return "", FilterStats{}, fmt.Errorf("create filtered vcf: %w", err)
	}

	stats, err := FilterVCF(in, out, idx)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", stats, fmt.Errorf("filter %s: %w", path, err)
	}
	return outPath, stats, nil
}

// Restrict returns a new callset holding copies of the records of cs whose
// start or end falls inside a region.
func Restrict(cs *sv.Callset, idx *Index) *sv.Callset {
	out := sv.NewCallset(cs.Name)
	for _, t := range cs.Types() {
		for _, r := range cs.Records(t) {
			end := r.End
			if end == 0 || (r.Type.IsBreakend() && r.PartnerChrom != r.Chrom) {
				end = r.Pos
			}
			if idx.InBed(r.Chrom, r.Pos, end) {
				c := *r
				out.Add(&c)
			}
		}
	}
	return out
}
