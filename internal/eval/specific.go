package eval

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/inodb/sveval/internal/vcf"
)

// DefaultSpecificDistance is the normal-support window of Specific.
const DefaultSpecificDistance = 1000

// specificClasses is checked in order against the upper-cased line. DUP, INV
// and FOLDBACK match anywhere in the line, so flags such as INV3 count.
var specificClasses = []struct {
	class   string
	markers []string
}{
	{"INS", []string{"SVTYPE=INS", "EVENTTYPE=INS", "DETAILED_TYPE=INS"}},
	{"DEL", []string{"SVTYPE=DEL", "EVENTTYPE=DEL", "DETAILED_TYPE=DEL"}},
	{"DUP", []string{"DUP"}},
	{"INV", []string{"INV", "FOLDBACK"}},
}

// SpecificClass buckets a record for tumor-specific extraction as INS, DEL,
// DUP or INV; anything else, untyped records included, is TRA.
func SpecificClass(v *vcf.Variant) string {
	line := strings.ToUpper(v.Line)
	for _, c := range specificClasses {
		for _, m := range c.markers {
			if strings.Contains(line, m) {
				return c.class
			}
		}
	}
	return "TRA"
}

// SpecificStats counts the tumor records read and written by Specific.
type SpecificStats struct {
	Records  int
	Specific int
}

// Specific extracts tumor records without normal support.
type Specific struct {
	distance int64
	logger   *zap.Logger
}

// NewSpecific creates an extractor with the given support window.
func NewSpecific(distance int64) *Specific {
	return &Specific{
		distance: distance,
		logger:   zap.NewNop(),
	}
}

// SetLogger sets the logger.
func (s *Specific) SetLogger(logger *zap.Logger) {
	s.logger = logger
}

type classKey struct {
	chrom string
	class string
}

// indexNormal collects normal record positions by chromosome and class.
func indexNormal(normal vcf.VariantParser) (map[classKey][]int64, error) {
	idx := make(map[classKey][]int64)
	for {
		v, err := normal.Next()
		if err != nil {
			var pe *vcf.ParseError
			if errors.As(err, &pe) {
				continue
			}
			return nil, err
		}
		if v == nil {
			return idx, nil
		}
		k := classKey{chrom: v.Chrom, class: SpecificClass(v)}
		idx[k] = append(idx[k], v.Pos)
	}
}

func (s *Specific) supported(idx map[classKey][]int64, v *vcf.Variant) bool {
	for _, p := range idx[classKey{chrom: v.Chrom, class: SpecificClass(v)}] {
		d := p - v.Pos
		if d < 0 {
			d = -d
		}
		if d <= s.distance {
			return true
		}
	}
	return false
}

// Extract writes the tumor header lines followed by every tumor record with
// no normal record of the same class on the same chromosome within the
// support window. Malformed lines of either input are skipped.
func (s *Specific) Extract(tumor, normal vcf.VariantParser, w io.Writer) (SpecificStats, error) {
	var stats SpecificStats

	idx, err := indexNormal(normal)
	if err != nil {
		return stats, fmt.Errorf("index normal callset: %w", err)
	}

	bw := bufio.NewWriter(w)
	written := 0
	flushHeader := func() error {
		header := tumor.Header()
		for ; written < len(header); written++ {
			if _, err := bw.WriteString(header[written] + "\n"); err != nil {
				return err
			}
		}
		return nil
	}

	for {
		v, err := tumor.Next()
		if err != nil {
			var pe *vcf.ParseError
			if errors.As(err, &pe) {
				continue
			}
			return stats, fmt.Errorf("read tumor callset: %w", err)
		}
		if err := flushHeader(); err != nil {
			return stats, err
		}
		if v == nil {
			break
		}

		stats.Records++
		if s.supported(idx, v) {
			continue
		}
		stats.Specific++
		if _, err := bw.WriteString(v.Line + "\n"); err != nil {
			return stats, err
		}
	}

	s.logger.Debug("extracted tumor-specific records",
		zap.Int("records", stats.Records),
		zap.Int("specific", stats.Specific))
	return stats, bw.Flush()
}
