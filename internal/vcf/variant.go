package vcf

import (
	"math"
	"strconv"
	"strings"

	"github.com/inodb/sveval/internal/sv"
)

// Variant is a single raw record line from a VCF file.
type Variant struct {
	Chrom   string   // Chromosome name (e.g., "12", "chr12")
	Pos     int64    // 1-based genomic position
	ID      string   // Variant identifier
	Ref     string   // Reference allele
	Alt     string   // Alternate allele, possibly breakend notation
	Filter  string   // Filter status (PASS or filter name)
	Info    string   // Raw INFO column
	Format  string   // FORMAT column, empty when absent
	Samples []string // Sample columns after FORMAT
	Line    string   // The raw line without line terminator
}

// InfoValue returns the value of the first INFO token whose key equals key,
// ignoring case. Flag tokens have an empty value.
func (v *Variant) InfoValue(key string) (string, bool) {
	if v.Info == "" || v.Info == "." {
		return "", false
	}
	for _, kv := range strings.Split(v.Info, ";") {
		k, val, _ := strings.Cut(kv, "=")
		if strings.EqualFold(k, key) {
			return val, true
		}
	}
	return "", false
}

// InfoInt returns the INFO value for key as an integer. Values such as "1e3",
// "-300.0" or "300,12" are accepted; the first list element is used.
func (v *Variant) InfoInt(key string) (int64, bool) {
	val, ok := v.InfoValue(key)
	if !ok {
		return 0, false
	}
	return parseNumber(val)
}

// Zygosity returns the genotype state of the first sample.
func (v *Variant) Zygosity() sv.Zygosity {
	if len(v.Samples) == 0 {
		return sv.Unknown
	}
	return sv.ParseZygosity(v.Samples[0])
}

// HasBrackets reports whether ALT or INFO use breakend bracket notation.
func (v *Variant) HasBrackets() bool {
	return strings.ContainsAny(v.Alt, "[]") || strings.ContainsAny(v.Info, "[]")
}

// IsPass reports whether the FILTER column is PASS.
func (v *Variant) IsPass() bool {
	return v.Filter == "PASS"
}

// trimChr strips a leading "chr" from names longer than the prefix.
func trimChr(chrom string) string {
	if len(chrom) > 3 && chrom[:3] == "chr" {
		return chrom[3:]
	}
	return chrom
}

func parseNumber(s string) (int64, bool) {
	s, _, _ = strings.Cut(s, ",")
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int64(f), true
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
