package vcf

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/inodb/sveval/internal/sv"
)

// Scheme selects how raw SV tokens are normalized into canonical types.
type Scheme int

const (
	// SchemeGrouped reports INDEL, INV and TRA (tumor/normal comparisons).
	SchemeGrouped Scheme = iota
	// SchemeGenotyped keeps DEL and INS and ignores every other class
	// (trio and replicate comparisons).
	SchemeGenotyped
)

func (s Scheme) String() string {
	if s == SchemeGenotyped {
		return "genotyped"
	}
	return "grouped"
}

// typeRule maps a raw class token to its canonical type under each scheme.
// An empty type means records of that class are dropped by the scheme.
type typeRule struct {
	token     string
	word      *regexp.Regexp
	grouped   sv.Type
	genotyped sv.Type
}

func newTypeRule(token string, grouped, genotyped sv.Type) typeRule {
	return typeRule{
		token:     token,
		word:      regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(token) + `\b`),
		grouped:   grouped,
		genotyped: genotyped,
	}
}

// typeRules is evaluated in order; the first token found wins.
var typeRules = []typeRule{
	newTypeRule("DEL", sv.TypeINDEL, sv.TypeDEL),
	newTypeRule("INS", sv.TypeINDEL, sv.TypeINS),
	newTypeRule("DUP", sv.TypeINDEL, ""),
	newTypeRule("DUP:TANDEM", sv.TypeINDEL, ""),
	newTypeRule("INV", sv.TypeINV, ""),
	newTypeRule("FOLDBACK", sv.TypeINV, ""),
	newTypeRule("TRA", sv.TypeTRA, ""),
}

var (
	typeTagPattern  = regexp.MustCompile(`(?i)\b(SVTYPE|EVENTTYPE|DETAILED_TYPE|SV_CLASS|SV_TYPE|TYPE)=([\w:]+)`)
	breakendPattern = regexp.MustCompile(`[\[\]]([\w.]+):(\d+)[\[\]]`)
)

// tagRule reads the raw SV class from the INFO type tags. When several tags
// carry a known token the last one wins. tagged reports whether any
// non-numeric type tag was present, known or not.
func tagRule(v *Variant) (found typeRule, ok, tagged bool) {
	for _, m := range typeTagPattern.FindAllStringSubmatch(v.Info, -1) {
		value := strings.ToUpper(m[2])
		if isDigits(value) {
			continue
		}
		tagged = true
		for _, r := range typeRules {
			if strings.Contains(value, r.token) {
				found, ok = r, true
				break
			}
		}
	}
	return found, ok, tagged
}

// wordRule searches the whole line for a class token in table order.
func wordRule(v *Variant) (typeRule, bool) {
	for _, r := range typeRules {
		if r.word.MatchString(v.Line) {
			return r, true
		}
	}
	return typeRule{}, false
}

// detectRule finds the raw SV class of a record. Type tags in INFO take
// priority over a whole-word search of the line.
func detectRule(v *Variant) (typeRule, bool) {
	if r, ok, _ := tagRule(v); ok {
		return r, true
	}
	return wordRule(v)
}

// ChromSortKey returns the numeric sort key of a placeable chromosome:
// 1-22, X=23, Y=24, M/MT=25, with or without a "chr" prefix.
func ChromSortKey(chrom string) (int, bool) {
	name := trimChr(chrom)
	if isDigits(name) {
		n, err := strconv.Atoi(name)
		return n, err == nil
	}
	switch name {
	case "X":
		return 23, true
	case "Y":
		return 24, true
	case "M", "MT":
		return 25, true
	}
	return 0, false
}

// breakendPartner extracts the mate contig and position from bracket notation
// such as N[chr2:3000[ or ]chr5:100]N.
func breakendPartner(s string) (string, int64, bool) {
	m := breakendPattern.FindStringSubmatch(s)
	if m == nil {
		return "", 0, false
	}
	pos, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return "", 0, false
	}
	return m[1], pos, true
}

// Classify normalizes a raw record into a canonical SV record under the given
// scheme. It returns false when the record must be dropped: unknown type,
// undeterminable length or end, a length under sv.MinLength for non-breakend
// types, or an unplaceable breakend partner.
func Classify(v *Variant, scheme Scheme) (*sv.Record, bool) {
	if scheme == SchemeGenotyped {
		return classifyGenotyped(v)
	}
	return classifyGrouped(v)
}

func classifyGrouped(v *Variant) (*sv.Record, bool) {
	var typ sv.Type
	if rule, ok := detectRule(v); ok {
		typ = rule.grouped
	}
	endValue, hasEnd := v.InfoValue("END")

	if v.HasBrackets() {
		chr2, pos2, ok := breakendPartner(v.Alt)
		if !ok && hasEnd {
			chr2, pos2, ok = breakendPartner(endValue)
		}
		if ok {
			return breakendRecord(v, typ, chr2, pos2)
		}
	}

	switch typ {
	case sv.TypeINV:
		end, ok := parseEnd(endValue, hasEnd)
		if !ok {
			return nil, false
		}
		return newRecord(v, sv.TypeINV, v.Chrom, end, 0), true

	case sv.TypeTRA:
		chr2, ok := v.InfoValue("CHR2")
		if !ok || chr2 == v.Chrom {
			return nil, false
		}
		end, ok := parseEnd(endValue, hasEnd)
		if !ok {
			return nil, false
		}
		return breakendRecord(v, typ, chr2, end)

	case sv.TypeINDEL:
		length := int64(0)
		if n, ok := v.InfoInt("SVLEN"); ok {
			length = abs(n)
		}
		end, endOK := parseEnd(endValue, hasEnd)
		if length == 0 {
			if !endOK {
				return nil, false
			}
			length = abs(end - v.Pos)
		}
		if length < sv.MinLength {
			return nil, false
		}
		if !endOK {
			end = v.Pos + length
		}
		return newRecord(v, sv.TypeINDEL, "", end, length), true
	}

	return nil, false
}

func breakendRecord(v *Variant, typ sv.Type, chr2 string, pos2 int64) (*sv.Record, bool) {
	if _, ok := ChromSortKey(v.Chrom); !ok {
		return nil, false
	}
	if _, ok := ChromSortKey(chr2); !ok {
		return nil, false
	}
	if v.Chrom != chr2 {
		return newRecord(v, sv.TypeTRA, chr2, pos2, 0), true
	}
	if typ == sv.TypeINV {
		return newRecord(v, sv.TypeINV, chr2, pos2, 0), true
	}
	return nil, false
}

// classifyGenotyped only searches the line for a class when INFO has no type
// tag; a tagged BND or CNV record stays untyped and is dropped.
func classifyGenotyped(v *Variant) (*sv.Record, bool) {
	rule, ok, tagged := tagRule(v)
	if !ok && !tagged {
		rule, ok = wordRule(v)
	}
	if !ok || rule.genotyped == "" {
		return nil, false
	}

	var length, end int64
	if n, ok := v.InfoInt("SVLEN"); ok {
		length = abs(n)
	}
	n, hasEnd := v.InfoInt("END")
	if hasEnd {
		end = abs(n)
	}

	if length == 0 {
		if !hasEnd {
			return nil, false
		}
		length = end - v.Pos + 1
	}
	if length < sv.MinLength {
		return nil, false
	}
	if !hasEnd {
		end = v.Pos + length
	}
	return newRecord(v, rule.genotyped, "", end, length), true
}

func newRecord(v *Variant, typ sv.Type, partner string, end, length int64) *sv.Record {
	return &sv.Record{
		Chrom:        v.Chrom,
		Pos:          v.Pos,
		End:          end,
		Length:       length,
		Type:         typ,
		PartnerChrom: partner,
		Zygosity:     v.Zygosity(),
	}
}

func parseEnd(value string, present bool) (int64, bool) {
	if !present {
		return 0, false
	}
	return parseNumber(value)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
