// Package vcf provides streaming parsing of structural-variant VCF files.
package vcf

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// VariantParser reads SV records one at a time.
type VariantParser interface {
	// Next returns nil, nil once the input is exhausted.
	Next() (*Variant, error)
	// Header returns the '#' lines read so far.
	Header() []string
	LineNumber() int
	Close() error
}

// Open opens a plain or gzipped text file for reading. Use "-" for stdin.
// Gzip input is detected from the magic bytes, not the file name.
func Open(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	br := bufio.NewReader(file)
	magic, err := br.Peek(2)
	if err != nil && err != io.EOF {
		file.Close()
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	// Check for gzip magic number (0x1f, 0x8b)
	if len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		return &gzipFile{Reader: gz, file: file}, nil
	}

	return &plainFile{Reader: br, file: file}, nil
}

type plainFile struct {
	*bufio.Reader
	file *os.File
}

func (f *plainFile) Close() error { return f.file.Close() }

type gzipFile struct {
	*gzip.Reader
	file *os.File
}

func (f *gzipFile) Close() error {
	f.Reader.Close()
	return f.file.Close()
}

// Parser reads SV records from a VCF stream line by line.
type Parser struct {
	reader     *bufio.Reader
	closer     io.Closer
	lineNumber int
	header     []string
}

// NewParser creates a new VCF parser for the given file.
// Supports both plain VCF and gzipped VCF (.vcf.gz) files.
func NewParser(path string) (*Parser, error) {
	rc, err := Open(path)
	if err != nil {
		return nil, err
	}
	p := NewParserFromReader(rc)
	p.closer = rc
	return p, nil
}

// NewParserFromReader creates a parser from an io.Reader (e.g., stdin).
func NewParserFromReader(r io.Reader) *Parser {
	return &Parser{reader: bufio.NewReader(r)}
}

// Next reads the next record line.
// Returns nil, nil when there are no more records. A malformed line yields a
// *ParseError; the parser stays usable and the next call continues with the
// following line.
func (p *Parser) Next() (*Variant, error) {
	for {
		line, err := p.reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("read variant line: %w", err)
		}
		if line == "" && err == io.EOF {
			return nil, nil
		}
		p.lineNumber++

		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			continue
		}
		if line[0] == '#' {
			p.header = append(p.header, line)
			continue
		}

		return p.parseLine(line)
	}
}

// parseLine parses a single VCF data line into a Variant.
func (p *Parser) parseLine(line string) (*Variant, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 8 {
		return nil, &ParseError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("expected at least 8 columns, found %d", len(fields)),
		}
	}

	pos, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return nil, &ParseError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("invalid position: %s", fields[1]),
		}
	}

	v := &Variant{
		Chrom:  fields[0],
		Pos:    pos,
		ID:     fields[2],
		Ref:    fields[3],
		Alt:    fields[4],
		Filter: fields[6],
		Info:   fields[7],
		Line:   line,
	}
	if len(fields) > 8 {
		v.Format = fields[8]
	}
	if len(fields) > 9 {
		v.Samples = fields[9:]
	}

	return v, nil
}

// Header returns the '#' lines seen so far.
func (p *Parser) Header() []string {
	return p.header
}

// LineNumber returns the current line number being processed.
func (p *Parser) LineNumber() int {
	return p.lineNumber
}

// Close closes the underlying file, if any.
func (p *Parser) Close() error {
	if p.closer != nil {
		return p.closer.Close()
	}
	return nil
}

// ParseError represents an error during VCF parsing with line context.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("vcf parse error at line %d: %s", e.Line, e.Message)
}
