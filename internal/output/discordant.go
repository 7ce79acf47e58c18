package output

import (
	"bufio"
	"fmt"
	"io"

	"github.com/inodb/sveval/internal/sv"
)

// DiscordantWriter writes unconfirmed records as BED-like lines:
// chrom, pos, end, length, type and zygosity.
type DiscordantWriter struct {
	w     *bufio.Writer
	count int
}

// NewDiscordantWriter creates a side-file writer.
func NewDiscordantWriter(w io.Writer) *DiscordantWriter {
	return &DiscordantWriter{w: bufio.NewWriter(w)}
}

// Write writes one record.
func (d *DiscordantWriter) Write(r *sv.Record) error {
	d.count++
	_, err := fmt.Fprintf(d.w, "%s\t%d\t%d\t%d\t%s\t%s\n",
		r.Chrom, r.Pos, r.End, r.Length, r.Type, r.Zygosity)
	return err
}

// WriteAll writes records in order.
func (d *DiscordantWriter) WriteAll(records []*sv.Record) error {
	for _, r := range records {
		if err := d.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// Count returns the number of records written.
func (d *DiscordantWriter) Count() int {
	return d.count
}

// Flush flushes any buffered data to the underlying writer.
func (d *DiscordantWriter) Flush() error {
	return d.w.Flush()
}
