// Package output provides report formatters for evaluation results.
package output

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/inodb/sveval/internal/eval"
	"github.com/inodb/sveval/internal/metrics"
)

// TabWriter writes metric tables in tab-delimited format.
type TabWriter struct {
	w       *bufio.Writer
	columns []string
}

// NewTabWriter creates a new tab-delimited writer.
func NewTabWriter(w io.Writer) *TabWriter {
	return &TabWriter{
		w: bufio.NewWriter(w),
		columns: []string{
			"SVTYPE",
			"TP",
			"FP",
			"FN",
			"Precision",
			"Recall",
			"F1",
		},
	}
}

// WriteHeader writes the header line.
func (tw *TabWriter) WriteHeader() error {
	_, err := tw.w.WriteString(strings.Join(tw.columns, "\t") + "\n")
	return err
}

// Write writes a single labelled row.
func (tw *TabWriter) Write(label string, c metrics.Counts) error {
	_, err := tw.w.WriteString(FormatRow(label, c) + "\n")
	return err
}

// WriteTool writes the banner, header, per-type rows and ALL row of one
// comparison callset.
func (tw *TabWriter) WriteTool(tr *eval.ToolResult) error {
	if _, err := fmt.Fprintf(tw.w, "\n=== Evaluating: %s ===\n", tr.Path); err != nil {
		return err
	}
	if err := tw.WriteHeader(); err != nil {
		return err
	}
	for _, row := range tr.Table.WithTotal() {
		if err := tw.Write(row.Label, row.Counts); err != nil {
			return err
		}
	}
	return nil
}

// WriteSummary writes the per-type regrouping of all tools.
func (tw *TabWriter) WriteSummary(groups []eval.SummaryGroup) error {
	if _, err := tw.w.WriteString("\n=== Summary across all SV type ===\n"); err != nil {
		return err
	}
	header := append([]string{"Tool"}, tw.columns[1:]...)
	if _, err := tw.w.WriteString(strings.Join(header, "\t") + "\n"); err != nil {
		return err
	}
	for _, g := range groups {
		if _, err := fmt.Fprintf(tw.w, "Summary of %s\n", g.Label); err != nil {
			return err
		}
		for _, row := range g.Rows {
			if err := tw.Write(row.Tool, row.Counts); err != nil {
				return err
			}
		}
	}
	return nil
}

// Flush flushes any buffered data to the underlying writer.
func (tw *TabWriter) Flush() error {
	return tw.w.Flush()
}

// FormatRow renders label, counts and 4-decimal rates as one tab-separated line.
func FormatRow(label string, c metrics.Counts) string {
	return fmt.Sprintf("%s\t%d\t%d\t%d\t%.4f\t%.4f\t%.4f",
		label, c.TP, c.FP, c.FN, c.Precision(), c.Recall(), c.F1())
}
