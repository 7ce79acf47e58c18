package output

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/inodb/sveval/internal/eval"
)

// SummarySheet is the name of the first workbook sheet.
const SummarySheet = "Summary"

var metricTitle = []any{"TP", "FP", "FN", "Precision", "Recall", "F1"}

func metricCells(label string, tp, fp, fn int, p, r, f float64) []any {
	return []any{label, tp, fp, fn, p, r, f}
}

// WriteWorkbook writes a somatic report as an xlsx workbook: a Summary sheet
// with one block per SV type and one sheet per tool.
func WriteWorkbook(w io.Writer, report *eval.SomaticReport) error {
	xlsx := excelize.NewFile()
	defer xlsx.Close()

	if err := xlsx.SetSheetName("Sheet1", SummarySheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	title := append([]any{"SVTYPE", "Tool"}, metricTitle...)
	if err := xlsx.SetSheetRow(SummarySheet, "A1", &title); err != nil {
		return err
	}
	row := 2
	for _, g := range report.Summary() {
		for _, r := range g.Rows {
			line := append([]any{g.Label}, metricCells(r.Tool, r.TP, r.FP, r.FN, r.Precision(), r.Recall(), r.F1())...)
			if err := xlsx.SetSheetRow(SummarySheet, fmt.Sprintf("A%d", row), &line); err != nil {
				return err
			}
			row++
		}
	}

	for i := range report.Tools {
		if err := writeToolSheet(xlsx, &report.Tools[i]); err != nil {
			return err
		}
	}

	if err := xlsx.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeToolSheet(xlsx *excelize.File, tr *eval.ToolResult) error {
	if _, err := xlsx.NewSheet(tr.Tool); err != nil {
		return fmt.Errorf("add sheet %s: %w", tr.Tool, err)
	}

	source := []any{"Callset", tr.Path}
	if err := xlsx.SetSheetRow(tr.Tool, "A1", &source); err != nil {
		return err
	}
	title := append([]any{"SVTYPE"}, metricTitle...)
	if err := xlsx.SetSheetRow(tr.Tool, "A2", &title); err != nil {
		return err
	}
	for i, r := range tr.Table.WithTotal() {
		line := metricCells(r.Label, r.TP, r.FP, r.FN, r.Precision(), r.Recall(), r.F1())
		if err := xlsx.SetSheetRow(tr.Tool, fmt.Sprintf("A%d", i+3), &line); err != nil {
			return err
		}
	}
	return nil
}
