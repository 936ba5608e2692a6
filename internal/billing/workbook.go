package billing

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// BuildWorkbook produces an XLSX rendition of a bill: one sheet per bill
// section plus a summary sheet.
func BuildWorkbook(c *Case, bill *Bill, summary Summary) (*excelize.File, error) {
	f := excelize.NewFile()

	for i, section := range bill.Sections {
		sheet := section.Title
		if i == 0 {
			// Rename the default sheet rather than leaving an empty "Sheet1".
			defaultName := f.GetSheetName(f.GetActiveSheetIndex())
			if err := f.SetSheetName(defaultName, sheet); err != nil {
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else {
			if _, err := f.NewSheet(sheet); err != nil {
				return nil, fmt.Errorf("new sheet %q: %w", sheet, err)
			}
		}

		headers := []string{"Date", "Description", "Amount (GBP)", "Recoverable"}
		for col, h := range headers {
			cell, _ := excelize.CoordinatesToCellName(col+1, 1)
			_ = f.SetCellValue(sheet, cell, h)
		}

		row := 2
		for _, item := range section.Items {
			write := func(col int, v any) {
				cell, _ := excelize.CoordinatesToCellName(col, row)
				_ = f.SetCellValue(sheet, cell, v)
			}
			write(1, item.Date.Format("2006-01-02"))
			write(2, item.Description)
			write(3, item.AmountGBP)
			if item.IsRecoverable {
				write(4, "Yes")
			} else {
				write(4, "No")
			}
			row++
		}

		_ = f.SetColWidth(sheet, "A", "A", 12)
		_ = f.SetColWidth(sheet, "B", "B", 60)
		_ = f.SetColWidth(sheet, "C", "D", 14)
	}

	const summarySheet = "Summary"
	if len(bill.Sections) == 0 {
		defaultName := f.GetSheetName(f.GetActiveSheetIndex())
		if err := f.SetSheetName(defaultName, summarySheet); err != nil {
			return nil, fmt.Errorf("rename sheet: %w", err)
		}
	} else if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, fmt.Errorf("new summary sheet: %w", err)
	}

	rows := [][]any{
		{"Case reference", c.Reference},
		{"Case title", c.Title},
		{"Generated", bill.GeneratedAt.Format("2006-01-02 15:04:05")},
		{},
		{"Profit costs (GBP)", summary.ProfitCostsGBP},
		{"Disbursements (GBP)", summary.DisbursementsGBP},
		{"VAT on profit costs (GBP)", summary.VATProfitGBP},
		{"VAT on disbursements (GBP)", summary.VATDisbursementGBP},
		{"Grand total (GBP)", summary.GrandTotalGBP},
		{},
		{"Total claimed (GBP)", bill.TotalGBP},
		{"Recoverable (GBP)", bill.RecoverableGBP},
	}
	for _, g := range summary.Grades {
		rows = append(rows, []any{
			fmt.Sprintf("Grade %s", g.Grade),
			fmt.Sprintf("%d items, %.1f hours", g.Items, g.Hours),
			g.AmountGBP,
		})
	}
	for r, cols := range rows {
		for col, v := range cols {
			cell, _ := excelize.CoordinatesToCellName(col+1, r+1)
			_ = f.SetCellValue(summarySheet, cell, v)
		}
	}
	_ = f.SetColWidth(summarySheet, "A", "A", 28)
	_ = f.SetColWidth(summarySheet, "B", "B", 28)

	return f, nil
}
