// Package export renders closed period reports as spreadsheets.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/josh-kwaku/agency-ledger/internal/service/report"
)

const (
	RevenueSheet = "Revenue"
	DebtSheet    = "Debt"

	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var (
	revenueHeader = []any{"Agency ID", "Orders", "Revenue", "Ratio (%)"}
	debtHeader    = []any{"Agency ID", "Opening Debt", "Incurred", "Paid", "Closing Debt"}
)

// Filename is the attachment name for a period's workbook.
func Filename(res *report.Result) string {
	return fmt.Sprintf("reports-%s.xlsx", res.Period)
}

// WriteXLSX writes a workbook with a revenue sheet and a debt sheet for res.
// The revenue sheet ends with a company total row.
func WriteXLSX(w io.Writer, res *report.Result) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", RevenueSheet); err != nil {
		return fmt.Errorf("WriteXLSX: %w", err)
	}
	if _, err := f.NewSheet(DebtSheet); err != nil {
		return fmt.Errorf("WriteXLSX: %w", err)
	}

	if err := writeRevenue(f, res); err != nil {
		return fmt.Errorf("WriteXLSX: %w", err)
	}
	if err := writeDebt(f, res); err != nil {
		return fmt.Errorf("WriteXLSX: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("WriteXLSX: %w", err)
	}
	return nil
}

func writeRevenue(f *excelize.File, res *report.Result) error {
	if err := setRow(f, RevenueSheet, 1, revenueHeader); err != nil {
		return err
	}
	row := 2
	for _, rr := range res.Revenue {
		ratio := rr.Ratio.InexactFloat64()
		if err := setRow(f, RevenueSheet, row, []any{rr.AgencyID.String(), rr.OrderCount, rr.TotalRevenue, ratio}); err != nil {
			return err
		}
		row++
	}
	return setRow(f, RevenueSheet, row, []any{"Company total", nil, res.CompanyRevenue, nil})
}

func writeDebt(f *excelize.File, res *report.Result) error {
	if err := setRow(f, DebtSheet, 1, debtHeader); err != nil {
		return err
	}
	for i, d := range res.Debt {
		values := []any{d.AgencyID.String(), d.OpeningDebt, d.Incurred, d.Paid, d.ClosingDebt}
		if err := setRow(f, DebtSheet, i+2, values); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}
