package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/phpdave11/gofpdf"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"tpog/internal/config"
	"tpog/internal/domain/models"
	"tpog/internal/utils"
	"tpog/internal/view"
)

const xlsxSheet = "TPOG"

// ExportService renders the week table as XLSX and pay statements as PDF.
type ExportService struct {
	Reports   DriverReporter
	RequestID string
}

// WeekXLSX exports the shaped week table. Only exportable columns are
// written, in table order.
func (s ExportService) WeekXLSX(ctx context.Context, payDate string, st view.State) ([]byte, string, error) {
	week, err := s.Reports.BuildWeek(ctx, payDate)
	if err != nil {
		return nil, "", err
	}
	tbl, err := view.Apply(week.Rows, st)
	if err != nil {
		return nil, "", err
	}
	data, err := buildWeekXLSX(week, tbl)
	if err != nil {
		return nil, "", err
	}
	utils.LogEvent(s.RequestID, "export", "week_xlsx", fmt.Sprintf("pay_date=%s rows=%d", week.PayDate, tbl.Shown))
	return data, fmt.Sprintf("TPOG_%s.xlsx", week.PayDate), nil
}

// StatementPDF renders one driver's pay statement with the breakdown lines.
func (s ExportService) StatementPDF(ctx context.Context, payDate, driverID string) ([]byte, string, error) {
	r, err := s.Reports.BuildDriverWeek(ctx, payDate, driverID)
	if err != nil {
		return nil, "", err
	}
	data, err := buildStatementPDF(r)
	if err != nil {
		return nil, "", err
	}
	utils.LogEvent(s.RequestID, "export", "statement_pdf", fmt.Sprintf("driver=%s pay_date=%s", r.DriverID, r.PayDate))
	return data, fmt.Sprintf("STATEMENT_%s_%s.pdf", safeFilenamePart(r.DriverID), r.PayDate), nil
}

func buildWeekXLSX(week models.WeekReport, tbl view.Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return nil, err
	}

	cols := make([]config.Column, 0, len(tbl.Columns))
	for _, c := range tbl.Columns {
		if c.Exportable {
			cols = append(cols, c)
		}
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	for i, c := range cols {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(xlsxSheet, cell, c.Label); err != nil {
			return nil, err
		}
	}
	if len(cols) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(cols), 1)
		if err := f.SetCellStyle(xlsxSheet, "A1", last, header); err != nil {
			return nil, err
		}
	}

	for rowIdx, r := range tbl.Rows {
		for colIdx, c := range cols {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err := f.SetCellValue(xlsxSheet, cell, xlsxValue(view.Value(r, c.Key), c.Kind)); err != nil {
				return nil, err
			}
		}
	}

	if len(tbl.Pinned) > 0 {
		topLeft, _ := excelize.CoordinatesToCellName(len(tbl.Pinned)+1, 2)
		if err := f.SetPanes(xlsxSheet, &excelize.Panes{
			Freeze:      true,
			XSplit:      len(tbl.Pinned),
			YSplit:      1,
			TopLeftCell: topLeft,
			ActivePane:  "bottomRight",
		}); err != nil {
			return nil, err
		}
	}

	footer := len(tbl.Rows) + 3
	_ = f.SetCellValue(xlsxSheet, fmt.Sprintf("A%d", footer), fmt.Sprintf("Pay date %s, settings v%d", week.PayDate, week.SettingsVersion))

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// xlsxValue keeps numbers numeric so spreadsheets can sum them.
func xlsxValue(v any, kind config.ColumnKind) any {
	switch val := v.(type) {
	case decimal.NullDecimal:
		if !val.Valid {
			return ""
		}
		if kind == config.KindMoney {
			f, _ := val.Decimal.Round(2).Float64()
			return f
		}
		f, _ := val.Decimal.Float64()
		return f
	case bool:
		if val {
			return "yes"
		}
		return ""
	case string:
		return val
	}
	return ""
}

func buildStatementPDF(r models.Report) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Pay Statement", false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "PAY STATEMENT")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	header := []string{
		fmt.Sprintf("Driver         : %s (%s)", safe(r.DriverName, "-"), safe(r.DriverID, "-")),
		fmt.Sprintf("Pay date       : %s", safe(r.PayDate, "-")),
		fmt.Sprintf("Settings       : v%d", r.SettingsVersion),
		fmt.Sprintf("Status         : %s", statementStatus(r)),
	}
	for _, line := range header {
		pdf.Cell(0, 7, line)
		pdf.Ln(7)
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 11)
	widths := []float64{45, 25, 35, 45, 30}
	for i, h := range []string{"Category", "Kind", "Value", "Tier", "Points"} {
		pdf.CellFormat(widths[i], 7, h, "B", 0, "L", false, 0, "")
	}
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 10)
	for _, l := range r.Lines {
		value := "-"
		if l.Value.Valid {
			value = l.Value.Decimal.String()
		}
		tier := l.Tier
		if l.Status != models.LineApplied {
			tier = l.Status
		}
		cells := []string{string(l.Category), l.Kind, value, safe(tier, "-"), signed(l.Amount)}
		for i, c := range cells {
			pdf.CellFormat(widths[i], 6, c, "", 0, "L", false, 0, "")
		}
		pdf.Ln(6)
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 12)
	totals := []string{
		"Base           : " + utils.FormatPercent(r.BasePercent),
		"Bonus          : +" + r.BonusTotal.StringFixed(2),
		"Penalty        : -" + r.PenaltyTotal.StringFixed(2),
	}
	if r.Clamped {
		totals = append(totals, "Percent clamped to the configured bounds")
	}
	for _, line := range totals {
		pdf.Cell(0, 7, line)
		pdf.Ln(7)
	}

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "TPOG           : "+utils.FormatPercent(r.Percent))
	pdf.Ln(8)
	gross := "-"
	if r.Metrics.Gross.Valid {
		gross = utils.FormatMoney(r.Metrics.Gross.Decimal)
	}
	pdf.Cell(0, 8, "Gross          : "+gross)
	pdf.Ln(8)
	pdf.Cell(0, 8, "Pay            : "+utils.FormatMoney(r.Pay))
	pdf.Ln(12)

	if len(r.Overrides) > 0 {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.Cell(0, 7, "Overrides")
		pdf.Ln(7)
		pdf.SetFont("Helvetica", "", 10)
		for _, o := range r.Overrides {
			text := fmt.Sprintf("%s: %s -> %s [%s]", o.Field, safe(o.Previous, "-"), o.Value, o.Status)
			if o.Reason != "" {
				text += " " + o.Reason
			}
			pdf.MultiCell(0, 6, text, "", "", false)
		}
	}

	if r.Note != "" {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "I", 10)
		pdf.MultiCell(0, 6, "Note: "+r.Note, "", "", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func statementStatus(r models.Report) string {
	if !r.Locked {
		return "open (not locked)"
	}
	s := "locked"
	if r.LockedBy != "" {
		s += " by " + r.LockedBy
	}
	if r.LockedAt != nil {
		s += " on " + utils.FormatDate(*r.LockedAt)
	}
	return s
}

func signed(d decimal.Decimal) string {
	if d.IsPositive() {
		return "+" + d.StringFixed(2)
	}
	return d.StringFixed(2)
}

func safe(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	return v
}

func safeFilenamePart(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "NA"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_")
	s = replacer.Replace(s)
	if len(s) > 40 {
		s = s[:40]
	}
	return s
}
