package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	errors "github.com/frahmantamala/pos-helpdesk/internal"
	"github.com/go-pdf/fpdf"
	"github.com/xuri/excelize/v2"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

const sheetName = "Tickets"

var ErrUnsupportedFormat = errors.NewValidationFieldError("format", "format must be one of: xlsx, pdf, csv", errors.ErrCodeInvalidFormat)

// Table is the format-independent content of an export.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// ParseFormat defaults to xlsx when raw is empty.
func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FormatXLSX, "excel":
		return FormatXLSX, nil
	case FormatCSV:
		return FormatCSV, nil
	case FormatPDF:
		return FormatPDF, nil
	}
	return "", ErrUnsupportedFormat
}

func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatPDF:
		return "application/pdf"
	default:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
}

func (f Format) Extension() string {
	return string(f)
}

// Filename builds "<prefix>_<timestamp>.<ext>".
func Filename(prefix string, f Format, at time.Time) string {
	return fmt.Sprintf("%s_%s.%s", prefix, at.UTC().Format("20060102_150405"), f.Extension())
}

// Render encodes the table into the requested format.
func Render(f Format, t Table) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch f {
	case FormatCSV:
		err = WriteCSV(&buf, t)
	case FormatXLSX:
		err = WriteXLSX(&buf, t)
	case FormatPDF:
		err = WritePDF(&buf, t)
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, errors.NewInternalError("Failed to render export", err).WithDetails(map[string]string{"format": string(f)})
	}
	return buf.Bytes(), nil
}

func WriteCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Headers); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}

func ReadCSV(r io.Reader) (Table, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return Table{}, err
	}
	return tableFromRecords(records), nil
}

func WriteXLSX(w io.Writer, t Table) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	for col, header := range t.Headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStr(sheetName, cell, header); err != nil {
			return fmt.Errorf("set header %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			return fmt.Errorf("set header style: %w", err)
		}
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheetName, name, name, 20); err != nil {
			return err
		}
	}

	for r, row := range t.Rows {
		for c, value := range row {
			if value == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			// cells are written as text so codes and timestamps read back unchanged
			if err := f.SetCellStr(sheetName, cell, value); err != nil {
				return fmt.Errorf("set cell %s: %w", cell, err)
			}
		}
	}

	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	_, err = f.WriteTo(w)
	return err
}

func ReadXLSX(r io.Reader) (Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Table{}, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Table{}, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return Table{}, err
	}
	return tableFromRecords(rows), nil
}

// WritePDF renders a landscape A4 table. Cells that do not fit their column
// are cut short.
func WritePDF(w io.Writer, t Table) error {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(8, 10, 8)
	pdf.SetAutoPageBreak(true, 10)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageWidth, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	cols := len(t.Headers)
	if cols == 0 {
		cols = 1
	}
	colWidth := (pageWidth - left - right) / float64(cols)
	const lineHeight = 5.0

	header := func() {
		pdf.SetFont("Helvetica", "B", 6)
		pdf.SetFillColor(230, 243, 255)
		for _, h := range t.Headers {
			pdf.CellFormat(colWidth, lineHeight+1, fit(pdf, tr(h), colWidth), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 6)
	}
	pdf.SetHeaderFunc(func() {
		if t.Title != "" {
			pdf.SetFont("Helvetica", "B", 10)
			pdf.CellFormat(0, 8, tr(t.Title), "", 1, "L", false, 0, "")
		}
		header()
	})

	pdf.AddPage()
	for _, row := range t.Rows {
		for c := 0; c < len(t.Headers); c++ {
			value := ""
			if c < len(row) {
				value = row[c]
			}
			pdf.CellFormat(colWidth, lineHeight, fit(pdf, tr(value), colWidth), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Error(); err != nil {
		return err
	}
	return pdf.Output(w)
}

// fit works on translated single-byte text.
func fit(pdf *fpdf.Fpdf, text string, width float64) string {
	limit := width - 2
	if pdf.GetStringWidth(text) <= limit {
		return text
	}
	for len(text) > 0 && pdf.GetStringWidth(text+"..") > limit {
		text = text[:len(text)-1]
	}
	return text + ".."
}

// tableFromRecords pads rows to the header width; spreadsheet readers drop
// trailing empty cells.
func tableFromRecords(records [][]string) Table {
	if len(records) == 0 {
		return Table{}
	}
	t := Table{Headers: records[0]}
	for _, rec := range records[1:] {
		row := make([]string, len(t.Headers))
		copy(row, rec)
		t.Rows = append(t.Rows, row)
	}
	return t
}
