package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// SheetSpec — лист книги: шапка и строки значений (строки, числа, время).
type SheetSpec struct {
	Title  string
	Header []string
	Rows   [][]any
}

type Workbook struct {
	File *excelize.File
}

// NewWorkbook собирает книгу из листов; первый лист заменяет стандартный Sheet1.
func NewWorkbook(sheets []SheetSpec) (*Workbook, error) {
	if len(sheets) == 0 {
		return nil, fmt.Errorf("empty workbook")
	}
	f := excelize.NewFile()
	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.Title); err != nil {
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(s.Title); err != nil {
			return nil, fmt.Errorf("new sheet %q: %w", s.Title, err)
		}
		if err := fill(f, s); err != nil {
			return nil, err
		}
		if err := ApplyDefaultExcelFormatting(f, s.Title); err != nil {
			return nil, fmt.Errorf("format %q: %w", s.Title, err)
		}
	}
	return &Workbook{File: f}, nil
}

func fill(f *excelize.File, s SheetSpec) error {
	header := make([]any, len(s.Header))
	for i, h := range s.Header {
		header[i] = h
	}
	if err := f.SetSheetRow(s.Title, "A1", &header); err != nil {
		return fmt.Errorf("header %q: %w", s.Title, err)
	}
	for r, row := range s.Rows {
		row := row
		cell := fmt.Sprintf("A%d", r+2)
		if err := f.SetSheetRow(s.Title, cell, &row); err != nil {
			return fmt.Errorf("row %s: %w", cell, err)
		}
	}
	return nil
}

// Bytes — книга в памяти, для отправки документом в чат или по HTTP.
func (w *Workbook) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := w.File.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (w *Workbook) SaveAs(path string) error {
	return w.File.SaveAs(path)
}

func (w *Workbook) Close() error { return w.File.Close() }
