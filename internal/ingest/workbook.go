package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// DecodeWorkbook turns an uploaded file into a rectangular grid of cells.
// Only the first sheet of a workbook is read. The extension is a hint, not
// a contract: uploads frequently lie about it, so decoding falls through
// xlsx -> xls -> csv until one sticks.
func DecodeWorkbook(data []byte, filename string) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return decodeCSV(data)
	case ".xls":
		if rows, err := decodeXLS(data); err == nil {
			return rows, nil
		}
	}
	if rows, err := decodeXLSX(data); err == nil {
		return rows, nil
	}
	if rows, err := decodeXLS(data); err == nil {
		return rows, nil
	}
	return decodeCSV(data)
}

func decodeXLSX(data []byte) ([][]string, error) {
	xl, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer xl.Close()
	sheetName := xl.GetSheetName(0)
	return xl.GetRows(sheetName)
}

func decodeXLS(data []byte) ([][]string, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, err
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, errors.New("xls workbook has no sheets")
	}
	rows := make([][]string, 0, int(sheet.MaxRow)+1)
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		vals := make([]string, 0, row.LastCol())
		for j := 0; j < row.LastCol(); j++ {
			vals = append(vals, row.Col(j))
		}
		rows = append(rows, vals)
	}
	return rows, nil
}

func decodeCSV(data []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	return r.ReadAll()
}

// ParseFile is the whole pipeline: decode the workbook, resolve columns,
// validate and normalize rows. Structural failures (unreadable binary, empty
// workbook, a lone header row) come back as a zero-count ParseResult, never
// an error.
func ParseFile(data []byte, filename string) ParseResult {
	rows, err := DecodeWorkbook(data, filename)
	if err != nil {
		return NormalizeRows(nil)
	}
	return NormalizeRows(rows)
}
