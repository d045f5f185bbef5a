package services

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/pocketbase/pocketbase/core"
	"github.com/xuri/excelize/v2"
)

// ErrInvalidBOQFile is returned for BOQ uploads that cannot be parsed.
var ErrInvalidBOQFile = errors.New("invalid BOQ file")

// Header spellings accepted per column, compared lowercased and trimmed.
var (
	boqCodeHeaders = []string{"material code", "materialcode", "material_code", "code"}
	boqNameHeaders = []string{"material name", "materialname", "material_name", "description", "name"}
	boqQtyHeaders  = []string{"qty", "quantity", "boq", "boq qty", "volume"}
)

// ParseBOQFile reads the line items of one BOQ snapshot from an .xlsx or
// .csv file. The header row must have a material code column and a
// quantity column; the quantity column may also be named after the
// snapshot type (e.g. "After DRM"). Rows without a code are skipped.
// Quantities are stored as read, under the field of boqType.
func ParseBOQFile(r io.Reader, fileName string, boqType BOQType) ([]BOQLineItem, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".xlsx":
		rows, err = readExcelRows(r)
	case ".csv":
		rows, err = readCSVRows(r)
	default:
		return nil, fmt.Errorf("%w: unsupported file type %q (use .xlsx or .csv)", ErrInvalidBOQFile, filepath.Ext(fileName))
	}
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: file must contain a header row and at least one data row", ErrInvalidBOQFile)
	}

	codeCol, nameCol, qtyCol := mapBOQHeaders(rows[0], boqType)
	if codeCol < 0 {
		return nil, fmt.Errorf("%w: no material code column", ErrInvalidBOQFile)
	}
	if qtyCol < 0 {
		return nil, fmt.Errorf("%w: no quantity column", ErrInvalidBOQFile)
	}

	var items []BOQLineItem
	for _, row := range rows[1:] {
		code := cell(row, codeCol)
		if code == "" {
			continue
		}
		item := BOQLineItem{MaterialCode: code, MaterialName: cell(row, nameCol)}
		item.setQuantity(boqType, cell(row, qtyCol))
		items = append(items, item)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: no rows with a material code", ErrInvalidBOQFile)
	}
	return items, nil
}

// readExcelRows returns the rows of the first sheet.
func readExcelRows(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open Excel file: %v", ErrInvalidBOQFile, err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read sheet: %v", ErrInvalidBOQFile, err)
	}
	return rows, nil
}

func readCSVRows(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))))
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse CSV: %v", ErrInvalidBOQFile, err)
	}
	return rows, nil
}

// mapBOQHeaders returns the code, name and quantity column indexes, -1
// when absent. A column named after the snapshot type beats a generic
// quantity column.
func mapBOQHeaders(headers []string, boqType BOQType) (code, name, qty int) {
	code, name, qty = -1, -1, -1
	typed := -1
	typeName := strings.ToLower(string(boqType))

	for i, h := range headers {
		norm := strings.ToLower(strings.TrimSpace(h))
		switch {
		case code < 0 && contains(boqCodeHeaders, norm):
			code = i
		case name < 0 && contains(boqNameHeaders, norm):
			name = i
		case qty < 0 && contains(boqQtyHeaders, norm):
			qty = i
		case typed < 0 && (norm == typeName || norm == typeName+" boq" || norm == typeName+" qty"):
			typed = i
		}
	}
	if typed >= 0 {
		qty = typed
	}
	return code, name, qty
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// SaveBOQFile stores the line items of one snapshot type for a site,
// replacing the items of an existing file of that type.
func SaveBOQFile(app core.App, site Site, boqType BOQType, fileName string, items []BOQLineItem) (string, error) {
	var id string
	err := app.RunInTransaction(func(txApp core.App) error {
		store := NewRecordStore(txApp)
		existing, err := store.Find(BOQFilesCollection, map[string]any{
			"site_id":  site.SiteID,
			"boq_type": string(boqType),
		})
		if err != nil {
			return err
		}

		if len(existing) > 0 {
			id = existing[0].Id
			return store.Update(BOQFilesCollection, id, map[string]any{
				"site_name": site.SiteName,
				"city":      site.City,
				"file_name": fileName,
				"items":     items,
			})
		}

		col, err := txApp.FindCollectionByNameOrId(BOQFilesCollection)
		if err != nil {
			return fmt.Errorf("boq_files collection not found: %w", err)
		}
		record := core.NewRecord(col)
		record.Set("site_id", site.SiteID)
		record.Set("site_name", site.SiteName)
		record.Set("city", site.City)
		record.Set("boq_type", string(boqType))
		record.Set("file_name", fileName)
		record.Set("items", items)
		if err := txApp.Save(record); err != nil {
			return fmt.Errorf("save boq file: %w", err)
		}
		id = record.Id
		return nil
	})
	return id, err
}
