package directory

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ParseCustomerWorkbook reads the first sheet of an .xlsx upload into UI
// customers, ready for the backend bulk-upload endpoint. The first row must
// be a header; recognized columns are matched case-insensitively, unknown
// columns are ignored.
func ParseCustomerWorkbook(r io.Reader) ([]Customer, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("sheet %q has no data rows", sheets[0])
	}

	cols := map[string]int{}
	for i, h := range rows[0] {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := cols["name"]; !ok {
		return nil, fmt.Errorf("missing required column %q", "name")
	}
	if _, ok := cols["phone"]; !ok {
		return nil, fmt.Errorf("missing required column %q", "phone")
	}

	out := make([]Customer, 0, len(rows)-1)
	for n, row := range rows[1:] {
		c := Customer{
			Name:         cell(row, cols, "name"),
			Email:        cell(row, cols, "email"),
			Phone:        cell(row, cols, "phone"),
			ProductType:  cell(row, cols, "product type"),
			Status:       cell(row, cols, "status"),
			PolicyStatus: cell(row, cols, "policy status"),
		}
		if c.Name == "" && c.Phone == "" {
			continue // trailing blank row
		}
		if c.Name == "" || c.Phone == "" {
			return nil, fmt.Errorf("row %d: name and phone are required", n+2)
		}
		if raw := cell(row, cols, "premium"); raw != "" {
			amt, err := strconv.ParseInt(strings.ReplaceAll(raw, ",", ""), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: bad premium %q", n+2, raw)
			}
			c.PremiumAmount = amt
		}
		out = append(out, c)
	}
	return out, nil
}

func cell(row []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
