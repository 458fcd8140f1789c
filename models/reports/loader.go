package reports

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mmdatafocus/itefm_backend/models"
	"github.com/xuri/excelize/v2"
)

const (
	TableJobListing = "job listing"
	TableAssetList  = "asset list"
)

// LoadTable reads the first sheet of an xlsx workbook. The first skipRows rows
// are ignored, the next one is the header row and fully blank rows are dropped.
func LoadTable(r io.Reader, name string, skipRows int) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("unable to read sheet %q: %w", sheets[0], err)
	}
	if len(rows) <= skipRows {
		return nil, fmt.Errorf("%s: expected a header row after %d leading rows, sheet has %d rows", name, skipRows, len(rows))
	}

	t := NewTable(name, rows[skipRows])
	for _, row := range rows[skipRows+1:] {
		if isBlankRow(row) {
			continue
		}
		t.Append(row)
	}
	return t, nil
}

func LoadJobListing(r io.Reader) (*Table, error) {
	return LoadTable(r, TableJobListing, models.JobListingSkipRows)
}

func LoadAssetList(r io.Reader) (*Table, error) {
	return LoadTable(r, TableAssetList, models.AssetListSkipRows)
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
