package workflow

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/mmdatafocus/itefm_backend/config"
	"github.com/mmdatafocus/itefm_backend/models"
	"github.com/mmdatafocus/itefm_backend/models/reports"
	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, skip int, header []string, rows [][]string) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetCellStr("Sheet1", "A1", "ITEFM export"); err != nil {
		t.Fatalf("SetCellStr: %v", err)
	}
	all := append([][]string{header}, rows...)
	for r, row := range all {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, skip+1+r)
			if err := f.SetCellStr("Sheet1", cell, v); err != nil {
				t.Fatalf("SetCellStr: %v", err)
			}
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer: %v", err)
	}
	return buf.Bytes()
}

func jobListing(t *testing.T) []byte {
	return writeWorkbook(t, models.JobListingSkipRows,
		[]string{"Equipment QR Code", "Status", "Frequency"},
		[][]string{
			{"CLC-001", "Closed", "Monthly"},
			{"MJC-001", "Open", "Weekly"},
			{"BPC-007", "Closed", "Monthly"},
		})
}

func assetList(t *testing.T) []byte {
	return writeWorkbook(t, models.AssetListSkipRows,
		[]string{"Equipment Tag Number", "SOT Type", "Physical Location"},
		[][]string{
			{"CLC-001", "Indoor CCTV", "Gate A"},
			{"CLC-002", "Indoor CCTV", "Gate B"},
			{"CLC-003", "Fire Alarm", "Gate C"},
			{"MJC-001", "Network Switch", "Server Room"},
		})
}

func TestGenerateReports_ProducesOneWorkbookPerCamp(t *testing.T) {
	group, _ := config.DefaultCampConfig().FindGroup("AC1")
	outputs := GenerateReports(context.Background(), Request{
		JobFile:   jobListing(t),
		AssetFile: assetList(t),
		Group:     *group,
		Keywords:  config.DefaultServiceKeywords,
	})

	if len(outputs) != 3 {
		t.Fatalf("expected 3 camp outputs, got %d", len(outputs))
	}
	cases := []struct {
		camp      string
		matched   int
		unmatched int
	}{
		{"CLC", 1, 1},
		{"MJC", 1, 0},
		{"BPC", 0, 0},
	}
	for i, tc := range cases {
		o := outputs[i]
		if o.Err != nil {
			t.Fatalf("%s: unexpected error %v", tc.camp, o.Err)
		}
		if o.Camp != tc.camp || o.FileName != tc.camp+"_report.xlsx" {
			t.Fatalf("output %d: got camp %q file %q", i, o.Camp, o.FileName)
		}
		if o.Matched != tc.matched || o.Unmatched != tc.unmatched || o.Total != tc.matched+tc.unmatched {
			t.Fatalf("%s: got matched=%d unmatched=%d total=%d", tc.camp, o.Matched, o.Unmatched, o.Total)
		}
		if len(o.Data) == 0 {
			t.Fatalf("%s: empty workbook", tc.camp)
		}
	}

	f, err := excelize.OpenReader(bytes.NewReader(outputs[0].Data))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(reports.SheetAllStatus)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 || rows[1][0] != "CLC-001" || rows[2][0] != "CLC-002" {
		t.Fatalf("unexpected all-status rows: %v", rows)
	}
	if rows[2][3] != models.StatusPendingJobCreation {
		t.Fatalf("expected CLC-002 pending, got %q", rows[2][3])
	}
	for _, row := range rows {
		if row[0] == "CLC-003" {
			t.Fatalf("Fire Alarm asset must be excluded")
		}
	}
}

func TestGenerateGroup_ContinuesAfterCampFailure(t *testing.T) {
	jobs := reports.NewTable(reports.TableJobListing, []string{models.ColumnEquipmentQRCode})
	jobs.Append([]string{"CLC-001"})
	// No SOT Type column: every camp fails with a missing-column error.
	assets := reports.NewTable(reports.TableAssetList, []string{models.ColumnEquipmentTagNumber})
	assets.Append([]string{"CLC-001"})

	group := config.CampGroup{Name: "X", Camps: []config.Camp{
		{Name: "CLC", Prefixes: []string{"CLC-"}},
		{Name: "MJC", Prefixes: []string{"MJC-"}},
	}}
	outputs := GenerateGroup(context.Background(), jobs, assets, group, config.DefaultServiceKeywords)

	if len(outputs) != 2 {
		t.Fatalf("expected both camps reported, got %d", len(outputs))
	}
	for _, o := range outputs {
		var notFound *reports.ColumnNotFoundError
		if !errors.As(o.Err, &notFound) {
			t.Fatalf("%s: expected ColumnNotFoundError, got %v", o.Camp, o.Err)
		}
		if o.ErrorMessage() == "" || o.Data != nil {
			t.Fatalf("%s: failed camp must carry a message and no data", o.Camp)
		}
	}
}

func TestGenerateReports_UnreadableUploadFailsEveryCamp(t *testing.T) {
	group, _ := config.DefaultCampConfig().FindGroup("AC3")
	outputs := GenerateReports(context.Background(), Request{
		JobFile:   []byte("not xlsx"),
		AssetFile: assetList(t),
		Group:     *group,
		Keywords:  config.DefaultServiceKeywords,
	})
	if len(outputs) != 2 {
		t.Fatalf("expected 2 outputs, got %d", len(outputs))
	}
	for _, o := range outputs {
		if o.Err == nil {
			t.Fatalf("%s: expected an error", o.Camp)
		}
	}
}

func TestGenerateReports_CacheReturnsSameOutputs(t *testing.T) {
	t.Setenv("ENABLE_REPORT_CACHE", "true")
	config.UseMemoryStore(16, time.Minute)

	group, _ := config.DefaultCampConfig().FindGroup("AC1")
	req := Request{JobFile: jobListing(t), AssetFile: assetList(t), Group: *group, Keywords: config.DefaultServiceKeywords}

	first := GenerateReports(context.Background(), req)
	if _, ok := cachedOutputs(context.Background(), req); !ok {
		t.Fatalf("expected cached outputs after first run")
	}
	second := GenerateReports(context.Background(), req)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("cached outputs differ (-first +second):\n%s", diff)
	}

	other := req
	other.Keywords = []string{"CCTV"}
	if reportCacheKey(other) == reportCacheKey(req) {
		t.Fatalf("keywords must be part of the cache key")
	}
}
