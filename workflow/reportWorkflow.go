package workflow

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/mmdatafocus/itefm_backend/config"
	"github.com/mmdatafocus/itefm_backend/models"
	"github.com/mmdatafocus/itefm_backend/models/reports"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("itefm-report")

// CampOutput is the outcome of one camp. Err is set when the camp failed;
// the other camps of the run are unaffected.
type CampOutput struct {
	Camp      string
	FileName  string
	Data      []byte
	Matched   int
	Unmatched int
	Total     int
	Err       error
}

// ErrorMessage is the text shown to the user for a failed camp.
func (o CampOutput) ErrorMessage() string {
	if o.Err == nil {
		return ""
	}
	return fmt.Sprintf("%s Error: %v", o.Camp, o.Err)
}

// Request carries everything one generation run needs.
type Request struct {
	JobFile   []byte
	AssetFile []byte
	Group     config.CampGroup
	Keywords  []string
}

// GenerateReports loads both uploads and builds one workbook per camp of the
// group, in group order. An unreadable upload fails every camp.
func GenerateReports(ctx context.Context, req Request) []CampOutput {
	started := time.Now()
	ctx, span := tracer.Start(ctx, "GenerateReports", trace.WithAttributes(
		attribute.String("camp_group", req.Group.Name),
		attribute.Int("camps", len(req.Group.Camps)),
	))
	defer span.End()

	if cached, ok := cachedOutputs(ctx, req); ok {
		span.SetAttributes(attribute.Bool("cache_hit", true))
		return cached
	}

	jobs, assets, err := loadTables(req)
	if err != nil {
		span.RecordError(err)
		outputs := make([]CampOutput, 0, len(req.Group.Camps))
		for _, camp := range req.Group.Camps {
			outputs = append(outputs, CampOutput{Camp: camp.Name, FileName: reports.ReportFileName(camp.Name), Err: err})
		}
		logCampErrors(outputs)
		return outputs
	}

	outputs := GenerateGroup(ctx, jobs, assets, req.Group, req.Keywords)
	storeOutputs(ctx, req, outputs)
	logSlowReport(ctx, "GenerateReports", started, map[string]any{"camp_group": req.Group.Name, "job_rows": jobs.Len(), "asset_rows": assets.Len()})
	return outputs
}

func loadTables(req Request) (*reports.Table, *reports.Table, error) {
	jobs, err := reports.LoadJobListing(bytes.NewReader(req.JobFile))
	if err != nil {
		return nil, nil, fmt.Errorf("job listing: %w", err)
	}
	assets, err := reports.LoadAssetList(bytes.NewReader(req.AssetFile))
	if err != nil {
		return nil, nil, fmt.Errorf("asset list: %w", err)
	}
	return jobs, assets, nil
}

// GenerateGroup runs every camp of the group against already loaded tables.
func GenerateGroup(ctx context.Context, jobs, assets *reports.Table, group config.CampGroup, keywords []string) []CampOutput {
	outputs := make([]CampOutput, 0, len(group.Camps))
	for _, camp := range group.Camps {
		out := CampOutput{Camp: camp.Name, FileName: reports.ReportFileName(camp.Name)}
		rec, err := ProcessCamp(ctx, jobs, assets, camp, keywords)
		if err == nil {
			var buf *bytes.Buffer
			buf, err = reports.ExportExcel(rec)
			if err == nil {
				out.Data = buf.Bytes()
				out.Matched = len(rec.Matched)
				out.Unmatched = len(rec.Unmatched)
				out.Total = len(rec.All)
			}
		}
		out.Err = err
		outputs = append(outputs, out)
	}
	logCampErrors(outputs)
	return outputs
}

// ProcessCamp filters both tables down to one camp and reconciles them.
// Panics are turned into errors so one bad camp cannot abort a run.
func ProcessCamp(ctx context.Context, jobs, assets *reports.Table, camp config.Camp, keywords []string) (rec *reports.Reconciliation, err error) {
	_, span := tracer.Start(ctx, "ProcessCamp", trace.WithAttributes(attribute.String("camp", camp.Name)))
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unexpected failure: %v", r)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	campJobs, err := reports.FilterPrefix(jobs, models.ColumnEquipmentQRCode, camp.Prefixes)
	if err != nil {
		return nil, err
	}
	campAssets, err := reports.FilterPrefix(assets, models.ColumnEquipmentTagNumber, camp.Prefixes)
	if err != nil {
		return nil, err
	}
	campAssets, err = reports.FilterContains(campAssets, models.ColumnSOTType, keywords)
	if err != nil {
		return nil, err
	}

	jobRecords, err := reports.JobRecords(campJobs)
	if err != nil {
		return nil, err
	}
	assetRecords, err := reports.AssetRecords(campAssets)
	if err != nil {
		return nil, err
	}

	rec = reports.Reconcile(jobRecords, assetRecords)
	span.SetAttributes(
		attribute.Int("matched", len(rec.Matched)),
		attribute.Int("unmatched", len(rec.Unmatched)),
	)
	return rec, nil
}

func logCampErrors(outputs []CampOutput) {
	logger := config.GetLogger()
	for _, o := range outputs {
		if o.Err == nil {
			continue
		}
		logger.WithFields(logrus.Fields{
			"module":   "reportWorkflow.go",
			"funcName": "GenerateReports",
			"camp":     o.Camp,
		}).Warn(o.ErrorMessage())
	}
}
