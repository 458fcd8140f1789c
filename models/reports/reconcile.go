package reports

import (
	"sort"

	"github.com/mmdatafocus/itefm_backend/models"
)

// Reconciliation is one camp's report content.
//
// All is Matched followed by Unmatched, pending rows defaulted to
// StatusPendingJobCreation and sorted by identifier. Matched and Unmatched
// keep the source values untouched.
type Reconciliation struct {
	All       []models.ReportRow `json:"all"`
	Matched   []models.ReportRow `json:"matched"`
	Unmatched []models.ReportRow `json:"unmatched"`
}

// Reconcile joins job records to asset records on equipment identifier.
//
// Every (job, asset) pair sharing an identifier is a matched row, in job
// order. Assets whose identifier matched no job are unmatched, in asset order.
// Jobs without an asset are dropped.
func Reconcile(jobs []models.JobRecord, assets []models.AssetRecord) *Reconciliation {
	byTag := make(map[string][]int, len(assets))
	for i, a := range assets {
		byTag[a.EquipmentTagNumber] = append(byTag[a.EquipmentTagNumber], i)
	}

	rec := &Reconciliation{}
	matchedIds := make(map[string]struct{})
	for _, job := range jobs {
		for _, ai := range byTag[job.EquipmentQRCode] {
			rec.Matched = append(rec.Matched, matchedRow(job, assets[ai]))
			matchedIds[job.EquipmentQRCode] = struct{}{}
		}
	}

	for _, a := range assets {
		if _, ok := matchedIds[a.EquipmentTagNumber]; ok {
			continue
		}
		rec.Unmatched = append(rec.Unmatched, unmatchedRow(a))
	}

	rec.All = make([]models.ReportRow, 0, len(rec.Matched)+len(rec.Unmatched))
	rec.All = append(rec.All, rec.Matched...)
	rec.All = append(rec.All, rec.Unmatched...)
	for i := range rec.All {
		if rec.All[i].JobStatus == nil {
			pending := models.StatusPendingJobCreation
			rec.All[i].JobStatus = &pending
		}
	}
	sort.SliceStable(rec.All, func(i, j int) bool {
		return rec.All[i].EquipmentQRCode < rec.All[j].EquipmentQRCode
	})
	return rec
}

// matchedRow takes every field from the job except Status, which is the
// asset's.
func matchedRow(job models.JobRecord, asset models.AssetRecord) models.ReportRow {
	return models.ReportRow{
		EquipmentQRCode:       job.EquipmentQRCode,
		TypeOfService:         job.TypeOfService,
		Location:              job.Location,
		JobStatus:             job.JobStatus,
		JobCannotBeDone:       job.JobCannotBeDone,
		JobCannotBeDoneReason: job.JobCannotBeDoneReason,
		JobClosedMonth:        job.JobClosedMonth,
		Status:                asset.Status,
		Frequency:             job.Frequency,
		ScheduledStart:        job.ScheduledStart,
		ScheduledEnd:          job.ScheduledEnd,
	}
}

func unmatchedRow(asset models.AssetRecord) models.ReportRow {
	row := models.ReportRow{
		EquipmentQRCode: asset.EquipmentTagNumber,
		Location:        asset.PhysicalLocation,
		Status:          asset.Status,
	}
	if asset.SOTType != "" {
		sot := asset.SOTType
		row.TypeOfService = &sot
	}
	return row
}
