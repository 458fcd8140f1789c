package models

import "github.com/mmdatafocus/itefm_backend/utils"

// Column headers as they appear in the uploaded exports and in the generated reports.
const (
	ColumnEquipmentQRCode       = "Equipment QR Code"
	ColumnTypeOfService         = "Type of Service"
	ColumnLocation              = "Location"
	ColumnJobStatus             = "Job Status"
	ColumnJobCannotBeDone       = "Job Cannot Be Done"
	ColumnJobCannotBeDoneReason = "Job Cannot be Done Reason"
	ColumnJobClosedMonth        = "Job Closed Date Time Month"
	ColumnStatus                = "Status"
	ColumnFrequency             = "Frequency"
	ColumnScheduledStart        = "Scheduled Start"
	ColumnScheduledEnd          = "Scheduled End"

	ColumnEquipmentTagNumber = "Equipment Tag Number"
	ColumnSOTType            = "SOT Type"
	ColumnPhysicalLocation   = "Physical Location"
)

// Leading rows to skip before the header row of each upload.
const (
	JobListingSkipRows = 8
	AssetListSkipRows  = 5
)

// StatusPendingJobCreation marks equipment with no job in the listing.
const StatusPendingJobCreation = "Pending Job Creation"

// ReportColumns is the column order of every report sheet.
var ReportColumns = []string{
	ColumnEquipmentQRCode,
	ColumnTypeOfService,
	ColumnLocation,
	ColumnJobStatus,
	ColumnJobCannotBeDone,
	ColumnJobCannotBeDoneReason,
	ColumnJobClosedMonth,
	ColumnStatus,
	ColumnFrequency,
	ColumnScheduledStart,
	ColumnScheduledEnd,
}

// JobRecord is one row of the job listing. Nil fields were empty or missing.
type JobRecord struct {
	EquipmentQRCode       string
	TypeOfService         *string
	Location              *string
	JobStatus             *string
	JobCannotBeDone       *string
	JobCannotBeDoneReason *string
	JobClosedMonth        *string
	Frequency             *string
	ScheduledStart        *string
	ScheduledEnd          *string
}

// AssetRecord is one row of a master asset list.
type AssetRecord struct {
	EquipmentTagNumber string
	SOTType            string
	PhysicalLocation   *string
	Status             *string
}

type ReportRow struct {
	EquipmentQRCode       string  `json:"equipment_qr_code"`
	TypeOfService         *string `json:"type_of_service"`
	Location              *string `json:"location"`
	JobStatus             *string `json:"job_status"`
	JobCannotBeDone       *string `json:"job_cannot_be_done"`
	JobCannotBeDoneReason *string `json:"job_cannot_be_done_reason"`
	JobClosedMonth        *string `json:"job_closed_month"`
	Status                *string `json:"status"`
	Frequency             *string `json:"frequency"`
	ScheduledStart        *string `json:"scheduled_start"`
	ScheduledEnd          *string `json:"scheduled_end"`
}

// Values returns the row in ReportColumns order; absent values are nil.
func (r ReportRow) Values() []*string {
	id := r.EquipmentQRCode
	return []*string{
		&id,
		r.TypeOfService,
		r.Location,
		r.JobStatus,
		r.JobCannotBeDone,
		r.JobCannotBeDoneReason,
		r.JobClosedMonth,
		r.Status,
		r.Frequency,
		r.ScheduledStart,
		r.ScheduledEnd,
	}
}

func (r ReportRow) IsPendingJobCreation() bool {
	return utils.DereferencePtr(r.JobStatus) == StatusPendingJobCreation
}
