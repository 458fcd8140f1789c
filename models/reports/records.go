package reports

import "github.com/mmdatafocus/itefm_backend/models"

// JobRecords converts a job listing into records. Equipment QR Code is
// required; the job status is read from "Job Status", or from "Status" when
// the listing has no "Job Status" column.
func JobRecords(t *Table) ([]models.JobRecord, error) {
	idIdx, err := t.ColumnIndex(models.ColumnEquipmentQRCode)
	if err != nil {
		return nil, err
	}
	statusIdx := optionalIndex(t, models.ColumnJobStatus)
	if statusIdx < 0 {
		statusIdx = optionalIndex(t, models.ColumnStatus)
	}
	var (
		serviceIdx   = optionalIndex(t, models.ColumnTypeOfService)
		locationIdx  = optionalIndex(t, models.ColumnLocation)
		cannotIdx    = optionalIndex(t, models.ColumnJobCannotBeDone)
		reasonIdx    = optionalIndex(t, models.ColumnJobCannotBeDoneReason)
		closedIdx    = optionalIndex(t, models.ColumnJobClosedMonth)
		frequencyIdx = optionalIndex(t, models.ColumnFrequency)
		startIdx     = optionalIndex(t, models.ColumnScheduledStart)
		endIdx       = optionalIndex(t, models.ColumnScheduledEnd)
	)

	records := make([]models.JobRecord, 0, t.Len())
	for _, row := range t.Rows {
		records = append(records, models.JobRecord{
			EquipmentQRCode:       row[idIdx],
			TypeOfService:         Cell(row, serviceIdx),
			Location:              Cell(row, locationIdx),
			JobStatus:             Cell(row, statusIdx),
			JobCannotBeDone:       Cell(row, cannotIdx),
			JobCannotBeDoneReason: Cell(row, reasonIdx),
			JobClosedMonth:        Cell(row, closedIdx),
			Frequency:             Cell(row, frequencyIdx),
			ScheduledStart:        Cell(row, startIdx),
			ScheduledEnd:          Cell(row, endIdx),
		})
	}
	return records, nil
}

// AssetRecords converts a master asset list into records. Equipment Tag
// Number and SOT Type are required.
func AssetRecords(t *Table) ([]models.AssetRecord, error) {
	idIdx, err := t.ColumnIndex(models.ColumnEquipmentTagNumber)
	if err != nil {
		return nil, err
	}
	sotIdx, err := t.ColumnIndex(models.ColumnSOTType)
	if err != nil {
		return nil, err
	}
	locationIdx := optionalIndex(t, models.ColumnPhysicalLocation)
	statusIdx := optionalIndex(t, models.ColumnStatus)

	records := make([]models.AssetRecord, 0, t.Len())
	for _, row := range t.Rows {
		records = append(records, models.AssetRecord{
			EquipmentTagNumber: row[idIdx],
			SOTType:            row[sotIdx],
			PhysicalLocation:   Cell(row, locationIdx),
			Status:             Cell(row, statusIdx),
		})
	}
	return records, nil
}

func optionalIndex(t *Table, column string) int {
	idx, err := t.ColumnIndex(column)
	if err != nil {
		return -1
	}
	return idx
}
