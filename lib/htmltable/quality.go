package htmltable

// ValidationStatus grades how complete an extraction came out.
type ValidationStatus string

const (
	StatusValid      ValidationStatus = "VALID"
	StatusPartial    ValidationStatus = "PARTIAL"
	StatusIncomplete ValidationStatus = "INCOMPLETE"
)

// QualityThresholds are the completeness cutoffs for the validation
// status. The defaults mirror the portal team's monitoring convention;
// they are a tuning knob, not a correctness boundary.
type QualityThresholds struct {
	Valid   float64
	Partial float64
}

var DefaultQualityThresholds = QualityThresholds{Valid: 70, Partial: 50}

// Quality summarizes how much of a snapshot's expected data actually
// made it out of the markup.
type Quality struct {
	TotalRecords    int              `json:"total_records"`
	RecordsWithData int              `json:"records_with_data"`
	CompletenessPct float64          `json:"completeness_pct"`
	Status          ValidationStatus `json:"validation_status"`
}

func measureQuality(records []Record, field string, qt QualityThresholds) Quality {
	withData := 0
	for _, r := range records {
		if r.Values[field] != nil {
			withData++
		}
	}

	pct := 0.0
	if len(records) > 0 {
		pct = float64(withData) / float64(len(records)) * 100
	}

	status := StatusIncomplete
	switch {
	case len(records) > 0 && pct >= qt.Valid:
		status = StatusValid
	case len(records) > 0 && pct >= qt.Partial:
		status = StatusPartial
	}

	return Quality{
		TotalRecords:    len(records),
		RecordsWithData: withData,
		CompletenessPct: pct,
		Status:          status,
	}
}
