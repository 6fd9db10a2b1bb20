package models

// ImportStatus classifies one CSV row during import preview.
type ImportStatus string

const (
	ImportStatusValid     ImportStatus = "valid"
	ImportStatusWarning   ImportStatus = "warning"
	ImportStatusDuplicate ImportStatus = "duplicate"
	ImportStatusError     ImportStatus = "error"
)

// statusSeverity orders statuses so that transitions can only move forward:
// valid -> warning -> duplicate -> error. A duplicate finding overrides an
// earlier warning, and error is terminal.
var statusSeverity = map[ImportStatus]int{
	ImportStatusValid:     0,
	ImportStatusWarning:   1,
	ImportStatusDuplicate: 2,
	ImportStatusError:     3,
}

// Escalate returns the more severe of the two statuses. It never downgrades,
// which makes the row state machine append-only.
func (s ImportStatus) Escalate(to ImportStatus) ImportStatus {
	if statusSeverity[to] > statusSeverity[s] {
		return to
	}
	return s
}

// ImportRow is one candidate record extracted from one CSV data line. It is a
// staging artifact: rows live in the preview session cache, never in the
// primary datastore.
type ImportRow struct {
	RowNumber int               `json:"row_number"` // 1-based, header excluded
	Status    ImportStatus      `json:"status"`
	Errors    []string          `json:"errors"`
	Warnings  []string          `json:"warnings"`
	RawData   map[string]string `json:"raw_data,omitempty"`

	Name      *string  `json:"name"`
	NameKana  *string  `json:"name_kana"`
	NameEn    *string  `json:"name_en"`
	Category  *string  `json:"category"`
	Type      *string  `json:"type"`
	PlaceName *string  `json:"place_name"`
	Address   *string  `json:"address"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	URL       *string  `json:"url"`
	Note      *string  `json:"note"`

	// Set only when Status is duplicate: the id of the existing record
	// this row collides with.
	DuplicateID *int64 `json:"duplicate_id"`
}

// AddError records a row-level validation failure and forces error status.
func (r *ImportRow) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Status = r.Status.Escalate(ImportStatusError)
}

// AddWarning records an informational finding. Warnings raise a valid row to
// warning status but never block import.
func (r *ImportRow) AddWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
	r.Status = r.Status.Escalate(ImportStatusWarning)
}

// MarkDuplicate flags the row as colliding with an existing record.
func (r *ImportRow) MarkDuplicate(id int64, msg string) {
	r.DuplicateID = &id
	r.Warnings = append(r.Warnings, msg)
	r.Status = r.Status.Escalate(ImportStatusDuplicate)
}

// ImportPreviewResult aggregates the classification of every row of one
// uploaded file. It is serialized into the session cache under the session id
// returned alongside it.
type ImportPreviewResult struct {
	Filename         string       `json:"filename"`
	TotalRows        int          `json:"total_rows"`
	ValidRows        int          `json:"valid_rows"`
	ErrorRows        int          `json:"error_rows"`
	DuplicateRows    int          `json:"duplicate_rows"`
	WarningRows      int          `json:"warning_rows"`
	ColumnsDetected  []string     `json:"columns_detected"`
	Rows             []*ImportRow `json:"rows"`
	DetectedEncoding string       `json:"detected_encoding"`
}

// ImportRowError ties a commit-phase failure to the row it occurred on.
type ImportRowError struct {
	Row     int    `json:"row,omitempty"`
	Name    string `json:"name,omitempty"`
	Message string `json:"message"`
}

// ImportExecuteResult is the outcome of one commit call.
type ImportExecuteResult struct {
	Success        bool             `json:"success"`
	ImportedCount  int              `json:"imported_count"`
	SkippedCount   int              `json:"skipped_count"`
	ErrorCount     int              `json:"error_count"`
	DuplicateCount int              `json:"duplicate_count"`
	Errors         []ImportRowError `json:"errors"`
	CreatedIDs     []int64          `json:"created_ids"`
}
