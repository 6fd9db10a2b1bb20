package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"cultural-property-api/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Validation bounds. Coordinates outside the national bounding box are
// treated as data entry errors, both ends inclusive.
const (
	latitudeMin  = 20.0
	latitudeMax  = 46.0
	longitudeMin = 122.0
	longitudeMax = 154.0

	// maxTextLength is the column width of name and address.
	maxTextLength = 254

	// DefaultType is the sentinel stored when the source omits the type
	// column or leaves it empty.
	DefaultType = "不明"

	// duplicateTolerance is the coordinate distance (degrees, ~10 m) under
	// which an identically named existing record counts as a duplicate.
	duplicateTolerance = 0.0001

	// sessionTimeout bounds how long a preview result stays retrievable.
	sessionTimeout = 30 * time.Minute

	sessionKeyPrefix = "csv_import_session:"
)

// ImportRepository is the persistence surface the import pipeline depends on.
type ImportRepository interface {
	// FindDuplicate returns an existing property whose name matches exactly
	// and whose coordinates are each within tolerance, or nil.
	FindDuplicate(ctx context.Context, name string, lat, lon, tolerance float64) (*models.CulturalProperty, error)

	// BulkCreateProperties creates every property inside one transaction.
	// The returned slices are aligned with props: ids[i] is the new record
	// id, rowErrs[i] is non-nil when that row's insert failed. A failed row
	// does not abort its siblings; only an infrastructural failure returns
	// a non-nil error, in which case nothing was written.
	BulkCreateProperties(ctx context.Context, props []*models.CulturalProperty) (ids []int64, rowErrs []error, err error)
}

// SessionStore is a key-value cache with per-entry time-to-live, holding
// serialized preview results between the preview and commit calls.
type SessionStore interface {
	Set(key string, value []byte, ttl time.Duration)
	Get(key string) ([]byte, bool)
	Delete(key string)
}

// ImportService implements the two-phase CSV import: a read-only preview that
// classifies every row and stages the result under a session id, and a commit
// that writes the selected rows in one transaction.
type ImportService struct {
	repo     ImportRepository
	sessions SessionStore
}

// NewImportService creates a new import service.
func NewImportService(repo ImportRepository, sessions SessionStore) *ImportService {
	return &ImportService{repo: repo, sessions: sessions}
}

// Preview parses, validates and classifies every row of an uploaded CSV file
// without touching the datastore, stores the result under a fresh session id
// for 30 minutes, and returns both. encodingName may be empty or "auto" to
// trigger detection; checkDuplicates toggles the proximity scan against
// existing records.
func (s *ImportService) Preview(ctx context.Context, content []byte, filename, encodingName string, checkDuplicates bool) (*models.ImportPreviewResult, string, error) {
	log.Info().Str("filename", filename).Msg("CSV preview started")

	detected := encodingName
	if detected == "" || detected == "auto" {
		detected = DetectEncoding(content)
	}

	rowsData, columns, err := parseCSV(content, detected)
	if err != nil {
		return nil, "", err
	}

	columnMap := detectColumnMapping(columns)

	rows := make([]*models.ImportRow, 0, len(rowsData))
	for i, rowData := range rowsData {
		row, err := s.processRow(ctx, rowData, i+1, columnMap, checkDuplicates)
		if err != nil {
			return nil, "", err
		}
		rows = append(rows, row)
	}

	result := &models.ImportPreviewResult{
		Filename:         filename,
		TotalRows:        len(rows),
		ColumnsDetected:  columns,
		Rows:             rows,
		DetectedEncoding: detected,
	}
	for _, row := range rows {
		switch row.Status {
		case models.ImportStatusValid:
			result.ValidRows++
		case models.ImportStatusError:
			result.ErrorRows++
		case models.ImportStatusDuplicate:
			result.DuplicateRows++
		case models.ImportStatusWarning:
			result.WarningRows++
		}
	}

	sessionID := uuid.NewString()
	if err := s.saveSession(sessionID, result); err != nil {
		return nil, "", err
	}

	log.Info().
		Int("total", result.TotalRows).
		Int("valid", result.ValidRows).
		Int("errors", result.ErrorRows).
		Int("duplicates", result.DuplicateRows).
		Str("encoding", detected).
		Msg("CSV preview completed")

	return result, sessionID, nil
}

// ExecuteOptions selects what a commit call imports and on whose behalf.
type ExecuteOptions struct {
	// SessionID references a stored preview. Rows may be supplied directly
	// instead, in which case SessionID is empty.
	SessionID string
	Rows      []*models.ImportRow

	CreatedBy          *int64
	SkipErrors         bool
	SkipDuplicates     bool
	SelectedRowNumbers []int
}

// Execute writes the rows staged by a preview. Error and duplicate rows are
// skipped or not according to the options; all creations happen inside one
// transaction, and a single row failing there is recorded without aborting
// its siblings. Every failure mode is reported through the result rather
// than an error return.
func (s *ImportService) Execute(ctx context.Context, opts ExecuteOptions) *models.ImportExecuteResult {
	log.Info().Str("session_id", opts.SessionID).Msg("CSV import execute started")

	rows := opts.Rows
	if opts.SessionID != "" {
		stored, ok := s.loadSession(opts.SessionID)
		if !ok {
			log.Error().Str("session_id", opts.SessionID).Msg("import session not found")
			return &models.ImportExecuteResult{
				Success: false,
				Errors:  []models.ImportRowError{{Message: "セッションが期限切れか見つかりません"}},
			}
		}
		rows = stored.Rows
	}

	if len(rows) == 0 {
		return &models.ImportExecuteResult{
			Success: false,
			Errors:  []models.ImportRowError{{Message: "インポート対象の行がありません"}},
		}
	}

	if len(opts.SelectedRowNumbers) > 0 {
		selected := make(map[int]bool, len(opts.SelectedRowNumbers))
		for _, n := range opts.SelectedRowNumbers {
			selected[n] = true
		}
		filtered := rows[:0:0]
		for _, row := range rows {
			if selected[row.RowNumber] {
				filtered = append(filtered, row)
			}
		}
		rows = filtered
	}

	var (
		toImport       []*models.ImportRow
		skippedCount   int
		errorCount     int
		duplicateCount int
	)

	for _, row := range rows {
		switch row.Status {
		case models.ImportStatusError:
			if !opts.SkipErrors {
				// Strict mode: the whole commit aborts on the first
				// error row, nothing is written.
				return &models.ImportExecuteResult{
					Success:        false,
					SkippedCount:   skippedCount,
					ErrorCount:     errorCount,
					DuplicateCount: duplicateCount,
					Errors: []models.ImportRowError{{
						Row:     row.RowNumber,
						Message: strings.Join(row.Errors, "; "),
					}},
				}
			}
			skippedCount++
			errorCount++
		case models.ImportStatusDuplicate:
			if opts.SkipDuplicates {
				skippedCount++
				duplicateCount++
			} else {
				toImport = append(toImport, row)
			}
		case models.ImportStatusValid, models.ImportStatusWarning:
			toImport = append(toImport, row)
		}
	}

	props := make([]*models.CulturalProperty, len(toImport))
	for i, row := range toImport {
		props[i] = propertyFromRow(row, opts.CreatedBy)
	}

	ids, rowErrs, err := s.repo.BulkCreateProperties(ctx, props)
	if err != nil {
		log.Error().Err(err).Msg("import transaction failed")
		return &models.ImportExecuteResult{
			Success:        false,
			SkippedCount:   skippedCount,
			ErrorCount:     errorCount,
			DuplicateCount: duplicateCount,
			Errors:         []models.ImportRowError{{Message: fmt.Sprintf("データベースエラー: %v", err)}},
		}
	}

	var createdIDs []int64
	var rowErrors []models.ImportRowError
	for i, row := range toImport {
		if rowErrs[i] != nil {
			log.Error().Err(rowErrs[i]).Int("row", row.RowNumber).Msg("row import failed")
			rowErrors = append(rowErrors, models.ImportRowError{
				Row:     row.RowNumber,
				Name:    stringOrEmpty(row.Name),
				Message: rowErrs[i].Error(),
			})
			errorCount++
			continue
		}
		createdIDs = append(createdIDs, ids[i])
	}

	if opts.SessionID != "" {
		s.sessions.Delete(sessionKeyPrefix + opts.SessionID)
	}

	log.Info().
		Int("imported", len(createdIDs)).
		Int("skipped", skippedCount).
		Msg("CSV import completed")

	return &models.ImportExecuteResult{
		Success:        true,
		ImportedCount:  len(createdIDs),
		SkippedCount:   skippedCount,
		ErrorCount:     errorCount,
		DuplicateCount: duplicateCount,
		Errors:         rowErrors,
		CreatedIDs:     createdIDs,
	}
}

// processRow converts one raw CSV row into a classified ImportRow. Each step
// may only escalate the status; every check runs even after an earlier error
// so the row carries its complete diagnostics in one pass.
func (s *ImportService) processRow(ctx context.Context, rowData map[string]string, rowNumber int, columnMap map[importField]string, checkDuplicates bool) (*models.ImportRow, error) {
	row := &models.ImportRow{
		RowNumber: rowNumber,
		Status:    models.ImportStatusValid,
		RawData:   rowData,
	}

	// Walk fields in canonical order so compound error lists come out
	// deterministic.
	for _, entry := range columnAliases {
		field := entry.field
		csvColumn, mapped := columnMap[field]
		if !mapped {
			continue
		}
		raw := strings.TrimSpace(rowData[csvColumn])
		if raw == "" {
			continue
		}

		switch field {
		case fieldLatitude, fieldLongitude:
			value, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				row.AddError(fmt.Sprintf("%sが数値ではありません: %s", field, raw))
				continue
			}
			if field == fieldLatitude {
				row.Latitude = &value
			} else {
				row.Longitude = &value
			}
		case fieldName:
			row.Name = &raw
		case fieldNameKana:
			row.NameKana = &raw
		case fieldNameEn:
			row.NameEn = &raw
		case fieldCategory:
			row.Category = &raw
		case fieldType:
			row.Type = &raw
		case fieldPlaceName:
			row.PlaceName = &raw
		case fieldAddress:
			row.Address = &raw
		case fieldURL:
			row.URL = &raw
		case fieldNote:
			row.Note = &raw
		}
	}

	if row.Type == nil {
		defaultType := DefaultType
		row.Type = &defaultType
		row.AddWarning(fmt.Sprintf("種類が空のため、デフォルト値「%s」を設定しました", DefaultType))
	}

	for _, field := range requiredFields {
		if !hasField(row, field) {
			row.AddError(fmt.Sprintf("%sは必須項目です", field))
		}
	}

	if row.Status != models.ImportStatusError {
		validateRow(row)
	}

	if row.Status != models.ImportStatusError && checkDuplicates &&
		row.Name != nil && row.Latitude != nil && row.Longitude != nil {
		dup, err := s.repo.FindDuplicate(ctx, *row.Name, *row.Latitude, *row.Longitude, duplicateTolerance)
		if err != nil {
			return nil, fmt.Errorf("service: duplicate check failed: %w", err)
		}
		if dup != nil {
			row.MarkDuplicate(dup.ID, fmt.Sprintf("既存データと重複しています (ID: %d)", dup.ID))
		}
	}

	return row, nil
}

// validateRow applies the field-level rules that run only when the required
// fields are all present: coordinate bounds, URL scheme and text width.
func validateRow(row *models.ImportRow) {
	if row.Latitude != nil && (*row.Latitude < latitudeMin || *row.Latitude > latitudeMax) {
		row.AddError(fmt.Sprintf("緯度が日本国内の範囲外です: %v (有効範囲: %v〜%v)", *row.Latitude, latitudeMin, latitudeMax))
	}

	if row.Longitude != nil && (*row.Longitude < longitudeMin || *row.Longitude > longitudeMax) {
		row.AddError(fmt.Sprintf("経度が日本国内の範囲外です: %v (有効範囲: %v〜%v)", *row.Longitude, longitudeMin, longitudeMax))
	}

	if row.URL != nil && !strings.HasPrefix(*row.URL, "http://") && !strings.HasPrefix(*row.URL, "https://") {
		row.AddWarning(fmt.Sprintf("URLの形式が不正です: %s", *row.URL))
	}

	if row.Name != nil && utf8.RuneCountInString(*row.Name) > maxTextLength {
		row.AddError(fmt.Sprintf("名称が長すぎます (最大%d文字)", maxTextLength))
	}

	if row.Address != nil && utf8.RuneCountInString(*row.Address) > maxTextLength {
		row.AddError(fmt.Sprintf("住所が長すぎます (最大%d文字)", maxTextLength))
	}
}

// hasField reports whether a required field is present on the row.
func hasField(row *models.ImportRow, field importField) bool {
	switch field {
	case fieldName:
		return row.Name != nil
	case fieldAddress:
		return row.Address != nil
	case fieldLatitude:
		return row.Latitude != nil
	case fieldLongitude:
		return row.Longitude != nil
	default:
		return true
	}
}

// propertyFromRow materializes a staged row as the record to persist, nulls
// collapsing to empty strings and type falling back to the sentinel.
func propertyFromRow(row *models.ImportRow, createdBy *int64) *models.CulturalProperty {
	p := &models.CulturalProperty{
		Name:      stringOrEmpty(row.Name),
		NameKana:  stringOrEmpty(row.NameKana),
		NameEn:    stringOrEmpty(row.NameEn),
		Category:  stringOrEmpty(row.Category),
		Type:      stringOrEmpty(row.Type),
		PlaceName: stringOrEmpty(row.PlaceName),
		Address:   stringOrEmpty(row.Address),
		URL:       stringOrEmpty(row.URL),
		Note:      stringOrEmpty(row.Note),
		CreatedBy: createdBy,
	}
	if p.Type == "" {
		p.Type = DefaultType
	}
	if row.Latitude != nil {
		p.Latitude = *row.Latitude
	}
	if row.Longitude != nil {
		p.Longitude = *row.Longitude
	}
	return p
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (s *ImportService) saveSession(sessionID string, result *models.ImportPreviewResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("service: failed to serialize preview result: %w", err)
	}
	s.sessions.Set(sessionKeyPrefix+sessionID, data, sessionTimeout)
	log.Info().Str("session_id", sessionID).Msg("import session saved")
	return nil
}

func (s *ImportService) loadSession(sessionID string) (*models.ImportPreviewResult, bool) {
	data, ok := s.sessions.Get(sessionKeyPrefix + sessionID)
	if !ok {
		return nil, false
	}
	var result models.ImportPreviewResult
	if err := json.Unmarshal(data, &result); err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("failed to deserialize import session")
		return nil, false
	}
	return &result, true
}
