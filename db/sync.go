// ABOUTME: Database operations for sync_state and sync_log tables
// ABOUTME: Records per-vendor run outcomes so failed vendors can be retried
package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ProxiMyti/proximyti-monday-integration/models"
	"github.com/ProxiMyti/proximyti-monday-integration/sync"
)

// SyncState represents the sync state for a target.
type SyncState struct {
	Service      string
	LastSyncTime *time.Time
	LastRunID    *string
	Status       string
	ErrorMessage *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// LogEntry is one vendor's recorded outcome in a run.
type LogEntry struct {
	ID         string
	RunID      string
	Target     string
	RecordKey  string
	VendorName string
	Status     string
	Action     string
	Error      string
	CreatedAt  time.Time
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// GetSyncState retrieves the sync state for a target.
func GetSyncState(db *sql.DB, service string) (*SyncState, error) {
	var state SyncState
	var lastSyncTime sql.NullTime
	var lastRunID sql.NullString
	var errorMessage sql.NullString

	err := db.QueryRow(`
		SELECT service, last_sync_time, last_run_id, status, error_message, created_at, updated_at
		FROM sync_state
		WHERE service = ?
	`, service).Scan(
		&state.Service,
		&lastSyncTime,
		&lastRunID,
		&state.Status,
		&errorMessage,
		&state.CreatedAt,
		&state.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sync state: %w", err)
	}

	if lastSyncTime.Valid {
		state.LastSyncTime = &lastSyncTime.Time
	}
	if lastRunID.Valid {
		state.LastRunID = &lastRunID.String
	}
	if errorMessage.Valid {
		state.ErrorMessage = &errorMessage.String
	}

	return &state, nil
}

// UpdateSyncStatus updates the sync status for a target.
func UpdateSyncStatus(db *sql.DB, service, status string, errorMsg *string) error {
	var errorMsgVal sql.NullString
	if errorMsg != nil {
		errorMsgVal = sql.NullString{String: *errorMsg, Valid: true}
	}

	_, err := db.Exec(`
		INSERT INTO sync_state (service, status, error_message, created_at, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(service) DO UPDATE SET
			status = excluded.status,
			error_message = excluded.error_message,
			updated_at = CURRENT_TIMESTAMP
	`, service, status, errorMsgVal)

	if err != nil {
		return fmt.Errorf("failed to update sync status: %w", err)
	}

	return nil
}

// RecordOutcomes writes every outcome of a run and marks the target idle
// with runID as its latest run.
func RecordOutcomes(db *sql.DB, runID, target string, report *sync.Report) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
		INSERT INTO sync_log (id, run_id, target, record_key, vendor_name, status, action, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare sync log insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, o := range report.Outcomes {
		var errText sql.NullString
		if err := o.Joined(); err != nil {
			errText = sql.NullString{String: err.Error(), Valid: true}
		}
		if _, err := stmt.Exec(uuid.NewString(), runID, target, o.Key, o.Name, o.Status, o.Action, errText); err != nil {
			return fmt.Errorf("failed to record outcome for %s: %w", o.Key, err)
		}
	}

	_, err = tx.Exec(`
		INSERT INTO sync_state (service, last_sync_time, last_run_id, status, created_at, updated_at)
		VALUES (?, CURRENT_TIMESTAMP, ?, 'idle', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(service) DO UPDATE SET
			last_sync_time = CURRENT_TIMESTAMP,
			last_run_id = excluded.last_run_id,
			status = 'idle',
			error_message = NULL,
			updated_at = CURRENT_TIMESTAMP
	`, target, runID)
	if err != nil {
		return fmt.Errorf("failed to update sync state: %w", err)
	}

	return tx.Commit()
}

// LatestRunID returns the id of the last recorded run for target, or "".
func LatestRunID(db *sql.DB, target string) (string, error) {
	state, err := GetSyncState(db, target)
	if err != nil {
		return "", err
	}
	if state == nil || state.LastRunID == nil {
		return "", nil
	}
	return *state.LastRunID, nil
}

// RunOutcomes returns the recorded outcomes of one run in insertion order.
func RunOutcomes(db *sql.DB, target, runID string) ([]LogEntry, error) {
	rows, err := db.Query(`
		SELECT id, run_id, target, record_key, vendor_name, status, action, error, created_at
		FROM sync_log
		WHERE target = ? AND run_id = ?
		ORDER BY rowid
	`, target, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync log: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []LogEntry
	for rows.Next() {
		var e LogEntry
		var vendorName, errText sql.NullString

		if err := rows.Scan(&e.ID, &e.RunID, &e.Target, &e.RecordKey, &vendorName, &e.Status, &e.Action, &errText, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan sync log: %w", err)
		}
		e.VendorName = vendorName.String
		e.Error = errText.String
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sync log: %w", err)
	}

	return entries, nil
}

// IncompleteKeys returns the record keys a run did not write completely.
func IncompleteKeys(db *sql.DB, target, runID string) ([]string, error) {
	entries, err := RunOutcomes(db, target, runID)
	if err != nil {
		return nil, err
	}

	var keys []string
	for _, e := range entries {
		if e.Status != models.StatusComplete {
			keys = append(keys, e.RecordKey)
		}
	}
	return keys, nil
}
