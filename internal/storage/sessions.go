package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"formflow/internal/common"
	"formflow/internal/model"
	"formflow/internal/service"
)

// SaveSession archives a session with its resolved values and issues.
// Saving the same session again replaces the previous archive.
func (s *SQLiteStorage) SaveSession(ctx context.Context, session *model.FillSession) error {
	if session == nil || session.SessionID == "" {
		return fmt.Errorf("session must have an id")
	}

	tx, err := s.beginTx(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var finished any
	if !session.FinishedAt.IsZero() {
		finished = session.FinishedAt
	}

	if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO sessions
		(session_id, state, attempt_count, field_count, output_path, created_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		session.SessionID, string(session.State), session.AttemptCount,
		len(session.Fields), session.OutputPath, session.CreatedAt, finished); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM resolved_values WHERE session_id = ?`, session.SessionID); err != nil {
		return fmt.Errorf("failed to clear resolved values: %w", err)
	}
	for key, rv := range session.ResolvedValues {
		if _, err := tx.ExecContext(ctx, `INSERT INTO resolved_values
			(session_id, field_key, value, provenance, confidence)
			VALUES (?, ?, ?, ?, ?)`,
			session.SessionID, key, rv.Value, string(rv.Provenance), rv.Confidence); err != nil {
			return fmt.Errorf("failed to save resolved value for %s: %w", key, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM validation_issues WHERE session_id = ?`, session.SessionID); err != nil {
		return fmt.Errorf("failed to clear validation issues: %w", err)
	}
	for i, issue := range session.Issues {
		if _, err := tx.ExecContext(ctx, `INSERT INTO validation_issues
			(session_id, position, field_keys, severity, description)
			VALUES (?, ?, ?, ?, ?)`,
			session.SessionID, i, strings.Join(issue.FieldKeys, ","),
			string(issue.Severity), issue.Description); err != nil {
			return fmt.Errorf("failed to save validation issue: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit session save: %w", err)
	}
	return nil
}

// GetSession loads an archived session. Fields are not reconstructed;
// the archive serves the audit manifest and issue list.
func (s *SQLiteStorage) GetSession(ctx context.Context, sessionID string) (*model.FillSession, error) {
	session := &model.FillSession{
		SessionID:      sessionID,
		ResolvedValues: make(map[string]model.ResolvedValue),
	}

	var state string
	var finished sql.NullTime
	err := s.db.QueryRowContext(ctx, `SELECT state, attempt_count, output_path, created_at, finished_at
		FROM sessions WHERE session_id = ?`, sessionID).
		Scan(&state, &session.AttemptCount, &session.OutputPath, &session.CreatedAt, &finished)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", sessionID, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	session.State = model.SessionState(state)
	if finished.Valid {
		session.FinishedAt = finished.Time
	}

	rows, err := s.db.QueryContext(ctx, `SELECT field_key, value, provenance, confidence
		FROM resolved_values WHERE session_id = ? ORDER BY field_key`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load resolved values: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var rv model.ResolvedValue
		var provenance string
		if err := rows.Scan(&rv.FieldKey, &rv.Value, &provenance, &rv.Confidence); err != nil {
			return nil, fmt.Errorf("failed to scan resolved value: %w", err)
		}
		rv.Provenance = model.Provenance(provenance)
		session.ResolvedValues[rv.FieldKey] = rv
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read resolved values: %w", err)
	}

	issueRows, err := s.db.QueryContext(ctx, `SELECT field_keys, severity, description
		FROM validation_issues WHERE session_id = ? ORDER BY position`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load validation issues: %w", err)
	}
	defer func() { _ = issueRows.Close() }()
	for issueRows.Next() {
		var issue model.ValidationIssue
		var keys, severity string
		if err := issueRows.Scan(&keys, &severity, &issue.Description); err != nil {
			return nil, fmt.Errorf("failed to scan validation issue: %w", err)
		}
		if keys != "" {
			issue.FieldKeys = strings.Split(keys, ",")
		}
		issue.Severity = model.Severity(severity)
		session.Issues = append(session.Issues, issue)
	}
	if err := issueRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read validation issues: %w", err)
	}

	return session, nil
}

// ListSessions returns summaries of all archived sessions, newest first.
func (s *SQLiteStorage) ListSessions(ctx context.Context) ([]service.SessionSummary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT session_id, state, attempt_count, field_count,
		COALESCE(output_path, ''), created_at, finished_at
		FROM sessions ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []service.SessionSummary
	for rows.Next() {
		var sum service.SessionSummary
		var state string
		var finished sql.NullTime
		if err := rows.Scan(&sum.SessionID, &state, &sum.AttemptCount, &sum.FieldCount,
			&sum.OutputPath, &sum.CreatedAt, &finished); err != nil {
			return nil, fmt.Errorf("failed to scan session summary: %w", err)
		}
		sum.State = model.SessionState(state)
		if finished.Valid {
			sum.FinishedAt = finished.Time
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read sessions: %w", err)
	}
	return out, nil
}
