package data

import (
	"context"
	"database/sql"

	"luigui/internal/core"
)

type ActivityRepo struct {
	db *sql.DB
}

func NewActivityRepo(db *sql.DB) *ActivityRepo {
	return &ActivityRepo{db: db}
}

func (r *ActivityRepo) Create(ctx context.Context, l *core.ActivityLog) error {
	res, err := r.db.ExecContext(ctx, `INSERT INTO activity_logs (timestamp, user_email, database_id, prompt_type, duration_ms, status, error_message) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		l.Timestamp.UTC(), l.UserEmail, l.DatabaseID, l.PromptType, l.DurationMs, l.Status, l.ErrorMessage)
	if err != nil {
		return err
	}
	id, _ := res.LastInsertId()
	l.ID = id
	return nil
}

func (r *ActivityRepo) GetRecent(ctx context.Context, limit int) ([]core.ActivityLog, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, timestamp, user_email, database_id, prompt_type, duration_ms, status, error_message FROM activity_logs ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []core.ActivityLog
	for rows.Next() {
		var l core.ActivityLog
		var email, promptType, errMsg sql.NullString
		if err := rows.Scan(&l.ID, &l.Timestamp, &email, &l.DatabaseID, &promptType, &l.DurationMs, &l.Status, &errMsg); err != nil {
			return nil, err
		}
		l.UserEmail, l.PromptType, l.ErrorMessage = email.String, promptType.String, errMsg.String

		// SQLite stores UTC
		l.Timestamp = l.Timestamp.Local()

		logs = append(logs, l)
	}
	return logs, rows.Err()
}
