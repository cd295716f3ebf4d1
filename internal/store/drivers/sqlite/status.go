package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/checkpointhq/checkpoint/internal/domain"
	"github.com/checkpointhq/checkpoint/pkg/idx"
)

type StatusCheckRepository struct {
	db *sql.DB
}

func (r *StatusCheckRepository) Insert(ctx context.Context, sc *domain.StatusCheck) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO status_checks (id, user_id, client_name, timestamp)
		VALUES (?, ?, ?, ?)`,
		sc.ID, sc.UserID, sc.ClientName, fmtTime(sc.Timestamp))
	if err != nil {
		return fmt.Errorf("insert status check: %w", err)
	}
	return nil
}

func (r *StatusCheckRepository) ListRecent(ctx context.Context, userID idx.ID, limit int) ([]domain.StatusCheck, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, client_name, timestamp
		FROM status_checks
		WHERE user_id = ?
		ORDER BY timestamp DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list status checks: %w", err)
	}
	defer rows.Close()

	var out []domain.StatusCheck
	for rows.Next() {
		var (
			sc domain.StatusCheck
			ts string
		)
		if err := rows.Scan(&sc.ID, &sc.UserID, &sc.ClientName, &ts); err != nil {
			return nil, fmt.Errorf("scan status check: %w", err)
		}
		if sc.Timestamp, err = time.Parse(timeLayout, ts); err != nil {
			return nil, fmt.Errorf("parse timestamp: %w", err)
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}
