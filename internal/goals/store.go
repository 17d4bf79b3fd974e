package goals

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"daily-goals-backend/internal/db"
)

// Store persists the two per-user collections: the current goal list and
// one completion record per calendar day.
type Store struct {
	db *sql.DB
}

func NewStore(dbx *sql.DB) *Store {
	return &Store{db: dbx}
}

// CurrentGoals returns the goal list ordered by position. A user without
// goals gets an empty list.
func (s *Store) CurrentGoals(ctx context.Context, userID int) ([]Goal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, text, position, created_at
		FROM goals
		WHERE user_id = $1
		ORDER BY position, created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query goals: %w", err)
	}
	defer rows.Close()

	list := []Goal{}
	for rows.Next() {
		var g Goal
		if err := rows.Scan(&g.ID, &g.Text, &g.Order, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		list = append(list, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("goal rows: %w", err)
	}
	return list, nil
}

// SaveGoals replaces the whole list in one transaction. Positions are taken
// from the slice index.
func (s *Store) SaveGoals(ctx context.Context, userID int, list []Goal) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM goals WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("clear goals: %w", err)
	}

	for i, g := range list {
		created := g.CreatedAt
		if created.IsZero() {
			created = time.Now().UTC()
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO goals (user_id, id, text, position, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`, userID, g.ID, g.Text, i, created)
		if db.IsForeignKeyViolation(err) {
			return ErrUnknownUser
		}
		if err != nil {
			return fmt.Errorf("insert goal %s: %w", g.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit goals: %w", err)
	}
	return nil
}

// DailyProgress loads one day. found is false when nothing was stored yet,
// in which case an empty record is returned.
func (s *Store) DailyProgress(ctx context.Context, userID int, date string) (p DailyProgress, found bool, err error) {
	var (
		raw     []byte
		total   sql.NullInt64
		updated time.Time
	)
	err = s.db.QueryRowContext(ctx, `
		SELECT completed_goal_ids, total_goals, updated_at
		FROM daily_progress
		WHERE user_id = $1 AND date_key = $2
	`, userID, date).Scan(&raw, &total, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return DailyProgress{Date: date, CompletedGoalIDs: []string{}}, false, nil
	}
	if err != nil {
		return DailyProgress{}, false, fmt.Errorf("query daily progress: %w", err)
	}

	p, err = decodeProgress(date, raw, total, updated)
	if err != nil {
		return DailyProgress{}, false, err
	}
	return p, true, nil
}

// SaveDailyProgress upserts the record for p.Date.
func (s *Store) SaveDailyProgress(ctx context.Context, userID int, p DailyProgress) error {
	ids := p.CompletedGoalIDs
	if ids == nil {
		ids = []string{}
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("encode completed ids: %w", err)
	}

	var total sql.NullInt64
	if p.TotalGoals != nil {
		total = sql.NullInt64{Int64: int64(*p.TotalGoals), Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO daily_progress (user_id, date_key, completed_goal_ids, total_goals, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, date_key) DO UPDATE SET
			completed_goal_ids = EXCLUDED.completed_goal_ids,
			total_goals = EXCLUDED.total_goals,
			updated_at = EXCLUDED.updated_at
	`, userID, p.Date, string(raw), total, p.UpdatedAt)
	if db.IsForeignKeyViolation(err) {
		return ErrUnknownUser
	}
	if err != nil {
		return fmt.Errorf("upsert daily progress: %w", err)
	}
	return nil
}

// ProgressForYear returns every stored day whose key starts with the year.
func (s *Store) ProgressForYear(ctx context.Context, userID, year int) ([]DailyProgress, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date_key, completed_goal_ids, total_goals, updated_at
		FROM daily_progress
		WHERE user_id = $1 AND date_key LIKE $2
		ORDER BY date_key
	`, userID, fmt.Sprintf("%04d-%%", year))
	if err != nil {
		return nil, fmt.Errorf("query yearly progress: %w", err)
	}
	defer rows.Close()

	var out []DailyProgress
	for rows.Next() {
		var (
			date    string
			raw     []byte
			total   sql.NullInt64
			updated time.Time
		)
		if err := rows.Scan(&date, &raw, &total, &updated); err != nil {
			return nil, fmt.Errorf("scan daily progress: %w", err)
		}
		p, err := decodeProgress(date, raw, total, updated)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("daily progress rows: %w", err)
	}
	return out, nil
}

func decodeProgress(date string, raw []byte, total sql.NullInt64, updated time.Time) (DailyProgress, error) {
	p := DailyProgress{Date: date, CompletedGoalIDs: []string{}, UpdatedAt: updated}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &p.CompletedGoalIDs); err != nil {
			return DailyProgress{}, fmt.Errorf("decode completed ids for %s: %w", date, err)
		}
		if p.CompletedGoalIDs == nil {
			p.CompletedGoalIDs = []string{}
		}
	}
	if total.Valid {
		n := int(total.Int64)
		p.TotalGoals = &n
	}
	return p, nil
}
