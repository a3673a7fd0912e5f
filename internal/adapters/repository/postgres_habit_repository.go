package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aydinnasibli/habittrackerkindof-sub000/internal/core/domain"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const storeTimeout = 3 * time.Second

// classify wraps driver-level failures as transient so call sites can
// retry; constraint violations pass through untouched.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("%w: %v", domain.ErrTransientStore, err)
	}
	return err
}

type PostgresHabitRepository struct {
	db *sqlx.DB
}

func NewPostgresHabitRepository(db *sqlx.DB) *PostgresHabitRepository {
	return &PostgresHabitRepository{db: db}
}

type habitRow struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	Title     string    `db:"title"`
	Schedule  string    `db:"schedule"`
	Weekdays  []byte    `db:"weekdays"`
	Priority  string    `db:"priority"`
	Timezone  string    `db:"timezone"`
	Status    string    `db:"status"`
	Streak    int       `db:"streak"`
	Version   int       `db:"version"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r habitRow) toDomain() (*domain.Habit, error) {
	h := &domain.Habit{
		ID:          r.ID,
		UserID:      r.UserID,
		Title:       r.Title,
		Schedule:    domain.ScheduleRule(r.Schedule),
		Priority:    domain.Priority(r.Priority),
		Timezone:    r.Timezone,
		Status:      domain.HabitStatus(r.Status),
		Streak:      r.Streak,
		Completions: []domain.CompletionEvent{},
		Version:     r.Version,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if len(r.Weekdays) > 0 {
		if err := json.Unmarshal(r.Weekdays, &h.Weekdays); err != nil {
			return nil, fmt.Errorf("failed to unmarshal weekdays: %w", err)
		}
	}
	return h, nil
}

func (r *PostgresHabitRepository) Create(ctx context.Context, h *domain.Habit) error {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	weekdaysJSON, err := json.Marshal(h.Weekdays)
	if err != nil {
		return fmt.Errorf("failed to marshal weekdays: %w", err)
	}

	query := `
        INSERT INTO habits (
            id, user_id, title, schedule, weekdays, priority, timezone,
            status, streak, version, created_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err = r.db.ExecContext(ctx, query,
		h.ID, h.UserID, h.Title, string(h.Schedule), weekdaysJSON, string(h.Priority), h.Timezone,
		string(h.Status), h.Streak, h.Version, h.CreatedAt, h.UpdatedAt,
	)
	if err != nil {
		return classify(fmt.Errorf("failed to insert habit: %w", err))
	}
	return nil
}

func (r *PostgresHabitRepository) GetByID(ctx context.Context, id string) (*domain.Habit, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	var row habitRow
	err := r.db.GetContext(ctx, &row, `SELECT * FROM habits WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrHabitNotFound
		}
		return nil, classify(err)
	}

	h, err := row.toDomain()
	if err != nil {
		return nil, err
	}
	if err := r.loadCompletions(ctx, []*domain.Habit{h}); err != nil {
		return nil, err
	}
	return h, nil
}

func (r *PostgresHabitRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Habit, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	var rows []habitRow
	query := `SELECT * FROM habits WHERE user_id = $1 ORDER BY created_at ASC`
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, classify(err)
	}

	habits := make([]*domain.Habit, 0, len(rows))
	for _, row := range rows {
		h, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		habits = append(habits, h)
	}
	if err := r.loadCompletions(ctx, habits); err != nil {
		return nil, err
	}
	return habits, nil
}

func (r *PostgresHabitRepository) loadCompletions(ctx context.Context, habits []*domain.Habit) error {
	if len(habits) == 0 {
		return nil
	}

	ids := make([]string, len(habits))
	byID := make(map[string]*domain.Habit, len(habits))
	for i, h := range habits {
		ids[i] = h.ID
		byID[h.ID] = h
	}

	type completionRow struct {
		HabitID     string    `db:"habit_id"`
		DayKey      string    `db:"day_key"`
		CompletedAt time.Time `db:"completed_at"`
		Notes       string    `db:"notes"`
	}

	var rows []completionRow
	query := `
        SELECT habit_id, day_key, completed_at, notes
        FROM habit_completions
        WHERE habit_id = ANY($1)
        ORDER BY day_key ASC`
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(ids)); err != nil {
		return classify(err)
	}

	for _, row := range rows {
		h := byID[row.HabitID]
		if h == nil {
			continue
		}
		h.Completions = append(h.Completions, domain.CompletionEvent{
			DayKey:      row.DayKey,
			CompletedAt: row.CompletedAt,
			Notes:       row.Notes,
		})
	}
	return nil
}

func (r *PostgresHabitRepository) Update(ctx context.Context, h *domain.Habit) error {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	weekdaysJSON, err := json.Marshal(h.Weekdays)
	if err != nil {
		return err
	}

	query := `
        UPDATE habits SET
            title=$1, schedule=$2, weekdays=$3, priority=$4, timezone=$5,
            status=$6, streak=$7, updated_at=NOW(), version = version + 1
        WHERE id=$8 AND version=$9
        RETURNING version, updated_at`

	row := r.db.QueryRowContext(ctx, query,
		h.Title, string(h.Schedule), weekdaysJSON, string(h.Priority), h.Timezone,
		string(h.Status), h.Streak,
		h.ID, h.Version,
	)

	var newVersion int
	var newUpdatedAt time.Time
	if err := row.Scan(&newVersion, &newUpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			var count int
			if checkErr := r.db.QueryRowContext(ctx, `SELECT count(*) FROM habits WHERE id = $1`, h.ID).Scan(&count); checkErr != nil {
				return classify(fmt.Errorf("existence check failed: %w", checkErr))
			}
			if count == 0 {
				return domain.ErrHabitNotFound
			}
			return domain.ErrHabitConflict
		}
		return classify(fmt.Errorf("update query failed: %w", err))
	}

	h.Version = newVersion
	h.UpdatedAt = newUpdatedAt
	return nil
}

// AppendCompletion is the one-completion-per-day compare-and-swap: the
// unique (habit_id, day_key) constraint arbitrates concurrent completions,
// and the streak update rides in the same transaction.
func (r *PostgresHabitRepository) AppendCompletion(ctx context.Context, habitID string, event domain.CompletionEvent, newStreak int) error {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return classify(err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
        INSERT INTO habit_completions (habit_id, day_key, completed_at, notes)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (habit_id, day_key) DO NOTHING`,
		habitID, event.DayKey, event.CompletedAt, event.Notes,
	)
	if err != nil {
		return classify(err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return classify(err)
	}
	if inserted == 0 {
		return domain.ErrAlreadyCompleted
	}

	if err := r.storeStreak(ctx, tx, habitID, newStreak); err != nil {
		return err
	}
	return classify(tx.Commit())
}

// RemoveCompletion deletes the day's completion and stores the recomputed
// streak in one transaction; zero rows deleted means nothing was completed.
func (r *PostgresHabitRepository) RemoveCompletion(ctx context.Context, habitID string, dayKey string, newStreak int) error {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return classify(err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM habit_completions WHERE habit_id = $1 AND day_key = $2`,
		habitID, dayKey,
	)
	if err != nil {
		return classify(err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return classify(err)
	}
	if deleted == 0 {
		return domain.ErrNotCompletedToday
	}

	if err := r.storeStreak(ctx, tx, habitID, newStreak); err != nil {
		return err
	}
	return classify(tx.Commit())
}

func (r *PostgresHabitRepository) storeStreak(ctx context.Context, tx *sqlx.Tx, habitID string, streak int) error {
	res, err := tx.ExecContext(ctx, `
        UPDATE habits
        SET streak = $1, updated_at = NOW(), version = version + 1
        WHERE id = $2`,
		streak, habitID,
	)
	if err != nil {
		return classify(err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return classify(err)
	}
	if rows == 0 {
		return domain.ErrHabitNotFound
	}
	return nil
}

func (r *PostgresHabitRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM habits WHERE id = $1`, id)
	if err != nil {
		return classify(fmt.Errorf("delete query failed: %w", err))
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return classify(err)
	}
	if rows == 0 {
		return domain.ErrHabitNotFound
	}
	return nil
}
