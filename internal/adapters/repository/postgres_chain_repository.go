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
)

type PostgresChainRepository struct {
	db *sqlx.DB
}

func NewPostgresChainRepository(db *sqlx.DB) *PostgresChainRepository {
	return &PostgresChainRepository{db: db}
}

func (r *PostgresChainRepository) CreateDefinition(ctx context.Context, def *domain.ChainDefinition) error {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	stepsJSON, err := json.Marshal(def.Steps)
	if err != nil {
		return fmt.Errorf("failed to marshal chain steps: %w", err)
	}

	query := `
        INSERT INTO chain_definitions (id, user_id, name, steps, created_at)
        VALUES ($1, $2, $3, $4, $5)`

	_, err = r.db.ExecContext(ctx, query, def.ID, def.UserID, def.Name, stepsJSON, def.CreatedAt)
	if err != nil {
		return classify(fmt.Errorf("failed to insert chain definition: %w", err))
	}
	return nil
}

type chainDefRow struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	Name      string    `db:"name"`
	Steps     []byte    `db:"steps"`
	CreatedAt time.Time `db:"created_at"`
}

func (row chainDefRow) toDomain() (*domain.ChainDefinition, error) {
	def := &domain.ChainDefinition{
		ID:        row.ID,
		UserID:    row.UserID,
		Name:      row.Name,
		CreatedAt: row.CreatedAt,
	}
	if err := json.Unmarshal(row.Steps, &def.Steps); err != nil {
		return nil, fmt.Errorf("failed to unmarshal chain steps: %w", err)
	}
	return def, nil
}

func (r *PostgresChainRepository) GetDefinition(ctx context.Context, id string) (*domain.ChainDefinition, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	var row chainDefRow
	err := r.db.GetContext(ctx, &row, `SELECT * FROM chain_definitions WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrChainNotFound
		}
		return nil, classify(err)
	}
	return row.toDomain()
}

func (r *PostgresChainRepository) ListDefinitions(ctx context.Context, userID string) ([]*domain.ChainDefinition, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	var rows []chainDefRow
	query := `SELECT * FROM chain_definitions WHERE user_id = $1 ORDER BY created_at ASC`
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, classify(err)
	}

	defs := make([]*domain.ChainDefinition, 0, len(rows))
	for _, row := range rows {
		def, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

type chainSessionRow struct {
	ID                      string     `db:"id"`
	UserID                  string     `db:"user_id"`
	ChainID                 string     `db:"chain_id"`
	ChainName               string     `db:"chain_name"`
	Status                  string     `db:"status"`
	CurrentIndex            int        `db:"current_index"`
	Habits                  []byte     `db:"habits"`
	StartedAt               time.Time  `db:"started_at"`
	CompletedAt             *time.Time `db:"completed_at"`
	PauseAccumulatedMinutes int        `db:"pause_accumulated_minutes"`
	PausedAt                *time.Time `db:"paused_at"`
	OnBreak                 bool       `db:"on_break"`
	BreakStartedAt          *time.Time `db:"break_started_at"`
	BreakDurationHint       int        `db:"break_duration_hint"`
	ActualDurationMinutes   int        `db:"actual_duration_minutes"`
	CompletionRate          float64    `db:"completion_rate"`
	BonusXP                 int        `db:"bonus_xp"`
	Version                 int        `db:"version"`
	CreatedAt               time.Time  `db:"created_at"`
	UpdatedAt               time.Time  `db:"updated_at"`
}

func (row chainSessionRow) toDomain() (*domain.ChainSession, error) {
	s := &domain.ChainSession{
		ID:                      row.ID,
		UserID:                  row.UserID,
		ChainID:                 row.ChainID,
		ChainName:               row.ChainName,
		Status:                  domain.SessionStatus(row.Status),
		CurrentIndex:            row.CurrentIndex,
		StartedAt:               row.StartedAt,
		CompletedAt:             row.CompletedAt,
		PauseAccumulatedMinutes: row.PauseAccumulatedMinutes,
		PausedAt:                row.PausedAt,
		OnBreak:                 row.OnBreak,
		BreakStartedAt:          row.BreakStartedAt,
		BreakDurationHint:       row.BreakDurationHint,
		ActualDurationMinutes:   row.ActualDurationMinutes,
		CompletionRate:          row.CompletionRate,
		BonusXP:                 row.BonusXP,
		Version:                 row.Version,
		CreatedAt:               row.CreatedAt,
		UpdatedAt:               row.UpdatedAt,
	}
	if err := json.Unmarshal(row.Habits, &s.Habits); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session steps: %w", err)
	}
	return s, nil
}

// CreateSession relies on a partial unique index on (user_id) WHERE
// status = 'active': the insert itself is the single-active-session check,
// so two concurrent starts cannot both succeed.
func (r *PostgresChainRepository) CreateSession(ctx context.Context, s *domain.ChainSession) error {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	habitsJSON, err := json.Marshal(s.Habits)
	if err != nil {
		return fmt.Errorf("failed to marshal session steps: %w", err)
	}

	query := `
        INSERT INTO chain_sessions (
            id, user_id, chain_id, chain_name, status, current_index, habits,
            started_at, completed_at, pause_accumulated_minutes, paused_at,
            on_break, break_started_at, break_duration_hint,
            actual_duration_minutes, completion_rate, bonus_xp,
            version, created_at, updated_at
        ) VALUES (
            $1, $2, $3, $4, $5, $6, $7,
            $8, $9, $10, $11,
            $12, $13, $14,
            $15, $16, $17,
            $18, $19, $20
        )`

	_, err = r.db.ExecContext(ctx, query,
		s.ID, s.UserID, s.ChainID, s.ChainName, string(s.Status), s.CurrentIndex, habitsJSON,
		s.StartedAt, s.CompletedAt, s.PauseAccumulatedMinutes, s.PausedAt,
		s.OnBreak, s.BreakStartedAt, s.BreakDurationHint,
		s.ActualDurationMinutes, s.CompletionRate, s.BonusXP,
		s.Version, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return domain.ErrSessionConflict
		}
		return classify(fmt.Errorf("failed to insert chain session: %w", err))
	}
	return nil
}

func (r *PostgresChainRepository) GetSession(ctx context.Context, id string) (*domain.ChainSession, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	var row chainSessionRow
	err := r.db.GetContext(ctx, &row, `SELECT * FROM chain_sessions WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, classify(err)
	}
	return row.toDomain()
}

func (r *PostgresChainRepository) GetActiveSession(ctx context.Context, userID string) (*domain.ChainSession, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	var row chainSessionRow
	query := `SELECT * FROM chain_sessions WHERE user_id = $1 AND status = 'active'`
	err := r.db.GetContext(ctx, &row, query, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, classify(err)
	}
	return row.toDomain()
}

// UpdateSession writes the whole aggregate in one conditional statement so
// a step transition, its pause bookkeeping and any finalization fields land
// together or not at all.
func (r *PostgresChainRepository) UpdateSession(ctx context.Context, s *domain.ChainSession) error {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	habitsJSON, err := json.Marshal(s.Habits)
	if err != nil {
		return fmt.Errorf("failed to marshal session steps: %w", err)
	}

	query := `
        UPDATE chain_sessions SET
            status=$1, current_index=$2, habits=$3,
            completed_at=$4, pause_accumulated_minutes=$5, paused_at=$6,
            on_break=$7, break_started_at=$8, break_duration_hint=$9,
            actual_duration_minutes=$10, completion_rate=$11, bonus_xp=$12,
            updated_at=NOW(), version = version + 1
        WHERE id=$13 AND version=$14
        RETURNING version, updated_at`

	row := r.db.QueryRowContext(ctx, query,
		string(s.Status), s.CurrentIndex, habitsJSON,
		s.CompletedAt, s.PauseAccumulatedMinutes, s.PausedAt,
		s.OnBreak, s.BreakStartedAt, s.BreakDurationHint,
		s.ActualDurationMinutes, s.CompletionRate, s.BonusXP,
		s.ID, s.Version,
	)

	var newVersion int
	var newUpdatedAt time.Time
	if err := row.Scan(&newVersion, &newUpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			var count int
			if checkErr := r.db.QueryRowContext(ctx, `SELECT count(*) FROM chain_sessions WHERE id = $1`, s.ID).Scan(&count); checkErr != nil {
				return classify(fmt.Errorf("existence check failed: %w", checkErr))
			}
			if count == 0 {
				return domain.ErrSessionNotFound
			}
			return domain.ErrSessionConflict
		}
		return classify(fmt.Errorf("update session failed: %w", err))
	}

	s.Version = newVersion
	s.UpdatedAt = newUpdatedAt
	return nil
}

func (r *PostgresChainRepository) ListPastSessions(ctx context.Context, userID string, limit int) ([]*domain.ChainSession, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	var rows []chainSessionRow
	query := `
        SELECT * FROM chain_sessions
        WHERE user_id = $1 AND status != 'active'
        ORDER BY started_at DESC
        LIMIT $2`
	if err := r.db.SelectContext(ctx, &rows, query, userID, limit); err != nil {
		return nil, classify(err)
	}

	sessions := make([]*domain.ChainSession, 0, len(rows))
	for _, row := range rows {
		s, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}
