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

type PostgresRewardRepository struct {
	db *sqlx.DB
}

func NewPostgresRewardRepository(db *sqlx.DB) *PostgresRewardRepository {
	return &PostgresRewardRepository{db: db}
}

type rewardRow struct {
	UserID    string    `db:"user_id"`
	XPTotal   int       `db:"xp_total"`
	History   []byte    `db:"history"`
	Version   int       `db:"version"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// GetProfile creates the profile on first access so every later read sees a
// fully populated document.
func (r *PostgresRewardRepository) GetProfile(ctx context.Context, userID string) (*domain.RewardProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	var row rewardRow
	err := r.db.GetContext(ctx, &row, `SELECT * FROM reward_profiles WHERE user_id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		profile := domain.NewRewardProfile(userID)
		if err := r.insert(ctx, profile); err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == "23505" {
				// Lost the creation race; the other writer's row wins.
				return r.GetProfile(ctx, userID)
			}
			return nil, err
		}
		return profile, nil
	}
	if err != nil {
		return nil, classify(err)
	}

	profile := &domain.RewardProfile{
		UserID:    row.UserID,
		XPTotal:   row.XPTotal,
		History:   []domain.RewardLedgerEntry{},
		Version:   row.Version,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
	if len(row.History) > 0 {
		if err := json.Unmarshal(row.History, &profile.History); err != nil {
			return nil, fmt.Errorf("failed to unmarshal reward history: %w", err)
		}
	}
	return profile, nil
}

func (r *PostgresRewardRepository) insert(ctx context.Context, p *domain.RewardProfile) error {
	historyJSON, err := json.Marshal(p.History)
	if err != nil {
		return fmt.Errorf("failed to marshal reward history: %w", err)
	}

	query := `
        INSERT INTO reward_profiles (user_id, xp_total, history, version, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)`

	_, err = r.db.ExecContext(ctx, query, p.UserID, p.XPTotal, historyJSON, p.Version, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			return err
		}
		return classify(fmt.Errorf("failed to insert reward profile: %w", err))
	}
	return nil
}

// SaveProfile persists XP total and history under an optimistic version
// check; a stale version surfaces as ErrRewardConflict so callers retry the
// full read-apply-save cycle.
func (r *PostgresRewardRepository) SaveProfile(ctx context.Context, p *domain.RewardProfile) error {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	historyJSON, err := json.Marshal(p.History)
	if err != nil {
		return fmt.Errorf("failed to marshal reward history: %w", err)
	}

	query := `
        UPDATE reward_profiles SET
            xp_total=$1, history=$2, updated_at=NOW(), version = version + 1
        WHERE user_id=$3 AND version=$4
        RETURNING version, updated_at`

	row := r.db.QueryRowContext(ctx, query, p.XPTotal, historyJSON, p.UserID, p.Version)

	var newVersion int
	var newUpdatedAt time.Time
	if err := row.Scan(&newVersion, &newUpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrRewardConflict
		}
		return classify(fmt.Errorf("save reward profile failed: %w", err))
	}

	p.Version = newVersion
	p.UpdatedAt = newUpdatedAt
	return nil
}
