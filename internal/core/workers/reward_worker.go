package workers

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/aydinnasibli/habittrackerkindof-sub000/internal/core/domain"
)

type JobKind string

const (
	JobAward      JobKind = "award"
	JobReverse    JobKind = "reverse"
	JobDailyBonus JobKind = "daily_bonus"
)

// Job is one deferred reward-ledger write. Progress (completions, session
// transitions) commits before the job is enqueued; a lost or failed job is
// logged, never rolled back into that committed progress.
type Job struct {
	UserID      string
	Kind        JobKind
	Amount      int
	Source      domain.RewardSource
	Description string

	// Daily-bonus fields; idempotency is re-checked at apply time so
	// at-least-once delivery cannot double-award.
	DayKey         string
	CompletedToday int
	ScheduledToday int
	BestStreak     int
}

// RewardLedger is the posting surface the worker drives. There is exactly one
// implementation of the award/idempotency cycle and the worker goes through
// it rather than touching the profile repository itself.
type RewardLedger interface {
	Award(ctx context.Context, userID string, amount int, source domain.RewardSource, description string) (rankedUp bool, err error)
	Reverse(ctx context.Context, userID string, amount int, source domain.RewardSource, description string) error
	ApplyDailyBonus(ctx context.Context, userID, dayKey string, completedToday, scheduledToday, bestStreak int) (awarded bool, err error)
}

const (
	jobQueueSize  = 100
	applyAttempts = 3
	retryBackoff  = 200 * time.Millisecond
)

// RewardWorker posts reward-ledger writes asynchronously with at-least-once
// semantics: bounded in-process retries, failures logged with their code.
type RewardWorker struct {
	ledger RewardLedger
	jobs   chan Job
}

func NewRewardWorker(ledger RewardLedger) *RewardWorker {
	return &RewardWorker{
		ledger: ledger,
		jobs:   make(chan Job, jobQueueSize),
	}
}

func (w *RewardWorker) Start(ctx context.Context) {
	go func() {
		log.Println("Reward worker started in background...")
		for {
			select {
			case job := <-w.jobs:
				w.processJob(ctx, job)
			case <-ctx.Done():
				log.Println("Reward worker shutting down...")
				return
			}
		}
	}()
}

func (w *RewardWorker) Enqueue(job Job) {
	select {
	case w.jobs <- job:
	default:
		log.Printf("[%s] Reward worker queue full, dropping %s job for user %s", domain.CodeRewardFailure, job.Kind, job.UserID)
	}
}

// Drain processes queued jobs synchronously until the queue is empty. Used
// by tests and shutdown paths.
func (w *RewardWorker) Drain(ctx context.Context) {
	for {
		select {
		case job := <-w.jobs:
			w.processJob(ctx, job)
		default:
			return
		}
	}
}

func (w *RewardWorker) processJob(ctx context.Context, job Job) {
	var err error
	for attempt := 1; attempt <= applyAttempts; attempt++ {
		err = w.apply(ctx, job)
		if err == nil {
			return
		}
		if !errors.Is(err, domain.ErrRewardConflict) && !errors.Is(err, domain.ErrTransientStore) {
			break
		}
		time.Sleep(retryBackoff * time.Duration(attempt))
	}
	log.Printf("[%s] Failed to post %s (%+d XP) for user %s: %v", domain.CodeRewardFailure, job.Kind, job.Amount, job.UserID, err)
}

func (w *RewardWorker) apply(ctx context.Context, job Job) error {
	switch job.Kind {
	case JobAward:
		rankedUp, err := w.ledger.Award(ctx, job.UserID, job.Amount, job.Source, job.Description)
		if err != nil {
			return err
		}
		if rankedUp {
			log.Printf("User %s ranked up", job.UserID)
		}
		return nil
	case JobReverse:
		return w.ledger.Reverse(ctx, job.UserID, job.Amount, job.Source, job.Description)
	case JobDailyBonus:
		_, err := w.ledger.ApplyDailyBonus(ctx, job.UserID, job.DayKey, job.CompletedToday, job.ScheduledToday, job.BestStreak)
		return err
	default:
		log.Printf("Reward worker: unknown job kind %q for user %s", job.Kind, job.UserID)
		return nil
	}
}
