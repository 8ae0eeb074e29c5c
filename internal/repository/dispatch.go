package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shenikar/incident-response-core/internal/models"
)

// EnqueueDispatchJob inserts a queued job, idempotently: a conflict on
// idempotency_key is treated as success (spec.md's "at-least-once
// submit, exactly-once effect" requirement for the mobile pipeline).
func (s *Store) EnqueueDispatchJob(ctx context.Context, job *models.DispatchJob) error {
	const query = `
		INSERT INTO dispatch_jobs (ticket_id_client, idempotency_key, lane, payload, attempts, next_attempt_at, state)
		VALUES ($1, $2, $3, $4, 0, NOW(), 'queued')
		ON CONFLICT (idempotency_key) DO NOTHING
		RETURNING id, created_at, updated_at;
	`
	err := s.db.QueryRow(ctx, query, job.TicketClientID, job.IdempotencyKey, job.Lane, job.Payload).
		Scan(&job.ID, &job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return s.loadDispatchJobByIdempotencyKey(ctx, job)
		}
		return fmt.Errorf("enqueue dispatch job: %w", err)
	}
	job.State = models.DispatchQueued
	return nil
}

func (s *Store) loadDispatchJobByIdempotencyKey(ctx context.Context, job *models.DispatchJob) error {
	const query = `
		SELECT id, attempts, next_attempt_at, state, last_error, created_at, updated_at
		FROM dispatch_jobs WHERE idempotency_key = $1;
	`
	return s.db.QueryRow(ctx, query, job.IdempotencyKey).
		Scan(&job.ID, &job.Attempts, &job.NextAttemptAt, &job.State, &job.LastError, &job.CreatedAt, &job.UpdatedAt)
}

// ClaimNextDispatchJob claims one due job from lane using SELECT ...
// FOR UPDATE SKIP LOCKED, so multiple worker goroutines (or processes)
// can poll the same lane without claiming the same row twice.
func (s *Store) ClaimNextDispatchJob(ctx context.Context, lane models.DispatchLane) (*models.DispatchJob, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin claim tx: %w", err)
	}
	defer tx.Rollback(ctx)

	const selectQuery = `
		SELECT id, ticket_id_client, idempotency_key, lane, payload, attempts, next_attempt_at, state, last_error, created_at, updated_at
		FROM dispatch_jobs
		WHERE lane = $1 AND state = 'queued' AND next_attempt_at <= NOW()
		ORDER BY created_at ASC
		FOR UPDATE SKIP LOCKED
		LIMIT 1;
	`
	job := &models.DispatchJob{}
	err = tx.QueryRow(ctx, selectQuery, lane).Scan(
		&job.ID, &job.TicketClientID, &job.IdempotencyKey, &job.Lane, &job.Payload,
		&job.Attempts, &job.NextAttemptAt, &job.State, &job.LastError, &job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("claim dispatch job: %w", err)
	}

	const updateQuery = `UPDATE dispatch_jobs SET state = 'in_flight', updated_at = NOW() WHERE id = $1;`
	if _, err := tx.Exec(ctx, updateQuery, job.ID); err != nil {
		return nil, fmt.Errorf("mark dispatch job in-flight: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit claim tx: %w", err)
	}

	job.State = models.DispatchInFlight
	return job, nil
}

// MarkDispatchJobDelivered records a successful delivery.
func (s *Store) MarkDispatchJobDelivered(ctx context.Context, id uuid.UUID) error {
	const query = `UPDATE dispatch_jobs SET state = 'delivered', updated_at = NOW() WHERE id = $1;`
	_, err := s.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("mark dispatch job delivered: %w", err)
	}
	return nil
}

// MarkDispatchJobFailedTerminal records a non-retryable failure (a 4xx
// response from the ticket-creation endpoint).
func (s *Store) MarkDispatchJobFailedTerminal(ctx context.Context, id uuid.UUID, lastErr string) error {
	const query = `UPDATE dispatch_jobs SET state = 'failed_terminal', last_error = $1, updated_at = NOW() WHERE id = $2;`
	_, err := s.db.Exec(ctx, query, lastErr, id)
	if err != nil {
		return fmt.Errorf("mark dispatch job failed-terminal: %w", err)
	}
	return nil
}

// ResetDispatchJob puts a Failed-Terminal job back to Queued with
// attempts cleared, for the admin-triggered manual retry endpoint
// (spec.md §4.6).
func (s *Store) ResetDispatchJob(ctx context.Context, id uuid.UUID) error {
	const query = `
		UPDATE dispatch_jobs SET state = 'queued', attempts = 0, next_attempt_at = NOW(), last_error = '', updated_at = NOW()
		WHERE id = $1 AND state = 'failed_terminal';
	`
	cmdTag, err := s.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("reset dispatch job: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RetryDispatchJob records a failed attempt and schedules the next one,
// or marks the job permanently failed once attempts reaches maxAttempts.
func (s *Store) RetryDispatchJob(ctx context.Context, id uuid.UUID, attempts int, maxAttempts int, nextAttemptAt time.Time, lastErr string) error {
	state := models.DispatchQueued
	if attempts >= maxAttempts {
		state = models.DispatchFailedTerminal
	}
	const query = `
		UPDATE dispatch_jobs SET
			attempts = $1, next_attempt_at = $2, state = $3, last_error = $4, updated_at = NOW()
		WHERE id = $5;
	`
	_, err := s.db.Exec(ctx, query, attempts, nextAttemptAt, state, lastErr, id)
	if err != nil {
		return fmt.Errorf("retry dispatch job: %w", err)
	}
	return nil
}
