package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/agency-ledger/internal/domain"
)

// IdempotencyCacheEntry is a claimed Idempotency-Key. It holds the stored
// response once the request that claimed it has finished.
type IdempotencyCacheEntry struct {
	Key          string
	ActorID      uuid.UUID
	RequestHash  string
	StatusCode   int
	ResponseBody []byte
	CreatedAt    time.Time
	CompletedAt  *time.Time
	ExpiresAt    time.Time
}

// Pending reports whether the claiming request is still running.
func (e *IdempotencyCacheEntry) Pending() bool { return e.CompletedAt == nil }

type IdempotencyRepository struct {
	db *sql.DB
}

func NewIdempotencyRepository(db *sql.DB) *IdempotencyRepository {
	return &IdempotencyRepository{db: db}
}

func (r *IdempotencyRepository) Get(ctx context.Context, key string, actorID uuid.UUID) (*IdempotencyCacheEntry, error) {
	var (
		e         IdempotencyCacheEntry
		status    sql.NullInt32
		completed sql.NullTime
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT idempotency_key, actor_id, request_hash, status_code, response_body, created_at, completed_at, expires_at
		FROM idempotency_cache
		WHERE idempotency_key = $1 AND actor_id = $2 AND expires_at > now()`,
		key, actorID,
	).Scan(&e.Key, &e.ActorID, &e.RequestHash, &status, &e.ResponseBody, &e.CreatedAt, &completed, &e.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	e.StatusCode = int(status.Int32)
	if completed.Valid {
		e.CompletedAt = &completed.Time
	}
	return &e, nil
}

// Reserve claims key for actorID before the request runs. It returns nil when
// the claim was taken, otherwise the live entry that already holds the key.
// An expired entry is taken over.
func (r *IdempotencyRepository) Reserve(ctx context.Context, key string, actorID uuid.UUID, requestHash string, now, expiresAt time.Time) (*IdempotencyCacheEntry, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO idempotency_cache (idempotency_key, actor_id, request_hash, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (idempotency_key, actor_id) DO UPDATE
		SET request_hash = EXCLUDED.request_hash,
			status_code = NULL,
			response_body = NULL,
			created_at = EXCLUDED.created_at,
			completed_at = NULL,
			expires_at = EXCLUDED.expires_at
		WHERE idempotency_cache.expires_at <= now()`,
		key, actorID, requestHash, now, expiresAt,
	)
	if err != nil {
		return nil, fmt.Errorf("Reserve: %w", mapPQError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("Reserve: rows affected: %w", err)
	}
	if n == 1 {
		return nil, nil
	}

	existing, err := r.Get(ctx, key, actorID)
	if err != nil {
		return nil, fmt.Errorf("Reserve: %w", err)
	}
	if existing == nil {
		return nil, fmt.Errorf("Reserve: key %q released concurrently: %w", key, domain.ErrConflict)
	}
	return existing, nil
}

// Complete stores the response for a claimed key and keeps it until expiresAt.
func (r *IdempotencyRepository) Complete(ctx context.Context, key string, actorID uuid.UUID, statusCode int, body []byte, expiresAt time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE idempotency_cache
		SET status_code = $3, response_body = $4, completed_at = now(), expires_at = $5
		WHERE idempotency_key = $1 AND actor_id = $2 AND completed_at IS NULL`,
		key, actorID, statusCode, body, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("Complete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Complete: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("Complete: key %q: %w", key, domain.ErrNotFound)
	}
	return nil
}

// Release drops an unfinished claim so the client may retry with the same key.
func (r *IdempotencyRepository) Release(ctx context.Context, key string, actorID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM idempotency_cache
		WHERE idempotency_key = $1 AND actor_id = $2 AND completed_at IS NULL`,
		key, actorID,
	)
	if err != nil {
		return fmt.Errorf("Release: %w", err)
	}
	return nil
}

func (r *IdempotencyRepository) CleanExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM idempotency_cache WHERE expires_at < now()`,
	)
	if err != nil {
		return 0, fmt.Errorf("CleanExpired: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("CleanExpired: rows affected: %w", err)
	}
	return n, nil
}
