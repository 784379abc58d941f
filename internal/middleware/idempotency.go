package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/agency-ledger/internal/auth"
	"github.com/josh-kwaku/agency-ledger/internal/handler"
	"github.com/josh-kwaku/agency-ledger/internal/logging"
	"github.com/josh-kwaku/agency-ledger/internal/repository"
)

type idempotencyRepository interface {
	Reserve(ctx context.Context, key string, actorID uuid.UUID, requestHash string, now, expiresAt time.Time) (*repository.IdempotencyCacheEntry, error)
	Complete(ctx context.Context, key string, actorID uuid.UUID, statusCode int, body []byte, expiresAt time.Time) error
	Release(ctx context.Context, key string, actorID uuid.UUID) error
}

const idempotencyTTL = 24 * time.Hour

// A claim left pending by a crashed process can be retaken after this.
const idempotencyPendingTTL = 5 * time.Minute

// Idempotency replays the stored response when an actor repeats an
// Idempotency-Key with the same request. The key is reserved before the
// handler runs, so a concurrent duplicate is refused instead of executed.
// Server errors release the key so the client may retry them.
func Idempotency(repo idempotencyRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			log := logging.FromContext(r.Context())

			key := r.Header.Get("Idempotency-Key")
			if key == "" {
				handler.RespondAppError(w, handler.ErrMissingIdempotencyKey, nil)
				return
			}

			actor, ok := auth.ActorFromContext(r.Context())
			if !ok {
				handler.RespondAppError(w, handler.ErrMissingToken, nil)
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				handler.RespondAppError(w, handler.ErrInvalidRequest, nil)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			reqHash := computeHash(r.Method, r.URL.Path, body)

			now := time.Now().UTC()
			cached, err := repo.Reserve(r.Context(), key, actor.ID, reqHash, now, now.Add(idempotencyPendingTTL))
			if err != nil {
				log.Error("idempotency key reservation failed", "error", err, "idempotency_key", key)
				handler.RespondAppError(w, handler.ErrInternalError, nil)
				return
			}

			if cached != nil {
				if cached.RequestHash != reqHash {
					handler.RespondAppError(w, handler.ErrIdempotencyConflict, nil)
					return
				}
				if cached.Pending() {
					handler.RespondAppError(w, handler.ErrIdempotencyInProgress, nil)
					return
				}

				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("X-Idempotent-Replayed", "true")
				w.WriteHeader(cached.StatusCode)
				if _, err := w.Write(cached.ResponseBody); err != nil {
					log.Error("failed to write idempotent replay", "error", err, "idempotency_key", key)
				}
				return
			}

			// Store and release run even when the client has gone away.
			storeCtx := context.WithoutCancel(r.Context())
			stored := false
			defer func() {
				if stored {
					return
				}
				if err := repo.Release(storeCtx, key, actor.ID); err != nil {
					log.Error("idempotency key release failed", "error", err, "idempotency_key", key)
				}
			}()

			rec := &responseRecorder{ResponseWriter: w, body: &bytes.Buffer{}, statusCode: http.StatusOK}
			next.ServeHTTP(rec, r)

			if rec.statusCode >= http.StatusInternalServerError {
				return
			}

			if err := repo.Complete(storeCtx, key, actor.ID, rec.statusCode, rec.body.Bytes(), now.Add(idempotencyTTL)); err != nil {
				log.Error("idempotency cache store failed", "error", err, "idempotency_key", key)
				return
			}
			stored = true
		})
	}
}

func computeHash(method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte(path))
	h.Write(body)
	return fmt.Sprintf("%x", h.Sum(nil))
}

type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (r *responseRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}
