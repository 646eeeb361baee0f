package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
)

const (
	IdempotencyKeyHeader      = "Idempotency-Key"
	IdempotentReplayedHeader  = "Idempotent-Replayed"
	idempotencyKeyPrefix      = "idempotency:"
	defaultIdempotencyTimeout = 24 * time.Hour
	maxIdempotentBodyBytes    = 1 << 20
)

// idempotencyEntry is claimed in-progress with the request body hash and
// later overwritten with the response.
type idempotencyEntry struct {
	BodySHA256  string `json:"bodySha256"`
	InProgress  bool   `json:"inProgress"`
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"contentType,omitempty"`
	Body        []byte `json:"body,omitempty"`
}

func bodyHash(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Idempotency replays the first response for a repeated Idempotency-Key so a
// retried payment submission is recorded once. Requests without the header
// pass through.
type Idempotency struct {
	client redis.Cmdable
	ttl    time.Duration
	logger *slog.Logger
}

func NewIdempotency(client redis.Cmdable, ttl time.Duration, logger *slog.Logger) *Idempotency {
	if ttl <= 0 {
		ttl = defaultIdempotencyTimeout
	}
	return &Idempotency{client: client, ttl: ttl, logger: logger.With("component", "Idempotency")}
}

func writeIdempotencyError(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(body))
}

func writeIdempotencyConflict(w http.ResponseWriter) {
	writeIdempotencyError(w, http.StatusConflict,
		`{"error":{"code":"CONFLICT","message":"A request with this Idempotency-Key is still being processed"}}`)
}

func writeIdempotencyKeyReused(w http.ResponseWriter) {
	writeIdempotencyError(w, http.StatusUnprocessableEntity,
		`{"error":{"code":"IDEMPOTENCY_KEY_REUSED","message":"Idempotency-Key was already used with a different request body"}}`)
}

func (m *Idempotency) Middleware(next http.Handler) http.Handler {
	if m.client == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(IdempotencyKeyHeader)
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}
		ctx := r.Context()
		redisKey := idempotencyKeyPrefix + r.Method + ":" + r.URL.Path + ":" + key

		var reqBody []byte
		if r.Body != nil {
			b, err := io.ReadAll(io.LimitReader(r.Body, maxIdempotentBodyBytes))
			if err != nil {
				writeIdempotencyError(w, http.StatusBadRequest,
					`{"error":{"code":"INVALID_ARGUMENT","message":"Could not read request body"}}`)
				return
			}
			r.Body.Close()
			reqBody = b
		}
		r.Body = io.NopCloser(bytes.NewReader(reqBody))
		hash := bodyHash(reqBody)

		pending, err := json.Marshal(idempotencyEntry{BodySHA256: hash, InProgress: true})
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		acquired, err := m.client.SetNX(ctx, redisKey, pending, m.ttl).Result()
		if err != nil {
			m.logger.WarnContext(ctx, "Idempotency store unavailable, serving without replay protection", "error", err)
			next.ServeHTTP(w, r)
			return
		}

		if !acquired {
			raw, err := m.client.Get(ctx, redisKey).Bytes()
			switch {
			case errors.Is(err, redis.Nil):
				// expired between SETNX and GET
				next.ServeHTTP(w, r)
				return
			case err != nil:
				m.logger.WarnContext(ctx, "Failed to read idempotent response", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			var stored idempotencyEntry
			if err := json.Unmarshal(raw, &stored); err != nil {
				m.logger.ErrorContext(ctx, "Corrupt idempotent response", "key", key, "error", err)
				writeIdempotencyConflict(w)
				return
			}
			if stored.BodySHA256 != hash {
				m.logger.WarnContext(ctx, "Idempotency key reused with a different body", "key", key)
				writeIdempotencyKeyReused(w)
				return
			}
			if stored.InProgress {
				writeIdempotencyConflict(w)
				return
			}
			m.logger.InfoContext(ctx, "Replaying idempotent response", "key", key, "status", stored.Status)
			if stored.ContentType != "" {
				w.Header().Set("Content-Type", stored.ContentType)
			}
			w.Header().Set(IdempotentReplayedHeader, "true")
			w.WriteHeader(stored.Status)
			w.Write(stored.Body)
			return
		}

		var body bytes.Buffer
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		ww.Tee(&body)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		// A server failure must not pin the key; the client may retry.
		if status >= http.StatusInternalServerError {
			if err := m.client.Del(ctx, redisKey).Err(); err != nil {
				m.logger.WarnContext(ctx, "Failed to release idempotency key", "error", err)
			}
			return
		}

		raw, err := json.Marshal(idempotencyEntry{
			BodySHA256:  hash,
			Status:      status,
			ContentType: w.Header().Get("Content-Type"),
			Body:        body.Bytes(),
		})
		if err == nil {
			err = m.client.Set(ctx, redisKey, raw, m.ttl).Err()
		}
		if err != nil {
			m.logger.WarnContext(ctx, "Failed to store idempotent response", "error", err)
		}
	})
}
