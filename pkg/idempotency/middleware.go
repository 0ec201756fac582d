package idempotency

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	HeaderKey      = "X-Idempotency-Key"
	HeaderReplayed = "Idempotent-Replayed"

	inFlight = "in_flight"
)

type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

func (s *Store) Key(scope, key string) string {
	return fmt.Sprintf("idem:%s:%s", scope, key)
}

// Reserve claims key for the caller. It reports false when the key is already
// claimed, either in flight or completed.
func (s *Store) Reserve(ctx context.Context, key string) (bool, error) {
	return s.rdb.SetNX(ctx, key, inFlight, s.ttl).Result()
}

// Lookup returns the cached response for key. A nil response with a nil error means
// the original request is still in flight.
func (s *Store) Lookup(ctx context.Context, key string) (*Response, error) {
	raw, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) || raw == inFlight {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var resp Response
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *Store) Complete(ctx context.Context, key string, resp Response) error {
	b, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key, b, s.ttl).Err()
}

func (s *Store) Release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}

type Response struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// Middleware replays the first successful response for a repeated X-Idempotency-Key.
// Requests without the header pass through untouched.
func Middleware(log *slog.Logger, store *Store, scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get(HeaderKey)
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()
			key := store.Key(scope, header)

			ok, err := store.Reserve(ctx, key)
			if err != nil {
				log.Error("idempotency reserve failed", "key", key, "err", err)
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "idempotency store unavailable"})
				return
			}
			if !ok {
				cached, err := store.Lookup(ctx, key)
				if err != nil {
					log.Error("idempotency lookup failed", "key", key, "err", err)
					writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "idempotency store unavailable"})
					return
				}
				if cached == nil {
					writeJSON(w, http.StatusConflict, map[string]string{"error": "request with this idempotency key is in progress"})
					return
				}
				log.Info("idempotent replay", "key", key)
				w.Header().Set("Content-Type", cached.ContentType)
				w.Header().Set(HeaderReplayed, "true")
				w.WriteHeader(cached.Status)
				_, _ = w.Write(cached.Body)
				return
			}

			// The request context may already be gone once the handler returns.
			bg := context.WithoutCancel(ctx)
			completed := false
			defer func() {
				if completed {
					return
				}
				// Reached on non-2xx responses and on panics, which keep propagating.
				if err := store.Release(bg, key); err != nil {
					log.Warn("idempotency release failed", "key", key, "err", err)
				}
			}()

			rec := &recorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			if rec.status >= 200 && rec.status < 300 {
				completed = true
				resp := Response{Status: rec.status, ContentType: rec.Header().Get("Content-Type"), Body: rec.body.Bytes()}
				if err := store.Complete(bg, key, resp); err != nil {
					log.Warn("idempotency complete failed", "key", key, "err", err)
				}
			}
		})
	}
}

type recorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (r *recorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *recorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
