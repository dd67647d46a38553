package common

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Idem rejects replays of the same Idempotency-Key on document-creating
// endpoints, so a retried request never consumes a second number. It is a
// pass-through when no Redis client is configured.
type Idem struct {
	R      redis.Cmdable
	TTL    time.Duration
	Prefix string
}

func (i Idem) key(header string) string {
	sum := sha256.Sum256([]byte(header))
	return i.Prefix + "idem:" + hex.EncodeToString(sum[:])
}

// Middleware enforces idempotency semantics for write endpoints.
func (i Idem) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Idempotency-Key")
		if header == "" || i.R == nil {
			next.ServeHTTP(w, r)
			return
		}
		ttl := i.TTL
		if ttl <= 0 {
			ttl = 24 * time.Hour
		}
		key := i.key(header)
		ok, err := i.R.SetNX(r.Context(), key, "locked", ttl).Result()
		if err != nil {
			JSONError(w, http.StatusInternalServerError, "INTERNAL", "idempotency store error", nil)
			return
		}
		if !ok {
			JSONError(w, http.StatusConflict, "IDEMPOTENT_REPLAY", "duplicate request", nil)
			return
		}
		defer func() {
			_ = i.R.Expire(context.Background(), key, ttl).Err()
		}()
		next.ServeHTTP(w, r)
	})
}
