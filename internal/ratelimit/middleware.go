package ratelimit

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/noah-isme/livvitt-quotes/internal/common"
)

// DefaultPrefix namespaces limiter keys in the backing store.
const DefaultPrefix = "livvitt:ratelimit"

// Limiter reports the quota state for a key after counting one hit.
type Limiter interface {
	Get(ctx context.Context, key string) (limiter.Context, error)
}

// New builds a limiter from a formatted rate such as "120-M". Counters live
// in Redis when rdb is set and in process memory otherwise.
func New(rate string, rdb *redis.Client) (*limiter.Limiter, error) {
	parsed, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, err
	}
	opts := limiter.StoreOptions{Prefix: DefaultPrefix, CleanUpInterval: time.Minute}
	var store limiter.Store
	if rdb != nil {
		store, err = limiterredis.NewStoreWithOptions(rdb, opts)
		if err != nil {
			return nil, err
		}
	} else {
		store = memory.NewStoreWithOptions(opts)
	}
	return limiter.New(store, parsed), nil
}

// Handler enforces rate limits before delegating to the next handler.
type Handler struct {
	Limiter Limiter
	Key     func(*http.Request) string
	OnError func(error)
}

// Middleware implements the http.Handler middleware interface. Limiter
// failures let the request through.
func (h Handler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Limiter == nil {
			next.ServeHTTP(w, r)
			return
		}
		keyFn := h.Key
		if keyFn == nil {
			keyFn = common.ClientIP
		}
		lc, err := h.Limiter.Get(r.Context(), keyFn(r))
		if err != nil {
			if h.OnError != nil {
				h.OnError(err)
			}
			next.ServeHTTP(w, r)
			return
		}

		headers := w.Header()
		headers.Set("X-RateLimit-Limit", strconv.FormatInt(lc.Limit, 10))
		headers.Set("X-RateLimit-Remaining", strconv.FormatInt(lc.Remaining, 10))
		headers.Set("X-RateLimit-Reset", strconv.FormatInt(lc.Reset, 10))

		if lc.Reached {
			retryAfter := lc.Reset - time.Now().Unix()
			if retryAfter < 0 {
				retryAfter = 0
			}
			headers.Set("Retry-After", strconv.FormatInt(retryAfter, 10))
			common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "rate limit exceeded", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}
