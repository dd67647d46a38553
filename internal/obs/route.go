package obs

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type routePatternKey struct{}

// WithRoutePattern pins the route label for requests served outside a chi
// router.
func WithRoutePattern(ctx context.Context, pattern string) context.Context {
	return context.WithValue(ctx, routePatternKey{}, pattern)
}

// Route returns the label used for r in logs, metrics and span names: a
// pinned pattern, else the chi pattern, else fallback. chi fills its pattern
// while routing, so middleware calls Route after next has returned.
func Route(r *http.Request, fallback string) string {
	if v, ok := r.Context().Value(routePatternKey{}).(string); ok && v != "" {
		return v
	}
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if pattern := rc.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return fallback
}
