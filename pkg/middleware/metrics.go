package middleware

import (
	"fixify/pkg/metrics"
	"net/http"
	"strings"
	"time"
)

// RouteFunc maps a request to a low-cardinality route label.
type RouteFunc func(r *http.Request) string

func Metrics(route RouteFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			metrics.ObserveHTTPRequest(r.Method, route(r), wrapped.statusCode, time.Since(start))
		})
	}
}

// ObjectIDRouteLabel collapses Mongo object ids and conversation ids in the
// path so /api/v1/bookings/<id> is reported as /api/v1/bookings/:id.
func ObjectIDRouteLabel(r *http.Request) string {
	segments := strings.Split(r.URL.Path, "/")
	for i, seg := range segments {
		if isObjectIDLike(seg) {
			segments[i] = ":id"
		}
	}
	return strings.Join(segments, "/")
}

func isObjectIDLike(seg string) bool {
	for part := range strings.SplitSeq(seg, "_") {
		if len(part) != 24 {
			return false
		}
		for _, c := range part {
			if !strings.ContainsRune("0123456789abcdefABCDEF", c) {
				return false
			}
		}
	}
	return seg != ""
}
