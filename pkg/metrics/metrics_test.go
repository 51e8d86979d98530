package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	Register()
	Register()

	before := testutil.ToFloat64(bookingTransitions.WithLabelValues("pending", "confirmed"))
	IncBookingTransition("pending", "confirmed")
	assert.Equal(t, before+1, testutil.ToFloat64(bookingTransitions.WithLabelValues("pending", "confirmed")))

	before = testutil.ToFloat64(notifications.WithLabelValues(NotificationDropped))
	IncNotification(NotificationDropped)
	assert.Equal(t, before+1, testutil.ToFloat64(notifications.WithLabelValues(NotificationDropped)))
}

func TestHandler_ExposesMetrics(t *testing.T) {
	ObserveHTTPRequest(http.MethodGet, "/api/v1/bookings", http.StatusOK, 15*time.Millisecond)
	IncBookingCreated()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "fixify_http_requests_total"))
	assert.True(t, strings.Contains(body, "fixify_bookings_created_total"))
}
