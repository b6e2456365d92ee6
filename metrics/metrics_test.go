package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	auth "github.com/goliatone/go-auth-dwsp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivitySinkCountsEvents(t *testing.T) {
	sink := NewActivitySinkWithRegistry(prometheus.NewRegistry())
	ctx := context.Background()

	require.NoError(t, sink.Record(ctx, auth.ActivityEvent{EventType: auth.ActivityEventRegisterSuccess}))
	require.NoError(t, sink.Record(ctx, auth.ActivityEvent{EventType: auth.ActivityEventDelegatedSignup}))
	require.NoError(t, sink.Record(ctx, auth.ActivityEvent{
		EventType: auth.ActivityEventLoginFailure,
		Metadata:  map[string]any{"reason": "password_mismatch"},
	}))
	require.NoError(t, sink.Record(ctx, auth.ActivityEvent{
		EventType: auth.ActivityEventLoginFailure,
		Metadata:  map[string]any{"reason": "password_mismatch"},
	}))

	assert.Equal(t, 2.0, testutil.ToFloat64(sink.events.WithLabelValues(string(auth.ActivityEventLoginFailure), "password_mismatch")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.accounts.WithLabelValues("local")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.accounts.WithLabelValues("delegated")))
}

func TestActivitySinkHandlerExposesCounters(t *testing.T) {
	sink := NewActivitySinkWithRegistry(prometheus.NewRegistry())
	require.NoError(t, sink.Record(context.Background(), auth.ActivityEvent{EventType: auth.ActivityEventLoginSuccess}))

	rec := httptest.NewRecorder()
	sink.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `dwsp_auth_activity_events_total{event="auth.login.success",reason=""} 1`)
}
