package metrics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	apperrors "github.com/joshorndorff/marketplace/internal/platform/errors"
	"github.com/joshorndorff/marketplace/internal/services/marketplace/domain/event"
)

func TestOutcome(t *testing.T) {
	require.Equal(t, "ok", Outcome(nil))
	require.Equal(t, "listing_invalid_state", Outcome(apperrors.New(apperrors.CodeListingInvalidState, "x")))
	require.Equal(t, "not_found", Outcome(fmt.Errorf("wrapped: %w", apperrors.New(apperrors.CodeNotFound, "x"))))
	require.Equal(t, "cancelled", Outcome(context.Canceled))
	require.Equal(t, "error", Outcome(errors.New("disk full")))
}

func TestObserveOperation(t *testing.T) {
	m := New()
	m.ObserveOperation("buy", nil)
	m.ObserveOperation("buy", nil)
	m.ObserveOperation("buy", apperrors.New(apperrors.CodeListingUnauthorized, "own"))

	require.Equal(t, 2.0, testutil.ToFloat64(m.operations.WithLabelValues("buy", "ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("buy", "listing_unauthorized")))
}

func TestHandlerExposesCounters(t *testing.T) {
	m := New()
	m.ObserveEvent(event.Event{Type: event.TypeListingPosted})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `marketplace_events_total{type="listing.posted"} 1`)
}

func TestServerServesAndStops(t *testing.T) {
	m := New()
	m.ObserveOperation("post_listing", nil)
	srv, err := m.Listen("127.0.0.1:0", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	var body string
	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + srv.Addr() + "/metrics")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		data, _ := io.ReadAll(resp.Body)
		body = string(data)
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)
	require.True(t, strings.Contains(body, `marketplace_operations_total{operation="post_listing",outcome="ok"} 1`))

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("metrics server did not stop")
	}
}

func TestCloseReleasesUnservedListener(t *testing.T) {
	srv, err := New().Listen("127.0.0.1:0", nil)
	require.NoError(t, err)
	addr := srv.Addr()
	require.NoError(t, srv.Close())

	again, err := New().Listen(addr, nil)
	require.NoError(t, err)
	require.NoError(t, again.Close())
}
