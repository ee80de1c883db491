package grpc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

func TestDialWithHealthSuccess(t *testing.T) {
	addr, _, stop := startHealthServer(t, grpc_health_v1.HealthCheckResponse_SERVING)
	defer stop()

	conn, err := DialWithHealth(context.Background(), addr, 2*time.Second, nil)
	require.NoError(t, err)
	require.NoError(t, conn.Close())
}

func TestDialWithHealthReportsHealthStage(t *testing.T) {
	addr, _, stop := startHealthServer(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	defer stop()

	_, err := DialWithHealth(context.Background(), addr, 300*time.Millisecond, nil)
	require.Error(t, err)

	var dialErr *DialError
	require.True(t, errors.As(err, &dialErr))
	require.Equal(t, DialStageHealth, dialErr.Stage)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDialErrorNilSafe(t *testing.T) {
	var err *DialError
	require.Equal(t, "gRPC dial error", err.Error())
	require.NoError(t, err.Unwrap())
}
