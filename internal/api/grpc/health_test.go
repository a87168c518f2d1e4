package grpc

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
)

func checkStatus(t *testing.T, hs *health.Server, service string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	resp, err := hs.Check(context.Background(), &healthpb.HealthCheckRequest{Service: service})
	require.NoError(t, err)
	return resp.GetStatus()
}

func TestHealthMonitorCheck(t *testing.T) {
	logger, hook := test.NewNullLogger()
	hs := health.NewServer()

	var pingErr error
	monitor := NewHealthMonitor(hs, PingFunc(func(ctx context.Context) error { return pingErr }), 0, logger)

	monitor.Check(context.Background())
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, checkStatus(t, hs, ""))
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, checkStatus(t, hs, TaskServiceName))

	pingErr = errors.New("dial tcp: connection refused")
	monitor.Check(context.Background())
	monitor.Check(context.Background())
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, checkStatus(t, hs, ""))
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, checkStatus(t, hs, TaskServiceName))

	// логируется только смена состояния: serving -> not serving
	assert.Len(t, hook.AllEntries(), 2)
}

func startBufServer(t *testing.T, hs *health.Server) *grpc.ClientConn {
	t.Helper()
	logger, _ := test.NewNullLogger()

	lis := bufconn.Listen(1024 * 1024)
	srv := NewServer(hs, logger)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestGatewayHealthz(t *testing.T) {
	hs := health.NewServer()
	conn := startBufServer(t, hs)
	gateway := NewGatewayHandler(conn)

	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	w := httptest.NewRecorder()
	gateway.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "SERVING")

	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	w = httptest.NewRecorder()
	gateway.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
