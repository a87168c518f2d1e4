package grpc

import (
	"fmt"
	"net/http"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// DialHealth открывает клиентское соединение к локальному gRPC серверу
func DialHealth(grpcAddr string) (*grpc.ClientConn, error) {
	conn, err := grpc.NewClient(grpcAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to dial grpc %s: %w", grpcAddr, err)
	}
	return conn, nil
}

// NewGatewayHandler создает HTTP Gateway с GET /healthz поверх gRPC health
func NewGatewayHandler(conn grpc.ClientConnInterface) http.Handler {
	return runtime.NewServeMux(
		runtime.WithHealthzEndpoint(healthpb.NewHealthClient(conn)),
	)
}
