package grpc

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// TaskServiceName - имя сервиса в gRPC health
const TaskServiceName = "tasks.TaskService"

type Pinger interface {
	HealthCheck(ctx context.Context) error
}

// PingFunc позволяет передать функцию как Pinger
type PingFunc func(ctx context.Context) error

func (f PingFunc) HealthCheck(ctx context.Context) error { return f(ctx) }

// HealthMonitor периодически пингует базу и выставляет статус в health.Server
type HealthMonitor struct {
	health   *health.Server
	pinger   Pinger
	interval time.Duration
	logger   logrus.FieldLogger
	serving  *bool
}

func NewHealthMonitor(hs *health.Server, pinger Pinger, interval time.Duration, logger logrus.FieldLogger) *HealthMonitor {
	return &HealthMonitor{
		health:   hs,
		pinger:   pinger,
		interval: interval,
		logger:   logger,
	}
}

// Check - одна проверка, логирует только смену состояния
func (m *HealthMonitor) Check(ctx context.Context) {
	err := m.pinger.HealthCheck(ctx)
	serving := err == nil

	status := healthpb.HealthCheckResponse_SERVING
	if !serving {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	m.health.SetServingStatus("", status)
	m.health.SetServingStatus(TaskServiceName, status)

	if m.serving == nil || *m.serving != serving {
		if serving {
			m.logger.Info("✅ База данных доступна")
		} else {
			m.logger.WithError(err).Warn("❌ База данных недоступна")
		}
	}
	m.serving = &serving
}

func (m *HealthMonitor) Start(ctx context.Context) {
	m.Check(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.health.Shutdown()
			return
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}
