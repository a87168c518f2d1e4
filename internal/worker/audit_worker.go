package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/St1cky1/tasks-api/internal/entity"
	"github.com/St1cky1/tasks-api/internal/infrastructure/client"
	"github.com/St1cky1/tasks-api/internal/repository"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

const consumerTag = "audit_worker"

// ChannelOpener - источник AMQP каналов, обычно *client.RabbitMQClient.
// После обрыва соединения он сам подключается заново.
type ChannelOpener interface {
	Channel() (client.AMQPChannel, error)
}

type AuditWorker struct {
	rabbitMQ       ChannelOpener
	auditRepo      repository.ITaskAuditRepository
	logger         logrus.FieldLogger
	reconnectDelay time.Duration
}

func NewAuditWorker(rabbitMQ ChannelOpener, auditRepo repository.ITaskAuditRepository, logger logrus.FieldLogger) *AuditWorker {
	return &AuditWorker{
		rabbitMQ:       rabbitMQ,
		auditRepo:      auditRepo,
		logger:         logger.WithField("component", consumerTag),
		reconnectDelay: 5 * time.Second,
	}
}

// Start читает очередь аудита до отмены ctx, при обрыве канала переподключается
func (w *AuditWorker) Start(ctx context.Context) {
	w.logger.Info("✅ Audit Worker запущен. Ожидаем сообщения...")

	for {
		err := w.consume(ctx)
		if ctx.Err() != nil {
			w.logger.Info("🛑 Audit Worker остановлен")
			return
		}

		w.logger.WithError(err).Warnf("❌ Audit Worker ошибка, переподключение через %s", w.reconnectDelay)
		select {
		case <-ctx.Done():
			w.logger.Info("🛑 Audit Worker остановлен")
			return
		case <-time.After(w.reconnectDelay):
		}
	}
}

func (w *AuditWorker) consume(ctx context.Context) error {
	channel, err := w.rabbitMQ.Channel()
	if err != nil {
		return fmt.Errorf("ошибка создания канала: %w", err)
	}
	defer channel.Close()

	// Убеждаемся, что очередь существует
	if err := client.DeclareAuditQueue(channel); err != nil {
		return err
	}

	msgs, err := channel.Consume(
		client.AuditQueueName, // queue
		consumerTag,           // consumer tag
		false,                 // auto-ack
		false,                 // exclusive
		false,                 // no-local
		false,                 // no-wait
		nil,                   // args
	)
	if err != nil {
		return fmt.Errorf("ошибка создания consumer: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return errors.New("канал сообщений закрыт")
			}
			w.processMessage(ctx, msg)
		}
	}
}

func (w *AuditWorker) processMessage(ctx context.Context, msg amqp.Delivery) {
	// 1. Парсим сообщение
	var auditMsg entity.AuditMessage
	if err := json.Unmarshal(msg.Body, &auditMsg); err != nil {
		w.logger.WithError(err).Error("❌ Ошибка парсинга сообщения")
		_ = msg.Nack(false, false) // Не возвращаем в очередь
		return
	}

	// 2. Конвертируем в TaskAudit
	taskAudit, err := convertToTaskAudit(&auditMsg)
	if err != nil {
		w.logger.WithError(err).Error("❌ Ошибка конвертации")
		_ = msg.Nack(false, false)
		return
	}

	// 3. Сохраняем в БД
	if err := w.auditRepo.Create(ctx, taskAudit); err != nil {
		w.logger.WithError(err).Error("❌ Ошибка сохранения аудита")
		_ = msg.Nack(false, true) // Возвращаем в очередь для повторной обработки
		return
	}

	// 4. Подтверждаем обработку
	_ = msg.Ack(false)
	w.logger.WithFields(logrus.Fields{
		"action":  taskAudit.Action,
		"task_id": taskAudit.EntityID,
	}).Info("✅ Аудит сохранен")
}

func convertToTaskAudit(msg *entity.AuditMessage) (*entity.TaskAudit, error) {
	oldValues, err := marshalValues(msg.OldValues)
	if err != nil {
		return nil, err
	}
	newValues, err := marshalValues(msg.NewValues)
	if err != nil {
		return nil, err
	}
	changes, err := marshalValues(msg.Changes)
	if err != nil {
		return nil, err
	}

	changedAt := msg.Timestamp
	if changedAt.IsZero() {
		changedAt = time.Now().UTC()
	}

	return &entity.TaskAudit{
		Action:     msg.Action,
		EntityType: entity.AuditEntityTask,
		EntityID:   msg.EntityID,
		OldValues:  oldValues,
		NewValues:  newValues,
		Changes:    changes,
		ChangedAt:  changedAt,
	}, nil
}

// marshalValues - map в JSON строку, nil для пустых значений
func marshalValues(values map[string]any) (*string, error) {
	if values == nil {
		return nil, nil
	}
	data, err := json.Marshal(values)
	if err != nil {
		return nil, err
	}
	s := string(data)
	return &s, nil
}
