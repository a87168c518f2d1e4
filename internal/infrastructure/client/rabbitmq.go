package client

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/St1cky1/tasks-api/internal/entity"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

const AuditQueueName = "task_audit_logs"

// AMQPChannel - часть *amqp.Channel, которой пользуются publisher и audit worker
type AMQPChannel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	IsClosed() bool
	Close() error
}

type amqpConnection interface {
	Channel() (AMQPChannel, error)
	IsClosed() bool
	Close() error
}

type connection struct {
	conn *amqp.Connection
}

func (c connection) Channel() (AMQPChannel, error) {
	ch, err := c.conn.Channel()
	if err != nil {
		return nil, err
	}
	return ch, nil
}

func (c connection) IsClosed() bool { return c.conn.IsClosed() }
func (c connection) Close() error   { return c.conn.Close() }

func dial(url string) (amqpConnection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	return connection{conn: conn}, nil
}

// RabbitMQClient держит одно соединение и канал для публикации.
// После обрыва соединение открывается заново при следующем обращении.
type RabbitMQClient struct {
	url     string
	dial    func(url string) (amqpConnection, error)
	mu      sync.Mutex
	conn    amqpConnection
	channel AMQPChannel
	breaker *gobreaker.CircuitBreaker
	logger  logrus.FieldLogger
}

func NewRabbitMQClient(url string, logger logrus.FieldLogger) (*RabbitMQClient, error) {
	c := &RabbitMQClient{
		url:     url,
		dial:    dial,
		breaker: newPublishBreaker(logger),
		logger:  logger,
	}
	if _, err := c.publishChannel(); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// DeclareAuditQueue объявляет durable очередь для аудита
func DeclareAuditQueue(channel AMQPChannel) error {
	_, err := channel.QueueDeclare(
		AuditQueueName, // name
		true,           // durable
		false,          // delete when unused
		false,          // exclusive
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", AuditQueueName, err)
	}
	return nil
}

// После 3 ошибок подряд публикация отключается на 5 секунд
func newPublishBreaker(logger logrus.FieldLogger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "rabbitmq-audit",
		MaxRequests: 1,
		Timeout:     5 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("circuit breaker state changed")
		},
	})
}

// connection возвращает живое соединение, при обрыве подключается заново. Вызывать под c.mu.
func (c *RabbitMQClient) connection() (amqpConnection, error) {
	if c.conn != nil && !c.conn.IsClosed() {
		return c.conn, nil
	}
	if c.conn != nil {
		c.logger.Warn("🔄 Соединение с RabbitMQ потеряно, переподключение")
	}

	conn, err := c.dial(c.url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}
	c.conn = conn
	c.channel = nil
	return conn, nil
}

// Channel открывает новый канал для consumer'а
func (c *RabbitMQClient) Channel() (AMQPChannel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	conn, err := c.connection()
	if err != nil {
		return nil, err
	}
	channel, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	return channel, nil
}

// publishChannel возвращает канал для публикации, открывая его заново после закрытия
func (c *RabbitMQClient) publishChannel() (AMQPChannel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	conn, err := c.connection()
	if err != nil {
		return nil, err
	}
	if c.channel != nil && !c.channel.IsClosed() {
		return c.channel, nil
	}

	channel, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if err := DeclareAuditQueue(channel); err != nil {
		channel.Close()
		return nil, err
	}
	c.channel = channel
	return channel, nil
}

func (c *RabbitMQClient) PublishAuditMessage(ctx context.Context, message *entity.AuditMessage) error {
	body, err := json.Marshal(message)
	if err != nil {
		return err
	}

	_, err = c.breaker.Execute(func() (interface{}, error) {
		channel, err := c.publishChannel()
		if err != nil {
			return nil, err
		}
		return nil, channel.PublishWithContext(
			ctx,
			"",             // exchange
			AuditQueueName, // routing key
			false,          // mandatory
			false,          // immediate
			amqp.Publishing{
				ContentType:  "application/json",
				MessageId:    message.MessageID,
				Timestamp:    message.Timestamp,
				Body:         body,
				DeliveryMode: amqp.Persistent, // Сообщения сохраняются на диск
			},
		)
	})
	if err != nil {
		return fmt.Errorf("failed to publish audit message: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"action":  message.Action,
		"task_id": message.EntityID,
	}).Debug("Отправлено сообщение в RabbitMQ")
	return nil
}

func (c *RabbitMQClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
