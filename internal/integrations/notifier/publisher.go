package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const routingKeyPrefix = "parking."

// Publisher публикует уведомления пользователям в RabbitMQ (topic exchange)
type Publisher struct {
	conn     *amqp.Connection
	ch       Channel
	exchange string
	now      func() time.Time
	log      Logger
}

// Dial подключается к брокеру и объявляет exchange
func Dial(url, exchange string, log Logger) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("%w: dial: %v", ErrConnect, err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: open channel: %v", ErrConnect, err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("%w: declare exchange %s: %v", ErrConnect, exchange, err)
	}

	p := NewPublisher(ch, exchange, log)
	p.conn = conn
	return p, nil
}

// NewPublisher создает публикатор поверх готового канала
func NewPublisher(ch Channel, exchange string, log Logger) *Publisher {
	return &Publisher{
		ch:       ch,
		exchange: exchange,
		now:      func() time.Time { return time.Now().UTC() },
		log:      log,
	}
}

// Notify публикует событие с ключом parking.<eventType>
func (p *Publisher) Notify(ctx context.Context, userID int64, eventType string, payload map[string]interface{}) error {
	body, err := json.Marshal(Event{
		UserID:     userID,
		Type:       eventType,
		Payload:    payload,
		OccurredAt: p.now(),
	})
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", ErrPublish, eventType, err)
	}

	err = p.ch.PublishWithContext(ctx, p.exchange, routingKeyPrefix+eventType, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("%w: %s user=%d: %v", ErrPublish, eventType, userID, err)
	}

	p.log.Info("Notify: published %s user=%d", eventType, userID)
	return nil
}

// Close закрывает канал и соединение
func (p *Publisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// LogSink пишет уведомления в лог, когда брокер отключен в конфиге
type LogSink struct {
	log Logger
}

// NewLogSink создает sink, который только логирует
func NewLogSink(log Logger) *LogSink {
	return &LogSink{log: log}
}

// Notify логирует событие
func (s *LogSink) Notify(_ context.Context, userID int64, eventType string, payload map[string]interface{}) error {
	s.log.Info("Notify: %s user=%d payload=%v", eventType, userID, payload)
	return nil
}
