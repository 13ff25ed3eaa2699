package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type fakeChannel struct {
	exchange string
	key      string
	msg      amqp.Publishing
	err      error
	closed   bool
}

func (c *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	c.exchange, c.key, c.msg = exchange, key, msg
	return c.err
}

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

func TestPublisher_Notify(t *testing.T) {
	ch := &fakeChannel{}
	p := NewPublisher(ch, "parking.events", nopLogger{})
	at := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return at }

	err := p.Notify(context.Background(), 7, "booking_confirmed", map[string]interface{}{"booking_id": 42})
	require.NoError(t, err)

	assert.Equal(t, "parking.events", ch.exchange)
	assert.Equal(t, "parking.booking_confirmed", ch.key)
	assert.Equal(t, "application/json", ch.msg.ContentType)

	var ev Event
	require.NoError(t, json.Unmarshal(ch.msg.Body, &ev))
	assert.Equal(t, int64(7), ev.UserID)
	assert.Equal(t, "booking_confirmed", ev.Type)
	assert.Equal(t, float64(42), ev.Payload["booking_id"])
	assert.True(t, at.Equal(ev.OccurredAt))

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}

func TestPublisher_NotifyError(t *testing.T) {
	p := NewPublisher(&fakeChannel{err: errors.New("channel closed")}, "x", nopLogger{})

	err := p.Notify(context.Background(), 1, "vehicle_exited", nil)
	assert.ErrorIs(t, err, ErrPublish)
}
