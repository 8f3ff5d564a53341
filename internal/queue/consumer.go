package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// NoticeHandler delivers one notice.
type NoticeHandler func(ctx context.Context, ev NoticeEvent) error

// StartNoticeConsumer connects to RabbitMQ, declares the booking.notice
// queue (durable) and hands every message to handle.  It reconnects with
// backoff until ctx is cancelled.  A message whose handler fails is
// rejected without requeue so one bad notice cannot spin the loop.
func StartNoticeConsumer(ctx context.Context, url string, log *zap.Logger, handle NoticeHandler) error {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Warn("notice-consumer: failed to dial broker", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = consumeLoop(ctx, conn, log, handle)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn("notice-consumer: consume loop ended; reconnecting", zap.Error(err))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, log *zap.Logger, handle NoticeHandler) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(10, 0, false); err != nil {
		log.Warn("notice-consumer: set QoS failed", zap.Error(err))
	}
	if _, err := ch.QueueDeclare(NoticeQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(NoticeQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := HandleDelivery(ctx, d.Body, handle); err != nil {
				log.Error("notice-consumer: handle message failed", zap.Error(err))
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// HandleDelivery decodes one message body and passes it to handle.
func HandleDelivery(ctx context.Context, body []byte, handle NoticeHandler) error {
	var ev NoticeEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Kind == "" || ev.Booking.StaffID == 0 {
		return errors.New("notice event without kind or staff")
	}
	return handle(ctx, ev)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
