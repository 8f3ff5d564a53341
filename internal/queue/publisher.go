package queue

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Publisher publishes notice events to RabbitMQ.  Errors are logged and
// returned so the caller can record the failure without interrupting the
// request flow.
type Publisher struct {
	url string
	log *zap.Logger
}

func NewPublisher(url string, log *zap.Logger) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{url: url, log: log}
}

// PublishNotice publishes ev to the booking.notice queue.  Messages are
// marked as persistent.
func (p *Publisher) PublishNotice(ctx context.Context, ev NoticeEvent) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.log.Error("rabbitmq: dial failed", zap.Error(err))
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.log.Error("rabbitmq: channel open failed", zap.Error(err))
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(
		NoticeQueueName, // name
		true,            // durable
		false,           // autoDelete
		false,           // exclusive
		false,           // noWait
		nil,             // args
	); err != nil {
		p.log.Error("rabbitmq: queue declare failed", zap.Error(err))
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		p.log.Error("rabbitmq: marshal event failed", zap.Error(err))
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx,
		"",              // default exchange
		NoticeQueueName, // routing key = queue name
		false,           // mandatory
		false,           // immediate
		pub,
	); err != nil {
		p.log.Error("rabbitmq: publish failed", zap.Error(err))
		return err
	}
	return nil
}
