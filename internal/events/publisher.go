// internal/events/publisher.go
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// QueueName is the durable queue campaign completion events land on.
const QueueName = "campaign_events"

// CampaignCompleted is emitted once per dispatch, after the campaign row has
// its final counts.
type CampaignCompleted struct {
	CampaignID  string    `json:"campaign_id"`
	UserID      string    `json:"user_id"`
	Channel     string    `json:"channel"`
	Status      string    `json:"status"`
	Total       int       `json:"total"`
	Sent        int       `json:"sent"`
	Failed      int       `json:"failed"`
	CompletedAt time.Time `json:"completed_at"`
}

type Publisher interface {
	Publish(ctx context.Context, evt CampaignCompleted) error
}

// AMQPPublisher pushes events onto a durable RabbitMQ queue for the audit
// worker to consume.
type AMQPPublisher struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewAMQPPublisher(url string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	if _, err := ch.QueueDeclare(
		QueueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	return &AMQPPublisher{conn: conn, ch: ch}, nil
}

func (p *AMQPPublisher) Publish(_ context.Context, evt CampaignCompleted) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return p.ch.Publish(
		"",
		QueueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

func (p *AMQPPublisher) Close() {
	p.ch.Close()
	p.conn.Close()
}

// NopPublisher stands in when AMQP is not configured; dispatch still works,
// events are only logged.
type NopPublisher struct {
	log *zap.Logger
}

func (p *NopPublisher) Publish(_ context.Context, evt CampaignCompleted) error {
	p.log.Debug("campaign event dropped, AMQP not configured",
		zap.String("campaign_id", evt.CampaignID),
		zap.String("status", evt.Status),
	)
	return nil
}

// Resolve returns an AMQP publisher when a broker URL is configured and
// reachable, the no-op publisher otherwise.
func Resolve(url string, log *zap.Logger) Publisher {
	if url == "" {
		log.Warn("AMQP_URL not set, campaign events disabled")
		return &NopPublisher{log: log}
	}
	pub, err := NewAMQPPublisher(url)
	if err != nil {
		log.Warn("failed to connect to AMQP, campaign events disabled", zap.Error(err))
		return &NopPublisher{log: log}
	}
	log.Info("campaign events publisher connected", zap.String("queue", QueueName))
	return pub
}
