// cmd/worker/main.go
package main

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"github.com/leadvault/leadvault-backend/internal/config"
	"github.com/leadvault/leadvault-backend/internal/db"
	"github.com/leadvault/leadvault-backend/internal/events"
	"github.com/leadvault/leadvault-backend/internal/model"
	"github.com/leadvault/leadvault-backend/internal/repository"
)

// The worker drains campaign completion events into audit_logs. It is not on
// the send path; dispatches finish whether or not it runs.
func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg := config.Load()
	if cfg.AMQPURL == "" {
		logger.Fatal("AMQP_URL is required for the worker")
	}

	database, err := db.Open(cfg, logger)
	if err != nil {
		logger.Fatal("database init failed", zap.Error(err))
	}
	defer database.Close()

	auditRepo := &repository.AuditLogRepository{DB: database}

	conn, err := amqp.Dial(cfg.AMQPURL)
	if err != nil {
		logger.Fatal("failed to connect to RabbitMQ", zap.Error(err))
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatal("failed to open a channel", zap.Error(err))
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(
		events.QueueName, // name
		true,             // durable
		false,            // delete when unused
		false,            // exclusive
		false,            // no-wait
		nil,              // arguments
	)
	if err != nil {
		logger.Fatal("failed to declare queue", zap.Error(err))
	}

	msgs, err := ch.Consume(
		q.Name,
		"",
		false, // autoAck = false for reliability
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		logger.Fatal("failed to register consumer", zap.Error(err))
	}

	forever := make(chan bool)

	go func() {
		for d := range msgs {
			var evt events.CampaignCompleted
			if err := json.Unmarshal(d.Body, &evt); err != nil {
				logger.Warn("invalid event payload", zap.Error(err))
				d.Ack(false)
				continue
			}

			entry := &model.AuditLog{
				ID:          uuid.NewString(),
				Action:      "campaign_completed",
				TableName:   "campaigns",
				RecordID:    evt.CampaignID,
				WorkspaceID: evt.UserID,
				Details:     json.RawMessage(d.Body),
			}
			if err := auditRepo.Insert(context.Background(), entry); err != nil {
				logger.Error("failed to write audit log",
					zap.String("campaign_id", evt.CampaignID),
					zap.Error(err),
				)
				d.Nack(false, true) // requeue
				continue
			}

			logger.Info("campaign event recorded",
				zap.String("campaign_id", evt.CampaignID),
				zap.String("channel", evt.Channel),
				zap.String("status", evt.Status),
			)
			d.Ack(false)
		}
	}()

	logger.Info("worker running, waiting for campaign events")
	<-forever
}
