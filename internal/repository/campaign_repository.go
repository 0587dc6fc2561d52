package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	appErrors "github.com/leadvault/leadvault-backend/internal/errors"
	"github.com/leadvault/leadvault-backend/internal/model"
)

type CampaignRepositoryInterface interface {
	Create(ctx context.Context, c *model.Campaign) error
	Finalize(ctx context.Context, id string, sentCount, failedCount int, status string) error
	GetByID(ctx context.Context, id string) (*model.Campaign, error)
	List(ctx context.Context, userID, channel string) ([]model.Campaign, error)
}

type CampaignRepository struct {
	DB *sql.DB
}

const campaignColumns = `id, user_id, name, channel, subject, message_template, sender_name, sender_email,
       status, total_recipients, sent_count, failed_count, created_at, sent_at, updated_at`

func (r *CampaignRepository) Create(ctx context.Context, c *model.Campaign) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	if c.Status == "" {
		c.Status = model.CampaignStatusPending
	}
	query := `
        INSERT INTO campaigns (id, user_id, name, channel, subject, message_template, sender_name, sender_email,
                               status, total_recipients, sent_count, failed_count, created_at, sent_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
    `
	_, err := r.DB.ExecContext(ctx, query,
		c.ID, c.UserID, c.Name, c.Channel, c.Subject, c.MessageTemplate, c.SenderName, c.SenderEmail,
		c.Status, c.TotalRecipients, c.SentCount, c.FailedCount, c.CreatedAt, c.SentAt,
	)
	return err
}

// Finalize writes the final counts and status. Called exactly once per
// campaign, after every recipient has a terminal outcome.
func (r *CampaignRepository) Finalize(ctx context.Context, id string, sentCount, failedCount int, status string) error {
	query := `UPDATE campaigns SET sent_count=$1, failed_count=$2, status=$3, updated_at=NOW() WHERE id=$4`
	_, err := r.DB.ExecContext(ctx, query, sentCount, failedCount, status, id)
	return err
}

func (r *CampaignRepository) GetByID(ctx context.Context, id string) (*model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id=$1`
	var c model.Campaign
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.UserID, &c.Name, &c.Channel, &c.Subject, &c.MessageTemplate, &c.SenderName, &c.SenderEmail,
		&c.Status, &c.TotalRecipients, &c.SentCount, &c.FailedCount, &c.CreatedAt, &c.SentAt, &c.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewNotFound("campaign", id)
		}
		return nil, err
	}
	return &c, nil
}

func (r *CampaignRepository) List(ctx context.Context, userID, channel string) ([]model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE 1=1`
	args := []interface{}{}
	argPos := 1

	if userID != "" {
		query += fmt.Sprintf(" AND user_id=$%d", argPos)
		args = append(args, userID)
		argPos++
	}
	if channel != "" {
		query += fmt.Sprintf(" AND channel=$%d", argPos)
		args = append(args, channel)
		argPos++
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	campaigns := []model.Campaign{}
	for rows.Next() {
		var c model.Campaign
		if err := rows.Scan(
			&c.ID, &c.UserID, &c.Name, &c.Channel, &c.Subject, &c.MessageTemplate, &c.SenderName, &c.SenderEmail,
			&c.Status, &c.TotalRecipients, &c.SentCount, &c.FailedCount, &c.CreatedAt, &c.SentAt, &c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
