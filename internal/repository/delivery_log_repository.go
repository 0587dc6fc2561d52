package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/leadvault/leadvault-backend/internal/model"
)

type DeliveryLogRepositoryInterface interface {
	InsertBatch(ctx context.Context, entries []model.DeliveryLog) error
	ListByCampaign(ctx context.Context, campaignID string) ([]model.DeliveryLog, error)
}

type DeliveryLogRepository struct {
	DB *sql.DB
}

const deliveryLogColumns = `id, campaign_id, lead_id, recipient_contact, recipient_name, sender_name,
       status, error_message, provider_response, sent_at, created_at`

// InsertBatch writes all of a campaign's log rows in one multi-row INSERT,
// one round trip regardless of recipient count.
func (r *DeliveryLogRepository) InsertBatch(ctx context.Context, entries []model.DeliveryLog) error {
	if len(entries) == 0 {
		return nil
	}

	const cols = 11
	placeholders := make([]string, 0, len(entries))
	args := make([]interface{}, 0, len(entries)*cols)
	for i, e := range entries {
		base := i * cols
		group := make([]string, cols)
		for j := range group {
			group[j] = fmt.Sprintf("$%d", base+j+1)
		}
		placeholders = append(placeholders, "("+strings.Join(group, ", ")+")")

		if e.CreatedAt.IsZero() {
			e.CreatedAt = time.Now().UTC()
		}
		args = append(args,
			e.ID, e.CampaignID, e.LeadID, e.RecipientContact, e.RecipientName, e.SenderName,
			e.Status, e.ErrorMessage, rawOrNil(e.ProviderResponse), e.SentAt, e.CreatedAt,
		)
	}

	query := `
        INSERT INTO delivery_logs (` + deliveryLogColumns + `)
        VALUES ` + strings.Join(placeholders, ", ")
	_, err := r.DB.ExecContext(ctx, query, args...)
	return err
}

func (r *DeliveryLogRepository) ListByCampaign(ctx context.Context, campaignID string) ([]model.DeliveryLog, error) {
	query := `SELECT ` + deliveryLogColumns + `
        FROM delivery_logs
        WHERE campaign_id=$1
        ORDER BY created_at ASC, id ASC`
	rows, err := r.DB.QueryContext(ctx, query, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []model.DeliveryLog{}
	for rows.Next() {
		var e model.DeliveryLog
		var response []byte
		if err := rows.Scan(
			&e.ID, &e.CampaignID, &e.LeadID, &e.RecipientContact, &e.RecipientName, &e.SenderName,
			&e.Status, &e.ErrorMessage, &response, &e.SentAt, &e.CreatedAt,
		); err != nil {
			return nil, err
		}
		if len(response) > 0 {
			e.ProviderResponse = json.RawMessage(response)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func rawOrNil(raw json.RawMessage) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}

var _ DeliveryLogRepositoryInterface = (*DeliveryLogRepository)(nil)
