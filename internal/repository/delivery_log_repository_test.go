package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadvault/leadvault-backend/internal/model"
)

func newDeliveryLogRepo(t *testing.T) (*DeliveryLogRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &DeliveryLogRepository{DB: db}, mock
}

func TestDeliveryLogInsertBatchEmptyIsNoop(t *testing.T) {
	repo, mock := newDeliveryLogRepo(t)
	require.NoError(t, repo.InsertBatch(context.Background(), nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeliveryLogInsertBatchSingleStatement(t *testing.T) {
	repo, mock := newDeliveryLogRepo(t)

	now := time.Now().UTC()
	entries := []model.DeliveryLog{
		{
			ID: "log-1", CampaignID: "camp-1", LeadID: "l1",
			RecipientContact: "alice@x.com", RecipientName: "Alice Smith", SenderName: "LeadVault",
			Status: model.DeliveryStatusSent, SentAt: &now, CreatedAt: now,
		},
		{
			ID: "log-2", CampaignID: "camp-1", LeadID: "l2",
			RecipientContact: "bob@x.com", RecipientName: "Bob", SenderName: "LeadVault",
			Status: model.DeliveryStatusFailed, ErrorMessage: "No email address provided", CreatedAt: now,
		},
	}

	// Two rows, 11 columns each: placeholders run $1 through $22 in one INSERT.
	mock.ExpectExec(`INSERT INTO delivery_logs (.+) VALUES \(\$1, (.+)\$11\), \(\$12, (.+)\$22\)`).
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, repo.InsertBatch(context.Background(), entries))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeliveryLogInsertBatchNilProviderResponse(t *testing.T) {
	repo, mock := newDeliveryLogRepo(t)

	now := time.Now().UTC()
	entry := model.DeliveryLog{
		ID: "log-1", CampaignID: "camp-1", LeadID: "l1",
		RecipientContact: "8801711000111", RecipientName: "Alice", SenderName: "LeadVault",
		Status: model.DeliveryStatusFailed, ErrorMessage: "No phone number provided", CreatedAt: now,
	}

	mock.ExpectExec("INSERT INTO delivery_logs").
		WithArgs("log-1", "camp-1", "l1", "8801711000111", "Alice", "LeadVault",
			model.DeliveryStatusFailed, "No phone number provided", nil, nil, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.InsertBatch(context.Background(), []model.DeliveryLog{entry}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeliveryLogListByCampaign(t *testing.T) {
	repo, mock := newDeliveryLogRepo(t)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "campaign_id", "lead_id", "recipient_contact", "recipient_name", "sender_name",
		"status", "error_message", "provider_response", "sent_at", "created_at",
	}).
		AddRow("log-1", "camp-1", "l1", "a@x.com", "Alice", "LeadVault",
			model.DeliveryStatusSent, "", []byte(`{"id":"re_1"}`), now, now).
		AddRow("log-2", "camp-1", "l2", "b@x.com", "Bob", "LeadVault",
			model.DeliveryStatusFailed, "boom", nil, nil, now)

	mock.ExpectQuery(`SELECT (.+) FROM delivery_logs\s+WHERE campaign_id=\$1\s+ORDER BY created_at ASC, id ASC`).
		WithArgs("camp-1").
		WillReturnRows(rows)

	entries, err := repo.ListByCampaign(context.Background(), "camp-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "log-1", entries[0].ID)
	assert.Equal(t, json.RawMessage(`{"id":"re_1"}`), entries[0].ProviderResponse)
	require.NotNil(t, entries[0].SentAt)

	assert.Equal(t, "boom", entries[1].ErrorMessage)
	assert.Nil(t, entries[1].ProviderResponse)
	assert.Nil(t, entries[1].SentAt)
}
