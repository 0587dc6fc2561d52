// internal/model/import.go
package model

import (
	"encoding/json"
	"time"
)

type Import struct {
	ID             string    `db:"id" json:"id"`
	FileName       string    `db:"file_name" json:"file_name"`
	TotalRows      int       `db:"total_rows" json:"total_rows"`
	SuccessfulRows int       `db:"successful_rows" json:"successful_rows"`
	FailedRows     int       `db:"failed_rows" json:"failed_rows"`
	Status         string    `db:"status" json:"status"`
	UserID         string    `db:"user_id" json:"user_id"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

type AuditLog struct {
	ID          string          `db:"id" json:"id"`
	Action      string          `db:"action" json:"action"`
	TableName   string          `db:"table_name" json:"table_name"`
	RecordID    string          `db:"record_id" json:"record_id,omitempty"`
	ActorID     string          `db:"actor_id" json:"actor_id,omitempty"`
	ActorEmail  string          `db:"actor_email" json:"actor_email,omitempty"`
	WorkspaceID string          `db:"workspace_id" json:"workspace_id,omitempty"`
	Details     json.RawMessage `db:"details" json:"details,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}
