package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/leadvault/leadvault-backend/internal/model"
)

type ImportRepositoryInterface interface {
	Create(ctx context.Context, imp *model.Import) error
	Finalize(ctx context.Context, id string, successful, failed int, status string) error
}

type ImportRepository struct {
	DB *sql.DB
}

func (r *ImportRepository) Create(ctx context.Context, imp *model.Import) error {
	if imp.CreatedAt.IsZero() {
		imp.CreatedAt = time.Now().UTC()
	}
	query := `
        INSERT INTO imports (id, file_name, total_rows, successful_rows, failed_rows, status, user_id, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `
	_, err := r.DB.ExecContext(ctx, query,
		imp.ID, imp.FileName, imp.TotalRows, imp.SuccessfulRows, imp.FailedRows, imp.Status, imp.UserID, imp.CreatedAt,
	)
	return err
}

func (r *ImportRepository) Finalize(ctx context.Context, id string, successful, failed int, status string) error {
	query := `UPDATE imports SET successful_rows=$1, failed_rows=$2, status=$3 WHERE id=$4`
	_, err := r.DB.ExecContext(ctx, query, successful, failed, status, id)
	return err
}

type AuditLogRepositoryInterface interface {
	Insert(ctx context.Context, entry *model.AuditLog) error
}

type AuditLogRepository struct {
	DB *sql.DB
}

func (r *AuditLogRepository) Insert(ctx context.Context, entry *model.AuditLog) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	query := `
        INSERT INTO audit_logs (id, action, table_name, record_id, actor_id, actor_email, workspace_id, details, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `
	var details interface{}
	if len(entry.Details) > 0 {
		details = []byte(entry.Details)
	}
	_, err := r.DB.ExecContext(ctx, query,
		entry.ID, entry.Action, entry.TableName, entry.RecordID, entry.ActorID, entry.ActorEmail,
		entry.WorkspaceID, details, entry.CreatedAt,
	)
	return err
}

var (
	_ ImportRepositoryInterface   = (*ImportRepository)(nil)
	_ AuditLogRepositoryInterface = (*AuditLogRepository)(nil)
)
