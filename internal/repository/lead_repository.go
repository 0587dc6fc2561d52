package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	appErrors "github.com/leadvault/leadvault-backend/internal/errors"
	"github.com/leadvault/leadvault-backend/internal/model"
)

type LeadRepositoryInterface interface {
	List(ctx context.Context, userID, q string, offset, limit int) ([]model.Lead, int, error)
	GetByID(ctx context.Context, id string) (*model.Lead, error)
	Create(ctx context.Context, l *model.Lead) error
	Update(ctx context.Context, l *model.Lead) error
	Delete(ctx context.Context, id string) error
	InsertBatch(ctx context.Context, leads []model.Lead) error
}

type LeadRepository struct {
	DB *sql.DB
}

const leadColumns = `id, first_name, last_name, email, phone, company, title, location, country,
       website, linkedin_url, notes, domain, source_file, import_id, is_duplicate, user_id,
       created_at, updated_at`

func scanLead(scan func(dest ...interface{}) error) (*model.Lead, error) {
	var l model.Lead
	err := scan(
		&l.ID, &l.FirstName, &l.LastName, &l.Email, &l.Phone, &l.Company, &l.Title, &l.Location, &l.Country,
		&l.Website, &l.LinkedinURL, &l.Notes, &l.Domain, &l.SourceFile, &l.ImportID, &l.IsDuplicate, &l.UserID,
		&l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *LeadRepository) List(ctx context.Context, userID, q string, offset, limit int) ([]model.Lead, int, error) {
	where := " WHERE 1=1"
	args := []interface{}{}
	argPos := 1

	if userID != "" {
		where += fmt.Sprintf(" AND user_id=$%d", argPos)
		args = append(args, userID)
		argPos++
	}
	if q != "" {
		where += fmt.Sprintf(" AND (first_name ILIKE $%d OR last_name ILIKE $%d OR email ILIKE $%d OR company ILIKE $%d)",
			argPos, argPos, argPos, argPos)
		args = append(args, "%"+q+"%")
		argPos++
	}

	query := `SELECT ` + leadColumns + ` FROM leads` + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	rows, err := r.DB.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	leads := []model.Lead{}
	for rows.Next() {
		l, err := scanLead(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		leads = append(leads, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM leads`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return leads, total, nil
}

func (r *LeadRepository) GetByID(ctx context.Context, id string) (*model.Lead, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+leadColumns+` FROM leads WHERE id=$1`, id)
	l, err := scanLead(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewNotFound("lead", id)
		}
		return nil, err
	}
	return l, nil
}

func (r *LeadRepository) Create(ctx context.Context, l *model.Lead) error {
	now := time.Now().UTC()
	l.CreatedAt = now
	l.UpdatedAt = now
	query := `
        INSERT INTO leads (` + leadColumns + `)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
    `
	_, err := r.DB.ExecContext(ctx, query, leadArgs(l)...)
	return err
}

func (r *LeadRepository) Update(ctx context.Context, l *model.Lead) error {
	l.UpdatedAt = time.Now().UTC()
	query := `
        UPDATE leads
        SET first_name=$1, last_name=$2, email=$3, phone=$4, company=$5, title=$6, location=$7,
            country=$8, website=$9, linkedin_url=$10, notes=$11, domain=$12, updated_at=$13
        WHERE id=$14
    `
	res, err := r.DB.ExecContext(ctx, query,
		l.FirstName, l.LastName, l.Email, l.Phone, l.Company, l.Title, l.Location,
		l.Country, l.Website, l.LinkedinURL, l.Notes, l.Domain, l.UpdatedAt, l.ID,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return appErrors.NewNotFound("lead", l.ID)
	}
	return nil
}

func (r *LeadRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM leads WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return appErrors.NewNotFound("lead", id)
	}
	return nil
}

// InsertBatch writes imported leads in one multi-row INSERT.
func (r *LeadRepository) InsertBatch(ctx context.Context, leads []model.Lead) error {
	if len(leads) == 0 {
		return nil
	}

	const cols = 19
	placeholders := make([]string, 0, len(leads))
	args := make([]interface{}, 0, len(leads)*cols)
	for i := range leads {
		base := i * cols
		group := make([]string, cols)
		for j := range group {
			group[j] = fmt.Sprintf("$%d", base+j+1)
		}
		placeholders = append(placeholders, "("+strings.Join(group, ", ")+")")
		args = append(args, leadArgs(&leads[i])...)
	}

	query := `INSERT INTO leads (` + leadColumns + `) VALUES ` + strings.Join(placeholders, ", ")
	_, err := r.DB.ExecContext(ctx, query, args...)
	return err
}

func leadArgs(l *model.Lead) []interface{} {
	return []interface{}{
		l.ID, l.FirstName, l.LastName, l.Email, l.Phone, l.Company, l.Title, l.Location, l.Country,
		l.Website, l.LinkedinURL, l.Notes, l.Domain, l.SourceFile, l.ImportID, l.IsDuplicate, l.UserID,
		l.CreatedAt, l.UpdatedAt,
	}
}

var _ LeadRepositoryInterface = (*LeadRepository)(nil)
