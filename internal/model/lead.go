// internal/model/lead.go
package model

import "time"

type Lead struct {
	ID          string    `db:"id" json:"id"`
	FirstName   string    `db:"first_name" json:"first_name"`
	LastName    string    `db:"last_name" json:"last_name"`
	Email       string    `db:"email" json:"email"`
	Phone       string    `db:"phone" json:"phone"`
	Company     string    `db:"company" json:"company"`
	Title       string    `db:"title" json:"title"`
	Location    string    `db:"location" json:"location"`
	Country     string    `db:"country" json:"country"`
	Website     string    `db:"website" json:"website"`
	LinkedinURL string    `db:"linkedin_url" json:"linkedin_url"`
	Notes       string    `db:"notes" json:"notes"`
	Domain      string    `db:"domain" json:"domain"`
	SourceFile  string    `db:"source_file" json:"source_file"`
	ImportID    *string   `db:"import_id" json:"import_id,omitempty"`
	IsDuplicate bool      `db:"is_duplicate" json:"is_duplicate"`
	UserID      string    `db:"user_id" json:"user_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
