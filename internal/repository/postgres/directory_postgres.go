package postgres

import (
	"context"
	"database/sql"
	"errors"

	"docexpiry/internal/repository"
)

// DirectoryPostgres resolves users and companies to delivery contacts.
type DirectoryPostgres struct {
	db *sql.DB
}

// NewDirectoryPostgres creates a new DirectoryPostgres.
func NewDirectoryPostgres(db *sql.DB) *DirectoryPostgres {
	return &DirectoryPostgres{db: db}
}

var _ repository.Directory = (*DirectoryPostgres)(nil)

// ResolveUser returns the contact of a user.
func (r *DirectoryPostgres) ResolveUser(ctx context.Context, userID string) (*repository.Contact, error) {
	const q = `SELECT id, full_name, email, phone FROM users WHERE id = $1`
	return r.resolve(ctx, q, userID)
}

// ResolveOwner returns the contact of a company.
func (r *DirectoryPostgres) ResolveOwner(ctx context.Context, ownerID string) (*repository.Contact, error) {
	const q = `SELECT id, name, email, phone FROM companies WHERE id = $1`
	return r.resolve(ctx, q, ownerID)
}

func (r *DirectoryPostgres) resolve(ctx context.Context, q, id string) (*repository.Contact, error) {
	var c repository.Contact
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&c.ID, &c.Name, &c.Email, &c.Phone); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}
