package repository

import (
	"context"

	"github.com/tally-dashboard/internal/database"
	"github.com/tally-dashboard/internal/models"
)

// credentialRepo is the concrete implementation of CredentialRepository
type credentialRepo struct {
	db *database.DB
}

// NewCredentialRepo creates a new credential seed repository
func NewCredentialRepo(db *database.DB) CredentialRepository {
	return &credentialRepo{db: db}
}

// ListSeeds returns every provisioned credential ordered by username
func (r *credentialRepo) ListSeeds(ctx context.Context) ([]models.CredentialSeed, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT username, password_hash, role FROM credentials ORDER BY username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var seeds []models.CredentialSeed
	for rows.Next() {
		var s models.CredentialSeed
		if err := rows.Scan(&s.Username, &s.PasswordHash, &s.Role); err != nil {
			return nil, err
		}
		seeds = append(seeds, s)
	}
	return seeds, rows.Err()
}
