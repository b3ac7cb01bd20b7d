package repository

import (
	"context"

	"github.com/tally-dashboard/internal/database"
	"github.com/tally-dashboard/internal/models"
)

// ArchiveRepository stores copies of explicit exports
type ArchiveRepository interface {
	Save(ctx context.Context, archive *models.ExportArchive) error
	Recent(ctx context.Context, limit int) ([]*models.ExportArchive, error)
	GetByID(ctx context.Context, id string) (*models.ExportArchive, error)
}

// CredentialRepository reads extra logins provisioned in the database
type CredentialRepository interface {
	ListSeeds(ctx context.Context) ([]models.CredentialSeed, error)
}

// Repositories holds all repository interfaces
type Repositories struct {
	Archive    ArchiveRepository
	Credential CredentialRepository
}

// New creates all repositories with the given database connection
func New(db *database.DB) *Repositories {
	return &Repositories{
		Archive:    NewArchiveRepo(db),
		Credential: NewCredentialRepo(db),
	}
}
