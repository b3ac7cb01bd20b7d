package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/tally-dashboard/internal/models"
	"github.com/tally-dashboard/internal/repository"
)

// MockArchiveRepository is a mock implementation of ArchiveRepository
type MockArchiveRepository struct {
	mu        sync.Mutex
	Archives  []*models.ExportArchive
	SaveError error
	SaveCalls int
}

var _ repository.ArchiveRepository = (*MockArchiveRepository)(nil)

func NewMockArchiveRepository() *MockArchiveRepository {
	return &MockArchiveRepository{Archives: make([]*models.ExportArchive, 0)}
}

func (m *MockArchiveRepository) Save(ctx context.Context, archive *models.ExportArchive) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveCalls++
	if m.SaveError != nil {
		return m.SaveError
	}
	if archive.ID == "" {
		archive.ID = fmt.Sprintf("archive-%d", len(m.Archives)+1)
	}
	m.Archives = append(m.Archives, archive)
	return nil
}

func (m *MockArchiveRepository) Recent(ctx context.Context, limit int) ([]*models.ExportArchive, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.ExportArchive, len(m.Archives))
	copy(out, m.Archives)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockArchiveRepository) GetByID(ctx context.Context, id string) (*models.ExportArchive, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.Archives {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, nil
}

// MockCredentialRepository is a mock implementation of CredentialRepository
type MockCredentialRepository struct {
	Seeds     []models.CredentialSeed
	ListError error
}

var _ repository.CredentialRepository = (*MockCredentialRepository)(nil)

func NewMockCredentialRepository(seeds ...models.CredentialSeed) *MockCredentialRepository {
	return &MockCredentialRepository{Seeds: seeds}
}

func (m *MockCredentialRepository) ListSeeds(ctx context.Context) ([]models.CredentialSeed, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	return m.Seeds, nil
}
