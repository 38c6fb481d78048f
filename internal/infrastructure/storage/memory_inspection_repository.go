package storage

import (
	"context"
	"sync"

	"resello/internal/domain/entity"
	"resello/internal/domain/port"
)

// MemoryInspectionRepository текущие проверки пользователей. История не хранится.
type MemoryInspectionRepository struct {
	mu          sync.RWMutex
	inspections map[int64]*entity.Inspection
}

func NewMemoryInspectionRepository() *MemoryInspectionRepository {
	return &MemoryInspectionRepository{
		inspections: make(map[int64]*entity.Inspection),
	}
}

func (r *MemoryInspectionRepository) Get(_ context.Context, userID int64) (*entity.Inspection, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	insp, ok := r.inspections[userID]
	return insp, ok, nil
}

// Save заменяет предыдущую проверку пользователя.
func (r *MemoryInspectionRepository) Save(_ context.Context, insp *entity.Inspection) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.inspections[insp.UserID] = insp
	return nil
}

func (r *MemoryInspectionRepository) Delete(_ context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.inspections, userID)
	return nil
}

var _ port.InspectionRepository = (*MemoryInspectionRepository)(nil)
