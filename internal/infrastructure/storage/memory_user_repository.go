package storage

import (
	"context"
	"sync"

	"resello/internal/domain/entity"
	"resello/internal/domain/port"
)

// MemoryUserRepository in-memory хранилище пользователей
type MemoryUserRepository struct {
	mu    sync.Mutex
	users map[int64]*entity.User
}

// NewMemoryUserRepository создаёт новое in-memory хранилище
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users: make(map[int64]*entity.User),
	}
}

// Get возвращает пользователя по ID, создаёт нового если не найден.
// Чат обновляется: пользователь мог написать боту из другого чата.
func (r *MemoryUserRepository) Get(_ context.Context, userID, chatID int64) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, exists := r.users[userID]
	if !exists {
		user = entity.NewUser(userID, chatID)
		r.users[userID] = user
	}
	if chatID != 0 {
		user.ChatID = chatID
	}
	return user, nil
}

// Save сохраняет состояние пользователя
func (r *MemoryUserRepository) Save(_ context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.users[user.ID] = user
	return nil
}

var _ port.UserRepository = (*MemoryUserRepository)(nil)
