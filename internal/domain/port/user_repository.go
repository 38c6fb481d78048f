package port

import (
	"context"

	"resello/internal/domain/entity"
)

// UserRepository хранит состояние мастера для каждого пользователя Telegram.
type UserRepository interface {
	// Get возвращает пользователя; незнакомый создаётся в главном меню.
	// chatID обновляет чат, в который бот отвечает.
	Get(ctx context.Context, userID, chatID int64) (*entity.User, error)

	// Save записывает состояние и черновик проверки.
	Save(ctx context.Context, user *entity.User) error
}
