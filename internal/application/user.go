package app

import (
	"context"
	"fmt"

	"resello/internal/domain/entity"
	"resello/internal/domain/port"
)

// UserService ведёт пользователя по шагам мастера.
type UserService struct {
	repo port.UserRepository
}

func NewUserService(repo port.UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) Get(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.repo.Get(ctx, userID, chatID)
}

func (s *UserService) SetState(ctx context.Context, userID, chatID int64, state entity.UserState) (*entity.User, error) {
	return s.update(ctx, userID, chatID, func(u *entity.User) error {
		u.SetState(state)
		return nil
	})
}

// BeginInspection начинает мастер заново с названия устройства.
func (s *UserService) BeginInspection(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.update(ctx, userID, chatID, func(u *entity.User) error {
		u.ResetDraft()
		u.SetState(entity.StateAwaitingProductName)
		return nil
	})
}

// SetProductName запоминает название и переходит к выбору категории.
func (s *UserService) SetProductName(ctx context.Context, userID, chatID int64, name string) (*entity.User, error) {
	return s.update(ctx, userID, chatID, func(u *entity.User) error {
		if name == "" {
			return fmt.Errorf("product name is empty")
		}
		u.DraftName = name
		u.SetState(entity.StateAwaitingCategory)
		return nil
	})
}

// SetCategory запоминает категорию и переходит к сроку использования.
func (s *UserService) SetCategory(ctx context.Context, userID, chatID int64, category entity.ProductCategory) (*entity.User, error) {
	return s.update(ctx, userID, chatID, func(u *entity.User) error {
		if !category.Valid() {
			return fmt.Errorf("%w: %q", entity.ErrUnknownCategory, category)
		}
		u.DraftCategory = category
		u.SetState(entity.StateAwaitingUsage)
		return nil
	})
}

func (s *UserService) Cancel(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.update(ctx, userID, chatID, func(u *entity.User) error {
		u.ResetDraft()
		u.SetState(entity.StateMainMenu)
		return nil
	})
}

func (s *UserService) update(ctx context.Context, userID, chatID int64, fn func(*entity.User) error) (*entity.User, error) {
	user, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}
	if err := fn(user); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// SetRetake направляет следующее фото в указанный ракурс.
func (s *UserService) SetRetake(ctx context.Context, userID, chatID int64, view string) (*entity.User, error) {
	return s.update(ctx, userID, chatID, func(u *entity.User) error {
		u.RetakeView = view
		u.SetState(entity.StateAwaitingPhotos)
		return nil
	})
}
