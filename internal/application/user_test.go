package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"resello/internal/domain/entity"
	"resello/internal/infrastructure/storage"
)

func TestUserService_WizardSteps(t *testing.T) {
	svc := NewUserService(storage.NewMemoryUserRepository())
	ctx := context.Background()

	user, err := svc.BeginInspection(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateAwaitingProductName, user.State)

	user, err = svc.SetProductName(ctx, 1, 10, "Dell XPS 13")
	require.NoError(t, err)
	require.Equal(t, entity.StateAwaitingCategory, user.State)
	require.Equal(t, "Dell XPS 13", user.DraftName)

	user, err = svc.SetCategory(ctx, 1, 10, entity.CategoryLaptop)
	require.NoError(t, err)
	require.Equal(t, entity.StateAwaitingUsage, user.State)

	user, err = svc.Cancel(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateMainMenu, user.State)
	require.Empty(t, user.DraftName)
}

func TestUserService_RejectsBadInput(t *testing.T) {
	svc := NewUserService(storage.NewMemoryUserRepository())
	ctx := context.Background()

	_, err := svc.SetProductName(ctx, 1, 10, "")
	require.Error(t, err)

	_, err = svc.SetCategory(ctx, 1, 10, entity.ProductCategory("Tablet"))
	require.ErrorIs(t, err, entity.ErrUnknownCategory)

	user, err := svc.Get(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateMainMenu, user.State)
}

func TestUserService_SetState(t *testing.T) {
	svc := NewUserService(storage.NewMemoryUserRepository())

	user, err := svc.SetState(context.Background(), 2, 20, entity.StateAwaitingPhotos)
	require.NoError(t, err)
	require.Equal(t, entity.StateAwaitingPhotos, user.State)
}
