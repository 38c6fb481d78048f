package port

import (
	"context"

	"resello/internal/domain/entity"
)

// InspectionRepository хранит текущую проверку пользователя.
// Истории нет: у пользователя не больше одной проверки.
type InspectionRepository interface {
	Get(ctx context.Context, userID int64) (*entity.Inspection, bool, error)
	Save(ctx context.Context, inspection *entity.Inspection) error
	Delete(ctx context.Context, userID int64) error
}
