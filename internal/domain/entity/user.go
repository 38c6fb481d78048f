package entity

// UserState состояние пользователя в диалоге
type UserState string

const (
	StateMainMenu            UserState = "main_menu"             // В главном меню
	StateAwaitingProductName UserState = "awaiting_product_name" // Ожидание названия устройства
	StateAwaitingCategory    UserState = "awaiting_category"     // Ожидание категории
	StateAwaitingUsage       UserState = "awaiting_usage"        // Ожидание срока использования
	StateAwaitingPhotos      UserState = "awaiting_photos"       // Ожидание фото ракурсов
	StateProcessing          UserState = "processing"            // Идёт анализ
	StateReport              UserState = "report"                // Отчёт готов
)

// User представляет пользователя бота
type User struct {
	ID     int64     // Telegram User ID
	ChatID int64     // Telegram Chat ID
	State  UserState // Текущее состояние пользователя

	// Черновик проверки, пока заполняются первые шаги мастера
	DraftName     string
	DraftCategory ProductCategory

	// Ракурс, который пользователь переснимает по /retake
	RetakeView string
}

// NewUser создаёт нового пользователя с начальным состоянием
func NewUser(userID, chatID int64) *User {
	return &User{
		ID:     userID,
		ChatID: chatID,
		State:  StateMainMenu,
	}
}

// SetState обновляет состояние пользователя
func (u *User) SetState(state UserState) {
	u.State = state
}

// ResetDraft очищает черновик мастера
func (u *User) ResetDraft() {
	u.DraftName = ""
	u.DraftCategory = ""
	u.RetakeView = ""
}
