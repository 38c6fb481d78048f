package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

// Command команда бота для меню Telegram.
type Command struct {
	Name        string
	Description string
}

var botCommands = []Command{
	{Name: "inspect", Description: "Начать новую проверку"},
	{Name: "status", Description: "Прогресс проверки"},
	{Name: "retake", Description: "Переснять ракурс: /retake <номер>"},
	{Name: "analyze", Description: "Проверить набор фото"},
	{Name: "price", Description: "Расчёт цены: /price [сумма]"},
	{Name: "reset", Description: "Удалить текущую проверку"},
	{Name: "cancel", Description: "Отменить текущий шаг"},
	{Name: "help", Description: "Справка"},
}

// RegisterCommands выставляет меню команд. Вызывается один раз при старте.
func RegisterCommands(api BotAPI) {
	commands := make([]tgbotapi.BotCommand, len(botCommands))
	for i, cmd := range botCommands {
		commands[i] = tgbotapi.BotCommand{Command: cmd.Name, Description: cmd.Description}
	}

	if _, err := api.Request(tgbotapi.NewSetMyCommands(commands...)); err != nil {
		log.Error().Err(err).Msg("failed to set bot commands")
		return
	}
	log.Info().Int("count", len(commands)).Msg("registered bot commands")
}
