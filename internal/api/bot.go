package telegram

import (
	"context"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	app "resello/internal/application"
	"resello/internal/container"
	"resello/internal/domain/entity"
)

// BotAPI часть tgbotapi.BotAPI, которой пользуется бот.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Bot представляет Telegram-бота
type Bot struct {
	api         BotAPI
	users       *app.UserService
	inspections *app.InspectionService
	downloader  *Downloader

	// сообщения одного пользователя обрабатываются по очереди
	locks sync.Map
}

// NewBot создаёт нового бота
func NewBot(api BotAPI, c *container.Container, downloader *Downloader) *Bot {
	if downloader == nil {
		downloader = NewDownloader(DefaultDownloadTimeout, 2)
	}
	return &Bot{
		api:         api,
		users:       c.UserService,
		inspections: c.InspectionService,
		downloader:  downloader,
	}
}

// Run обрабатывает обновления до отмены контекста или закрытия канала.
// Каждое обновление обрабатывается в своей горутине.
func (b *Bot) Run(ctx context.Context, updates <-chan tgbotapi.Update) error {
	var wg sync.WaitGroup
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("waiting for active handlers to finish")
			wg.Wait()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				log.Warn().Msg("updates channel closed")
				wg.Wait()
				return nil
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				b.HandleUpdate(ctx, update)
			}()
		}
	}
}

// HandleUpdate обрабатывает одно обновление.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}

	unlock := b.lock(msg.From.ID)
	defer unlock()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Int64("user_id", msg.From.ID).Msg("handler panicked")
			b.sendMessage(msg.Chat.ID, msgProcessingError)
		}
	}()

	b.handleMessage(ctx, msg)
}

func (b *Bot) lock(userID int64) func() {
	v, _ := b.locks.LoadOrStore(userID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	user, err := b.users.Get(ctx, msg.From.ID, msg.Chat.ID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", msg.From.ID).Msg("failed to get user")
		return
	}

	// Обработка команд
	if msg.IsCommand() {
		b.handleCommand(ctx, msg, user)
		return
	}

	// Обработка фото: сжатое фото или картинка файлом
	if fileID, ok := imageFileID(msg); ok {
		b.handlePhoto(ctx, msg, user, fileID)
		return
	}

	b.handleText(ctx, msg, user)
}

// imageFileID берёт фото максимального размера или документ-картинку.
func imageFileID(msg *tgbotapi.Message) (string, bool) {
	if len(msg.Photo) > 0 {
		return msg.Photo[len(msg.Photo)-1].FileID, true
	}
	if msg.Document != nil && strings.HasPrefix(msg.Document.MimeType, "image/") {
		return msg.Document.FileID, true
	}
	return "", false
}

// parseNumber разбирает число, допуская запятую как разделитель.
func parseNumber(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	return strconv.ParseFloat(s, 64)
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	b.send(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) send(msg tgbotapi.MessageConfig) {
	if _, err := b.api.Send(msg); err != nil {
		log.Error().Err(err).Int64("chat_id", msg.ChatID).Msg("failed to send message")
	}
}

func categoryKeyboard() tgbotapi.ReplyKeyboardMarkup {
	row := make([]tgbotapi.KeyboardButton, 0, len(entity.Categories))
	for _, c := range entity.Categories {
		row = append(row, tgbotapi.NewKeyboardButton(c.String()))
	}
	kb := tgbotapi.NewOneTimeReplyKeyboard(row)
	kb.ResizeKeyboard = true
	return kb
}
