package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	app "resello/internal/application"
	"resello/internal/domain/entity"
	"resello/internal/domain/pricing"
)

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, user *entity.User) {
	chatID := msg.Chat.ID
	switch msg.Command() {
	case "start":
		b.cancel(ctx, user.ID, chatID)
		b.sendMessage(chatID, msgStart)

	case "help":
		b.sendMessage(chatID, msgHelp)

	case "inspect":
		if _, err := b.users.BeginInspection(ctx, user.ID, chatID); err != nil {
			b.fail(chatID, err, "failed to begin inspection")
			return
		}
		b.sendMessage(chatID, msgAskProductName)

	case "status":
		b.handleStatus(ctx, chatID, user)

	case "retake":
		b.handleRetake(ctx, chatID, user, msg.CommandArguments())

	case "analyze":
		b.handleAnalyze(ctx, chatID, user)

	case "price":
		b.handlePrice(ctx, chatID, user, msg.CommandArguments())

	case "reset":
		if err := b.inspections.Reset(ctx, user.ID); err != nil {
			b.fail(chatID, err, "failed to reset inspection")
			return
		}
		b.cancel(ctx, user.ID, chatID)
		b.sendMessage(chatID, msgReset)

	case "cancel":
		b.cancel(ctx, user.ID, chatID)
		reply := tgbotapi.NewMessage(chatID, msgCancelled)
		reply.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
		b.send(reply)

	default:
		b.sendMessage(chatID, msgUnknownCommand)
	}
}

// handleText ведёт шаги мастера до загрузки фото.
func (b *Bot) handleText(ctx context.Context, msg *tgbotapi.Message, user *entity.User) {
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)

	switch user.State {
	case entity.StateAwaitingProductName:
		if text == "" {
			b.sendMessage(chatID, msgAskProductName)
			return
		}
		if _, err := b.users.SetProductName(ctx, user.ID, chatID, text); err != nil {
			b.fail(chatID, err, "failed to set product name")
			return
		}
		reply := tgbotapi.NewMessage(chatID, msgAskCategory)
		reply.ReplyMarkup = categoryKeyboard()
		b.send(reply)

	case entity.StateAwaitingCategory:
		category, err := entity.ParseCategory(text)
		if err != nil {
			reply := tgbotapi.NewMessage(chatID, msgBadCategory)
			reply.ReplyMarkup = categoryKeyboard()
			b.send(reply)
			return
		}
		if _, err := b.users.SetCategory(ctx, user.ID, chatID, category); err != nil {
			b.fail(chatID, err, "failed to set category")
			return
		}
		reply := tgbotapi.NewMessage(chatID, fmt.Sprintf(msgAskUsage, app.MaxUsageYears))
		reply.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
		b.send(reply)

	case entity.StateAwaitingUsage:
		years, err := parseNumber(text)
		if err != nil || years < 0 || years > app.MaxUsageYears {
			b.sendMessage(chatID, fmt.Sprintf(msgBadUsage, app.MaxUsageYears))
			return
		}
		insp, err := b.inspections.Start(ctx, user.ID, user.DraftName, user.DraftCategory, years)
		if err != nil {
			b.fail(chatID, err, "failed to start inspection")
			return
		}
		if _, err := b.users.SetState(ctx, user.ID, chatID, entity.StateAwaitingPhotos); err != nil {
			b.fail(chatID, err, "failed to update state")
			return
		}
		next, _ := insp.NextMissingView()
		b.sendMessage(chatID, formatViewPrompt(insp.Category, next))

	case entity.StateAwaitingPhotos:
		b.promptNext(ctx, chatID, user.ID)

	default:
		b.sendMessage(chatID, msgUnexpectedText)
	}
}

// handlePhoto принимает фото очередного ракурса или ракурса из /retake.
func (b *Bot) handlePhoto(ctx context.Context, msg *tgbotapi.Message, user *entity.User, fileID string) {
	chatID := msg.Chat.ID
	if user.State != entity.StateAwaitingPhotos {
		b.sendMessage(chatID, msgNotExpecting)
		return
	}

	insp, err := b.inspections.Current(ctx, user.ID)
	if err != nil {
		b.inspectionError(chatID, err)
		return
	}
	target := user.RetakeView
	if target == "" {
		next, missing := insp.NextMissingView()
		if !missing {
			b.sendMessage(chatID, msgAllAccepted)
			return
		}
		target = next
	}

	b.sendMessage(chatID, msgProcessingPhoto)
	data, err := b.downloader.DownloadFile(ctx, b.api.GetFileDirectURL, fileID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", user.ID).Msg("failed to download photo")
		b.sendMessage(chatID, msgDownloadError)
		return
	}

	result, err := b.inspections.AcceptView(ctx, user.ID, entity.UploadedView{Name: target, Data: data})
	switch {
	case errors.Is(err, entity.ErrUnknownView):
		log.Error().Err(err).Str("view", target).Msg("view outside inspection plan")
		b.sendMessage(chatID, msgProcessingError)
		return
	case err != nil:
		log.Error().Err(err).Str("view", target).Msg("view validation failed")
		b.sendMessage(chatID, msgValidationFailed)
		return
	}

	if user.RetakeView != "" && result.Passed {
		if _, err := b.users.SetRetake(ctx, user.ID, chatID, ""); err != nil {
			log.Error().Err(err).Msg("failed to clear retake view")
		}
	}
	b.sendMessage(chatID, formatViewResult(result))
	if result.Passed {
		b.promptNext(ctx, chatID, user.ID)
	}
}

// promptNext просит следующий ракурс или предлагает запустить анализ.
func (b *Bot) promptNext(ctx context.Context, chatID, userID int64) {
	insp, err := b.inspections.Current(ctx, userID)
	if err != nil {
		b.inspectionError(chatID, err)
		return
	}
	next, missing := insp.NextMissingView()
	if !missing {
		b.sendMessage(chatID, msgAllAccepted)
		return
	}
	b.sendMessage(chatID, formatViewPrompt(insp.Category, next))
}

func (b *Bot) handleStatus(ctx context.Context, chatID int64, user *entity.User) {
	progress, err := b.inspections.Status(ctx, user.ID)
	if err != nil {
		b.inspectionError(chatID, err)
		return
	}
	b.sendMessage(chatID, formatProgress(progress))
}

func (b *Bot) handleRetake(ctx context.Context, chatID int64, user *entity.User, args string) {
	insp, err := b.inspections.Current(ctx, user.ID)
	if err != nil {
		b.inspectionError(chatID, err)
		return
	}
	views := insp.Category.Views()
	n, err := strconv.Atoi(strings.TrimSpace(args))
	if err != nil || n < 1 || n > len(views) {
		b.sendMessage(chatID, fmt.Sprintf(msgBadRetake, len(views)))
		return
	}
	if _, err := b.users.SetRetake(ctx, user.ID, chatID, views[n-1]); err != nil {
		b.fail(chatID, err, "failed to set retake view")
		return
	}
	b.sendMessage(chatID, formatViewPrompt(insp.Category, views[n-1]))
}

func (b *Bot) handleAnalyze(ctx context.Context, chatID int64, user *entity.User) {
	b.setState(ctx, user.ID, chatID, entity.StateProcessing)
	b.sendMessage(chatID, msgAnalyzing)

	analysis, err := b.inspections.Analyze(ctx, user.ID)
	if err != nil {
		state := entity.StateAwaitingPhotos
		if errors.Is(err, app.ErrNoInspection) {
			state = entity.StateMainMenu
		}
		b.setState(ctx, user.ID, chatID, state)
		b.inspectionError(chatID, err)
		return
	}

	b.sendMessage(chatID, formatAnalysis(analysis))
	if !analysis.Passed {
		b.setState(ctx, user.ID, chatID, entity.StateAwaitingPhotos)
		b.sendMessage(chatID, msgRetakeHint)
		return
	}
	b.sendQuote(ctx, chatID, user, nil)
}

func (b *Bot) handlePrice(ctx context.Context, chatID int64, user *entity.User, args string) {
	args = strings.TrimSpace(args)
	if args == "" {
		b.sendQuote(ctx, chatID, user, nil)
		return
	}
	base, err := parseNumber(args)
	if err != nil || base <= 0 {
		b.sendMessage(chatID, msgBadPrice)
		return
	}
	b.sendQuote(ctx, chatID, user, &base)
}

// sendQuote считает цену по найденной или введённой вручную базовой цене.
func (b *Bot) sendQuote(ctx context.Context, chatID int64, user *entity.User, base *float64) {
	var (
		quote *app.Quote
		err   error
	)
	if base != nil {
		quote, err = b.inspections.QuoteWithBase(ctx, user.ID, *base)
	} else {
		b.sendMessage(chatID, msgPricing)
		quote, err = b.inspections.Quote(ctx, user.ID)
	}

	switch {
	case errors.Is(err, app.ErrPriceNotFound):
		b.setState(ctx, user.ID, chatID, entity.StateReport)
		b.sendMessage(chatID, msgPriceNotFound)
		return
	case errors.Is(err, pricing.ErrInvalidInput):
		b.sendMessage(chatID, msgBadPrice)
		return
	case err != nil:
		b.inspectionError(chatID, err)
		return
	}

	b.setState(ctx, user.ID, chatID, entity.StateReport)
	b.sendMessage(chatID, formatQuote(quote))
}

// inspectionError переводит ошибки сервиса проверки в сообщения пользователю.
func (b *Bot) inspectionError(chatID int64, err error) {
	switch {
	case errors.Is(err, app.ErrNoInspection):
		b.sendMessage(chatID, msgNoInspection)
	case errors.Is(err, app.ErrNotAnalyzed):
		b.sendMessage(chatID, msgAnalyzeFirst)
	case errors.Is(err, entity.ErrInspectionNotReady):
		b.sendMessage(chatID, msgNotReady)
	default:
		b.fail(chatID, err, "inspection step failed")
	}
}

// setState и cancel не прерывают ответ пользователю: сбой хранилища только логируется.
func (b *Bot) setState(ctx context.Context, userID, chatID int64, state entity.UserState) {
	if _, err := b.users.SetState(ctx, userID, chatID, state); err != nil {
		log.Error().Err(err).Int64("user_id", userID).Str("state", string(state)).Msg("failed to update user state")
	}
}

func (b *Bot) cancel(ctx context.Context, userID, chatID int64) {
	if _, err := b.users.Cancel(ctx, userID, chatID); err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("failed to reset user state")
	}
}

func (b *Bot) fail(chatID int64, err error, what string) {
	log.Error().Err(err).Int64("chat_id", chatID).Msg(what)
	b.sendMessage(chatID, msgProcessingError)
}
