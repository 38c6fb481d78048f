package telegram

import (
	"fmt"
	"strings"

	"github.com/lithammer/dedent"
)

// formatMsg убирает общий отступ многострочного шаблона и подставляет аргументы.
func formatMsg(text string, a ...any) string {
	return fmt.Sprintf(strings.TrimSpace(dedent.Dedent(text)), a...)
}

var (
	msgStart = formatMsg(`
		👋 Привет! Я помогу оценить б/у ноутбук или смартфон перед продажей.

		📸 Вы присылаете фото устройства по списку ракурсов, я проверяю снимки,
		ищу повреждения и считаю справедливую цену с учётом возраста и дефектов.

		📋 Команды:
		/inspect — начать новую проверку
		/status — прогресс текущей проверки
		/help — справка
		/cancel — отменить текущий шаг`)

	msgHelp = formatMsg(`
		ℹ️ Как пользоваться ботом:

		1️⃣ /inspect и ответы на три вопроса: название, категория, срок использования
		2️⃣ По одному фото на каждый ракурс в указанном порядке
		3️⃣ /analyze, когда все ракурсы приняты
		4️⃣ Итог: найденные повреждения и расчёт цены

		💡 Рекомендации:
		• Снимайте при хорошем освещении
		• Устройство должно занимать большую часть кадра
		• Фото должно быть чётким, без бликов

		📋 Команды:
		/inspect — начать новую проверку
		/status — какие ракурсы приняты
		/retake <номер> — переснять ракурс
		/analyze — проверить весь набор
		/price [сумма] — пересчитать цену, можно указать цену нового устройства
		/reset — удалить текущую проверку
		/cancel — отменить текущий шаг`)

	msgAskProductName   = "📝 Как называется устройство? Например: Dell XPS 13 или Samsung Galaxy S21."
	msgAskCategory      = "📦 Выберите категорию: Laptop или Mobile."
	msgBadCategory      = "❓ Такой категории нет. Выберите Laptop или Mobile."
	msgAskUsage         = "⏳ Сколько лет устройство было в использовании? Число от 0 до %d, например 1.5."
	msgBadUsage         = "❓ Нужно число от 0 до %d, например 2 или 0.5."
	msgAskView          = "📸 Ракурс %d из %d: %s\nОтправьте фото этого ракурса."
	msgCancelled        = "❌ Операция отменена. Отправьте /inspect для новой проверки."
	msgReset            = "🗑 Проверка удалена. Отправьте /inspect, чтобы начать заново."
	msgUnknownCommand   = "❓ Неизвестная команда. Используйте /help для справки."
	msgUnexpectedText   = "❓ Не понял сообщение. Используйте /help для справки."
	msgNoInspection     = "❓ Нет активной проверки. Отправьте /inspect, чтобы начать."
	msgNotExpecting     = "📋 Сейчас фото не ожидается. Отправьте /inspect или /retake <номер>."
	msgAllAccepted      = "✅ Все ракурсы приняты. Отправьте /analyze для проверки набора."
	msgBadRetake        = "❓ Укажите номер ракурса от 1 до %d, например /retake 2."
	msgNotReady         = "⏳ Не все ракурсы приняты. Список ракурсов: /status."
	msgAnalyzeFirst     = "⏳ Сначала запустите /analyze."
	msgProcessingPhoto  = "⏳ Проверяю фото..."
	msgAnalyzing        = "⏳ Проверяю набор фото и ищу повреждения, это может занять минуту..."
	msgPricing          = "💰 Ищу цену нового устройства..."
	msgDownloadError    = "⚠️ Не удалось скачать фото. Попробуйте отправить его ещё раз."
	msgValidationFailed = "⚠️ Сервис проверки фото недоступен. Отправьте фото ещё раз чуть позже."
	msgProcessingError  = "⚠️ Не удалось выполнить проверку. Попробуйте ещё раз позже."
	msgBadPrice         = "❓ Цена должна быть положительным числом, например /price 25000."
	msgRetakeHint       = "🔁 Исправьте снимки командой /retake <номер> и снова запустите /analyze."

	msgPriceNotFound = formatMsg(`
		🔎 Не удалось найти цену нового устройства в магазинах.
		Укажите её вручную: /price <сумма>, например /price 25000.`)
)
