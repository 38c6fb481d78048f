// Package gemini адаптеры мультимодальной модели Gemini: детектор повреждений,
// проверка одного устройства и текстовый отчёт.
package gemini

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

const DefaultModel = "gemini-2.5-flash"

// ErrNoAPIKey ключ не задан, сервис недоступен.
var ErrNoAPIKey = errors.New("gemini api key is not configured")

// errEmptyResponse модель ответила без кандидатов.
var errEmptyResponse = errors.New("no response from gemini")

// generator часть genai.Models, которой пользуются адаптеры.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type ClientOpts struct {
	APIKey     string
	Model      string
	Timeout    time.Duration
	RetryCount int
}

// Client общий транспорт для всех адаптеров.
type Client struct {
	models  generator
	model   string
	timeout time.Duration
	retries uint64
	backOff func() backoff.BackOff
}

// NewClient создаёт клиента. Без ключа клиент создаётся, но каждый вызов
// возвращает ErrNoAPIKey, и адаптеры отдают деградированный результат.
func NewClient(ctx context.Context, opts ClientOpts) (*Client, error) {
	if opts.APIKey == "" {
		log.Warn().Msg("GEMINI_API_KEY is empty, damage analysis and reports are disabled")
		return newClient(nil, opts), nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return newClient(client.Models, opts), nil
}

func newClient(models generator, opts ClientOpts) *Client {
	c := &Client{
		models:  models,
		model:   opts.Model,
		timeout: opts.Timeout,
		retries: uint64(max(opts.RetryCount, 0)),
		backOff: newBackOff,
	}
	if c.model == "" {
		c.model = DefaultModel
	}
	if c.timeout <= 0 {
		c.timeout = 60 * time.Second
	}
	return c
}

// generate отправляет один запрос с повторами и экспоненциальной паузой.
// Каждая попытка ограничена своим таймаутом.
func (c *Client) generate(ctx context.Context, op string, parts []*genai.Part, config *genai.GenerateContentConfig) (string, error) {
	if c.models == nil {
		return "", ErrNoAPIKey
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	start := time.Now()
	attempts := 0
	var text string
	var usage *genai.GenerateContentResponseUsageMetadata

	policy := backoff.WithContext(backoff.WithMaxRetries(c.backOff(), c.retries), ctx)
	err := backoff.Retry(func() error {
		attempts++
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		result, err := c.models.GenerateContent(callCtx, c.model, contents, config)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			log.Debug().Err(err).Str("op", op).Int("attempt", attempts).Msg("gemini call failed, retrying")
			return err
		}
		if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
			return backoff.Permanent(errEmptyResponse)
		}
		text = result.Text()
		usage = result.UsageMetadata
		return nil
	}, policy)
	if err != nil {
		return "", fmt.Errorf("gemini %s: %w", op, err)
	}

	event := log.Info().
		Str("model", c.model).
		Str("op", op).
		Int("attempts", attempts).
		Dur("took", time.Since(start))
	if usage != nil {
		event = event.
			Int("inputTokens", int(usage.PromptTokenCount)).
			Int("outputTokens", int(usage.CandidatesTokenCount))
	}
	event.Msg("gemini call")

	return text, nil
}

func newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	return b
}

// imagePart кодирует снимок в JPEG для отправки inline.
func imagePart(img image.Image) (*genai.Part, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return &genai.Part{
		InlineData: &genai.Blob{Data: buf.Bytes(), MIMEType: "image/jpeg"},
	}, nil
}

// extractJSONObject вырезает JSON-объект из ответа, который может быть
// обёрнут в markdown.
func extractJSONObject(text string) (string, error) {
	text = strings.TrimSpace(text)
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end <= start {
		return "", fmt.Errorf("no JSON object found in response: %s", text)
	}
	return text[start : end+1], nil
}
