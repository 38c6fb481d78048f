// Package clip клиент HTTP-сервиса zero-shot классификации (CLIP).
package clip

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"resello/internal/domain/port"
)

const DefaultModel = "openai/clip-vit-large-patch14"

// ErrNotReady сервис ответил, но модель не загружена.
var ErrNotReady = errors.New("clip model is not ready")

type ClientOpts struct {
	BaseURL    string
	Model      string
	Timeout    time.Duration
	RetryCount int
}

type loadRequest struct {
	Model string `json:"model"`
}

type loadResponse struct {
	Ready bool   `json:"ready"`
	Model string `json:"model"`
}

type scoreRequest struct {
	Model  string   `json:"model"`
	Image  string   `json:"image"` // PNG в base64
	Labels []string `json:"labels"`
}

type scoreResponse struct {
	Logits []float64 `json:"logits"`
}

// Client скорер поверх HTTP. Модель загружается один раз: явно через Init
// или при первом Score.
type Client struct {
	httpClient *resty.Client
	model      string

	mu    sync.Mutex
	ready bool
}

var _ port.ScorerBackend = (*Client)(nil)

func NewClient(opts ClientOpts) *Client {
	c := &Client{model: opts.Model}
	if c.model == "" {
		c.model = DefaultModel
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	c.httpClient = resty.New().
		SetBaseURL(opts.BaseURL).
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.RetryCount).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(func(res *resty.Response, err error) bool {
			return err != nil || res.StatusCode() >= 500
		}).
		SetHeader("Accept", "application/json")
	return c
}

// Init загружает модель на стороне сервиса. Повторный вызов после успеха ничего не делает.
func (c *Client) Init(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ready {
		return nil
	}

	start := time.Now()
	result := &loadResponse{}
	_, err := handleError(c.httpClient.R().
		SetContext(ctx).
		SetBody(loadRequest{Model: c.model}).
		SetResult(result).
		Post("/v1/load"))
	if err != nil {
		return fmt.Errorf("load clip model: %w", err)
	}
	if !result.Ready {
		return ErrNotReady
	}
	c.ready = true

	log.Info().
		Str("model", c.model).
		Dur("took", time.Since(start)).
		Msg("clip model loaded")
	return nil
}

func (c *Client) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}

// Score возвращает по логиту на метку.
func (c *Client) Score(ctx context.Context, img image.Image, labels []string) ([]float64, error) {
	if err := c.Init(ctx); err != nil {
		return nil, err
	}

	encoded, err := encodeImage(img)
	if err != nil {
		return nil, err
	}

	result := &scoreResponse{}
	_, err = handleError(c.httpClient.R().
		SetContext(ctx).
		SetBody(scoreRequest{Model: c.model, Image: encoded, Labels: labels}).
		SetResult(result).
		Post("/v1/score"))
	if err != nil {
		return nil, fmt.Errorf("clip score: %w", err)
	}
	if len(result.Logits) != len(labels) {
		return nil, fmt.Errorf("clip score: got %d logits for %d labels", len(result.Logits), len(labels))
	}
	return result.Logits, nil
}

func encodeImage(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode image: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// handleError превращает ответ со статусом >399 в ошибку.
func handleError(res *resty.Response, err error) (*resty.Response, error) {
	if err != nil {
		return res, err
	}
	if res.IsError() {
		return res, fmt.Errorf("request failed: %s %s (status: %d)", res.Request.Method, res.Request.URL, res.StatusCode())
	}
	return res, nil
}
