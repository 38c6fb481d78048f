package telegram

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

const (
	DefaultDownloadTimeout = 30 * time.Second
	// DefaultMaxImageSize предел размера фото (20MB, как у Telegram Bot API)
	DefaultMaxImageSize = 20 * 1024 * 1024
)

// Downloader скачивает файлы с серверов Telegram.
type Downloader struct {
	client  *resty.Client
	maxSize int64
}

func NewDownloader(timeout time.Duration, retryCount int) *Downloader {
	if timeout <= 0 {
		timeout = DefaultDownloadTimeout
	}
	return &Downloader{
		client: resty.New().
			SetTimeout(timeout).
			SetRetryCount(retryCount).
			SetRetryWaitTime(300 * time.Millisecond).
			SetRetryMaxWaitTime(3 * time.Second).
			AddRetryCondition(func(res *resty.Response, err error) bool {
				return err != nil || res.StatusCode() >= 500
			}),
		maxSize: DefaultMaxImageSize,
	}
}

// Download скачивает файл по прямой ссылке.
func (d *Downloader) Download(ctx context.Context, url string) ([]byte, error) {
	res, err := d.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("download failed: status %d", res.StatusCode())
	}

	data := res.Body()
	if int64(len(data)) > d.maxSize {
		return nil, fmt.Errorf("file too large: %d bytes exceeds limit of %d bytes", len(data), d.maxSize)
	}
	return data, nil
}

// DownloadFile разрешает file_id в ссылку и скачивает файл.
func (d *Downloader) DownloadFile(ctx context.Context, getFileDirectURL func(fileID string) (string, error), fileID string) ([]byte, error) {
	log.Debug().Str("file_id", fileID).Msg("downloading telegram file")

	url, err := getFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to get file URL: %w", err)
	}
	return d.Download(ctx, url)
}
