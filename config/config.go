package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	TelegramToken string

	GeminiAPIKey string
	GeminiModel  string
	SerpAPIKey   string
	ClipURL      string
	ClipModel    string

	// CacheDBPath путь к SQLite; пусто означает кеш в памяти
	CacheDBPath string
	Currency    string

	DuplicateThreshold             int
	CategoryMinMargin              float64
	CategoryMinExpectedVsUnrelated float64
	CategoryMaxUnrelatedProb       float64
	DamageWorkers                  int

	HTTPTimeout time.Duration
	RetryCount  int

	LogLevel string
	LogFile  string
}

func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	p := parser{}
	cfg := &Config{
		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),
		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		GeminiModel:   envString("GEMINI_MODEL", "gemini-2.5-flash"),
		SerpAPIKey:    os.Getenv("SERPAPI_KEY"),
		ClipURL:       envString("CLIP_URL", "http://localhost:8000"),
		ClipModel:     envString("CLIP_MODEL", "openai/clip-vit-large-patch14"),
		CacheDBPath:   os.Getenv("CACHE_DB_PATH"),
		Currency:      envString("CURRENCY", "EGP"),

		DuplicateThreshold:             p.intVar("DUPLICATE_THRESHOLD", 5),
		CategoryMinMargin:              p.floatVar("CATEGORY_MIN_MARGIN", 1.5),
		CategoryMinExpectedVsUnrelated: p.floatVar("CATEGORY_MIN_EXPECTED_VS_UNRELATED", 1.0),
		CategoryMaxUnrelatedProb:       p.floatVar("CATEGORY_MAX_UNRELATED_PROB", 0.45),
		DamageWorkers:                  p.intVar("DAMAGE_WORKERS", 1),

		HTTPTimeout: p.durationVar("HTTP_TIMEOUT", 30*time.Second),
		RetryCount:  p.intVar("RETRY_COUNT", 2),

		LogLevel: envString("LOG_LEVEL", "info"),
		LogFile:  os.Getenv("LOG_FILE"),
	}

	if cfg.TelegramToken == "" {
		p.errs = append(p.errs, errors.New("TELEGRAM_TOKEN is required"))
	}
	if cfg.DuplicateThreshold < 0 || cfg.DuplicateThreshold > 64 {
		p.errs = append(p.errs, fmt.Errorf("DUPLICATE_THRESHOLD must be within [0, 64], got %d", cfg.DuplicateThreshold))
	}
	if cfg.CategoryMaxUnrelatedProb < 0 || cfg.CategoryMaxUnrelatedProb > 1 {
		p.errs = append(p.errs, fmt.Errorf("CATEGORY_MAX_UNRELATED_PROB must be within [0, 1], got %v", cfg.CategoryMaxUnrelatedProb))
	}
	if err := errors.Join(p.errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// parser собирает все ошибки разбора, чтобы показать их разом.
type parser struct {
	errs []error
}

func (p *parser) intVar(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func (p *parser) floatVar(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return f
}

func (p *parser) durationVar(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}
