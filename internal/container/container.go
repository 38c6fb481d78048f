package container

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"resello/config"
	app "resello/internal/application"
	"resello/internal/domain/port"
	"resello/internal/domain/pricing"
	"resello/internal/domain/validation"
	"resello/internal/infrastructure/clip"
	"resello/internal/infrastructure/gemini"
	"resello/internal/infrastructure/serpapi"
	"resello/internal/infrastructure/storage"
	"resello/internal/infrastructure/vision"
)

type Container struct {
	UserService       *app.UserService
	InspectionService *app.InspectionService
	Scorer            port.ScorerBackend

	closers []func() error
}

// Adapters внешние зависимости сервиса проверки. Nil-поля заполняются из конфигурации.
type Adapters struct {
	Scorer    port.ScorerBackend
	Verifier  port.DeviceVerifier
	Damage    port.DamageDetector
	Describer port.ReportDescriber
	Prices    port.PriceLookup
}

// New собирает сервисы приложения по конфигурации.
func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	return NewWithAdapters(ctx, cfg, Adapters{})
}

func NewWithAdapters(ctx context.Context, cfg *config.Config, adapters Adapters) (*Container, error) {
	c := &Container{}

	validationCache, priceCache, err := c.caches(cfg)
	if err != nil {
		return nil, err
	}

	if adapters.Scorer == nil {
		adapters.Scorer = clip.NewClient(clip.ClientOpts{
			BaseURL:    cfg.ClipURL,
			Model:      cfg.ClipModel,
			Timeout:    cfg.HTTPTimeout,
			RetryCount: cfg.RetryCount,
		})
	}
	if adapters.Verifier == nil || adapters.Damage == nil || adapters.Describer == nil {
		client, err := gemini.NewClient(ctx, gemini.ClientOpts{
			APIKey:     cfg.GeminiAPIKey,
			Model:      cfg.GeminiModel,
			Timeout:    cfg.HTTPTimeout,
			RetryCount: cfg.RetryCount,
		})
		if err != nil {
			c.Close()
			return nil, err
		}
		if adapters.Verifier == nil {
			adapters.Verifier = gemini.NewDeviceVerifier(client)
		}
		if adapters.Damage == nil {
			adapters.Damage = gemini.NewDamageDetector(client)
		}
		if adapters.Describer == nil {
			adapters.Describer = gemini.NewReportWriter(client)
		}
	}
	if adapters.Prices == nil {
		adapters.Prices = serpapi.NewClient(serpapi.ClientOpts{
			APIKey:     cfg.SerpAPIKey,
			Currency:   cfg.Currency,
			Timeout:    cfg.HTTPTimeout,
			RetryCount: cfg.RetryCount,
			Cache:      priceCache,
		})
	}

	thresholds := validation.CategoryThresholds{
		MinMargin:              cfg.CategoryMinMargin,
		MinExpectedVsUnrelated: cfg.CategoryMinExpectedVsUnrelated,
		MaxUnrelatedProb:       cfg.CategoryMaxUnrelatedProb,
	}

	c.Scorer = adapters.Scorer
	c.UserService = app.NewUserService(storage.NewMemoryUserRepository())
	c.InspectionService = app.NewInspectionService(app.InspectionDeps{
		Inspections:   storage.NewMemoryInspectionRepository(),
		Cache:         validationCache,
		Quality:       vision.NewQualityGate(),
		Classifier:    validation.NewViewClassifier(adapters.Scorer),
		Checker:       validation.NewConsistencyChecker(adapters.Scorer, adapters.Verifier, thresholds),
		Duplicates:    validation.NewDuplicateDetector(vision.NewPerceptualHasher(), cfg.DuplicateThreshold),
		Damage:        adapters.Damage,
		Prices:        adapters.Prices,
		Calculator:    pricing.NewCalculator(cfg.Currency),
		Describer:     adapters.Describer,
		DamageWorkers: cfg.DamageWorkers,
	})
	return c, nil
}

// caches SQLite при заданном CACHE_DB_PATH, иначе память процесса.
func (c *Container) caches(cfg *config.Config) (port.ValidationCache, port.PriceCache, error) {
	if cfg.CacheDBPath == "" {
		mem := storage.NewMemoryCache(storage.DefaultPriceTTL)
		return mem, mem, nil
	}
	store, err := storage.NewSQLiteStore(cfg.CacheDBPath, storage.DefaultPriceTTL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open cache: %w", err)
	}
	c.closers = append(c.closers, store.Close)
	log.Info().Str("path", cfg.CacheDBPath).Msg("sqlite cache initialized")
	return store, store, nil
}

// Close освобождает ресурсы, открытые при сборке.
func (c *Container) Close() {
	for _, closeFn := range c.closers {
		if err := closeFn(); err != nil {
			log.Warn().Err(err).Msg("failed to close resource")
		}
	}
	c.closers = nil
}
