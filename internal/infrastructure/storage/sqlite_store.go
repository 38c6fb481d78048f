package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"resello/internal/domain/entity"
	"resello/internal/domain/port"

	_ "modernc.org/sqlite"
)

// DefaultPriceTTL срок жизни закешированной цены.
const DefaultPriceTTL = 24 * time.Hour

// SQLiteStore кеш проверок ракурсов и найденных цен в SQLite.
// Переживает перезапуск процесса.
type SQLiteStore struct {
	db       *sql.DB
	mu       sync.RWMutex
	priceTTL time.Duration
	now      func() time.Time
}

// NewSQLiteStore открывает (или создаёт) базу по пути dbPath.
// ":memory:" подходит для тестов.
func NewSQLiteStore(dbPath string, priceTTL time.Duration) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// in-memory база живёт в рамках одного соединения
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db, priceTTL: priceTTL, now: time.Now}
	if err := store.init(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) init() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS validation_cache (
		cache_key TEXT PRIMARY KEY,
		result TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	`)
	if err != nil {
		return fmt.Errorf("failed to create validation_cache table: %w", err)
	}

	_, err = s.db.Exec(`
	CREATE TABLE IF NOT EXISTS price_cache (
		query TEXT PRIMARY KEY,
		report TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	`)
	if err != nil {
		return fmt.Errorf("failed to create price_cache table: %w", err)
	}
	return nil
}

// GetValidation возвращает nil, nil если записи нет.
func (s *SQLiteStore) GetValidation(ctx context.Context, key string) (*entity.ViewValidationResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var raw string
	err := s.db.QueryRowContext(ctx,
		"SELECT result FROM validation_cache WHERE cache_key = ?", key,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get validation: %w", err)
	}

	var result entity.ViewValidationResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("failed to decode validation: %w", err)
	}
	return &result, nil
}

func (s *SQLiteStore) SetValidation(ctx context.Context, key string, result entity.ViewValidationResult) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode validation: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO validation_cache (cache_key, result, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET
			result = excluded.result,
			created_at = excluded.created_at
	`, key, string(raw), s.now().Unix())
	if err != nil {
		return fmt.Errorf("failed to set validation: %w", err)
	}
	return nil
}

// GetPrice возвращает nil, nil если записи нет или она старше priceTTL.
func (s *SQLiteStore) GetPrice(ctx context.Context, query string) (*entity.MarketPrice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		raw       string
		createdAt int64
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT report, created_at FROM price_cache WHERE query = ?", query,
	).Scan(&raw, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get price: %w", err)
	}
	if s.priceTTL > 0 && s.now().Sub(time.Unix(createdAt, 0)) > s.priceTTL {
		return nil, nil
	}

	var price entity.MarketPrice
	if err := json.Unmarshal([]byte(raw), &price); err != nil {
		return nil, fmt.Errorf("failed to decode price: %w", err)
	}
	return &price, nil
}

func (s *SQLiteStore) SetPrice(ctx context.Context, query string, price *entity.MarketPrice) error {
	raw, err := json.Marshal(price)
	if err != nil {
		return fmt.Errorf("failed to encode price: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO price_cache (query, report, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(query) DO UPDATE SET
			report = excluded.report,
			created_at = excluded.created_at
	`, query, string(raw), s.now().Unix())
	if err != nil {
		return fmt.Errorf("failed to set price: %w", err)
	}
	return nil
}

// Close закрывает соединение с базой.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var (
	_ port.ValidationCache = (*SQLiteStore)(nil)
	_ port.PriceCache      = (*SQLiteStore)(nil)
)
