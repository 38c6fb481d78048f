// Package serpapi поиск рыночной цены нового устройства через SerpAPI
// (Google Shopping и органическая выдача).
package serpapi

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"resello/internal/domain/entity"
	"resello/internal/domain/port"
)

const (
	ApiBaseUrl = "https://serpapi.com"

	// при меньшем числе предложений из Shopping подключается органический поиск
	minShoppingResults = 3
)

type shoppingResult struct {
	Title  string `json:"title"`
	Price  string `json:"price"`
	Link   string `json:"link"`
	Source string `json:"source"`
}

type organicResult struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Link    string `json:"link"`
}

type searchResponse struct {
	ShoppingResults []shoppingResult `json:"shopping_results"`
	OrganicResults  []organicResult  `json:"organic_results"`
	Error           string           `json:"error"`
}

type ClientOpts struct {
	BaseURL    string
	APIKey     string
	Currency   string
	Timeout    time.Duration
	RetryCount int
	Cache      port.PriceCache
}

type Client struct {
	httpClient *resty.Client
	apiKey     string
	currency   string
	cache      port.PriceCache
}

var _ port.PriceLookup = (*Client)(nil)

func NewClient(opts ClientOpts) *Client {
	c := &Client{apiKey: opts.APIKey, currency: opts.Currency, cache: opts.Cache}
	if c.currency == "" {
		c.currency = "EGP"
	}
	baseURL := ApiBaseUrl
	if opts.BaseURL != "" {
		baseURL = opts.BaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	c.httpClient = resty.New().
		SetBaseURL(baseURL).
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.RetryCount).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(res *resty.Response, err error) bool {
			return err != nil || res.StatusCode() == 429 || res.StatusCode() >= 500
		}).
		SetHeader("Accept", "application/json")
	return c
}

// Search ищет цену по "<brand> <model>". Никогда не возвращает ошибку сервиса:
// сбой поиска даёт отчёт без цены с Degraded=true.
func (c *Client) Search(ctx context.Context, brand, model string) (*entity.MarketPrice, error) {
	query := strings.TrimSpace(brand + " " + model)
	if query == "" {
		return nil, fmt.Errorf("empty product name")
	}

	if c.cache != nil {
		cached, err := c.cache.GetPrice(ctx, query)
		if err != nil {
			log.Warn().Err(err).Str("query", query).Msg("price cache read failed")
		} else if cached != nil {
			log.Debug().Str("query", query).Msg("price cache hit")
			return cached, nil
		}
	}

	if c.apiKey == "" {
		log.Warn().Str("query", query).Msg("SERPAPI_KEY is empty, price lookup skipped")
		report := buildReport(query, c.currency, nil)
		report.Degraded = true
		return report, nil
	}

	degraded := false
	shopping, err := c.search(ctx, map[string]string{
		"engine":   "google_shopping",
		"q":        query,
		"location": "Egypt",
		"hl":       "en",
		"gl":       "eg",
	})
	if err != nil {
		log.Warn().Err(err).Str("query", query).Msg("shopping search failed")
		degraded = true
	}
	sources := fromShopping(shopping.ShoppingResults)

	if len(sources) < minShoppingResults {
		organic, err := c.search(ctx, map[string]string{
			"engine":   "google",
			"q":        query + " price Egypt -used -مستعمل",
			"location": "Cairo, Egypt",
			"hl":       "en",
			"num":      "30",
		})
		if err != nil {
			log.Warn().Err(err).Str("query", query).Msg("organic search failed")
			degraded = true
		}
		sources = append(sources, fromOrganic(organic.OrganicResults)...)
	}

	report := buildReport(query, c.currency, sources)
	report.Degraded = degraded && !report.Found()

	log.Info().
		Str("query", query).
		Int("results", len(report.Results)).
		Float64("confidence", report.Confidence).
		Bool("found", report.Found()).
		Msg("price lookup")

	if c.cache != nil && report.Found() {
		if err := c.cache.SetPrice(ctx, query, report); err != nil {
			log.Warn().Err(err).Str("query", query).Msg("price cache write failed")
		}
	}
	return report, nil
}

func (c *Client) search(ctx context.Context, params map[string]string) (searchResponse, error) {
	result := searchResponse{}
	_, err := handleError(c.httpClient.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetQueryParam("api_key", c.apiKey).
		SetResult(&result).
		Get("/search.json"))
	if err != nil {
		// url.Error содержит ссылку вместе с api_key
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = fmt.Errorf("%s serpapi: %w", urlErr.Op, urlErr.Err)
		}
		return searchResponse{}, err
	}
	if result.Error != "" {
		return searchResponse{}, fmt.Errorf("serpapi: %s", result.Error)
	}
	return result, nil
}

// handleError превращает ответ со статусом >399 в ошибку.
func handleError(res *resty.Response, err error) (*resty.Response, error) {
	if err != nil {
		return res, err
	}
	if res.IsError() {
		return res, fmt.Errorf("request failed: %s (status: %d)", res.Request.Method, res.StatusCode())
	}
	return res, nil
}
