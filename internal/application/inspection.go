package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"resello/internal/domain/entity"
	"resello/internal/domain/port"
	"resello/internal/domain/pricing"
	"resello/internal/domain/validation"
)

// MaxUsageYears верхняя граница срока использования, которую принимает мастер.
const MaxUsageYears = 10

// ReasonUnreadableImage причина отказа для файла, который не удалось декодировать.
const ReasonUnreadableImage = "unsupported or corrupted image"

var (
	ErrNoInspection  = errors.New("no active inspection")
	ErrPriceNotFound = errors.New("market price not found")
	// ErrNotAnalyzed оценка запрошена до анализа повреждений
	ErrNotAnalyzed = fmt.Errorf("%w: damage analysis has not run", entity.ErrInspectionNotReady)
)

// InspectionDeps зависимости сервиса проверки. Cache и Describer необязательны.
type InspectionDeps struct {
	Inspections port.InspectionRepository
	Cache       port.ValidationCache
	Quality     port.QualityGate
	Classifier  *validation.ViewClassifier
	Checker     *validation.ConsistencyChecker
	Duplicates  *validation.DuplicateDetector
	Damage      port.DamageDetector
	Prices      port.PriceLookup
	Calculator  *pricing.Calculator
	Describer   port.ReportDescriber

	// DamageWorkers сколько ракурсов анализируется одновременно.
	// По умолчанию 1: ракурсы идут по очереди.
	DamageWorkers int
}

// InspectionService управляет сессией проверки: загрузка ракурсов, анализ и оценка.
// Операции одного пользователя выполняются последовательно.
type InspectionService struct {
	deps InspectionDeps

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func NewInspectionService(deps InspectionDeps) *InspectionService {
	if deps.DamageWorkers <= 0 {
		deps.DamageWorkers = 1
	}
	if deps.Calculator == nil {
		deps.Calculator = pricing.NewCalculator("")
	}
	return &InspectionService{deps: deps, locks: make(map[int64]*sync.Mutex)}
}

// lock захватывает блокировку пользователя и возвращает функцию освобождения.
func (s *InspectionService) lock(userID int64) func() {
	s.mu.Lock()
	l, ok := s.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[userID] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// ValidationKey ключ кеша проверки: содержимое файла, ракурс и категория.
func ValidationKey(view entity.UploadedView, category entity.ProductCategory) string {
	return fmt.Sprintf("%s|%s|%s", view.ContentHash(), view.Name, category)
}

// Start создаёт новую проверку и заменяет прежнюю, если она была.
func (s *InspectionService) Start(ctx context.Context, userID int64, productName string, category entity.ProductCategory, usageYears float64) (*entity.Inspection, error) {
	if usageYears < 0 || usageYears > MaxUsageYears {
		return nil, fmt.Errorf("%w: usage years must be within [0, %d], got %v", pricing.ErrInvalidInput, MaxUsageYears, usageYears)
	}
	insp, err := entity.NewInspection(userID, productName, category, usageYears)
	if err != nil {
		return nil, err
	}

	defer s.lock(userID)()
	if err := s.deps.Inspections.Save(ctx, insp); err != nil {
		return nil, err
	}
	log.Info().
		Str("inspection", insp.ID).
		Int64("user_id", userID).
		Str("category", category.String()).
		Msg("inspection started")
	return insp, nil
}

// Current возвращает активную проверку пользователя.
func (s *InspectionService) Current(ctx context.Context, userID int64) (*entity.Inspection, error) {
	insp, ok, err := s.deps.Inspections.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoInspection
	}
	return insp, nil
}

// Reset удаляет проверку пользователя.
func (s *InspectionService) Reset(ctx context.Context, userID int64) error {
	defer s.lock(userID)()
	return s.deps.Inspections.Delete(ctx, userID)
}

// AcceptView сохраняет фото ракурса и проверяет его: разрешение, резкость,
// затем соответствие ракурсу. Первая проваленная стадия завершает проверку.
// Ошибка возвращается только при сбое скорера или хранилища; фото при этом
// остаётся загруженным без результата.
func (s *InspectionService) AcceptView(ctx context.Context, userID int64, view entity.UploadedView) (entity.ViewValidationResult, error) {
	defer s.lock(userID)()

	insp, err := s.Current(ctx, userID)
	if err != nil {
		return entity.ViewValidationResult{}, err
	}
	if err := insp.SetView(view); err != nil {
		return entity.ViewValidationResult{}, err
	}

	result, verr := s.validateView(ctx, insp.Category, view)
	if verr == nil {
		if err := insp.SetResult(result); err != nil {
			return entity.ViewValidationResult{}, err
		}
	}
	if err := s.deps.Inspections.Save(ctx, insp); err != nil {
		return entity.ViewValidationResult{}, err
	}
	if verr != nil {
		return entity.ViewValidationResult{}, verr
	}

	log.Info().
		Str("inspection", insp.ID).
		Str("view", view.Name).
		Bool("passed", result.Passed).
		Strs("reasons", result.Reasons).
		Msg("view validated")
	return result, nil
}

func (s *InspectionService) validateView(ctx context.Context, category entity.ProductCategory, view entity.UploadedView) (entity.ViewValidationResult, error) {
	key := ValidationKey(view, category)
	if s.deps.Cache != nil {
		cached, err := s.deps.Cache.GetValidation(ctx, key)
		if err != nil {
			log.Warn().Err(err).Str("view", view.Name).Msg("validation cache read failed")
		} else if cached != nil {
			log.Debug().Str("view", view.Name).Msg("validation cache hit")
			return *cached, nil
		}
	}

	result, err := s.runValidation(ctx, category, view)
	if err != nil {
		return entity.ViewValidationResult{}, err
	}

	if s.deps.Cache != nil {
		if err := s.deps.Cache.SetValidation(ctx, key, result); err != nil {
			log.Warn().Err(err).Str("view", view.Name).Msg("validation cache write failed")
		}
	}
	return result, nil
}

func (s *InspectionService) runValidation(ctx context.Context, category entity.ProductCategory, view entity.UploadedView) (entity.ViewValidationResult, error) {
	img, err := view.Decode()
	if err != nil {
		log.Debug().Err(err).Str("view", view.Name).Msg("image decode failed")
		return entity.FailedView(view.Name, nil, ReasonUnreadableImage), nil
	}

	quality := s.deps.Quality.Check(img, category)
	if !quality.OK() {
		result := entity.FailedView(view.Name, nil, quality.Reasons...)
		result.Warnings = quality.Warnings
		return result, nil
	}

	result, err := s.deps.Classifier.ClassifyView(ctx, img, view.Name, category)
	if err != nil {
		return entity.ViewValidationResult{}, err
	}
	if len(quality.Warnings) > 0 {
		result.Warnings = append(append([]string{}, quality.Warnings...), result.Warnings...)
	}
	return result, nil
}

// Analysis итог проверки всего набора снимков.
type Analysis struct {
	Passed        bool
	Reasons       []string // почему набор не принят
	Warnings      []string
	Duplicates    []validation.DuplicatePair
	Category      *validation.CategoryDecision
	Device        *entity.DeviceVerdict
	Findings      []entity.DamageFinding
	Condition     int
	DegradedViews []string // ракурсы, для которых детектор повреждений недоступен
}

// Analyze проверяет набор целиком: дубликаты, категорию, одно ли это устройство,
// затем ищет повреждения на каждом ракурсе. Первая проваленная проверка
// завершает анализ.
func (s *InspectionService) Analyze(ctx context.Context, userID int64) (*Analysis, error) {
	defer s.lock(userID)()

	insp, err := s.Current(ctx, userID)
	if err != nil {
		return nil, err
	}
	if next, missing := insp.NextMissingView(); missing {
		return nil, fmt.Errorf("%w: view %q is missing or failed", entity.ErrInspectionNotReady, next)
	}

	uploads := insp.Views()
	views := make([]validation.NamedImage, 0, len(uploads))
	for _, v := range uploads {
		img, err := v.Decode()
		if err != nil {
			return nil, err
		}
		views = append(views, validation.NamedImage{Name: v.Name, Image: img})
	}

	out := &Analysis{}
	logger := log.With().Str("inspection", insp.ID).Logger()

	out.Duplicates, err = s.deps.Duplicates.FindDuplicates(views)
	if err != nil {
		return nil, err
	}
	if len(out.Duplicates) > 0 {
		for _, p := range out.Duplicates {
			out.Reasons = append(out.Reasons, fmt.Sprintf("duplicate images: %q and %q", p.New, p.Previous))
		}
		logger.Info().Int("pairs", len(out.Duplicates)).Msg("duplicate views found")
		return out, nil
	}

	decision, err := s.deps.Checker.CheckCategory(ctx, views, insp.Category)
	if err != nil {
		return nil, err
	}
	out.Category = &decision
	if !decision.IsValid {
		out.Reasons = append(out.Reasons, decision.Reason)
		logger.Info().Str("predicted", decision.Predicted).Str("reason", decision.Reason).Msg("category check failed")
		return out, nil
	}

	verdict, err := s.deps.Checker.CheckSameDevice(ctx, views, insp.Category)
	if err != nil {
		return nil, err
	}
	out.Device = &verdict
	switch {
	case verdict.Degraded:
		out.Warnings = append(out.Warnings, "same-device check unavailable, photos were not cross-checked")
	case !verdict.SameDevice:
		out.Reasons = append(out.Reasons, fmt.Sprintf("photos show different devices: %s", verdict.Reason))
		logger.Info().Str("confidence", string(verdict.Confidence)).Msg("same-device check failed")
		return out, nil
	}

	reports, err := s.analyzeDamage(ctx, views, insp.Category)
	if err != nil {
		return nil, err
	}
	for i, v := range views {
		if err := insp.SetFindings(v.Name, reports[i]); err != nil {
			return nil, err
		}
		if reports[i].Degraded {
			out.DegradedViews = append(out.DegradedViews, v.Name)
		}
	}
	if err := s.deps.Inspections.Save(ctx, insp); err != nil {
		return nil, err
	}

	out.Passed = true
	out.Findings = insp.AllFindings()
	out.Condition = insp.ConditionScore()
	logger.Info().
		Int("findings", len(out.Findings)).
		Int("condition", out.Condition).
		Int("degraded_views", len(out.DegradedViews)).
		Msg("inspection analyzed")
	return out, nil
}

// analyzeDamage вызывает детектор по каждому ракурсу. Порядок результатов
// совпадает с порядком views.
func (s *InspectionService) analyzeDamage(ctx context.Context, views []validation.NamedImage, category entity.ProductCategory) ([]entity.DamageReport, error) {
	reports := make([]entity.DamageReport, len(views))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.deps.DamageWorkers)
	for i, v := range views {
		g.Go(func() error {
			report, err := s.deps.Damage.Analyze(gctx, v.Image, v.Name, category)
			if err != nil {
				return fmt.Errorf("analyze damage of %q: %w", v.Name, err)
			}
			reports[i] = report
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

// Quote итоговая оценка устройства.
type Quote struct {
	Market *entity.MarketPrice // nil, если базовая цена введена вручную
	Result *pricing.Result
	Report *entity.AiReport
}

// Quote ищет рыночную цену нового устройства и считает остаточную стоимость.
// ErrPriceNotFound означает, что цену нужно ввести вручную.
func (s *InspectionService) Quote(ctx context.Context, userID int64) (*Quote, error) {
	defer s.lock(userID)()

	insp, err := s.analyzed(ctx, userID)
	if err != nil {
		return nil, err
	}

	brand, model := insp.BrandModel()
	market, err := s.deps.Prices.Search(ctx, brand, model)
	if err != nil {
		return nil, err
	}
	if !market.Found() {
		return &Quote{Market: market}, ErrPriceNotFound
	}
	return s.quote(ctx, insp, market, *market.Price)
}

// QuoteWithBase считает стоимость от базовой цены, введённой пользователем.
func (s *InspectionService) QuoteWithBase(ctx context.Context, userID int64, basePrice float64) (*Quote, error) {
	defer s.lock(userID)()

	insp, err := s.analyzed(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.quote(ctx, insp, nil, basePrice)
}

func (s *InspectionService) analyzed(ctx context.Context, userID int64) (*entity.Inspection, error) {
	insp, err := s.Current(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !insp.Analyzed() {
		return nil, ErrNotAnalyzed
	}
	return insp, nil
}

func (s *InspectionService) quote(ctx context.Context, insp *entity.Inspection, market *entity.MarketPrice, base float64) (*Quote, error) {
	result, err := s.deps.Calculator.Calculate(base, insp.UsageYears, insp.AllFindings())
	if err != nil {
		return nil, err
	}

	q := &Quote{Market: market, Result: result, Report: &entity.AiReport{Degraded: true}}
	if s.deps.Describer != nil {
		report, err := s.deps.Describer.Describe(ctx, insp, result)
		if err != nil {
			log.Warn().Err(err).Str("inspection", insp.ID).Msg("report writer failed")
		} else if report != nil {
			q.Report = report
		}
	}

	log.Info().
		Str("inspection", insp.ID).
		Float64("base_price", result.BasePrice).
		Float64("final_price", result.FinalPrice).
		Float64("total_rate", result.TotalRate).
		Bool("manual_base", market == nil).
		Msg("price calculated")
	return q, nil
}

// ViewStatus состояние одного ракурса в плане съёмки.
type ViewStatus struct {
	Name     string
	Uploaded bool
	Result   *entity.ViewValidationResult
}

// Progress сводка по проверке для команды /status.
type Progress struct {
	Inspection *entity.Inspection
	Views      []ViewStatus
	Next       string // следующий ракурс для съёмки; пусто, если все приняты
	Analyzed   bool
}

func (s *InspectionService) Status(ctx context.Context, userID int64) (*Progress, error) {
	defer s.lock(userID)()

	insp, err := s.Current(ctx, userID)
	if err != nil {
		return nil, err
	}

	uploaded := make(map[string]bool)
	for _, v := range insp.Views() {
		uploaded[v.Name] = true
	}

	p := &Progress{Inspection: insp, Analyzed: insp.Analyzed()}
	for _, name := range insp.Category.Views() {
		st := ViewStatus{Name: name, Uploaded: uploaded[name]}
		if r, ok := insp.Result(name); ok {
			st.Result = &r
		}
		p.Views = append(p.Views, st)
	}
	p.Next, _ = insp.NextMissingView()
	return p, nil
}
