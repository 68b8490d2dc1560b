package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/dukerupert/taxsim/internal/domain"
	"github.com/dukerupert/taxsim/internal/telemetry"
)

// Report kinds, used for cache keys and metric labels.
const (
	ReportByTaxID        = "by_nit"
	ReportByCreatorRole  = "by_module"
	ReportGeneral        = "general"
	ReportByProvider     = "by_provider"
	ReportByItemCategory = "by_item_category"
)

// ReportService answers the administrator reports. Every report takes an
// optional inclusive date range that must be either absent or complete.
type ReportService interface {
	ByTaxID(ctx context.Context, taxID string, rng domain.DateRange) ([]domain.Order, error)
	ByCreatorRole(ctx context.Context, role string, rng domain.DateRange) ([]domain.Order, error)
	General(ctx context.Context, rng domain.DateRange) ([]domain.Order, error)
	ByProvider(ctx context.Context, providerName string, rng domain.DateRange) ([]domain.Order, error)
	ByItemCategory(ctx context.Context, category string, rng domain.DateRange) ([]domain.Order, error)
}

// ReportCache stores report results. A miss is (nil, false, nil).
type ReportCache interface {
	ReportInvalidator
	Get(ctx context.Context, key string) ([]domain.Order, bool, error)
	Set(ctx context.Context, key string, orders []domain.Order) error
}

type reportService struct {
	repo    domain.OrderRepository
	cache   ReportCache
	metrics *telemetry.BusinessMetrics
	logger  *slog.Logger
}

// NewReportService creates a new ReportService instance. cache and metrics
// are optional.
func NewReportService(repo domain.OrderRepository, cache ReportCache, metrics *telemetry.BusinessMetrics, logger *slog.Logger) ReportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &reportService{
		repo:    repo,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
	}
}

// finder is the pair of store queries behind one report.
type finder struct {
	all    func(ctx context.Context) ([]domain.Order, error)
	ranged func(ctx context.Context, start, end time.Time) ([]domain.Order, error)
}

func (s *reportService) ByTaxID(ctx context.Context, taxID string, rng domain.DateRange) ([]domain.Order, error) {
	taxID = strings.TrimSpace(taxID)
	return s.run(ctx, ReportByTaxID, taxID, rng, finder{
		all: func(ctx context.Context) ([]domain.Order, error) {
			return s.repo.FindByTaxID(ctx, taxID)
		},
		ranged: func(ctx context.Context, start, end time.Time) ([]domain.Order, error) {
			return s.repo.FindByTaxIDAndDateRange(ctx, taxID, start, end)
		},
	})
}

func (s *reportService) ByCreatorRole(ctx context.Context, role string, rng domain.DateRange) ([]domain.Order, error) {
	if strings.TrimSpace(role) == "" {
		return []domain.Order{}, nil
	}
	if err := rng.Validate(); err != nil {
		return nil, err
	}

	r, err := domain.ParseRole(role)
	if err != nil {
		return nil, err
	}

	return s.run(ctx, ReportByCreatorRole, string(r), rng, finder{
		all: func(ctx context.Context) ([]domain.Order, error) {
			return s.repo.FindByCreatorRole(ctx, r)
		},
		ranged: func(ctx context.Context, start, end time.Time) ([]domain.Order, error) {
			return s.repo.FindByCreatorRoleAndDateRange(ctx, r, start, end)
		},
	})
}

func (s *reportService) General(ctx context.Context, rng domain.DateRange) ([]domain.Order, error) {
	return s.run(ctx, ReportGeneral, "*", rng, finder{
		all: s.repo.FindAll,
		ranged: func(ctx context.Context, start, end time.Time) ([]domain.Order, error) {
			return s.repo.FindAllInDateRange(ctx, start, end)
		},
	})
}

func (s *reportService) ByProvider(ctx context.Context, providerName string, rng domain.DateRange) ([]domain.Order, error) {
	providerName = strings.TrimSpace(providerName)
	return s.run(ctx, ReportByProvider, providerName, rng, finder{
		all: func(ctx context.Context) ([]domain.Order, error) {
			return s.repo.FindByProviderName(ctx, providerName)
		},
		ranged: func(ctx context.Context, start, end time.Time) ([]domain.Order, error) {
			return s.repo.FindByProviderNameAndDateRange(ctx, providerName, start, end)
		},
	})
}

func (s *reportService) ByItemCategory(ctx context.Context, category string, rng domain.DateRange) ([]domain.Order, error) {
	category = strings.TrimSpace(category)
	return s.run(ctx, ReportByItemCategory, category, rng, finder{
		all: func(ctx context.Context) ([]domain.Order, error) {
			return s.repo.FindDistinctByItemCategory(ctx, category)
		},
		ranged: func(ctx context.Context, start, end time.Time) ([]domain.Order, error) {
			return s.repo.FindDistinctByItemCategoryAndDateRange(ctx, category, start, end)
		},
	})
}

// run applies the shared report policy: short-circuit a blank key, validate
// the range, consult the cache, then query the store.
func (s *reportService) run(ctx context.Context, report, key string, rng domain.DateRange, f finder) ([]domain.Order, error) {
	if key == "" {
		return []domain.Order{}, nil
	}
	if err := rng.Validate(); err != nil {
		return nil, err
	}

	cacheKey := reportCacheKey(report, key, rng)
	if orders, ok := s.fromCache(ctx, cacheKey); ok {
		s.metrics.RecordReport(report, !rng.Unbounded(), len(orders))
		return orders, nil
	}

	var (
		orders []domain.Order
		err    error
	)
	if rng.Unbounded() {
		orders, err = f.all(ctx)
	} else {
		orders, err = f.ranged(ctx, *rng.Start, *rng.End)
	}
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []domain.Order{}
	}

	s.metrics.RecordReport(report, !rng.Unbounded(), len(orders))
	s.toCache(ctx, cacheKey, orders)

	return orders, nil
}

func (s *reportService) fromCache(ctx context.Context, key string) ([]domain.Order, bool) {
	if s.cache == nil {
		return nil, false
	}
	orders, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.metrics.RecordCache("error")
		s.logger.Warn("report cache read failed", "key", key, "error", err)
		return nil, false
	}
	if !ok {
		s.metrics.RecordCache("miss")
		return nil, false
	}
	s.metrics.RecordCache("hit")
	return orders, true
}

func (s *reportService) toCache(ctx context.Context, key string, orders []domain.Order) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, orders); err != nil {
		s.logger.Warn("report cache write failed", "key", key, "error", err)
	}
}

// reportCacheKey identifies one report invocation. Bounds are rendered in UTC
// with nanosecond precision so distinct ranges never collide.
func reportCacheKey(report, key string, rng domain.DateRange) string {
	var b strings.Builder
	b.WriteString(report)
	b.WriteByte(':')
	b.WriteString(key)
	if !rng.Unbounded() {
		b.WriteByte(':')
		b.WriteString(rng.Start.UTC().Format(time.RFC3339Nano))
		b.WriteByte(':')
		b.WriteString(rng.End.UTC().Format(time.RFC3339Nano))
	}
	return b.String()
}
