package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/dukerupert/taxsim/internal/domain"
	"github.com/dukerupert/taxsim/internal/tax"
	"github.com/dukerupert/taxsim/internal/telemetry"
	"github.com/shopspring/decimal"
)

// DefaultRenderTimeout bounds invoice rendering when no timeout is configured.
const DefaultRenderTimeout = 5 * time.Second

// InvoicingService creates orders and their invoices.
type InvoicingService interface {
	// CreateOrder prices, persists and invoices a new order on behalf of the
	// principal. On success the returned order carries its identity, its
	// totals and the invoice locator.
	CreateOrder(ctx context.Context, params CreateOrderParams, principal domain.Principal) (*domain.Order, error)

	// GetOrder returns a persisted order by identity.
	GetOrder(ctx context.Context, id int64) (*domain.Order, error)
}

// CreateOrderParams is an order as submitted by a module. There are no total
// fields: totals are always derived.
type CreateOrderParams struct {
	ClientName    string
	ClientTaxID   string
	ClientAddress string
	ProviderName  string
	Items         []OrderItemParams
}

// OrderItemParams is one submitted line item.
type OrderItemParams struct {
	Name     string
	UnitCost decimal.Decimal
	Quantity int32
	Module   domain.ModuleCategory
	Category string
}

// ReportInvalidator is notified whenever the set of stored orders changes.
type ReportInvalidator interface {
	Invalidate(ctx context.Context) error
}

type invoicingService struct {
	repo          domain.OrderRepository
	calculator    tax.Calculator
	renderer      domain.InvoiceRenderer
	publisher     domain.OrderPublisher
	reports       ReportInvalidator
	metrics       *telemetry.BusinessMetrics
	renderTimeout time.Duration
	logger        *slog.Logger
}

// NewInvoicingService creates a new InvoicingService instance. publisher,
// reports and metrics are optional.
func NewInvoicingService(
	repo domain.OrderRepository,
	calculator tax.Calculator,
	renderer domain.InvoiceRenderer,
	publisher domain.OrderPublisher,
	reports ReportInvalidator,
	metrics *telemetry.BusinessMetrics,
	renderTimeout time.Duration,
	logger *slog.Logger,
) InvoicingService {
	if renderTimeout <= 0 {
		renderTimeout = DefaultRenderTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &invoicingService{
		repo:          repo,
		calculator:    calculator,
		renderer:      renderer,
		publisher:     publisher,
		reports:       reports,
		metrics:       metrics,
		renderTimeout: renderTimeout,
		logger:        logger,
	}
}

func (s *invoicingService) CreateOrder(ctx context.Context, params CreateOrderParams, principal domain.Principal) (*domain.Order, error) {
	const op = "invoicing.create_order"

	if err := validateClient(params); err != nil {
		s.metrics.RecordRejected("validation")
		return nil, err
	}

	order := params.toOrder(principal)

	priced, err := s.calculator.Price(ctx, order)
	if err != nil {
		s.metrics.RecordRejected("pricing")
		return nil, err
	}

	if err := s.repo.Save(ctx, priced); err != nil {
		return nil, err
	}

	logger := s.logger.With("order_id", priced.ID, "creator", principal.Username)
	s.invalidateReports(ctx, logger)

	locator, err := s.render(ctx, priced)
	if err != nil {
		logger.Error("invoice rendering failed; order left pending for the reconciler",
			"error", err,
			"timed_out", errors.Is(err, context.DeadlineExceeded),
		)
		s.metrics.RecordRenderFailure("request")
		telemetry.CaptureRenderFailure(ctx, err, priced.ID, "request")
		return nil, domain.Internal(err, op, invoiceGenerationMessage)
	}

	priced.InvoiceLocator = locator
	if err := s.repo.Save(ctx, priced); err != nil {
		return nil, err
	}
	// Reports cached while rendering hold the order without its locator.
	s.invalidateReports(ctx, logger)

	s.publish(ctx, priced, logger)
	s.metrics.RecordOrder(primaryModule(priced), len(priced.Items), priced.TotalAmount, priced.TotalTaxes)

	logger.Info("order invoiced",
		"total_amount", priced.TotalAmount.StringFixed(tax.MoneyPlaces),
		"total_taxes", priced.TotalTaxes.StringFixed(tax.MoneyPlaces),
		"items", len(priced.Items),
	)

	return priced, nil
}

// render calls the document port under the configured timeout.
func (s *invoicingService) render(ctx context.Context, order *domain.Order) (string, error) {
	renderCtx, cancel := context.WithTimeout(ctx, s.renderTimeout)
	defer cancel()

	start := time.Now()
	locator, err := s.renderer.Render(renderCtx, order)
	if err == nil && renderCtx.Err() != nil {
		err = renderCtx.Err()
	}
	if err != nil {
		return "", err
	}

	s.metrics.RecordRender(time.Since(start).Seconds())
	return locator, nil
}

func (s *invoicingService) invalidateReports(ctx context.Context, logger *slog.Logger) {
	if s.reports == nil {
		return
	}
	if err := s.reports.Invalidate(ctx); err != nil {
		logger.Warn("failed to invalidate report cache", "error", err)
	}
}

func (s *invoicingService) publish(ctx context.Context, order *domain.Order, logger *slog.Logger) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.PublishOrderFinalized(ctx, order)
	s.metrics.RecordEvent("order.finalized", err)
	if err != nil {
		logger.Warn("failed to publish order event", "error", err)
	}
}

func (s *invoicingService) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	if id <= 0 {
		return nil, ErrOrderNotFound
	}

	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if domain.IsCode(err, domain.ENOTFOUND) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

// validateClient checks the header fields. Item checks belong to the calculator.
func validateClient(p CreateOrderParams) error {
	const op = "invoicing.create_order"

	var err error
	if strings.TrimSpace(p.ClientName) == "" {
		err = domain.AddFieldError(err, "clientName", "is required")
	}
	if strings.TrimSpace(p.ClientTaxID) == "" {
		err = domain.AddFieldError(err, "clientNit", "is required")
	}
	if strings.TrimSpace(p.ClientAddress) == "" {
		err = domain.AddFieldError(err, "clientAddress", "is required")
	}
	if len(p.Items) == 0 {
		err = domain.AddFieldError(err, "items", "must contain at least one item")
	}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		ve.Op = op
		return ve
	}
	return nil
}

func (p CreateOrderParams) toOrder(principal domain.Principal) *domain.Order {
	items := make([]domain.LineItem, len(p.Items))
	for i, it := range p.Items {
		items[i] = domain.LineItem{
			Name:     strings.TrimSpace(it.Name),
			UnitCost: it.UnitCost,
			Quantity: it.Quantity,
			Module:   it.Module,
			Category: strings.TrimSpace(it.Category),
		}
	}

	return &domain.Order{
		ClientName:    strings.TrimSpace(p.ClientName),
		ClientTaxID:   strings.TrimSpace(p.ClientTaxID),
		ClientAddress: strings.TrimSpace(p.ClientAddress),
		ProviderName:  strings.TrimSpace(p.ProviderName),
		Items:         items,
		Creator:       principal.Creator(),
	}
}

// primaryModule labels an order for metrics by its first item's module.
func primaryModule(o *domain.Order) string {
	if len(o.Items) == 0 {
		return "unknown"
	}
	return o.Items[0].Module.String()
}
