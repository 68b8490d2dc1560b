// Package jobs holds the background jobs run by the worker.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukerupert/taxsim/internal/domain"
	"github.com/dukerupert/taxsim/internal/telemetry"
)

// JobTypeReconcileInvoices renders invoices for orders that were persisted
// but whose render failed or timed out during the request.
const JobTypeReconcileInvoices = "invoice:reconcile"

// ReconcileResult holds the outcome of one reconciliation pass.
type ReconcileResult struct {
	Scanned  int `json:"scanned"`
	Rendered int `json:"rendered"`
	Failed   int `json:"failed"`
	Skipped  int `json:"skipped"` // finalized concurrently by another pass
}

// Invalidator drops cached report results.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// ReconcileDeps are the collaborators of a reconciliation pass. Publisher,
// Reports and Metrics may be nil.
type ReconcileDeps struct {
	Orders        domain.OrderRepository
	Renderer      domain.InvoiceRenderer
	Publisher     domain.OrderPublisher
	Reports       Invalidator
	Metrics       *telemetry.BusinessMetrics
	RenderTimeout time.Duration
	Logger        *slog.Logger
}

// ReconcilePendingInvoices renders, stores and publishes up to limit orders
// created at or before olderThan that still have no invoice locator. One
// order failing does not stop the pass; the error return is reserved for a
// failed lookup.
func ReconcilePendingInvoices(ctx context.Context, deps ReconcileDeps, olderThan time.Time, limit int) (*ReconcileResult, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	pending, err := deps.Orders.FindPendingInvoice(ctx, olderThan, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending invoices: %w", err)
	}

	result := &ReconcileResult{Scanned: len(pending)}
	for i := range pending {
		if ctx.Err() != nil {
			break
		}

		order := &pending[i]
		switch err := reconcileOne(ctx, deps, order, logger); {
		case err == nil:
			result.Rendered++
			logger.Info("invoice reconciled", "order_id", order.ID, "locator", order.InvoiceLocator)
		case domain.IsCode(err, domain.ECONFLICT):
			result.Skipped++
			logger.Debug("order already finalized", "order_id", order.ID)
		default:
			result.Failed++
			deps.Metrics.RecordRenderFailure("reconciler")
			telemetry.CaptureRenderFailure(ctx, err, order.ID, "reconciler")
			logger.Warn("invoice reconciliation failed", "order_id", order.ID, "error", err)
		}
	}

	if result.Rendered > 0 && deps.Reports != nil {
		if err := deps.Reports.Invalidate(ctx); err != nil {
			logger.Warn("failed to invalidate report cache", "error", err)
		}
	}

	return result, nil
}

func reconcileOne(ctx context.Context, deps ReconcileDeps, order *domain.Order, logger *slog.Logger) error {
	renderCtx := ctx
	if deps.RenderTimeout > 0 {
		var cancel context.CancelFunc
		renderCtx, cancel = context.WithTimeout(ctx, deps.RenderTimeout)
		defer cancel()
	}

	start := time.Now()
	locator, err := deps.Renderer.Render(renderCtx, order)
	if err == nil {
		err = renderCtx.Err()
	}
	if err != nil {
		return err
	}
	deps.Metrics.RecordRender(time.Since(start).Seconds())

	order.InvoiceLocator = locator
	if err := deps.Orders.Save(ctx, order); err != nil {
		return err
	}

	if deps.Publisher != nil {
		if err := deps.Publisher.PublishOrderFinalized(ctx, order); err != nil {
			deps.Metrics.RecordEvent("order.finalized", err)
			logger.Warn("failed to publish order event", "order_id", order.ID, "error", err)
			return nil
		}
		deps.Metrics.RecordEvent("order.finalized", nil)
	}
	return nil
}
