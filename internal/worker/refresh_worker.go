package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"scadenze/internal/amqp"
	"scadenze/internal/core"
	applog "scadenze/internal/log"
	"scadenze/internal/services"
)

// RefreshWorker re-fetches data sets into the shared cache, on request
// from the broker and on a timer.
type RefreshWorker struct {
	loader   *services.Loader
	datasets []core.DataSetName
	logger   *applog.Logger
}

func NewRefreshWorker(loader *services.Loader, datasets []core.DataSetName, logger *applog.Logger) *RefreshWorker {
	if logger == nil {
		logger = applog.Discard()
	}
	return &RefreshWorker{
		loader:   loader,
		datasets: datasets,
		logger:   logger.WithComponent(applog.ComponentWorker),
	}
}

// HandleRefreshMessage processes a single refresh request from AMQP
func (w *RefreshWorker) HandleRefreshMessage(ctx context.Context, msg *amqp.RefreshMessage) error {
	w.logger.InfoContext(ctx, "Processing refresh request",
		applog.FieldDataSet, msg.Name,
		"requested_at", msg.RequestedAt)

	return w.refresh(ctx, msg.Name)
}

func (w *RefreshWorker) refresh(ctx context.Context, name core.DataSetName) error {
	start := time.Now()
	res, err := w.loader.Load(ctx, name, services.WithForceRefresh())
	if err != nil {
		return fmt.Errorf("refresh %s: %w", name, err)
	}
	if res.State != services.StateFetchSucceeded {
		return fmt.Errorf("refresh %s: source unavailable, cache left as is (%s)", name, res.State)
	}

	w.logger.InfoContext(ctx, "Data set refreshed", applog.NewFields().
		WithDataSet(name.String(), "").
		WithOperation(applog.OpRefresh).
		With(applog.FieldRecords, len(res.Records)).
		With(applog.FieldDuration, time.Since(start).Milliseconds()).
		ToSlice()...)
	return nil
}

// WarmAll refreshes every known data set and returns how many succeeded.
// Failures are collected; one failing data set does not stop the others.
func (w *RefreshWorker) WarmAll(ctx context.Context) (int, error) {
	var errs []error
	ok := 0
	for _, name := range w.datasets {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		if err := w.refresh(ctx, name); err != nil {
			errs = append(errs, err)
			continue
		}
		ok++
	}
	return ok, errors.Join(errs...)
}

// PeriodicWarm runs WarmAll every interval until ctx is done
func (w *RefreshWorker) PeriodicWarm(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			n, err := w.WarmAll(ctx)
			if err != nil {
				w.logger.WarnContext(ctx, "Warm cycle finished with errors",
					"refreshed", n,
					"error", err)
				continue
			}
			w.logger.DebugContext(ctx, "Warm cycle finished", "refreshed", n)
		}
	}
}
