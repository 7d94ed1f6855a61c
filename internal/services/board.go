package services

import (
	"context"
	"time"

	"scadenze/internal/cache"
	"scadenze/internal/core"
	applog "scadenze/internal/log"
)

// BoardView is a month view plus how its data was obtained. LoadFailed
// means nothing could be loaded and the view is empty; Stale means the rows
// come from an expired cache entry.
type BoardView struct {
	MonthView
	Locations  []core.Location `json:"locations"`
	State      State           `json:"state"`
	CapturedAt time.Time       `json:"captured_at"`
	LoadFailed bool            `json:"load_failed"`
	Stale      bool            `json:"stale"`
	Notice     string          `json:"notice,omitempty"`
}

// Board serves month views for the configured locations.
type Board struct {
	loader    *Loader
	locations []core.Location
	now       func() time.Time
	logger    *applog.Logger
}

func NewBoard(loader *Loader, locations []core.Location, now func() time.Time, logger *applog.Logger) *Board {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = applog.Discard()
	}
	return &Board{loader: loader, locations: locations, now: now, logger: logger}
}

func (b *Board) Locations() []core.Location {
	return b.locations
}

// Location resolves id; an empty id selects the first location.
func (b *Board) Location(id string) (core.Location, error) {
	if id == "" && len(b.locations) > 0 {
		return b.locations[0], nil
	}
	return core.FindLocation(b.locations, id)
}

// MonthView loads the location's data set and builds the month table.
// The only error is an unknown location; load failures are reported on the view.
func (b *Board) MonthView(ctx context.Context, locationID string, view ViewDate, force bool) (BoardView, error) {
	loc, err := b.Location(locationID)
	if err != nil {
		return BoardView{}, err
	}

	var opts []LoadOption
	if force {
		opts = append(opts, WithForceRefresh())
	}
	res, loadErr := b.loader.Load(ctx, loc.DataSet, opts...)

	now := b.now()
	bv := BoardView{
		MonthView:  BuildMonthView(loc, res.Records, view, now),
		Locations:  b.locations,
		State:      res.State,
		CapturedAt: res.CapturedAt,
		LoadFailed: loadErr != nil,
	}
	switch {
	case loadErr != nil:
		bv.Notice = "Could not load expenses. Please try again later."
	case res.State == StateCacheHitStale || res.State == StateFetchFailedFallback:
		bv.Stale = !res.CapturedAt.IsZero() && now.Sub(res.CapturedAt) > cache.FreshnessWindow
		bv.Notice = "Showing saved data; the latest update could not be fetched."
	}

	b.logger.DebugContext(ctx, "Month view built", applog.NewFields().
		With(applog.FieldLocation, loc.ID).
		WithDataSet(loc.DataSet.String(), "").
		WithOperation(applog.OpRender).
		With(applog.FieldState, string(res.State)).
		With(applog.FieldRecords, len(bv.Rows)).
		ToSlice()...)
	return bv, nil
}

// Refresh forces a load of the location's data set.
func (b *Board) Refresh(ctx context.Context, locationID string) (Result, error) {
	loc, err := b.Location(locationID)
	if err != nil {
		return Result{}, err
	}
	return b.loader.Load(ctx, loc.DataSet, WithForceRefresh())
}
