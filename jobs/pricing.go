// Package jobs runs the periodic background work: the daily cyclist price
// update and the scheduler that triggers it.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/brunomigmarques/CiclismoPortugal-sub006/db"
	"github.com/brunomigmarques/CiclismoPortugal-sub006/fantasy"
	"github.com/brunomigmarques/CiclismoPortugal-sub006/models"
)

const (
	// PriceLockKey names the price update so at most one run executes.
	PriceLockKey = "jobs:price-update"
	priceLockTTL = 30 * time.Minute
	dateLayout   = "2006-01-02"
)

// ErrAlreadyRunning is returned when another price update holds the lock.
var ErrAlreadyRunning = errors.New("price update already running")

// PriceStore is the persistence the price update needs.
type PriceStore interface {
	AllCyclists(ctx context.Context) ([]models.Cyclist, error)
	Ownership(ctx context.Context) (map[int64]int, int, error)
	PreviousOwnership(ctx context.Context, before string) (map[int64]float64, error)
	PricedOn(ctx context.Context, date string) (map[int64]bool, error)
	UpcomingRaces(ctx context.Context, today string, within int) (map[int64]db.UpcomingRace, error)
	ConcludedRaces(ctx context.Context, today string) (map[int64]bool, error)
	SavePrice(ctx context.Context, u db.PriceUpdate) error
}

// Locker guards a named unit of work.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// PriceReport summarises one price update run.
type PriceReport struct {
	Date      string        `json:"date"`
	Cyclists  int           `json:"cyclists"`
	Updated   int           `json:"updated"`
	Risen     int           `json:"risen"`
	Fallen    int           `json:"fallen"`
	Boosted   int           `json:"boosted"`
	Reset     int           `json:"reset"`
	Skipped   int           `json:"skipped"`
	Failed    int           `json:"failed"`
	TotalTeam int           `json:"totalTeams"`
	Took      time.Duration `json:"took"`
}

// PriceUpdater recalculates every cyclist's price once a day.
type PriceUpdater struct {
	store PriceStore
	lock  Locker
	log   *zap.Logger
	now   func() time.Time
}

// NewPriceUpdater wires the job. A nil lock falls back to an in-process one.
func NewPriceUpdater(store PriceStore, lock Locker, log *zap.Logger) *PriceUpdater {
	if lock == nil {
		lock = NewLocalLocker()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &PriceUpdater{store: store, lock: lock, log: log, now: time.Now}
}

// Run performs one update. Cyclists are processed sequentially; a failure on
// one is logged and the run carries on. Cyclists already priced today are
// skipped, so running twice on the same date moves no price twice.
func (p *PriceUpdater) Run(ctx context.Context) (PriceReport, error) {
	ok, err := p.lock.Acquire(ctx, PriceLockKey, priceLockTTL)
	if err != nil {
		return PriceReport{}, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return PriceReport{}, ErrAlreadyRunning
	}
	defer func() {
		if err := p.lock.Release(context.WithoutCancel(ctx), PriceLockKey); err != nil {
			p.log.Warn("release price lock", zap.Error(err))
		}
	}()

	start := p.now()
	today := start.Format(dateLayout)
	report := PriceReport{Date: today}

	cyclists, err := p.store.AllCyclists(ctx)
	if err != nil {
		return report, err
	}
	owners, totalTeams, err := p.store.Ownership(ctx)
	if err != nil {
		return report, err
	}
	previous, err := p.store.PreviousOwnership(ctx, today)
	if err != nil {
		return report, err
	}
	done, err := p.store.PricedOn(ctx, today)
	if err != nil {
		return report, err
	}
	upcoming, err := p.store.UpcomingRaces(ctx, today, fantasy.BoostDays)
	if err != nil {
		return report, err
	}
	concluded, err := p.store.ConcludedRaces(ctx, today)
	if err != nil {
		return report, err
	}

	report.Cyclists = len(cyclists)
	report.TotalTeam = totalTeams

	for i := range cyclists {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		c := &cyclists[i]
		if done[c.ID] {
			report.Skipped++
			continue
		}

		in, currentPct := priceInput(c, owners[c.ID], totalTeams, previous, upcoming, concluded)
		out := fantasy.CalculateFinalPrice(in)

		update := db.PriceUpdate{
			CyclistID:   c.ID,
			Price:       out.Price,
			Popularity:  currentPct,
			BoostActive: out.BoostActive,
			BoostRaceID: out.BoostRaceID,
			Demand: models.CyclistDemand{
				Date:           today,
				OwnershipCount: owners[c.ID],
				TotalTeams:     totalTeams,
				OwnershipPct:   currentPct,
				Price:          out.Price,
			},
		}
		if err := p.store.SavePrice(ctx, update); err != nil {
			report.Failed++
			p.log.Error("price update failed", zap.Int64("cyclist_id", c.ID), zap.Error(err))
			continue
		}

		report.Updated++
		switch {
		case out.Price > c.Price:
			report.Risen++
		case out.Price < c.Price:
			report.Fallen++
		}
		if out.Boost > 0 {
			report.Boosted++
		}
		if out.BoostReset {
			report.Reset++
		}
		p.log.Debug("price updated",
			zap.Int64("cyclist_id", c.ID),
			zap.Float64("from", c.Price),
			zap.Float64("to", out.Price),
			zap.Float64("demand", out.Demand),
			zap.Float64("boost", out.Boost),
		)
	}

	report.Took = p.now().Sub(start)
	p.log.Info("price update finished",
		zap.String("date", report.Date),
		zap.Int("cyclists", report.Cyclists),
		zap.Int("updated", report.Updated),
		zap.Int("failed", report.Failed),
		zap.Int("skipped", report.Skipped),
		zap.Duration("took", report.Took),
	)
	return report, nil
}

// priceInput assembles the engine input for one cyclist. A cyclist with no
// earlier snapshot is treated as unchanged demand.
func priceInput(c *models.Cyclist, owners, totalTeams int, previous map[int64]float64,
	upcoming map[int64]db.UpcomingRace, concluded map[int64]bool) (fantasy.PriceInput, float64) {

	currentPct := fantasy.OwnershipPct(owners, totalTeams)
	prevPct, ok := previous[c.ID]
	if !ok {
		prevPct = currentPct
	}

	in := fantasy.PriceInput{
		CurrentPrice:         c.Price,
		BasePrice:            c.BasePrice,
		PreviousOwnershipPct: prevPct,
		CurrentOwnershipPct:  currentPct,
		BoostActive:          c.PriceBoostActive,
		BoostRaceID:          c.PriceBoostRaceID,
	}
	if c.PriceBoostActive && c.PriceBoostRaceID != nil {
		in.RaceFinished = concluded[*c.PriceBoostRaceID]
	}
	if next, ok := upcoming[c.ID]; ok {
		days, raceID := next.DaysUntil, next.RaceID
		in.DaysUntilRace = &days
		in.RaceID = &raceID
	}
	return in, currentPct
}

// LocalLocker is an in-process Locker for single-instance deployments.
type LocalLocker struct {
	mu    sync.Mutex
	held  map[string]time.Time
	clock func() time.Time
}

// NewLocalLocker returns an empty LocalLocker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: map[string]time.Time{}, clock: time.Now}
}

// Acquire takes key unless it is held and unexpired.
func (l *LocalLocker) Acquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.clock()
	if until, ok := l.held[key]; ok && now.Before(until) {
		return false, nil
	}
	l.held[key] = now.Add(ttl)
	return true, nil
}

// Release drops key.
func (l *LocalLocker) Release(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
	return nil
}
