package system

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/kitu-show/kitu/internal/core/clock"
	"github.com/kitu-show/kitu/internal/core/ecs"
	coresys "github.com/kitu-show/kitu/internal/core/system"
	"github.com/kitu-show/kitu/internal/persist"
	"go.uber.org/zap"
)

// SnapshotSystem periodically records the tick, elapsed show time and the
// registered component names into a table store. Phase 4 (Persist).
type SnapshotSystem struct {
	store     persist.TableStore
	table     string
	frame     time.Duration
	log       *zap.Logger
	tickCount uint64
	interval  uint64 // snapshot every N ticks
	saved     int
}

func NewSnapshotSystem(store persist.TableStore, table string, frame time.Duration, intervalTicks uint64, log *zap.Logger) *SnapshotSystem {
	if log == nil {
		log = zap.NewNop()
	}
	return &SnapshotSystem{
		store:    store,
		table:    table,
		frame:    frame,
		interval: intervalTicks,
		log:      log,
	}
}

func (s *SnapshotSystem) Phase() coresys.Phase { return coresys.PhasePersist }

// Run never fails the tick; store errors are logged and the next interval
// tries again.
func (s *SnapshotSystem) Run(w *ecs.World, tick clock.Tick) error {
	if s.interval == 0 {
		return nil
	}
	s.tickCount++
	if s.tickCount < s.interval {
		return nil
	}
	s.tickCount = 0

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Save(ctx, w, tick); err != nil {
		s.log.Error("snapshot failed", zap.Uint64("tick", tick.Get()), zap.Error(err))
	}
	return nil
}

// Save writes one snapshot immediately. Called on graceful shutdown.
func (s *SnapshotSystem) Save(ctx context.Context, w *ecs.World, tick clock.Tick) error {
	if err := persist.EnsureTable(ctx, s.store, s.table); err != nil {
		return err
	}
	ts := clock.NewTimestamp(tick, s.frame)
	row := persist.Row{
		"tick":       strconv.FormatUint(tick.Get(), 10),
		"elapsed":    ts.Elapsed().String(),
		"components": strings.Join(w.RegisteredComponents(), ","),
	}
	if err := s.store.Insert(ctx, s.table, row); err != nil {
		return err
	}
	s.saved++
	s.log.Debug("snapshot saved", zap.Uint64("tick", tick.Get()))
	return nil
}

// Saved returns the number of snapshots written.
func (s *SnapshotSystem) Saved() int { return s.saved }
