/*
sweeper.go - Background drift reconciliation

PURPOSE:
  Periodically recomputes every account balance from its recorded history
  and compares it with the stored one. Drift is logged and repaired so the
  stored balance converges back to the derived value even after a partial
  failure on a non-transactional store.

DESIGN:
  - Runs a background goroutine with a configurable interval
  - Walks all owners, reconciling each independently
  - Repairs detected drift in place (the recorded history wins)
  - Assumes accounts are reasonably quiescent while a pass runs; a delta
    applied between the recompute and the comparison can look like drift
    for one pass and clears on the next

USAGE:
  sweeper := NewSweeper(store, engine, logger, 15*time.Minute)
  sweeper.Start()
  // ... later
  sweeper.Stop()

SEE ALSO:
  - handlers.go: Reconcile endpoint (manual, per owner)
  - ledger/balance.go: Reconcile and RepairDrift
*/
package api

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/centavo/finance-engine/ledger"
)

// Sweeper reconciles stored balances against each account's recorded
// history on a timer.
type Sweeper struct {
	Store    ledger.Store
	Engine   *ledger.Engine
	Log      *zap.Logger
	Interval time.Duration

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewSweeper creates a sweeper. A zero interval disables Start.
func NewSweeper(store ledger.Store, engine *ledger.Engine, log *zap.Logger, interval time.Duration) *Sweeper {
	if log == nil {
		log = zap.NewNop()
	}
	return &Sweeper{
		Store:    store,
		Engine:   engine,
		Log:      log,
		Interval: interval,
		stop:     make(chan struct{}),
	}
}

// Start begins the background loop.
func (s *Sweeper) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Interval <= 0 {
		s.Log.Info("sweeper disabled")
		return
	}

	s.ticker = time.NewTicker(s.Interval)
	s.wg.Add(1)
	go s.run()

	s.Log.Info("sweeper started", zap.Duration("interval", s.Interval))
}

// Stop stops the loop and waits for an in-flight pass to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker != nil {
		s.ticker.Stop()
		close(s.stop)
		s.wg.Wait()
		s.Log.Info("sweeper stopped")
	}
}

func (s *Sweeper) run() {
	defer s.wg.Done()

	// Run immediately on start
	s.Sweep(context.Background())

	for {
		select {
		case <-s.ticker.C:
			s.Sweep(context.Background())
		case <-s.stop:
			return
		}
	}
}

// Sweep reconciles every owner once. Exported so tests and the CLI can run
// a single pass.
func (s *Sweeper) Sweep(ctx context.Context) {
	owners, err := s.Store.ListOwners(ctx)
	if err != nil {
		s.Log.Error("sweep failed to list owners", zap.Error(err))
		return
	}

	for _, owner := range owners {
		drifts, err := s.Engine.Reconcile(ctx, owner)
		if err != nil {
			s.Log.Error("sweep reconcile failed",
				zap.String("owner", string(owner)), zap.Error(err))
			continue
		}
		if len(drifts) == 0 {
			continue
		}

		for _, d := range drifts {
			s.Log.Warn("balance drift detected",
				zap.String("owner", string(owner)),
				zap.String("account", string(d.AccountID)),
				zap.String("stored", d.Stored.StringFixed(2)),
				zap.String("computed", d.Computed.StringFixed(2)))
		}
		if err := s.Engine.RepairDrift(ctx, owner, drifts); err != nil {
			s.Log.Error("sweep repair failed",
				zap.String("owner", string(owner)), zap.Error(err))
			continue
		}
		s.Log.Info("drift repaired",
			zap.String("owner", string(owner)), zap.Int("accounts", len(drifts)))
	}
}
