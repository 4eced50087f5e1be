package progress

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Dispatcher propagates partial profile updates to the store without blocking
// gameplay. Every dispatch is fire-and-forget: nothing is retried or queued,
// concurrent dispatches may race (last write applied at the store wins for
// overlapping non-set fields), and failures are logged, never surfaced to the
// player or rolled back locally. A nil store puts the dispatcher in
// local-only mode where dispatch is a no-op.
type Dispatcher struct {
	store  Store
	logger zerolog.Logger
	wg     sync.WaitGroup
}

// NewDispatcher builds a dispatcher for the given store, which may be nil.
func NewDispatcher(store Store, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		store:  store,
		logger: logger.With().Str("component", "sync_dispatcher").Logger(),
	}
}

// Dispatch pushes a partial update in the background and returns immediately.
func (d *Dispatcher) Dispatch(update Update) {
	if d.store == nil || update.IsZero() {
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.store.MergeUpdate(context.Background(), update); err != nil {
			d.logger.Warn().Err(err).Msg("profile sync failed; local state remains provisional")
		}
	}()
}

// Flush blocks until every in-flight dispatch has finished. Used at session
// end and in tests; gameplay never calls it.
func (d *Dispatcher) Flush() {
	d.wg.Wait()
}
