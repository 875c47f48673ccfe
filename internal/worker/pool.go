package worker

import (
	"strconv"
	"time"

	marerrors "github.com/marian-search/marian/pkg/errors"
)

// Default admission thresholds (§4.7), overridable via configuration.
const (
	DefaultSize           = 2
	DefaultMaximumBacklog = 20
	DefaultWarningBacklog = 15

	defaultMinRestartInterval = 30 * time.Second
)

// Pool is the scheduling table dispatching requests to the least-loaded
// eligible worker, per §4.7/§9 ("the pool is a scheduling table, not a
// thread pool").
type Pool struct {
	workers        []*Worker
	maximumBacklog int
	warningBacklog int
}

// New creates a pool of size workers, starting each worker's message loop.
func New(size, maximumBacklog, warningBacklog int) *Pool {
	if size <= 0 {
		size = DefaultSize
	}
	if maximumBacklog <= 0 {
		maximumBacklog = DefaultMaximumBacklog
	}
	if warningBacklog <= 0 {
		warningBacklog = DefaultWarningBacklog
	}
	p := &Pool{maximumBacklog: maximumBacklog, warningBacklog: warningBacklog}
	for i := 0; i < size; i++ {
		w := newWorker(i)
		p.workers = append(p.workers, w)
		go w.Run(defaultMinRestartInterval)
	}
	return p
}

// MaximumBacklog is the backlog ceiling beyond which a request is rejected
// with backlog-exceeded.
func (p *Pool) MaximumBacklog() int { return p.maximumBacklog }

// WarningBacklog is the backlog threshold beyond which a request degrades
// to useHits=false.
func (p *Pool) WarningBacklog() int { return p.warningBacklog }

// Workers returns the pool's workers in declaration order.
func (p *Pool) Workers() []*Worker { return p.workers }

// Get returns the non-suspended, non-dead worker with the smallest
// backlog, breaking ties by declaration order. Fails with pool-unavailable
// if every worker is suspended or dead.
func (p *Pool) Get() (*Worker, error) {
	var best *Worker
	for _, w := range p.workers {
		if w.Dead() || w.Suspended() {
			continue
		}
		if best == nil || w.Backlog() < best.Backlog() {
			best = w
		}
	}
	if best == nil {
		return nil, marerrors.New(marerrors.ErrPoolUnavailable, 503, "all workers suspended or dead")
	}
	return best, nil
}

// Suspend marks w ineligible for new requests. In-flight requests are not
// cancelled.
func (p *Pool) Suspend(w *Worker) { w.suspended.Store(true) }

// Resume marks w eligible for new requests again.
func (p *Pool) Resume(w *Worker) { w.suspended.Store(false) }

// GetStatus returns one entry per worker in declaration order: the
// stringified backlog, "s" if suspended, or "d" if dead.
func (p *Pool) GetStatus() []string {
	out := make([]string, len(p.workers))
	for i, w := range p.workers {
		switch {
		case w.Dead():
			out[i] = "d"
		case w.Suspended():
			out[i] = "s"
		default:
			out[i] = strconv.FormatInt(w.Backlog(), 10)
		}
	}
	return out
}

// AnyDead reports whether any worker has been marked dead (§7: the status
// endpoint returns 500 when any worker is dead).
func (p *Pool) AnyDead() bool {
	for _, w := range p.workers {
		if w.Dead() {
			return true
		}
	}
	return false
}
