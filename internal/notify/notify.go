// Package notify fans fill and error reports out to subscribers. It
// adapts the teacher's TCP execution-report broadcaster to an
// HTTP-only surface: instead of writing wire frames to a socket, a
// pool of workers delivers reports to per-trader subscriber channels.
package notify

import (
	"sync"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"maelstrom/internal/common"
)

const (
	queueSize   = 100
	defaultSize = 4
)

// Report is one fill or error event destined for a single trader.
type Report struct {
	Trader ethcommon.Address
	Fills  []common.Fill
	Err    error
}

// Notifier owns the subscriber registry and the worker pool that
// drains the report queue. Reports for subscribers that fall behind are
// dropped rather than blocking a worker — a slow HTTP long-poller must not
// stall order processing.
type Notifier struct {
	mu          sync.Mutex
	subscribers map[ethcommon.Address]map[uuid.UUID]chan Report
	queue       chan Report
	workers     int
}

// New builds a Notifier with the given worker count. A size of zero
// uses defaultSize.
func New(workers int) *Notifier {
	if workers <= 0 {
		workers = defaultSize
	}
	return &Notifier{
		subscribers: make(map[ethcommon.Address]map[uuid.UUID]chan Report),
		queue:       make(chan Report, queueSize),
		workers:     workers,
	}
}

// Subscribe registers a new listener for the given trader's reports,
// returning a handle for Unsubscribe and the channel to receive on.
// The returned channel is buffered; a full channel causes a report to
// be dropped for that subscriber rather than delivered late.
func (n *Notifier) Subscribe(trader ethcommon.Address) (uuid.UUID, <-chan Report) {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := uuid.New()
	ch := make(chan Report, 16)
	if n.subscribers[trader] == nil {
		n.subscribers[trader] = make(map[uuid.UUID]chan Report)
	}
	n.subscribers[trader][id] = ch
	return id, ch
}

// Unsubscribe removes and closes a previously registered listener.
func (n *Notifier) Unsubscribe(trader ethcommon.Address, id uuid.UUID) {
	n.mu.Lock()
	defer n.mu.Unlock()

	byID, ok := n.subscribers[trader]
	if !ok {
		return
	}
	if ch, ok := byID[id]; ok {
		close(ch)
		delete(byID, id)
	}
	if len(byID) == 0 {
		delete(n.subscribers, trader)
	}
}

// Publish enqueues a report for asynchronous delivery. It never
// blocks the caller on subscriber behaviour; if the internal queue
// itself is full the report is dropped and logged, since the
// matching engine's critical section must never wait on a notifier.
func (n *Notifier) Publish(r Report) {
	select {
	case n.queue <- r:
	default:
		log.Error().Str("trader", r.Trader.Hex()).Msg("notify queue full, dropping report")
	}
}

// Run starts the worker pool under the given tomb, exiting when the
// tomb is killed. It blocks until the tomb's context is done.
func (n *Notifier) Run(t *tomb.Tomb) error {
	for i := 0; i < n.workers; i++ {
		t.Go(func() error {
			return n.worker(t)
		})
	}
	<-t.Dying()
	return nil
}

func (n *Notifier) worker(t *tomb.Tomb) error {
	for {
		select {
		case <-t.Dying():
			return nil
		case report := <-n.queue:
			n.deliver(report)
		}
	}
}

func (n *Notifier) deliver(report Report) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for _, ch := range n.subscribers[report.Trader] {
		select {
		case ch <- report:
		default:
			log.Error().Str("trader", report.Trader.Hex()).Msg("subscriber channel full, dropping report")
		}
	}
}
