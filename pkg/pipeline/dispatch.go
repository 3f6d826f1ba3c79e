package pipeline

import (
	"context"
	"log"
	"strings"
	"sync"
)

// groupQueueSize bounds each per-group mailbox. A full queue drops the
// message rather than blocking the adapter callback.
const groupQueueSize = 64

// Dispatcher serializes processing per group while letting distinct groups
// run concurrently. One worker goroutine per active group, created lazily on
// first message.
type Dispatcher struct {
	pipeline *Pipeline
	selfID   string

	mu      sync.Mutex
	queues  map[string]chan Message
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	dropped int
}

// NewDispatcher wraps a pipeline for adapter callbacks. selfID is the bot's
// own participant ID; its messages are filtered out before the pipeline.
func NewDispatcher(p *Pipeline, selfID string) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		pipeline: p,
		selfID:   selfID,
		queues:   make(map[string]chan Message),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Dispatch enqueues a message onto its group's worker. Returns false if the
// message is filtered out, the dispatcher is shut down, or the group's queue
// is full.
func (d *Dispatcher) Dispatch(msg Message) bool {
	if strings.TrimSpace(msg.Text) == "" {
		return false
	}
	if d.selfID != "" && msg.SenderID == d.selfID {
		return false
	}

	d.mu.Lock()
	if d.ctx.Err() != nil {
		d.mu.Unlock()
		return false
	}
	q, ok := d.queues[msg.GroupID]
	if !ok {
		q = make(chan Message, groupQueueSize)
		d.queues[msg.GroupID] = q
		d.wg.Add(1)
		go d.worker(msg.GroupID, q)
	}
	d.mu.Unlock()

	select {
	case q <- msg:
		return true
	default:
		d.mu.Lock()
		d.dropped++
		d.mu.Unlock()
		log.Printf("[WARN] group queue full, dropping message group=%s msg=%s", msg.GroupID, msg.ID)
		return false
	}
}

// worker drains one group's queue in order. Messages within a group are never
// processed concurrently, so decisions land in arrival order.
func (d *Dispatcher) worker(groupID string, q chan Message) {
	defer d.wg.Done()
	for {
		select {
		case <-d.ctx.Done():
			return
		case msg := <-q:
			if _, err := d.pipeline.Process(d.ctx, msg); err != nil && d.ctx.Err() == nil {
				log.Printf("[WARN] process failed group=%s msg=%s: %v", groupID, msg.ID, err)
			}
		}
	}
}

// Dropped reports messages rejected because a group queue was full.
func (d *Dispatcher) Dropped() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dropped
}

// Shutdown stops the workers. Queued but unprocessed messages are discarded.
func (d *Dispatcher) Shutdown() {
	d.cancel()
	d.wg.Wait()
}
