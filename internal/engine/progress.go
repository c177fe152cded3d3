package engine

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

const (
	// ArchivingCompleteMessage is the last event of every successful run.
	ArchivingCompleteMessage = "Archiving Complete!"
	// EmptyQueueMessage is sent when a run is started without any task.
	EmptyQueueMessage = "There are no files to archive in queue."
)

// Reporter receives progress events. Implementations must be safe for concurrent use.
type Reporter interface {
	Send(msg string) error
}

// ReporterFunc adapts a function to the Reporter interface.
type ReporterFunc func(msg string) error

func (f ReporterFunc) Send(msg string) error {
	return f(msg)
}

func QueueSizeMessage(n int) string {
	return fmt.Sprintf("Total archive directory count: %d", n)
}

func CompletionMessage(format Format, path string) string {
	return fmt.Sprintf("%s archiving complete: %s", format.Label(), path)
}

func ErrorMessage(format Format, err error) string {
	return fmt.Sprintf("%s archiving error occured!: %v", format.Label(), err)
}

func WarningMessage(format Format, warning string) string {
	return fmt.Sprintf("%s archiving warning: %s", format.Label(), warning)
}

// TrySend delivers msg to reporter if there is one. Delivery failures are logged and dropped.
func TrySend(logger *zap.Logger, reporter Reporter, msg string) {
	if reporter == nil {
		return
	}
	if err := reporter.Send(msg); err != nil {
		logger.Debug("dropping progress event", zap.String("event", msg), zap.Error(err))
	}
}

// ProgressChannel is an unbounded multi-producer, single-consumer event stream.
// Send never blocks. Messages are delivered in send order on the channel returned by
// Messages, which is closed once Close has been called and every pending message has been
// received.
type ProgressChannel struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pending []string
	closed  bool
	out     chan string
}

func NewProgressChannel() *ProgressChannel {
	p := &ProgressChannel{out: make(chan string)}
	p.cond = sync.NewCond(&p.mu)
	go p.pump()
	return p
}

func (p *ProgressChannel) Send(msg string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrProgressClosed
	}
	p.pending = append(p.pending, msg)
	p.cond.Signal()
	return nil
}

// Close stops accepting new messages. Pending messages are still delivered.
func (p *ProgressChannel) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.closed {
		p.closed = true
		p.cond.Broadcast()
	}
}

func (p *ProgressChannel) Messages() <-chan string {
	return p.out
}

func (p *ProgressChannel) pump() {
	defer close(p.out)

	for {
		p.mu.Lock()
		for len(p.pending) == 0 && !p.closed {
			p.cond.Wait()
		}
		if len(p.pending) == 0 {
			p.mu.Unlock()
			return
		}
		msg := p.pending[0]
		p.pending[0] = ""
		p.pending = p.pending[1:]
		p.mu.Unlock()

		p.out <- msg
	}
}
