package relay

import (
	"errors"
	"sync"
	"time"
)

// ErrBacklogFull is returned by Enqueue when the recipient's backlog reached
// the configured cap.
var ErrBacklogFull = errors.New("relay: offline backlog full")

// PendingMessage is a payload buffered for an identity without a live
// connection, waiting for its next session.
type PendingMessage struct {
	RecipientID int64
	Payload     []byte
	EnqueuedAt  time.Time
}

// OfflineQueue buffers payloads per recipient identity in insertion order.
// Backlogs are independent across identities; there is no cross-identity
// ordering.
type OfflineQueue struct {
	mu sync.Mutex

	// maxPerRecipient caps each backlog. Zero means unbounded.
	maxPerRecipient int

	backlogs map[int64][]PendingMessage
}

// NewOfflineQueue returns an empty queue with the given per-recipient cap
// (zero for unbounded).
func NewOfflineQueue(maxPerRecipient int) *OfflineQueue {
	return &OfflineQueue{
		maxPerRecipient: maxPerRecipient,
		backlogs:        make(map[int64][]PendingMessage),
	}
}

// Enqueue appends the payload to the end of the recipient's backlog, creating
// the backlog if absent.
func (q *OfflineQueue) Enqueue(recipientID int64, payload []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	backlog := q.backlogs[recipientID]

	if q.maxPerRecipient > 0 && len(backlog) >= q.maxPerRecipient {
		return ErrBacklogFull
	}

	q.backlogs[recipientID] = append(backlog, PendingMessage{
		RecipientID: recipientID,
		Payload:     payload,
		EnqueuedAt:  time.Now(),
	})

	return nil
}

// Drain removes and returns the recipient's entire backlog in insertion
// order. It returns an empty slice when no backlog was ever created.
func (q *OfflineQueue) Drain(recipientID int64) []PendingMessage {
	q.mu.Lock()
	defer q.mu.Unlock()

	backlog, ok := q.backlogs[recipientID]
	if !ok {
		return nil
	}

	delete(q.backlogs, recipientID)

	return backlog
}

// restore puts drained messages back at the front of the recipient's backlog,
// preserving their original order and enqueue timestamps. Used when a backlog
// flush is interrupted by a dead connection. The cap is not re-applied: these
// messages were already accepted.
func (q *OfflineQueue) restore(recipientID int64, pending []PendingMessage) {
	if len(pending) == 0 {
		return
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	q.backlogs[recipientID] = append(pending, q.backlogs[recipientID]...)
}

// Len reports the current backlog size for the recipient.
func (q *OfflineQueue) Len(recipientID int64) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.backlogs[recipientID])
}
