package booking

import (
	"sync"
	"time"
)

// Ticket identifies one availability request of an owner.
type Ticket struct {
	Owner string
	Key   string
	Seq   uint64
}

// Tracker remembers the latest selection per owner so late answers for
// superseded selections can be discarded.
type Tracker struct {
	mu     sync.Mutex
	seq    uint64
	latest map[string]trackedTicket
	now    func() time.Time
}

type trackedTicket struct {
	Ticket
	at time.Time
}

func NewTracker() *Tracker {
	return &Tracker{latest: map[string]trackedTicket{}, now: time.Now}
}

// Begin records key as the current selection of owner.
func (t *Tracker) Begin(owner, key string) Ticket {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seq++
	tk := Ticket{Owner: owner, Key: key, Seq: t.seq}
	t.latest[owner] = trackedTicket{Ticket: tk, at: t.now()}
	return tk
}

// Current reports whether tk is still the latest selection of its owner.
func (t *Tracker) Current(tk Ticket) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	cur, ok := t.latest[tk.Owner]
	return ok && cur.Seq == tk.Seq
}

func (t *Tracker) Forget(owner string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.latest, owner)
}

// Prune drops owners whose last selection is older than maxAge.
func (t *Tracker) Prune(maxAge time.Duration) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	cutoff := t.now().Add(-maxAge)
	n := 0
	for owner, cur := range t.latest {
		if cur.at.Before(cutoff) {
			delete(t.latest, owner)
			n++
		}
	}
	return n
}

func SelectionKey(doctorID string, date time.Time) string {
	return doctorID + "|" + date.Format(DateLayout)
}
