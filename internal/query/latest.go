package query

import "sync/atomic"

// Latest hands out tickets so a caller can tell whether its request is
// still the most recent one for a view.
type Latest struct {
	seq atomic.Uint64
}

// Ticket identifies one request issued through a Latest.
type Ticket struct {
	l *Latest
	n uint64
}

// Next issues a ticket that supersedes all earlier ones.
func (l *Latest) Next() Ticket {
	return Ticket{l: l, n: l.seq.Add(1)}
}

// Current reports whether no newer ticket has been issued.
func (t Ticket) Current() bool {
	return t.l != nil && t.l.seq.Load() == t.n
}
