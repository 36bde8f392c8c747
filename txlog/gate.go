package txlog

import "time"

// pollGate enforces the minimum interval between two cursor acquisitions.
// The backend budgets cursor acquisition separately from record reads, so
// the gate covers only the former. Not safe for concurrent use; the Store
// assumes serialized polls.
type pollGate struct {
	interval time.Duration
	now      func() time.Time

	last  time.Time
	armed bool
}

func newPollGate(interval time.Duration) *pollGate {
	return &pollGate{interval: interval, now: time.Now}
}

// allow reports whether a cursor acquisition may proceed now. When it may,
// the attempt time is recorded before the backend call is made. The first
// call is always allowed.
func (g *pollGate) allow() bool {
	t := g.now()
	if g.armed && t.Sub(g.last) < g.interval {
		return false
	}
	g.last, g.armed = t, true
	return true
}
