package download

import "sync/atomic"

// Stats is a point-in-time copy of a run's counters.
type Stats struct {
	Attempted int
	Succeeded int
	Failed    int
}

// Counters tracks the outcome of each download request in a run. Counters is
// safe to read while the run updates it.
type Counters struct {
	attempted atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64
}

func (c *Counters) Snapshot() Stats {
	return Stats{
		Attempted: int(c.attempted.Load()),
		Succeeded: int(c.succeeded.Load()),
		Failed:    int(c.failed.Load()),
	}
}
