package propagation

import "time"

// Policy is the caller-owned polling cadence and budget for one change.
type Policy struct {
	// Interval between two status lookups
	Interval time.Duration

	// Timeout bounds the whole wait, including the first lookup
	Timeout time.Duration

	// MaxLookupErrors is how many consecutive failed lookups are tolerated
	// before the change is considered failed. Zero means the default; a
	// negative value tolerates none.
	MaxLookupErrors int

	// Workers bounds the number of changes polled concurrently by WaitAll
	Workers int
}

// DefaultPolicy returns the polling policy used when none is configured.
func DefaultPolicy() Policy {
	return Policy{
		Interval:        5 * time.Second,
		Timeout:         5 * time.Minute,
		MaxLookupErrors: 3,
		Workers:         4,
	}
}

func (p Policy) withDefaults() Policy {
	d := DefaultPolicy()
	if p.Interval <= 0 {
		p.Interval = d.Interval
	}
	if p.Timeout <= 0 {
		p.Timeout = d.Timeout
	}
	switch {
	case p.MaxLookupErrors == 0:
		p.MaxLookupErrors = d.MaxLookupErrors
	case p.MaxLookupErrors < 0:
		p.MaxLookupErrors = 0
	}
	if p.Workers <= 0 {
		p.Workers = d.Workers
	}
	return p
}
