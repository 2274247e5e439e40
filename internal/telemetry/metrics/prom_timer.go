package metrics

import "time"

type promTimer struct {
	h     Histogram
	start time.Time
}

func newPromTimer(h Histogram) *promTimer { return &promTimer{h: h, start: time.Now()} }

func (t *promTimer) ObserveDuration(labels ...string) {
	t.h.Observe(time.Since(t.start).Seconds(), labels...)
}
