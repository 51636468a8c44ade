package trace

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// Heartbeat emits periodic events during long multi-unit runs. A unit span
// that stays open across many heartbeats points at a stuck rule.
type Heartbeat struct {
	stop context.CancelFunc
	done chan struct{}
	once sync.Once
}

// StartHeartbeat returns nil when tracing is off or interval is not positive.
func StartHeartbeat(tracer Tracer, interval time.Duration) *Heartbeat {
	if tracer == nil || !tracer.Enabled() || interval <= 0 {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	h := &Heartbeat{stop: cancel, done: make(chan struct{})}
	go h.run(ctx, tracer, interval)
	return h
}

func (h *Heartbeat) run(ctx context.Context, tracer Tracer, interval time.Duration) {
	defer close(h.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	started := now()
	for beat := 1; ; beat++ {
		select {
		case <-ctx.Done():
			return
		case at := <-ticker.C:
			tracer.Emit(&Event{
				Time:   at,
				Kind:   KindHeartbeat,
				Scope:  ScopeDriver,
				Name:   "heartbeat",
				Detail: "#" + strconv.Itoa(beat),
				Attrs:  map[string]string{"elapsed": at.Sub(started).Round(time.Millisecond).String()},
			})
		}
	}
}

// Stop ends the heartbeat and waits for its goroutine. Safe on nil and
// safe to call twice.
func (h *Heartbeat) Stop() {
	if h == nil {
		return
	}
	h.once.Do(h.stop)
	<-h.done
}
