package api

import (
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limits configures per-connection throttling.
type Limits struct {
	// Events per second.
	General float64
	Editor  float64
	Cursor  float64

	// AbuseThreshold rejected events inside AbuseWindow close the connection.
	AbuseThreshold int
	AbuseWindow    time.Duration
}

// DefaultLimits returns the default per-connection limits.
func DefaultLimits() Limits {
	return Limits{
		General:        10,
		Editor:         5,
		Cursor:         20,
		AbuseThreshold: 50,
		AbuseWindow:    10 * time.Second,
	}
}

// Verdict is the outcome of a Guard check.
type Verdict int

const (
	// Allowed events are dispatched.
	Allowed Verdict = iota
	// Throttled events are rejected with a rate_limited error.
	Throttled
	// Abusive connections are closed.
	Abusive
)

// Guard throttles one connection. Editor and cursor events have their own
// buckets; everything else shares the general one.
type Guard struct {
	mu sync.Mutex

	general *rate.Limiter
	editor  *rate.Limiter
	cursor  *rate.Limiter

	threshold   int
	window      time.Duration
	windowStart time.Time
	rejected    int
}

// NewGuard creates a guard for one connection.
func NewGuard(l Limits) *Guard {
	d := DefaultLimits()
	if l.General <= 0 {
		l.General = d.General
	}
	if l.Editor <= 0 {
		l.Editor = d.Editor
	}
	if l.Cursor <= 0 {
		l.Cursor = d.Cursor
	}
	if l.AbuseThreshold <= 0 {
		l.AbuseThreshold = d.AbuseThreshold
	}
	if l.AbuseWindow <= 0 {
		l.AbuseWindow = d.AbuseWindow
	}
	return &Guard{
		general:   newLimiter(l.General),
		editor:    newLimiter(l.Editor),
		cursor:    newLimiter(l.Cursor),
		threshold: l.AbuseThreshold,
		window:    l.AbuseWindow,
	}
}

// newLimiter allows one second worth of events as burst.
func newLimiter(perSecond float64) *rate.Limiter {
	return rate.NewLimiter(rate.Limit(perSecond), int(math.Ceil(perSecond)))
}

// Check records an inbound event of the given type at now.
func (g *Guard) Check(event string, now time.Time) Verdict {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.limiterFor(event).AllowN(now, 1) {
		return Allowed
	}

	if g.windowStart.IsZero() || now.Sub(g.windowStart) > g.window {
		g.windowStart = now
		g.rejected = 0
	}
	g.rejected++
	if g.rejected >= g.threshold {
		return Abusive
	}
	return Throttled
}

func (g *Guard) limiterFor(event string) *rate.Limiter {
	switch event {
	case inEditorUpdate, inEditorSyncRequest:
		return g.editor
	case inCursorPosition:
		return g.cursor
	}
	return g.general
}
