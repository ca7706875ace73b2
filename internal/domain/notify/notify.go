// Package notify implements transient, auto-dismissing status messages.
package notify

import (
	"sync"
	"time"
)

// DefaultTTL is how long a notification stays visible.
const DefaultTTL = 3 * time.Second

// Severity classifies a notification.
type Severity string

const (
	Info    Severity = "info"
	Success Severity = "success"
	Warning Severity = "warning"
	Error   Severity = "error"
)

// Notification is a message shown to the user until it expires or is
// replaced.
type Notification struct {
	Message  string
	Severity Severity
}

// Timer is the subset of *time.Timer used by Notifier.
type Timer interface {
	Stop() bool
}

// Notifier holds at most one visible notification. A new notification
// replaces the current one and cancels its pending clear, so an old timer
// never dismisses a newer message.
type Notifier struct {
	ttl       time.Duration
	afterFunc func(d time.Duration, f func()) Timer

	mu      sync.Mutex
	current *Notification
	timer   Timer
	// gen identifies the notification a scheduled clear belongs to.
	gen uint64
}

// New creates a Notifier whose messages clear after ttl. A non-positive ttl
// selects DefaultTTL.
func New(ttl time.Duration) *Notifier {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Notifier{
		ttl: ttl,
		afterFunc: func(d time.Duration, f func()) Timer {
			return time.AfterFunc(d, f)
		},
	}
}

// Notify shows message immediately and schedules its removal.
func (n *Notifier) Notify(message string, severity Severity) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.stopLocked()
	n.current = &Notification{Message: message, Severity: severity}
	gen := n.gen
	n.timer = n.afterFunc(n.ttl, func() { n.expire(gen) })
}

// Current returns the visible notification, if any.
func (n *Notifier) Current() (Notification, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.current == nil {
		return Notification{}, false
	}
	return *n.current, true
}

// Clear dismisses the visible notification and cancels its timer.
func (n *Notifier) Clear() {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.stopLocked()
	n.current = nil
}

func (n *Notifier) expire(gen uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if gen != n.gen {
		return
	}
	n.current = nil
	n.timer = nil
}

// stopLocked invalidates the pending clear. Bumping gen covers a timer that
// has already fired and is waiting on mu.
func (n *Notifier) stopLocked() {
	n.gen++
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
}
