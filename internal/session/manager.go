// internal/session/manager.go
package session

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultGrace is how long a disconnected player keeps their seat before
// being forfeited from the room.
const DefaultGrace = 60 * time.Second

// Manager tracks reconnect grace windows for disconnected players, keyed by
// identity (external account id when present, otherwise the seat id). A
// reconnect cancels the pending timer; expiry fires the forfeit callback.
type Manager struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
	grace  time.Duration
	log    *logrus.Logger
}

func NewManager(grace time.Duration, log *logrus.Logger) *Manager {
	if grace <= 0 {
		grace = DefaultGrace
	}
	return &Manager{
		timers: make(map[string]*time.Timer),
		grace:  grace,
		log:    log,
	}
}

// ScheduleExpiry arms (or re-arms) the grace timer for one identity. The
// callback runs once on expiry unless CancelExpiry lands first.
func (m *Manager) ScheduleExpiry(identity string, onExpire func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if t, ok := m.timers[identity]; ok {
		t.Stop()
	}
	m.timers[identity] = time.AfterFunc(m.grace, func() {
		m.mu.Lock()
		delete(m.timers, identity)
		m.mu.Unlock()
		m.log.WithField("identity", identity).Info("reconnect grace expired, forfeiting seat")
		onExpire()
	})
	m.log.WithFields(logrus.Fields{
		"identity": identity,
		"grace":    m.grace,
	}).Debug("scheduled reconnect grace timer")
}

// CancelExpiry stops a pending grace timer. Reports whether one was armed.
func (m *Manager) CancelExpiry(identity string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.timers[identity]
	if !ok {
		return false
	}
	t.Stop()
	delete(m.timers, identity)
	return true
}

// Pending reports the number of armed grace timers.
func (m *Manager) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}
