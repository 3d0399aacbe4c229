// Package session holds per-browser-session state: the credentials
// override entered in the UI and the analysis history. Sessions share
// nothing with each other beyond read-only environment defaults.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sozercan/mail-ai-mole/internal/config"
	"github.com/sozercan/mail-ai-mole/internal/history"
)

// Session is the per-session context passed through the request path.
type Session struct {
	ID      string
	History *history.Store

	mu       sync.RWMutex
	override config.Override
	lastSeen time.Time
}

// SetOverride replaces the session's credential override. Empty
// fields keep falling back to environment defaults at resolve time.
func (s *Session) SetOverride(ov config.Override) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.override = ov
}

// Override returns the current credential override.
func (s *Session) Override() config.Override {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.override
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = now
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return now.Sub(s.lastSeen)
}

// Manager tracks live sessions by cookie id and expires idle ones.
type Manager struct {
	mu          sync.Mutex
	sessions    map[string]*Session
	idleTimeout time.Duration
	historyMax  int
}

func NewManager(cfg config.SessionConfig, historyCfg config.HistoryConfig) *Manager {
	return &Manager{
		sessions:    make(map[string]*Session),
		idleTimeout: cfg.IdleTimeout,
		historyMax:  historyCfg.MaxEntries,
	}
}

// Get returns the session for id, creating one when id is unknown or
// empty. The returned id must be set back onto the client cookie.
func (m *Manager) Get(id string) *Session {
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		s.touch(now)
		return s
	}

	s := &Session{
		ID:       uuid.New().String(),
		History:  history.New(m.historyMax),
		lastSeen: now,
	}
	m.sessions[s.ID] = s
	return s
}

// Sweep drops sessions idle longer than the configured timeout and
// reports how many were removed.
func (m *Manager) Sweep() int {
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, s := range m.sessions {
		if s.idleSince(now) > m.idleTimeout {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// StartJanitor sweeps idle sessions until stop is closed.
func (m *Manager) StartJanitor(stop <-chan struct{}) {
	interval := m.idleTimeout / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.Sweep()
			case <-stop:
				return
			}
		}
	}()
}
