package service

import (
	"context"
	"sync"
	"time"

	"storefront-service/internal/cart"
	"storefront-service/internal/catalog"
	"storefront-service/internal/checkout"
	"storefront-service/internal/commerce"
	"storefront-service/internal/models"
	"storefront-service/internal/util"

	"go.uber.org/zap"
)

// Session is one shopper's state: their cart, catalog view and checkout flow
type Session struct {
	ID   string
	Cart *cart.Store
	View *catalog.View

	// syncMu serializes a local cart mutation with its remote mirror call,
	// and guards cartID and remoteItems.
	syncMu      sync.Mutex
	cartID      string
	remoteItems map[int64]string

	mu          sync.Mutex
	flow        *checkout.Flow
	noticeUntil time.Time
	lastSeen    time.Time
}

// Flow returns the session's current checkout flow
func (s *Session) Flow() *checkout.Flow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flow
}

// resetFlow replaces the checkout flow unless a placement is in flight
func (s *Session) resetFlow() (*checkout.Flow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.flow.State() == checkout.StatePlacing {
		return s.flow, checkout.ErrPlacementInFlight
	}
	s.flow = checkout.NewFlow()
	return s.flow, nil
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) setNotice(until time.Time) {
	s.mu.Lock()
	s.noticeUntil = until
	s.mu.Unlock()
}

func (s *Session) noticeActive(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Before(s.noticeUntil)
}

// applyRemoteLocked records the remote line ids. Caller holds syncMu.
func (s *Session) applyRemoteLocked(rc *commerce.RemoteCart) {
	if rc.ID != "" {
		s.cartID = rc.ID
	}
	s.remoteItems = make(map[int64]string, len(rc.Items))
	for _, item := range rc.Items {
		if item.ProductID > 0 {
			s.remoteItems[item.ProductID] = item.UID
		}
	}
}

// dropRemoteLocked forgets the remote cart. Caller holds syncMu.
func (s *Session) dropRemoteLocked() {
	s.cartID = ""
	s.remoteItems = nil
}

type persistedSession struct {
	CartID      string            `json:"cart_id,omitempty"`
	RemoteItems map[int64]string  `json:"remote_items,omitempty"`
	Lines       []models.CartLine `json:"lines"`
}

// SessionManager owns the in-memory sessions and their persisted copies
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	store    SessionStore
	ttl      time.Duration
	pageSize int
	step     int
	now      func() time.Time
	logger   *zap.Logger
}

// NewSessionManager creates a session manager. store may be nil, in which
// case sessions live only in memory.
func NewSessionManager(store SessionStore, ttl time.Duration, pageSize, step int) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session),
		store:    store,
		ttl:      ttl,
		pageSize: pageSize,
		step:     step,
		now:      time.Now,
		logger:   util.GetLogger().Named("sessions"),
	}
}

// Get returns the session for id, restoring it from the session store or
// creating it on first use.
func (m *SessionManager) Get(ctx context.Context, id string) *Session {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if ok {
		s.touch(m.now())
		return s
	}

	s = m.newSession(id)
	m.restore(ctx, s)

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.sessions[id]; ok {
		existing.touch(m.now())
		return existing
	}
	m.sessions[id] = s
	util.ActiveSessions.Set(float64(len(m.sessions)))
	return s
}

func (m *SessionManager) newSession(id string) *Session {
	return &Session{
		ID:       id,
		Cart:     cart.NewStore(),
		View:     catalog.NewView(m.pageSize, m.step),
		flow:     checkout.NewFlow(),
		lastSeen: m.now(),
	}
}

func (m *SessionManager) restore(ctx context.Context, s *Session) {
	if m.store == nil {
		return
	}
	var state persistedSession
	found, err := m.store.LoadSession(ctx, s.ID, &state)
	if err != nil {
		m.logger.Warn("Failed to restore session", zap.String("session_id", s.ID), zap.Error(err))
		return
	}
	if !found {
		return
	}
	s.Cart.Restore(state.Lines)
	s.cartID = state.CartID
	s.remoteItems = state.RemoteItems
	m.logger.Debug("Session restored",
		zap.String("session_id", s.ID),
		zap.Int("lines", s.Cart.Len()))
}

// saveLocked persists the session's cart. Caller holds s.syncMu.
// Failures are logged; the in-memory session stays authoritative.
func (m *SessionManager) saveLocked(ctx context.Context, s *Session) {
	if m.store == nil {
		return
	}
	state := persistedSession{
		CartID:      s.cartID,
		RemoteItems: s.remoteItems,
		Lines:       s.Cart.Lines(),
	}
	if err := m.store.SaveSession(ctx, s.ID, state, m.ttl); err != nil {
		m.logger.Warn("Failed to persist session", zap.String("session_id", s.ID), zap.Error(err))
	}
}

// End drops a session from memory and from the session store
func (m *SessionManager) End(ctx context.Context, id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	util.ActiveSessions.Set(float64(len(m.sessions)))
	m.mu.Unlock()

	if m.store == nil {
		return nil
	}
	return m.store.DeleteSession(ctx, id)
}

// Sweep evicts sessions idle for longer than maxIdle from memory. Their
// persisted copies remain and are restored on the next request.
func (m *SessionManager) Sweep(maxIdle time.Duration) int {
	cutoff := m.now().Add(-maxIdle)

	m.mu.Lock()
	defer m.mu.Unlock()

	evicted := 0
	for id, s := range m.sessions {
		s.mu.Lock()
		idle := s.lastSeen.Before(cutoff) && s.flow.State() != checkout.StatePlacing
		s.mu.Unlock()
		if idle {
			delete(m.sessions, id)
			evicted++
		}
	}
	util.ActiveSessions.Set(float64(len(m.sessions)))
	return evicted
}

// Len returns the number of sessions held in memory
func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
