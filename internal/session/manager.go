package session

import (
	"context"
	"errors"
	"sync"

	"github.com/oshxona-pos/terminal/internal/remote"
)

var ErrNoEditSession = errors.New("no editing session for order")

// RoleSource yields the current operator's role. Satisfied by *auth.Session.
type RoleSource interface {
	Role() string
}

// Manager tracks the open editing sessions by order id. One terminal edits
// one order at a time in practice, but nothing breaks if the UI keeps a
// couple of tabs open.
type Manager struct {
	mu     sync.Mutex
	client remote.Client
	roles  RoleSource
	open   map[string]*EditSession
}

func NewManager(client remote.Client, roles RoleSource) *Manager {
	return &Manager{
		client: client,
		roles:  roles,
		open:   make(map[string]*EditSession),
	}
}

// Open starts (or returns the already-open) editing session for an order.
func (m *Manager) Open(ctx context.Context, orderID string) (*EditSession, error) {
	m.mu.Lock()
	if es, ok := m.open[orderID]; ok {
		m.mu.Unlock()
		return es, nil
	}
	m.mu.Unlock()

	es, err := Open(ctx, m.client, m.roles.Role(), orderID)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.open[orderID]; ok {
		return existing, nil
	}
	m.open[orderID] = es
	return es, nil
}

func (m *Manager) Get(orderID string) (*EditSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	es, ok := m.open[orderID]
	if !ok {
		return nil, ErrNoEditSession
	}
	return es, nil
}

// Close runs the navigation guard for the order's session and forgets it.
// The session is removed even when the flush reports an error; the error is
// passed along for the operator, never used to hold the session hostage.
func (m *Manager) Close(ctx context.Context, orderID string) error {
	m.mu.Lock()
	es, ok := m.open[orderID]
	delete(m.open, orderID)
	m.mu.Unlock()
	if !ok {
		return ErrNoEditSession
	}
	return es.Close(ctx)
}

// CloseAll flushes every open session, used at logout and shutdown. The
// first error encountered is returned after all sessions have settled.
func (m *Manager) CloseAll(ctx context.Context) error {
	m.mu.Lock()
	sessions := make([]*EditSession, 0, len(m.open))
	for id, es := range m.open {
		sessions = append(sessions, es)
		delete(m.open, id)
	}
	m.mu.Unlock()

	var first error
	for _, es := range sessions {
		if err := es.Close(ctx); err != nil && first == nil {
			first = err
		}
	}
	return first
}
