package testutil

import (
	"context"
	"sync"

	"todo-bulk-update/internal/domain"
)

// MockTransactionManager wraps a real TransactionManager and records how
// scopes were opened. BeginErr, when set, fails every StartTransaction call
// before the body runs.
type MockTransactionManager struct {
	Inner    domain.TransactionManager
	BeginErr error

	Mu     sync.Mutex
	Top    int
	Nested int
}

func (m *MockTransactionManager) StartTransaction(ctx context.Context, parent domain.Scope, fn func(ctx context.Context, scope domain.Scope) error) error {
	m.Mu.Lock()
	if parent == nil {
		m.Top++
	} else {
		m.Nested++
	}
	beginErr := m.BeginErr
	m.Mu.Unlock()

	if beginErr != nil {
		return beginErr
	}
	return m.Inner.StartTransaction(ctx, parent, fn)
}

// Opened returns the number of top-level and nested scopes requested.
func (m *MockTransactionManager) Opened() (top, nested int) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	return m.Top, m.Nested
}

// MockSessionRepository is an in-memory SessionRepository with an
// injectable error per operation.
type MockSessionRepository struct {
	Mu       sync.Mutex
	Sessions map[string]domain.Session
	Err      error
	Deleted  []string
}

func NewMockSessionRepository() *MockSessionRepository {
	return &MockSessionRepository{Sessions: map[string]domain.Session{}}
}

func (m *MockSessionRepository) CreateSession(_ context.Context, s domain.Session) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Sessions[s.ID] = s
	return nil
}

func (m *MockSessionRepository) GetSession(_ context.Context, id string) (*domain.Session, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	s, ok := m.Sessions[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *MockSessionRepository) DeleteSession(_ context.Context, id string) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	delete(m.Sessions, id)
	m.Deleted = append(m.Deleted, id)
	return nil
}
