// README: Booking persistence contract and the in-memory implementation used by mock mode and tests.
package booking

import (
	"context"
	"sync"
	"time"

	"skybook/internal/types"
)

type Repository interface {
	// Create returns ErrReferenceTaken when b.Reference is already in use.
	Create(ctx context.Context, b *Booking) error
	GetByReference(ctx context.Context, reference string) (*Booking, error)
	// UpdateStatus applies the change only if the row still has status from and the given version.
	// at stamps ConfirmedAt or CancelledAt.
	UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, at time.Time, reason *string) (bool, error)
	AppendEvent(ctx context.Context, e *Event) error
	Events(ctx context.Context, id types.ID) ([]Event, error)
}

var (
	_ Repository = (*Store)(nil)
	_ Repository = (*MemoryStore)(nil)
)

type MemoryStore struct {
	mu      sync.Mutex
	byRef   map[string]*Booking
	refByID map[types.ID]string
	events  []Event
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byRef:   make(map[string]*Booking),
		refByID: make(map[types.ID]string),
	}
}

func (m *MemoryStore) Create(_ context.Context, b *Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.byRef[b.Reference]; taken {
		return ErrReferenceTaken
	}
	cp := *b
	m.byRef[b.Reference] = &cp
	m.refByID[b.ID] = b.Reference
	return nil
}

func (m *MemoryStore) GetByReference(_ context.Context, reference string) (*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.byRef[reference]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *MemoryStore) UpdateStatus(_ context.Context, id types.ID, from, to Status, version int, at time.Time, reason *string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.byRef[m.refByID[id]]
	if !ok || b.Status != from || b.StatusVersion != version {
		return false, nil
	}
	b.Status = to
	b.StatusVersion++
	switch to {
	case StatusConfirmed:
		b.ConfirmedAt = &at
	case StatusCancelled:
		b.CancelledAt = &at
	}
	if reason != nil {
		r := *reason
		b.CancelReason = &r
	}
	return true, nil
}

func (m *MemoryStore) AppendEvent(_ context.Context, e *Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev := *e
	ev.ID = int64(len(m.events) + 1)
	m.events = append(m.events, ev)
	return nil
}

func (m *MemoryStore) Events(_ context.Context, id types.ID) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Event
	for _, e := range m.events {
		if e.BookingID == id {
			out = append(out, e)
		}
	}
	return out, nil
}
