package recorder

import (
	"sync"
	"time"

	"TokenArena/internal/model"
)

const memoryHistory = 50

// MemoryRecorder is used when SQLite is not configured or fails to open.
// It keeps the payout guard and a short history for the life of the process.
type MemoryRecorder struct {
	mu       sync.Mutex
	reserved map[string]struct{}
	rounds   []RoundRow
}

func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{reserved: make(map[string]struct{})}
}

func (m *MemoryRecorder) ReservePayout(res *PayoutReservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reserved[res.RoundID]; ok {
		return ErrPayoutExists
	}
	m.reserved[res.RoundID] = struct{}{}
	return nil
}

func (m *MemoryRecorder) CompletePayout(_, _, _ string) error { return nil }

func (m *MemoryRecorder) RecordRound(r *model.Round) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rounds = append(m.rounds, RowFromRound(r, time.Now()))
	if len(m.rounds) > memoryHistory {
		m.rounds = m.rounds[len(m.rounds)-memoryHistory:]
	}
	return nil
}

// LastRounds returns up to limit rounds, newest first.
func (m *MemoryRecorder) LastRounds(limit int) ([]RoundRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []RoundRow
	for i := len(m.rounds) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.rounds[i])
	}
	return out, nil
}

func (m *MemoryRecorder) Close() error { return nil }
