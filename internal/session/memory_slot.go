package session

import (
	"context"
	"sync"

	"github.com/Ammar-alrfee/fit-manager/internal/storage"
)

// MemorySlot is a Slot that lives only as long as the process.
type MemorySlot struct {
	mu      sync.Mutex
	payload []byte
}

// Ensure MemorySlot implements Slot
var _ Slot = (*MemorySlot)(nil)

func (s *MemorySlot) Load(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.payload == nil {
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), s.payload...), nil
}

func (s *MemorySlot) Save(ctx context.Context, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.payload = append([]byte(nil), payload...)
	return nil
}

func (s *MemorySlot) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.payload = nil
	return nil
}
