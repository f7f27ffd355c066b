// Package memory provides an in-memory implementation of the storage.Store interface.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Ammar-alrfee/fit-manager/internal/models"
	"github.com/Ammar-alrfee/fit-manager/internal/storage"
)

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)

// Store keeps members and attendance records in process memory.
// All returned values are copies; callers cannot mutate stored state.
type Store struct {
	mutex   sync.RWMutex
	order   []string
	members map[string]*models.Member
	records []*models.AttendanceRecord
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		members: make(map[string]*models.Member),
	}
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

// CreateMember stores a copy of member.
func (s *Store) CreateMember(ctx context.Context, member *models.Member) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if member.ID == "" {
		member.ID = uuid.New().String()
	}
	if member.CreatedAt == 0 {
		member.CreatedAt = time.Now().Unix()
	}
	if member.Version == 0 {
		member.Version = 1
	}
	if _, exists := s.members[member.ID]; exists {
		return fmt.Errorf("%w: member %s", storage.ErrDuplicate, member.ID)
	}

	stored := *member
	s.members[member.ID] = &stored
	s.order = append(s.order, member.ID)
	return nil
}

// GetMember returns a copy of the member with the given ID.
func (s *Store) GetMember(ctx context.Context, id string) (*models.Member, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	m, ok := s.members[id]
	if !ok {
		return nil, fmt.Errorf("%w: member %s", storage.ErrNotFound, id)
	}
	out := *m
	return &out, nil
}

// UpdateMember replaces the stored member and bumps its version.
func (s *Store) UpdateMember(ctx context.Context, member *models.Member, expectedVersion int64) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	current, ok := s.members[member.ID]
	if !ok {
		return fmt.Errorf("%w: member %s", storage.ErrNotFound, member.ID)
	}
	if expectedVersion != 0 && current.Version != expectedVersion {
		return fmt.Errorf("%w: member %s at version %d, expected %d",
			storage.ErrVersionConflict, member.ID, current.Version, expectedVersion)
	}

	member.Version = current.Version + 1
	member.CreatedAt = current.CreatedAt
	stored := *member
	s.members[member.ID] = &stored
	return nil
}

// DeleteMember removes the member and keeps the remaining insertion order.
func (s *Store) DeleteMember(ctx context.Context, id string, expectedVersion int64) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	current, ok := s.members[id]
	if !ok {
		return fmt.Errorf("%w: member %s", storage.ErrNotFound, id)
	}
	if expectedVersion != 0 && current.Version != expectedVersion {
		return fmt.Errorf("%w: member %s at version %d, expected %d",
			storage.ErrVersionConflict, id, current.Version, expectedVersion)
	}

	delete(s.members, id)
	for i, memberID := range s.order {
		if memberID == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// ListMembers returns copies of all members in insertion order.
func (s *Store) ListMembers(ctx context.Context) ([]*models.Member, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	members := make([]*models.Member, 0, len(s.order))
	for _, id := range s.order {
		m := *s.members[id]
		members = append(members, &m)
	}
	return members, nil
}

// AppendCheckIn appends a copy of record to the ledger.
func (s *Store) AppendCheckIn(ctx context.Context, record *models.AttendanceRecord) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, r := range s.records {
		if r.MemberID == record.MemberID && r.Date == record.Date {
			return fmt.Errorf("%w: member %s already checked in on %s",
				storage.ErrDuplicate, record.MemberID, record.Date)
		}
	}

	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.CreatedAt == 0 {
		record.CreatedAt = time.Now().Unix()
	}

	stored := *record
	s.records = append(s.records, &stored)
	return nil
}

// ListCheckIns returns copies of the records for date in insertion order.
func (s *Store) ListCheckIns(ctx context.Context, date string) ([]*models.AttendanceRecord, error) {
	return s.filterCheckIns(func(r *models.AttendanceRecord) bool { return r.Date == date }), nil
}

// ListCheckInsSince returns copies of the records dated on or after date.
// Dates are YYYY-MM-DD, so lexical order is chronological order.
func (s *Store) ListCheckInsSince(ctx context.Context, date string) ([]*models.AttendanceRecord, error) {
	return s.filterCheckIns(func(r *models.AttendanceRecord) bool { return r.Date >= date }), nil
}

func (s *Store) filterCheckIns(keep func(*models.AttendanceRecord) bool) []*models.AttendanceRecord {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	records := make([]*models.AttendanceRecord, 0)
	for _, r := range s.records {
		if keep(r) {
			out := *r
			records = append(records, &out)
		}
	}
	return records
}
