// Package storage provides abstractions for member and attendance storage.
package storage

import (
	"context"
	"errors"

	"github.com/Ammar-alrfee/fit-manager/internal/models"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrVersionConflict is returned when an expected version does not match
	// the stored version.
	ErrVersionConflict = errors.New("version conflict")

	// ErrDuplicate is returned when a record violates a uniqueness rule,
	// such as a second check-in for the same member on the same date.
	ErrDuplicate = errors.New("duplicate record")
)

// MemberStore defines the storage operations for members.
// Implementations must return members in insertion order.
type MemberStore interface {
	// CreateMember persists a new member.
	// ID, CreatedAt and Version are populated by the store when unset.
	CreateMember(ctx context.Context, member *models.Member) error

	// GetMember retrieves a member by ID.
	// Returns ErrNotFound if the member does not exist.
	GetMember(ctx context.Context, id string) (*models.Member, error)

	// UpdateMember replaces a stored member and increments its version.
	// If expectedVersion is non-zero and differs from the stored version,
	// it returns ErrVersionConflict and nothing is written.
	UpdateMember(ctx context.Context, member *models.Member, expectedVersion int64) error

	// DeleteMember removes a member, with the same version rule as UpdateMember.
	// Returns ErrNotFound if the member does not exist.
	DeleteMember(ctx context.Context, id string, expectedVersion int64) error

	// ListMembers returns all members in insertion order.
	ListMembers(ctx context.Context) ([]*models.Member, error)
}

// AttendanceStore defines the storage operations for the attendance ledger.
// The ledger is append-only: there are no update or delete operations.
type AttendanceStore interface {
	// AppendCheckIn appends a record. ID and CreatedAt are populated when unset.
	// Returns ErrDuplicate if the member already has a record on record.Date.
	AppendCheckIn(ctx context.Context, record *models.AttendanceRecord) error

	// ListCheckIns returns the records for a date ("YYYY-MM-DD") in insertion order.
	ListCheckIns(ctx context.Context, date string) ([]*models.AttendanceRecord, error)

	// ListCheckInsSince returns records dated on or after date, in insertion order.
	ListCheckInsSince(ctx context.Context, date string) ([]*models.AttendanceRecord, error)
}

// Store combines the member and attendance stores of one backend.
type Store interface {
	MemberStore
	AttendanceStore

	// Close releases any resources held by the store.
	Close() error
}
