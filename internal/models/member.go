package models

import (
	"time"

	"github.com/Ammar-alrfee/fit-manager/internal/calculator"
)

// Member represents a gym member and their current subscription.
type Member struct {
	// ID is the unique identifier for the member (UUID format).
	// Assigned at creation and never changed.
	ID string

	// Name is the member's full name. Never empty.
	Name string

	// Phone is the member's phone number. Used as a secondary search key;
	// not required to be unique.
	Phone string

	// Plan is the subscription plan (monthly, quarterly or yearly).
	Plan calculator.Plan

	// StartDate is the calendar day the subscription starts (midnight UTC).
	StartDate time.Time

	// EndDate is derived from StartDate and Plan by the subscription calculator.
	// It is recomputed whenever either changes and is never set directly.
	EndDate time.Time

	// AmountPaid is what the member paid for the current subscription. Non-negative.
	AmountPaid float64

	// Active is the administrative flag. Inactive members cannot check in,
	// regardless of their subscription dates.
	Active bool

	// CreatedAt is the Unix timestamp when the member was registered.
	CreatedAt int64

	// Version is incremented on every update and used for optimistic concurrency.
	// A freshly created member has version 1.
	Version int64
}

// Status is the derived state of a member's subscription.
type Status string

const (
	StatusActive   Status = "active"
	StatusExpired  Status = "expired"
	StatusInactive Status = "inactive"
)

// StatusAt derives the member's status at now. Expiry takes precedence over
// the administrative flag.
func (m *Member) StatusAt(now time.Time) Status {
	if calculator.IsExpired(m.EndDate, now) {
		return StatusExpired
	}
	if !m.Active {
		return StatusInactive
	}
	return StatusActive
}

// Summarize builds the read-side view of the member at now.
func (m *Member) Summarize(now time.Time) MemberSummary {
	return MemberSummary{
		ID:         m.ID,
		Name:       m.Name,
		Phone:      m.Phone,
		Plan:       m.Plan,
		StartDate:  m.StartDate,
		EndDate:    m.EndDate,
		AmountPaid: m.AmountPaid,
		Active:     m.Active,
		Status:     m.StatusAt(now),
		CreatedAt:  m.CreatedAt,
		Version:    m.Version,
	}
}

// MemberSummary is the member view shared by the directory and the attendance
// ledger. Status is computed at read time and never persisted.
type MemberSummary struct {
	ID         string
	Name       string
	Phone      string
	Plan       calculator.Plan
	StartDate  time.Time
	EndDate    time.Time
	AmountPaid float64
	Active     bool
	Status     Status
	CreatedAt  int64
	Version    int64
}

// CanCheckIn reports whether the member may be checked in.
func (s MemberSummary) CanCheckIn() bool {
	return s.Status == StatusActive
}
