package models

// AttendanceRecord represents one check-in on the attendance ledger.
// Records are immutable once created.
type AttendanceRecord struct {
	// ID is the unique identifier for the record (UUID format).
	ID string

	// MemberID references the member who checked in.
	MemberID string

	// MemberName is the member's name at check-in time (denormalized for display).
	MemberName string

	// CheckInTime is the local time of day of the check-in, "HH:MM" (24h).
	CheckInTime string

	// Date is the local calendar date of the check-in, "YYYY-MM-DD".
	Date string

	// CreatedAt is the Unix timestamp of the check-in.
	CreatedAt int64
}
