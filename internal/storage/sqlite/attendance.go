package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Ammar-alrfee/fit-manager/internal/models"
	"github.com/Ammar-alrfee/fit-manager/internal/storage"
)

// AppendCheckIn appends a check-in record to the ledger.
// The (member_id, date) uniqueness constraint rejects same-day duplicates.
func (s *SQLiteStore) AppendCheckIn(ctx context.Context, record *models.AttendanceRecord) error {
	// Generate ID if not set
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.CreatedAt == 0 {
		record.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO attendance (id, member_id, member_name, check_in_time, date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		record.ID, record.MemberID, record.MemberName, record.CheckInTime, record.Date, record.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: member %s already checked in on %s", storage.ErrDuplicate, record.MemberID, record.Date)
	}
	if err != nil {
		return fmt.Errorf("failed to insert check-in: %w", err)
	}

	return nil
}

// ListCheckIns retrieves the check-ins recorded on date, in insertion order.
func (s *SQLiteStore) ListCheckIns(ctx context.Context, date string) ([]*models.AttendanceRecord, error) {
	return s.queryCheckIns(ctx, "date = ?", date)
}

// ListCheckInsSince retrieves the check-ins recorded on or after date, in insertion order.
func (s *SQLiteStore) ListCheckInsSince(ctx context.Context, date string) ([]*models.AttendanceRecord, error) {
	return s.queryCheckIns(ctx, "date >= ?", date)
}

func (s *SQLiteStore) queryCheckIns(ctx context.Context, where string, arg any) ([]*models.AttendanceRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, member_id, member_name, check_in_time, date, created_at
		 FROM attendance WHERE `+where+` ORDER BY seq`,
		arg,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list check-ins: %w", err)
	}
	defer rows.Close()

	records := make([]*models.AttendanceRecord, 0)
	for rows.Next() {
		record := &models.AttendanceRecord{}
		if err := rows.Scan(&record.ID, &record.MemberID, &record.MemberName,
			&record.CheckInTime, &record.Date, &record.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan check-in: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate check-ins: %w", err)
	}

	return records, nil
}
