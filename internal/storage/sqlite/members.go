package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Ammar-alrfee/fit-manager/internal/calculator"
	"github.com/Ammar-alrfee/fit-manager/internal/models"
	"github.com/Ammar-alrfee/fit-manager/internal/storage"
)

const memberColumns = `id, name, phone, plan, start_date, end_date, amount_paid, active, created_at, version`

// CreateMember inserts a new member into the database.
func (s *SQLiteStore) CreateMember(ctx context.Context, member *models.Member) error {
	// Generate IDs if not set
	if member.ID == "" {
		member.ID = uuid.New().String()
	}
	if member.CreatedAt == 0 {
		member.CreatedAt = time.Now().Unix()
	}
	if member.Version == 0 {
		member.Version = 1
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO members (`+memberColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		member.ID,
		member.Name,
		member.Phone,
		string(member.Plan),
		calculator.FormatDate(member.StartDate),
		calculator.FormatDate(member.EndDate),
		member.AmountPaid,
		member.Active,
		member.CreatedAt,
		member.Version,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: member %s", storage.ErrDuplicate, member.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to insert member: %w", err)
	}

	return nil
}

// GetMember retrieves a member by ID.
func (s *SQLiteStore) GetMember(ctx context.Context, id string) (*models.Member, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+memberColumns+` FROM members WHERE id = ?`,
		id,
	)

	member, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: member %s", storage.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}

	return member, nil
}

// UpdateMember overwrites a member and increments its version.
func (s *SQLiteStore) UpdateMember(ctx context.Context, member *models.Member, expectedVersion int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	current, createdAt, err := lockVersion(ctx, tx, member.ID, expectedVersion)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE members
		 SET name = ?, phone = ?, plan = ?, start_date = ?, end_date = ?, amount_paid = ?, active = ?, version = ?
		 WHERE id = ?`,
		member.Name,
		member.Phone,
		string(member.Plan),
		calculator.FormatDate(member.StartDate),
		calculator.FormatDate(member.EndDate),
		member.AmountPaid,
		member.Active,
		current+1,
		member.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update member: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	member.Version = current + 1
	member.CreatedAt = createdAt
	return nil
}

// DeleteMember removes a member by ID.
func (s *SQLiteStore) DeleteMember(ctx context.Context, id string, expectedVersion int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, _, err := lockVersion(ctx, tx, id, expectedVersion); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM members WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete member: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ListMembers returns all members in insertion order.
func (s *SQLiteStore) ListMembers(ctx context.Context) ([]*models.Member, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+memberColumns+` FROM members ORDER BY seq`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	members := make([]*models.Member, 0)
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}

	return members, nil
}

// lockVersion reads the stored version inside tx and enforces expectedVersion.
func lockVersion(ctx context.Context, tx *sql.Tx, id string, expectedVersion int64) (int64, int64, error) {
	var version, createdAt int64
	err := tx.QueryRowContext(ctx,
		"SELECT version, created_at FROM members WHERE id = ?", id,
	).Scan(&version, &createdAt)
	if err == sql.ErrNoRows {
		return 0, 0, fmt.Errorf("%w: member %s", storage.ErrNotFound, id)
	}
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read member version: %w", err)
	}
	if expectedVersion != 0 && version != expectedVersion {
		return 0, 0, fmt.Errorf("%w: member %s at version %d, expected %d",
			storage.ErrVersionConflict, id, version, expectedVersion)
	}
	return version, createdAt, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMember(row rowScanner) (*models.Member, error) {
	var (
		member     models.Member
		plan       string
		start, end string
	)
	err := row.Scan(
		&member.ID,
		&member.Name,
		&member.Phone,
		&plan,
		&start,
		&end,
		&member.AmountPaid,
		&member.Active,
		&member.CreatedAt,
		&member.Version,
	)
	if err != nil {
		return nil, err
	}

	member.Plan = calculator.Plan(plan)
	if member.StartDate, err = calculator.ParseDate(start); err != nil {
		return nil, fmt.Errorf("member %s start date: %w", member.ID, err)
	}
	if member.EndDate, err = calculator.ParseDate(end); err != nil {
		return nil, fmt.Errorf("member %s end date: %w", member.ID, err)
	}

	return &member, nil
}
