// Package attendance implements the attendance ledger: finding members who
// may check in, recording check-ins and listing today's log.
package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Ammar-alrfee/fit-manager/internal/metrics"
	"github.com/Ammar-alrfee/fit-manager/internal/models"
	"github.com/Ammar-alrfee/fit-manager/internal/storage"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

var (
	ErrNotEligible      = errors.New("member is not eligible for check-in")
	ErrAlreadyCheckedIn = errors.New("member already checked in today")
)

// Directory is the part of the member directory the ledger reads from.
// Its clock is the ledger's default clock.
type Directory interface {
	Now() time.Time
	Get(ctx context.Context, id string) (*models.Member, error)
	Search(ctx context.Context, query string) ([]models.MemberSummary, error)
}

// Ledger records check-ins. Records are only ever appended.
type Ledger struct {
	directory Directory
	store     storage.AttendanceStore
	now       func() time.Time
	location  *time.Location
	tracer    trace.Tracer
}

// New creates a ledger reading members from directory and writing to store.
// The ledger shares the directory's clock and time zone unless overridden.
func New(directory Directory, store storage.AttendanceStore) *Ledger {
	return &Ledger{
		directory: directory,
		store:     store,
		now:       directory.Now,
		tracer:    otel.Tracer("fitmanager/attendance"),
	}
}

// WithClock replaces the clock used for check-in times and eligibility.
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

// WithLocation sets the time zone whose calendar day decides eligibility and
// in which check-in dates and times are recorded.
func (l *Ledger) WithLocation(loc *time.Location) *Ledger {
	l.location = loc
	return l
}

// Now returns the ledger's current time. Eligibility, record dates and the
// report window all use it.
func (l *Ledger) Now() time.Time {
	now := l.now()
	if l.location != nil {
		now = now.In(l.location)
	}
	return now
}

// Today returns the ledger's current calendar date, "YYYY-MM-DD".
func (l *Ledger) Today() string {
	return l.Now().Format(dateLayout)
}

// FindCheckinCandidates returns the members matching query who may check in now.
// A blank query returns no candidates.
func (l *Ledger) FindCheckinCandidates(ctx context.Context, query string) ([]models.MemberSummary, error) {
	ctx, span := l.tracer.Start(ctx, "attendance.find_candidates")
	defer span.End()

	candidates := make([]models.MemberSummary, 0)
	if strings.TrimSpace(query) == "" {
		return candidates, nil
	}

	matches, err := l.directory.Search(ctx, query)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to search members: %w", err)
	}

	now := l.Now()
	for _, m := range matches {
		member := models.Member{EndDate: m.EndDate, Active: m.Active}
		if member.StatusAt(now) == models.StatusActive {
			candidates = append(candidates, m)
		}
	}

	span.SetAttributes(attribute.Int("result.count", len(candidates)))
	return candidates, nil
}

// CheckIn appends a check-in for the member.
//
// It fails with ErrNotEligible when the member is inactive or their
// subscription has expired, and with ErrAlreadyCheckedIn when the member
// already has a record today. Nothing is appended in either case.
func (l *Ledger) CheckIn(ctx context.Context, memberID string) (*models.AttendanceRecord, error) {
	ctx, span := l.tracer.Start(ctx, "attendance.check_in",
		trace.WithAttributes(attribute.String("member.id", memberID)))
	defer span.End()

	member, err := l.directory.Get(ctx, memberID)
	if err != nil {
		return nil, l.fail(span, metrics.ResultError, err)
	}

	now := l.Now()
	if status := member.StatusAt(now); status != models.StatusActive {
		return nil, l.fail(span, metrics.ResultNotEligible,
			fmt.Errorf("%w: member %s is %s", ErrNotEligible, memberID, status))
	}

	record := &models.AttendanceRecord{
		MemberID:    member.ID,
		MemberName:  member.Name,
		CheckInTime: now.Format(timeLayout),
		Date:        now.Format(dateLayout),
		CreatedAt:   now.Unix(),
	}

	if err := l.store.AppendCheckIn(ctx, record); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, l.fail(span, metrics.ResultDuplicate,
				fmt.Errorf("%w: member %s on %s", ErrAlreadyCheckedIn, memberID, record.Date))
		}
		return nil, l.fail(span, metrics.ResultError, fmt.Errorf("failed to record check-in: %w", err))
	}

	metrics.CheckIns.WithLabelValues(metrics.ResultOK).Inc()
	slog.Info("Member checked in",
		"member_id", record.MemberID,
		"record_id", record.ID,
		"time", record.CheckInTime,
	)
	return record, nil
}

// TodayRecords returns today's check-ins, newest first.
func (l *Ledger) TodayRecords(ctx context.Context) ([]*models.AttendanceRecord, error) {
	records, err := l.store.ListCheckIns(ctx, l.Today())
	if err != nil {
		return nil, fmt.Errorf("failed to list today's check-ins: %w", err)
	}

	// Store order is insertion order; reverse it
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}

// RecordsSince returns the check-ins of the last days calendar days,
// today included, in insertion order.
func (l *Ledger) RecordsSince(ctx context.Context, days int) ([]*models.AttendanceRecord, error) {
	if days < 1 {
		days = 1
	}
	since := l.Now().AddDate(0, 0, 1-days).Format(dateLayout)
	records, err := l.store.ListCheckInsSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list check-ins since %s: %w", since, err)
	}
	return records, nil
}

func (l *Ledger) fail(span trace.Span, result string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	metrics.CheckIns.WithLabelValues(result).Inc()
	slog.Warn("Check-in rejected", "error", err)
	return err
}
