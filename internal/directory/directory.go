// Package directory implements the member directory: registration, edits,
// removal, search and pagination of gym members.
package directory

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

	"github.com/Ammar-alrfee/fit-manager/internal/calculator"
	"github.com/Ammar-alrfee/fit-manager/internal/metrics"
	"github.com/Ammar-alrfee/fit-manager/internal/models"
	"github.com/Ammar-alrfee/fit-manager/internal/storage"
)

var (
	ErrNotFound        = errors.New("member not found")
	ErrInvalidInput    = errors.New("invalid member input")
	ErrVersionConflict = errors.New("member was modified by someone else")
	ErrInvalidPage     = errors.New("page and page size must be at least 1")
)

// CreateInput holds the fields of a new member. The end date is not an input:
// it is always computed from StartDate and Plan.
type CreateInput struct {
	Name       string  `json:"name" validate:"required"`
	Phone      string  `json:"phone" validate:"required"`
	Plan       string  `json:"plan"`
	StartDate  string  `json:"start_date"`
	AmountPaid float64 `json:"amount_paid" validate:"gte=0"`
}

// UpdateInput holds a partial update. Nil fields are left unchanged.
// ExpectedVersion, when non-zero, must match the member's current version.
type UpdateInput struct {
	Name            *string  `json:"name" validate:"omitnil,min=1"`
	Phone           *string  `json:"phone" validate:"omitnil,min=1"`
	Plan            *string  `json:"plan"`
	StartDate       *string  `json:"start_date"`
	AmountPaid      *float64 `json:"amount_paid" validate:"omitnil,gte=0"`
	Active          *bool    `json:"active"`
	ExpectedVersion int64    `json:"expected_version" validate:"gte=0"`
}

// Page is one page of a filtered member listing.
type Page struct {
	Members  []models.MemberSummary
	Total    int
	Page     int
	PageSize int
}

// Pages returns the number of pages needed for Total members.
func (p *Page) Pages() int {
	if p.PageSize <= 0 {
		return 0
	}
	return (p.Total + p.PageSize - 1) / p.PageSize
}

// Service owns the member collection. It is the only writer of members.
type Service struct {
	store    storage.MemberStore
	now      func() time.Time
	location *time.Location
	tracer   trace.Tracer
}

// New creates a directory over the given member store.
func New(store storage.MemberStore) *Service {
	return &Service{
		store:    store,
		now:      time.Now,
		location: time.Local,
		tracer:   otel.Tracer("fitmanager/directory"),
	}
}

// WithClock replaces the clock used for creation timestamps and status derivation.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// WithLocation sets the time zone whose calendar day decides member status.
func (s *Service) WithLocation(loc *time.Location) *Service {
	s.location = loc
	return s
}

// Now returns the directory's current time in its location.
func (s *Service) Now() time.Time {
	return s.now().In(s.location)
}

// Summarize derives the read-side view of m at the current time.
func (s *Service) Summarize(m *models.Member) models.MemberSummary {
	return m.Summarize(s.Now())
}

// Create registers a new, active member.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Member, error) {
	ctx, span := s.tracer.Start(ctx, "directory.create")
	defer span.End()

	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	if err := validateStruct(in); err != nil {
		return nil, s.fail(span, "create", err)
	}

	plan, start, end, err := period(in.Plan, in.StartDate)
	if err != nil {
		return nil, s.fail(span, "create", err)
	}

	member := &models.Member{
		Name:       in.Name,
		Phone:      in.Phone,
		Plan:       plan,
		StartDate:  start,
		EndDate:    end,
		AmountPaid: in.AmountPaid,
		Active:     true,
		CreatedAt:  s.now().Unix(),
	}
	if err := s.store.CreateMember(ctx, member); err != nil {
		return nil, s.fail(span, "create", fmt.Errorf("failed to create member: %w", err))
	}

	span.SetAttributes(attribute.String("member.id", member.ID))
	metrics.MemberOperations.WithLabelValues("create", metrics.ResultOK).Inc()
	slog.Info("Member created",
		"member_id", member.ID,
		"plan", member.Plan,
		"end_date", calculator.FormatDate(member.EndDate),
	)
	return member, nil
}

// Update merges the supplied fields onto the member and recomputes its end date.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*models.Member, error) {
	ctx, span := s.tracer.Start(ctx, "directory.update",
		trace.WithAttributes(attribute.String("member.id", id)))
	defer span.End()

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		in.Name = &name
	}
	if in.Phone != nil {
		phone := strings.TrimSpace(*in.Phone)
		in.Phone = &phone
	}
	if err := validateStruct(in); err != nil {
		return nil, s.fail(span, "update", err)
	}

	member, err := s.store.GetMember(ctx, id)
	if err != nil {
		return nil, s.fail(span, "update", translate(err, id))
	}
	if in.ExpectedVersion != 0 && in.ExpectedVersion != member.Version {
		return nil, s.fail(span, "update", fmt.Errorf("%w: member %s is at version %d, expected %d",
			ErrVersionConflict, id, member.Version, in.ExpectedVersion))
	}
	readVersion := member.Version

	if in.Name != nil {
		member.Name = *in.Name
	}
	if in.Phone != nil {
		member.Phone = *in.Phone
	}
	if in.AmountPaid != nil {
		member.AmountPaid = *in.AmountPaid
	}
	if in.Active != nil {
		member.Active = *in.Active
	}

	planText := string(member.Plan)
	if in.Plan != nil {
		planText = *in.Plan
	}
	startText := calculator.FormatDate(member.StartDate)
	if in.StartDate != nil {
		startText = *in.StartDate
	}
	member.Plan, member.StartDate, member.EndDate, err = period(planText, startText)
	if err != nil {
		return nil, s.fail(span, "update", err)
	}

	// Write against the version we merged onto so a concurrent edit is not lost
	if err := s.store.UpdateMember(ctx, member, readVersion); err != nil {
		return nil, s.fail(span, "update", translate(err, id))
	}

	metrics.MemberOperations.WithLabelValues("update", metrics.ResultOK).Inc()
	slog.Info("Member updated",
		"member_id", member.ID,
		"version", member.Version,
		"end_date", calculator.FormatDate(member.EndDate),
	)
	return member, nil
}

// Remove deletes a member unconditionally. Asking the user for confirmation
// is the caller's job and must happen before Remove is called.
// A non-zero expectedVersion must match the member's current version.
func (s *Service) Remove(ctx context.Context, id string, expectedVersion int64) error {
	ctx, span := s.tracer.Start(ctx, "directory.remove",
		trace.WithAttributes(attribute.String("member.id", id)))
	defer span.End()

	if err := s.store.DeleteMember(ctx, id, expectedVersion); err != nil {
		return s.fail(span, "remove", translate(err, id))
	}

	metrics.MemberOperations.WithLabelValues("remove", metrics.ResultOK).Inc()
	slog.Info("Member removed", "member_id", id)
	return nil
}

// Get returns the member with the given ID.
func (s *Service) Get(ctx context.Context, id string) (*models.Member, error) {
	member, err := s.store.GetMember(ctx, id)
	if err != nil {
		return nil, translate(err, id)
	}
	return member, nil
}

// All returns every member in insertion order.
func (s *Service) All(ctx context.Context) ([]*models.Member, error) {
	members, err := s.store.ListMembers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return members, nil
}

// Search returns the members whose name contains query (case-insensitive) or
// whose phone number contains query, in insertion order.
// An empty or blank query matches every member.
func (s *Service) Search(ctx context.Context, query string) ([]models.MemberSummary, error) {
	ctx, span := s.tracer.Start(ctx, "directory.search")
	defer span.End()

	members, err := s.All(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	now := s.Now()
	q := strings.TrimSpace(query)
	lower := strings.ToLower(q)

	results := make([]models.MemberSummary, 0, len(members))
	for _, m := range members {
		if q == "" || strings.Contains(strings.ToLower(m.Name), lower) || strings.Contains(m.Phone, q) {
			results = append(results, m.Summarize(now))
		}
	}

	span.SetAttributes(attribute.Int("result.count", len(results)))
	return results, nil
}

// List returns the 1-indexed page of the members matching query.
// Total counts the filtered set. A page past the end is empty.
func (s *Service) List(ctx context.Context, query string, page, pageSize int) (*Page, error) {
	if page < 1 || pageSize < 1 {
		return nil, fmt.Errorf("%w: page=%d page_size=%d", ErrInvalidPage, page, pageSize)
	}

	matches, err := s.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	result := &Page{
		Members:  []models.MemberSummary{},
		Total:    len(matches),
		Page:     page,
		PageSize: pageSize,
	}

	start := (page - 1) * pageSize
	if start >= len(matches) {
		return result, nil
	}
	end := min(start+pageSize, len(matches))
	result.Members = matches[start:end]
	return result, nil
}

// period parses plan and start date and derives the end date.
func period(planText, startText string) (calculator.Plan, time.Time, time.Time, error) {
	plan, err := calculator.ParsePlan(planText)
	if err != nil {
		return "", time.Time{}, time.Time{}, err
	}
	start, err := calculator.ParseDate(startText)
	if err != nil {
		return "", time.Time{}, time.Time{}, err
	}
	end, err := calculator.ComputeEndDate(start, plan)
	if err != nil {
		return "", time.Time{}, time.Time{}, err
	}
	return plan, start, end, nil
}

// translate maps storage errors onto directory errors.
func translate(err error, id string) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	case errors.Is(err, storage.ErrVersionConflict):
		return fmt.Errorf("%w: %v", ErrVersionConflict, err)
	}
	return err
}

// fail records err on the span and the operations counter, then returns it.
func (s *Service) fail(span trace.Span, operation string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	result := metrics.ResultError
	switch {
	case errors.Is(err, ErrNotFound):
		result = metrics.ResultNotFound
	case errors.Is(err, ErrVersionConflict):
		result = metrics.ResultConflict
	case errors.Is(err, ErrInvalidInput), errors.Is(err, calculator.ErrInvalidPlan), errors.Is(err, calculator.ErrInvalidDate):
		result = metrics.ResultInvalid
	}
	metrics.MemberOperations.WithLabelValues(operation, result).Inc()

	slog.Warn("Member "+operation+" failed", "error", err)
	return err
}
