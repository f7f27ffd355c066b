package directory

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ammar-alrfee/fit-manager/internal/calculator"
	"github.com/Ammar-alrfee/fit-manager/internal/models"
	"github.com/Ammar-alrfee/fit-manager/internal/storage/memory"
)

func ptr[T any](v T) *T { return &v }

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestService(t *testing.T, now time.Time) (*Service, *clock) {
	t.Helper()
	c := &clock{t: now}
	return New(memory.New()).WithClock(c.now).WithLocation(time.UTC), c
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	svc, c := newTestService(t, time.Date(2024, 1, 20, 9, 0, 0, 0, time.UTC))

	t.Run("computes end date and activates member", func(t *testing.T) {
		m, err := svc.Create(ctx, CreateInput{
			Name:       "Ahmed",
			Phone:      "0123456789",
			Plan:       "monthly",
			StartDate:  "2024-01-01",
			AmountPaid: 200,
		})
		require.NoError(t, err)

		assert.NotEmpty(t, m.ID)
		assert.Equal(t, "2024-02-01", calculator.FormatDate(m.EndDate))
		assert.True(t, m.Active)
		assert.Equal(t, c.t.Unix(), m.CreatedAt)
		assert.Equal(t, int64(1), m.Version)
		assert.Equal(t, models.StatusActive, svc.Summarize(m).Status)
	})

	t.Run("status reads as expired once the end date is reached", func(t *testing.T) {
		m, err := svc.Create(ctx, CreateInput{Name: "Ahmed", Phone: "1", Plan: "monthly", StartDate: "2024-01-01"})
		require.NoError(t, err)

		c.t = time.Date(2024, 1, 31, 23, 0, 0, 0, time.UTC)
		assert.Equal(t, models.StatusActive, svc.Summarize(m).Status)

		c.t = time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, models.StatusExpired, svc.Summarize(m).Status)

		c.t = time.Date(2024, 1, 20, 9, 0, 0, 0, time.UTC)
	})

	tests := []struct {
		name    string
		in      CreateInput
		wantErr error
		field   string
	}{
		{name: "blank name", in: CreateInput{Name: "  ", Phone: "1", Plan: "monthly", StartDate: "2024-01-01"}, wantErr: ErrInvalidInput, field: "name"},
		{name: "missing phone", in: CreateInput{Name: "Ahmed", Plan: "monthly", StartDate: "2024-01-01"}, wantErr: ErrInvalidInput, field: "phone"},
		{name: "negative amount", in: CreateInput{Name: "Ahmed", Phone: "1", Plan: "monthly", StartDate: "2024-01-01", AmountPaid: -1}, wantErr: ErrInvalidInput, field: "amount_paid"},
		{name: "unknown plan", in: CreateInput{Name: "Ahmed", Phone: "1", Plan: "weekly", StartDate: "2024-01-01"}, wantErr: calculator.ErrInvalidPlan},
		{name: "bad start date", in: CreateInput{Name: "Ahmed", Phone: "1", Plan: "monthly", StartDate: "2024-02-30"}, wantErr: calculator.ErrInvalidDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before, err := svc.All(ctx)
			require.NoError(t, err)

			_, err = svc.Create(ctx, tt.in)
			require.ErrorIs(t, err, tt.wantErr)

			if tt.field != "" {
				var verr *ValidationError
				require.True(t, errors.As(err, &verr))
				require.Len(t, verr.Fields, 1)
				assert.Equal(t, tt.field, verr.Fields[0].Field)
				assert.NotEmpty(t, verr.Fields[0].Message)
			}

			after, err := svc.All(ctx)
			require.NoError(t, err)
			assert.Len(t, after, len(before))
		})
	}
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))

	created, err := svc.Create(ctx, CreateInput{Name: "Fatima", Phone: "0987654321", Plan: "quarterly", StartDate: "2024-01-15", AmountPaid: 500})
	require.NoError(t, err)

	t.Run("changing start date recomputes end date", func(t *testing.T) {
		updated, err := svc.Update(ctx, created.ID, UpdateInput{StartDate: ptr("2024-02-10")})
		require.NoError(t, err)

		want, err := calculator.ComputeEndDateString("2024-02-10", "quarterly")
		require.NoError(t, err)
		assert.Equal(t, want, calculator.FormatDate(updated.EndDate))

		read, err := svc.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, want, calculator.FormatDate(read.EndDate))
	})

	t.Run("changing plan recomputes end date", func(t *testing.T) {
		updated, err := svc.Update(ctx, created.ID, UpdateInput{Plan: ptr("yearly")})
		require.NoError(t, err)
		assert.Equal(t, calculator.PlanYearly, updated.Plan)
		assert.Equal(t, "2025-02-10", calculator.FormatDate(updated.EndDate))
	})

	t.Run("merges only supplied fields", func(t *testing.T) {
		updated, err := svc.Update(ctx, created.ID, UpdateInput{Name: ptr("Fatima Ali"), Active: ptr(false)})
		require.NoError(t, err)

		assert.Equal(t, "Fatima Ali", updated.Name)
		assert.Equal(t, "0987654321", updated.Phone)
		assert.Equal(t, 500.0, updated.AmountPaid)
		assert.False(t, updated.Active)
		assert.Equal(t, created.CreatedAt, updated.CreatedAt)
		assert.Equal(t, created.ID, updated.ID)
	})

	t.Run("version increments and stale versions are rejected", func(t *testing.T) {
		current, err := svc.Get(ctx, created.ID)
		require.NoError(t, err)

		_, err = svc.Update(ctx, created.ID, UpdateInput{AmountPaid: ptr(1800.0), ExpectedVersion: current.Version - 1})
		assert.ErrorIs(t, err, ErrVersionConflict)

		updated, err := svc.Update(ctx, created.ID, UpdateInput{AmountPaid: ptr(1800.0), ExpectedVersion: current.Version})
		require.NoError(t, err)
		assert.Equal(t, current.Version+1, updated.Version)
	})

	t.Run("invalid fields", func(t *testing.T) {
		_, err := svc.Update(ctx, created.ID, UpdateInput{Name: ptr(" ")})
		assert.ErrorIs(t, err, ErrInvalidInput)

		_, err = svc.Update(ctx, created.ID, UpdateInput{AmountPaid: ptr(-5.0)})
		assert.ErrorIs(t, err, ErrInvalidInput)

		_, err = svc.Update(ctx, created.ID, UpdateInput{Plan: ptr("daily")})
		assert.ErrorIs(t, err, calculator.ErrInvalidPlan)

		_, err = svc.Update(ctx, created.ID, UpdateInput{StartDate: ptr("tomorrow")})
		assert.ErrorIs(t, err, calculator.ErrInvalidDate)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := svc.Update(ctx, "missing", UpdateInput{Name: ptr("x")})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, time.Now())

	m, err := svc.Create(ctx, CreateInput{Name: "Omar", Phone: "1", Plan: "monthly", StartDate: "2024-01-01"})
	require.NoError(t, err)

	t.Run("unknown id leaves collection unchanged", func(t *testing.T) {
		err := svc.Remove(ctx, "does-not-exist", 0)
		assert.ErrorIs(t, err, ErrNotFound)

		all, err := svc.All(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("stale version is rejected", func(t *testing.T) {
		err := svc.Remove(ctx, m.ID, m.Version+1)
		assert.ErrorIs(t, err, ErrVersionConflict)
	})

	t.Run("removes member", func(t *testing.T) {
		require.NoError(t, svc.Remove(ctx, m.ID, m.Version))

		_, err := svc.Get(ctx, m.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestSummarize_UsesDirectoryLocation(t *testing.T) {
	ctx := context.Background()
	svc, c := newTestService(t, time.Date(2024, 1, 20, 9, 0, 0, 0, time.UTC))

	m, err := svc.Create(ctx, CreateInput{Name: "Ahmed", Phone: "1", Plan: "monthly", StartDate: "2024-01-01"})
	require.NoError(t, err)

	c.t = time.Date(2024, 1, 31, 22, 0, 0, 0, time.UTC)
	assert.Equal(t, models.StatusActive, svc.Summarize(m).Status)

	svc.WithLocation(time.FixedZone("UTC+3", 3*60*60))
	assert.Equal(t, models.StatusExpired, svc.Summarize(m).Status)

	found, err := svc.Search(ctx, "ahmed")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, models.StatusExpired, found[0].Status)
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC))

	for _, in := range []CreateInput{
		{Name: "Ahmed Mohamed", Phone: "0123456789", Plan: "monthly", StartDate: "2024-01-01"},
		{Name: "Fatima Ali", Phone: "0987654321", Plan: "quarterly", StartDate: "2024-01-15"},
		{Name: "Mohamed Salah", Phone: "0555000111", Plan: "yearly", StartDate: "2024-01-10"},
	} {
		_, err := svc.Create(ctx, in)
		require.NoError(t, err)
	}

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{name: "empty query returns everyone", query: "", want: []string{"Ahmed Mohamed", "Fatima Ali", "Mohamed Salah"}},
		{name: "blank query returns everyone", query: "   ", want: []string{"Ahmed Mohamed", "Fatima Ali", "Mohamed Salah"}},
		{name: "name is case-insensitive", query: "mohamed", want: []string{"Ahmed Mohamed", "Mohamed Salah"}},
		{name: "phone substring", query: "98765", want: []string{"Fatima Ali"}},
		{name: "name or phone", query: "0", want: []string{"Ahmed Mohamed", "Fatima Ali", "Mohamed Salah"}},
		{name: "no match", query: "zzz", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := svc.Search(ctx, tt.query)
			require.NoError(t, err)

			names := make([]string, 0, len(results))
			for _, r := range results {
				names = append(names, r.Name)
				assert.NotEmpty(t, r.Status)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestList(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC))

	for i := 1; i <= 12; i++ {
		_, err := svc.Create(ctx, CreateInput{
			Name:      fmt.Sprintf("Member %02d", i),
			Phone:     fmt.Sprintf("05%08d", i),
			Plan:      "monthly",
			StartDate: "2024-01-01",
		})
		require.NoError(t, err)
	}
	_, err := svc.Create(ctx, CreateInput{Name: "Someone Else", Phone: "0999", Plan: "monthly", StartDate: "2024-01-01"})
	require.NoError(t, err)

	t.Run("second page of twelve filtered members", func(t *testing.T) {
		page, err := svc.List(ctx, "member", 2, 10)
		require.NoError(t, err)

		assert.Equal(t, 12, page.Total)
		require.Len(t, page.Members, 2)
		assert.Equal(t, "Member 11", page.Members[0].Name)
		assert.Equal(t, "Member 12", page.Members[1].Name)
		assert.Equal(t, 2, page.Pages())
	})

	t.Run("first page keeps insertion order", func(t *testing.T) {
		page, err := svc.List(ctx, "", 1, 5)
		require.NoError(t, err)

		assert.Equal(t, 13, page.Total)
		require.Len(t, page.Members, 5)
		assert.Equal(t, "Member 01", page.Members[0].Name)
		assert.Equal(t, "Member 05", page.Members[4].Name)
	})

	t.Run("page past the end is empty", func(t *testing.T) {
		page, err := svc.List(ctx, "member", 5, 10)
		require.NoError(t, err)
		assert.Equal(t, 12, page.Total)
		assert.Empty(t, page.Members)
	})

	t.Run("invalid page arguments", func(t *testing.T) {
		_, err := svc.List(ctx, "", 0, 10)
		assert.ErrorIs(t, err, ErrInvalidPage)

		_, err = svc.List(ctx, "", 1, 0)
		assert.ErrorIs(t, err, ErrInvalidPage)
	})
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, time.Now())

	n, err := svc.Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(SampleMembers), n)

	n, err = svc.Seed(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	all, err := svc.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, len(SampleMembers))
}
