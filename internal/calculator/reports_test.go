package calculator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildReport(t *testing.T) {
	now := time.Date(2024, 3, 20, 10, 0, 0, 0, time.UTC)

	member := func(id string, plan Plan, start string, amount float64, active bool) MemberForReport {
		s := date(t, start)
		end, err := ComputeEndDate(s, plan)
		require.NoError(t, err)
		return MemberForReport{ID: id, Name: "member " + id, Plan: plan, StartDate: s, EndDate: end, AmountPaid: amount, Active: active}
	}

	members := []MemberForReport{
		member("1", PlanMonthly, "2024-01-01", 200, true),   // expired 2024-02-01
		member("2", PlanQuarterly, "2024-01-15", 500, true), // active until 2024-04-15
		member("3", PlanMonthly, "2024-03-18", 200, true),   // this month, within 7 days
		member("4", PlanYearly, "2024-03-02", 1800, false),  // this month, deactivated
		member("5", PlanMonthly, "2024-02-10", 200, true),   // expired 2024-03-10
	}
	checkIns := []CheckInForReport{
		{MemberID: "2", Date: date(t, "2024-03-20")},
		{MemberID: "3", Date: date(t, "2024-03-20")},
		{MemberID: "3", Date: date(t, "2024-03-19")},
	}

	report := BuildReport(members, checkIns, now)

	t.Run("stats", func(t *testing.T) {
		assert.Equal(t, 2000.0, report.Stats.MonthlyRevenue)
		assert.Equal(t, 2, report.Stats.ActiveMembers)
		assert.Equal(t, 2, report.Stats.TodayCheckIns)
		assert.Equal(t, 2, report.Stats.ExpiredMemberships)
	})

	t.Run("revenue by weekday covers the last seven days", func(t *testing.T) {
		require.Len(t, report.RevenueByWeekday, 7)
		assert.Equal(t, "2024-03-14", FormatDate(report.RevenueByWeekday[0].Date))
		assert.Equal(t, "2024-03-20", FormatDate(report.RevenueByWeekday[6].Date))
		assert.Equal(t, time.Wednesday, report.RevenueByWeekday[6].Weekday)
		assert.Equal(t, 200.0, report.RevenueByWeekday[4].Revenue) // 2024-03-18

		var total float64
		for _, d := range report.RevenueByWeekday {
			total += d.Revenue
		}
		assert.Equal(t, 200.0, total)
	})

	t.Run("check-ins by day", func(t *testing.T) {
		assert.Equal(t, 2, report.RevenueByWeekday[6].CheckIns)
		assert.Equal(t, 1, report.RevenueByWeekday[5].CheckIns)
		assert.Zero(t, report.RevenueByWeekday[0].CheckIns)
	})

	t.Run("plan breakdown", func(t *testing.T) {
		require.Len(t, report.PlanBreakdown, 3)
		assert.Equal(t, PlanShare{Plan: PlanMonthly, Count: 3, Percent: 60}, report.PlanBreakdown[0])
		assert.Equal(t, PlanShare{Plan: PlanQuarterly, Count: 1, Percent: 20}, report.PlanBreakdown[1])
		assert.Equal(t, PlanShare{Plan: PlanYearly, Count: 1, Percent: 20}, report.PlanBreakdown[2])
	})

	t.Run("expired members most recent first", func(t *testing.T) {
		require.Len(t, report.ExpiredMembers, 2)
		assert.Equal(t, "5", report.ExpiredMembers[0].ID)
		assert.Equal(t, 10, report.ExpiredMembers[0].ExpiredDays)
		assert.Equal(t, "1", report.ExpiredMembers[1].ID)
		assert.Equal(t, 48, report.ExpiredMembers[1].ExpiredDays)
	})
}

func TestBuildReport_Empty(t *testing.T) {
	report := BuildReport(nil, nil, time.Now())

	assert.Zero(t, report.Stats)
	assert.Len(t, report.RevenueByWeekday, 7)
	for _, share := range report.PlanBreakdown {
		assert.Zero(t, share.Count)
		assert.Zero(t, share.Percent)
	}
	assert.Empty(t, report.ExpiredMembers)
}
