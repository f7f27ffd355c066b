package calculator

import (
	"math"
	"sort"
	"time"
)

// MemberForReport represents a member with the minimal information needed for reporting.
type MemberForReport struct {
	ID         string
	Name       string
	Phone      string
	Plan       Plan
	StartDate  time.Time
	EndDate    time.Time
	AmountPaid float64
	Active     bool
}

// CheckInForReport represents a check-in with the minimal information needed for reporting.
type CheckInForReport struct {
	MemberID string
	Date     time.Time
}

// Stats are the headline figures of the reports screen.
type Stats struct {
	MonthlyRevenue     float64
	ActiveMembers      int
	TodayCheckIns      int
	ExpiredMemberships int
}

// DayRevenue is the revenue collected and the check-ins recorded on one day.
type DayRevenue struct {
	Date     time.Time
	Weekday  time.Weekday
	Revenue  float64
	CheckIns int
}

// PlanShare is the number and percentage of members on a plan.
type PlanShare struct {
	Plan    Plan
	Count   int
	Percent int
}

// ExpiredMember is a member whose subscription has lapsed.
type ExpiredMember struct {
	ID          string
	Name        string
	Phone       string
	Plan        Plan
	EndDate     time.Time
	ExpiredDays int
}

// Report aggregates the membership and attendance figures at a point in time.
type Report struct {
	GeneratedAt      time.Time
	Stats            Stats
	RevenueByWeekday []DayRevenue
	PlanBreakdown    []PlanShare
	ExpiredMembers   []ExpiredMember
}

// BuildReport computes the report at now.
//
// Algorithm:
// - Revenue is attributed to a member's start date (payment happens at registration/renewal)
// - Monthly revenue: members whose start date falls in now's calendar month
// - Weekday revenue and check-ins: the seven days ending today, oldest first
// - Active members: active flag set and subscription not expired
// - Plan breakdown: every member counts, percent rounded to the nearest integer
func BuildReport(members []MemberForReport, checkIns []CheckInForReport, now time.Time) *Report {
	today := Day(now)
	report := &Report{GeneratedAt: now}

	// Seven-day window, oldest first
	window := make([]DayRevenue, 7)
	for i := range window {
		d := today.AddDate(0, 0, i-6)
		window[i] = DayRevenue{Date: d, Weekday: d.Weekday()}
	}

	counts := make(map[Plan]int, len(Plans))
	for _, m := range members {
		start := Day(m.StartDate)
		if start.Year() == today.Year() && start.Month() == today.Month() {
			report.Stats.MonthlyRevenue += m.AmountPaid
		}
		if offset := int(today.Sub(start).Hours() / 24); offset >= 0 && offset < 7 {
			window[6-offset].Revenue += m.AmountPaid
		}

		counts[m.Plan]++

		if IsExpired(m.EndDate, now) {
			report.Stats.ExpiredMemberships++
			report.ExpiredMembers = append(report.ExpiredMembers, ExpiredMember{
				ID:          m.ID,
				Name:        m.Name,
				Phone:       m.Phone,
				Plan:        m.Plan,
				EndDate:     m.EndDate,
				ExpiredDays: DaysSince(m.EndDate, now),
			})
		} else if m.Active {
			report.Stats.ActiveMembers++
		}
	}

	for _, c := range checkIns {
		offset := int(today.Sub(Day(c.Date)).Hours() / 24)
		if offset == 0 {
			report.Stats.TodayCheckIns++
		}
		if offset >= 0 && offset < 7 {
			window[6-offset].CheckIns++
		}
	}

	report.RevenueByWeekday = window
	report.PlanBreakdown = planBreakdown(counts, len(members))

	// Most recently expired first
	sort.SliceStable(report.ExpiredMembers, func(i, j int) bool {
		return report.ExpiredMembers[i].ExpiredDays < report.ExpiredMembers[j].ExpiredDays
	})

	return report
}

// planBreakdown converts per-plan counts into shares in display order.
func planBreakdown(counts map[Plan]int, total int) []PlanShare {
	shares := make([]PlanShare, 0, len(Plans))
	for _, p := range Plans {
		share := PlanShare{Plan: p, Count: counts[p]}
		if total > 0 {
			share.Percent = int(math.Round(float64(counts[p]) * 100 / float64(total)))
		}
		shares = append(shares, share)
	}
	return shares
}
