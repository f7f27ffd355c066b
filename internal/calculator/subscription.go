package calculator

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar date format used for start and end dates.
const DateLayout = "2006-01-02"

var (
	ErrInvalidPlan = errors.New("invalid subscription plan")
	ErrInvalidDate = errors.New("invalid calendar date")
)

// Plan is a subscription plan. It fully determines the subscription length.
type Plan string

const (
	PlanMonthly   Plan = "monthly"
	PlanQuarterly Plan = "quarterly"
	PlanYearly    Plan = "yearly"
)

// Plans lists the recognized plans in display order.
var Plans = []Plan{PlanMonthly, PlanQuarterly, PlanYearly}

// ParsePlan converts a plan name into a Plan. Matching is case-insensitive.
func ParsePlan(s string) (Plan, error) {
	p := Plan(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPlan, s)
	}
	return p, nil
}

// Valid reports whether p is one of the recognized plans.
func (p Plan) Valid() bool {
	switch p {
	case PlanMonthly, PlanQuarterly, PlanYearly:
		return true
	}
	return false
}

// offset returns the (years, months) added by the plan.
func (p Plan) offset() (int, int, error) {
	switch p {
	case PlanMonthly:
		return 0, 1, nil
	case PlanQuarterly:
		return 0, 3, nil
	case PlanYearly:
		return 1, 0, nil
	}
	return 0, 0, fmt.Errorf("%w: %q", ErrInvalidPlan, string(p))
}

// ParseDate parses a YYYY-MM-DD calendar date. The result is midnight UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// FormatDate renders a calendar date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Day returns the calendar day of t as midnight UTC, using t's own
// year, month and day. Two instants on the same local day map to the same Day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ComputeEndDate returns the end of a subscription starting on start.
//
// Month arithmetic overflows into the following month when the target month
// is shorter than the start day: Jan 31 + 1 month is Mar 2 (Mar 3 in a
// non-leap year), and Feb 29 + 1 year is Mar 1. The same rule applies to all plans.
func ComputeEndDate(start time.Time, plan Plan) (time.Time, error) {
	if start.IsZero() {
		return time.Time{}, fmt.Errorf("%w: zero start date", ErrInvalidDate)
	}
	years, months, err := plan.offset()
	if err != nil {
		return time.Time{}, err
	}
	return Day(start).AddDate(years, months, 0), nil
}

// ComputeEndDateString is ComputeEndDate over the textual forms used at the edges.
func ComputeEndDateString(start, plan string) (string, error) {
	p, err := ParsePlan(plan)
	if err != nil {
		return "", err
	}
	s, err := ParseDate(start)
	if err != nil {
		return "", err
	}
	end, err := ComputeEndDate(s, p)
	if err != nil {
		return "", err
	}
	return FormatDate(end), nil
}

// IsExpired reports whether a subscription ending on end has lapsed at now.
//
// Both operands are truncated to the calendar day. The end date is the first
// day no longer covered (Jan 1 + 1 month ends on Feb 1), so the subscription
// is expired from the start of its end date onwards.
func IsExpired(end, now time.Time) bool {
	return !Day(now).Before(Day(end))
}

// DaysSince returns the number of whole calendar days from end to now,
// or 0 when the subscription has not expired.
func DaysSince(end, now time.Time) int {
	if !IsExpired(end, now) {
		return 0
	}
	return int(Day(now).Sub(Day(end)).Hours() / 24)
}

// Prices maps a plan to its list price.
type Prices map[Plan]float64

// DefaultPrices are the list prices shown when registering a member.
var DefaultPrices = Prices{
	PlanMonthly:   200,
	PlanQuarterly: 500,
	PlanYearly:    1800,
}

// For returns the price of plan, falling back to DefaultPrices.
func (p Prices) For(plan Plan) (float64, error) {
	if !plan.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPlan, string(plan))
	}
	if price, ok := p[plan]; ok {
		return price, nil
	}
	return DefaultPrices[plan], nil
}
