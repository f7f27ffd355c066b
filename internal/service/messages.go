package service

import (
	"time"

	"github.com/Ammar-alrfee/fit-manager/internal/calculator"
	"github.com/Ammar-alrfee/fit-manager/internal/models"
	"github.com/Ammar-alrfee/fit-manager/internal/session"
)

// Procedure paths, one per RPC.
const (
	ProcedureLogin = "/fitmanager.v1.AuthService/Login"
	ProcedureMe    = "/fitmanager.v1.AuthService/Me"

	ProcedureCreateMember = "/fitmanager.v1.MemberService/CreateMember"
	ProcedureUpdateMember = "/fitmanager.v1.MemberService/UpdateMember"
	ProcedureDeleteMember = "/fitmanager.v1.MemberService/DeleteMember"
	ProcedureGetMember    = "/fitmanager.v1.MemberService/GetMember"
	ProcedureListMembers  = "/fitmanager.v1.MemberService/ListMembers"
	ProcedureListPlans    = "/fitmanager.v1.MemberService/ListPlans"

	ProcedureFindCandidates = "/fitmanager.v1.AttendanceService/FindCandidates"
	ProcedureCheckIn        = "/fitmanager.v1.AttendanceService/CheckIn"
	ProcedureTodayRecords   = "/fitmanager.v1.AttendanceService/TodayRecords"

	ProcedureGetReport = "/fitmanager.v1.ReportService/GetReport"
)

// ProcedureAreas maps each gated procedure to the area it belongs to.
// Procedures missing here are open to any signed-in identity.
var ProcedureAreas = map[string]session.Area{
	ProcedureCreateMember:   session.AreaMembers,
	ProcedureUpdateMember:   session.AreaMembers,
	ProcedureDeleteMember:   session.AreaMembers,
	ProcedureGetMember:      session.AreaMembers,
	ProcedureListMembers:    session.AreaMembers,
	ProcedureListPlans:      session.AreaMembers,
	ProcedureFindCandidates: session.AreaAttendance,
	ProcedureCheckIn:        session.AreaAttendance,
	ProcedureTodayRecords:   session.AreaAttendance,
	ProcedureGetReport:      session.AreaReports,
}

// PublicProcedures can be called without a token.
var PublicProcedures = []string{ProcedureLogin}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	User      models.Identity `json:"user"`
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
}

type MeRequest struct{}

type MeResponse struct {
	User  models.Identity `json:"user"`
	Areas []session.Area  `json:"areas"`
}

// Member is the wire form of a member. Dates are "YYYY-MM-DD".
type Member struct {
	ID         string  `json:"id" yaml:"id"`
	Name       string  `json:"name" yaml:"name"`
	Phone      string  `json:"phone" yaml:"phone"`
	Plan       string  `json:"plan" yaml:"plan"`
	StartDate  string  `json:"start_date" yaml:"start_date"`
	EndDate    string  `json:"end_date" yaml:"end_date"`
	AmountPaid float64 `json:"amount_paid" yaml:"amount_paid"`
	Active     bool    `json:"active" yaml:"active"`
	Status     string  `json:"status" yaml:"status"`
	CreatedAt  int64   `json:"created_at" yaml:"created_at"`
	Version    int64   `json:"version" yaml:"version"`
}

func toMember(s models.MemberSummary) Member {
	return Member{
		ID:         s.ID,
		Name:       s.Name,
		Phone:      s.Phone,
		Plan:       string(s.Plan),
		StartDate:  calculator.FormatDate(s.StartDate),
		EndDate:    calculator.FormatDate(s.EndDate),
		AmountPaid: s.AmountPaid,
		Active:     s.Active,
		Status:     string(s.Status),
		CreatedAt:  s.CreatedAt,
		Version:    s.Version,
	}
}

func toMembers(summaries []models.MemberSummary) []Member {
	out := make([]Member, len(summaries))
	for i, s := range summaries {
		out[i] = toMember(s)
	}
	return out
}

type CreateMemberRequest struct {
	Name       string  `json:"name"`
	Phone      string  `json:"phone"`
	Plan       string  `json:"plan"`
	StartDate  string  `json:"start_date"`
	AmountPaid float64 `json:"amount_paid"`
}

type CreateMemberResponse struct {
	Member Member `json:"member"`
}

// UpdateMemberRequest is a partial update; nil fields are left unchanged.
type UpdateMemberRequest struct {
	ID              string   `json:"id"`
	Name            *string  `json:"name,omitempty"`
	Phone           *string  `json:"phone,omitempty"`
	Plan            *string  `json:"plan,omitempty"`
	StartDate       *string  `json:"start_date,omitempty"`
	AmountPaid      *float64 `json:"amount_paid,omitempty"`
	Active          *bool    `json:"active,omitempty"`
	ExpectedVersion int64    `json:"expected_version,omitempty"`
}

type UpdateMemberResponse struct {
	Member Member `json:"member"`
}

type DeleteMemberRequest struct {
	ID              string `json:"id"`
	ExpectedVersion int64  `json:"expected_version,omitempty"`
}

type DeleteMemberResponse struct{}

type GetMemberRequest struct {
	ID string `json:"id"`
}

type GetMemberResponse struct {
	Member Member `json:"member"`
}

type ListMembersRequest struct {
	Query    string `json:"query"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
}

type ListMembersResponse struct {
	Members  []Member `json:"members"`
	Total    int      `json:"total"`
	Page     int      `json:"page"`
	PageSize int      `json:"page_size"`
	Pages    int      `json:"pages"`
}

type ListPlansRequest struct{}

type PlanPrice struct {
	Plan  string  `json:"plan"`
	Price float64 `json:"price"`
}

type ListPlansResponse struct {
	Plans []PlanPrice `json:"plans"`
}

type FindCandidatesRequest struct {
	Query string `json:"query"`
}

type FindCandidatesResponse struct {
	Members []Member `json:"members"`
}

type CheckInRequest struct {
	MemberID string `json:"member_id"`
}

// AttendanceRecord is the wire form of a check-in.
type AttendanceRecord struct {
	ID          string `json:"id" yaml:"id"`
	MemberID    string `json:"member_id" yaml:"member_id"`
	MemberName  string `json:"member_name" yaml:"member_name"`
	CheckInTime string `json:"check_in_time" yaml:"check_in_time"`
	Date        string `json:"date" yaml:"date"`
}

func toRecord(r *models.AttendanceRecord) AttendanceRecord {
	return AttendanceRecord{
		ID:          r.ID,
		MemberID:    r.MemberID,
		MemberName:  r.MemberName,
		CheckInTime: r.CheckInTime,
		Date:        r.Date,
	}
}

type CheckInResponse struct {
	Record AttendanceRecord `json:"record"`
}

type TodayRecordsRequest struct{}

type TodayRecordsResponse struct {
	Date    string             `json:"date"`
	Records []AttendanceRecord `json:"records"`
}

type GetReportRequest struct{}

type GetReportResponse struct {
	Report Report `json:"report"`
}

// Report is the wire form of the reports screen. It is also what the CLI
// prints, so it carries yaml tags.
type Report struct {
	GeneratedAt      string          `json:"generated_at" yaml:"generated_at"`
	Stats            Stats           `json:"stats" yaml:"stats"`
	RevenueByWeekday []DayRevenue    `json:"revenue_by_weekday" yaml:"revenue_by_weekday"`
	PlanBreakdown    []PlanShare     `json:"plan_breakdown" yaml:"plan_breakdown"`
	ExpiredMembers   []ExpiredMember `json:"expired_members" yaml:"expired_members"`
}

type Stats struct {
	MonthlyRevenue     float64 `json:"monthly_revenue" yaml:"monthly_revenue"`
	ActiveMembers      int     `json:"active_members" yaml:"active_members"`
	TodayCheckIns      int     `json:"today_checkins" yaml:"today_checkins"`
	ExpiredMemberships int     `json:"expired_memberships" yaml:"expired_memberships"`
}

type DayRevenue struct {
	Date     string  `json:"date" yaml:"date"`
	Weekday  string  `json:"weekday" yaml:"weekday"`
	Revenue  float64 `json:"revenue" yaml:"revenue"`
	CheckIns int     `json:"checkins" yaml:"checkins"`
}

type PlanShare struct {
	Plan    string `json:"plan" yaml:"plan"`
	Count   int    `json:"count" yaml:"count"`
	Percent int    `json:"percent" yaml:"percent"`
}

type ExpiredMember struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Phone       string `json:"phone" yaml:"phone"`
	Plan        string `json:"plan" yaml:"plan"`
	EndDate     string `json:"end_date" yaml:"end_date"`
	ExpiredDays int    `json:"expired_days" yaml:"expired_days"`
}

func toReport(r *calculator.Report) Report {
	out := Report{
		GeneratedAt: r.GeneratedAt.Format(time.RFC3339),
		Stats: Stats{
			MonthlyRevenue:     r.Stats.MonthlyRevenue,
			ActiveMembers:      r.Stats.ActiveMembers,
			TodayCheckIns:      r.Stats.TodayCheckIns,
			ExpiredMemberships: r.Stats.ExpiredMemberships,
		},
		RevenueByWeekday: make([]DayRevenue, len(r.RevenueByWeekday)),
		PlanBreakdown:    make([]PlanShare, len(r.PlanBreakdown)),
		ExpiredMembers:   make([]ExpiredMember, len(r.ExpiredMembers)),
	}
	for i, d := range r.RevenueByWeekday {
		out.RevenueByWeekday[i] = DayRevenue{
			Date:     calculator.FormatDate(d.Date),
			Weekday:  d.Weekday.String(),
			Revenue:  d.Revenue,
			CheckIns: d.CheckIns,
		}
	}
	for i, p := range r.PlanBreakdown {
		out.PlanBreakdown[i] = PlanShare{Plan: string(p.Plan), Count: p.Count, Percent: p.Percent}
	}
	for i, e := range r.ExpiredMembers {
		out.ExpiredMembers[i] = ExpiredMember{
			ID:          e.ID,
			Name:        e.Name,
			Phone:       e.Phone,
			Plan:        string(e.Plan),
			EndDate:     calculator.FormatDate(e.EndDate),
			ExpiredDays: e.ExpiredDays,
		}
	}
	return out
}
