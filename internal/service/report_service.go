package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/Ammar-alrfee/fit-manager/internal/attendance"
	"github.com/Ammar-alrfee/fit-manager/internal/calculator"
	"github.com/Ammar-alrfee/fit-manager/internal/directory"
)

// ReportService implements the ReportService RPC interface.
type ReportService struct {
	directory *directory.Service
	ledger    *attendance.Ledger
}

// NewReportService creates a ReportService.
func NewReportService(dir *directory.Service, ledger *attendance.Ledger) *ReportService {
	return &ReportService{directory: dir, ledger: ledger}
}

// Routes returns the service's handlers.
func (s *ReportService) Routes(opts ...connect.HandlerOption) []Route {
	return []Route{
		{ProcedureGetReport, connect.NewUnaryHandler(ProcedureGetReport, s.GetReport, opts...)},
	}
}

// GetReport builds the membership and attendance report as of now.
func (s *ReportService) GetReport(ctx context.Context, req *connect.Request[GetReportRequest]) (*connect.Response[GetReportResponse], error) {
	members, err := s.directory.All(ctx)
	if err != nil {
		slog.Error("GetReport failed", "error", err)
		return nil, toConnectError(err)
	}
	records, err := s.ledger.RecordsSince(ctx, 7)
	if err != nil {
		slog.Error("GetReport failed", "error", err)
		return nil, toConnectError(err)
	}

	// Convert to calculator format
	reportMembers := make([]calculator.MemberForReport, len(members))
	for i, m := range members {
		reportMembers[i] = calculator.MemberForReport{
			ID:         m.ID,
			Name:       m.Name,
			Phone:      m.Phone,
			Plan:       m.Plan,
			StartDate:  m.StartDate,
			EndDate:    m.EndDate,
			AmountPaid: m.AmountPaid,
			Active:     m.Active,
		}
	}

	checkIns := make([]calculator.CheckInForReport, 0, len(records))
	for _, r := range records {
		date, err := calculator.ParseDate(r.Date)
		if err != nil {
			slog.Warn("Skipping check-in with unreadable date", "record_id", r.ID, "date", r.Date)
			continue
		}
		checkIns = append(checkIns, calculator.CheckInForReport{MemberID: r.MemberID, Date: date})
	}

	report := calculator.BuildReport(reportMembers, checkIns, s.ledger.Now())

	slog.Info("GetReport successful",
		"members", len(members),
		"today_checkins", report.Stats.TodayCheckIns,
	)
	return connect.NewResponse(&GetReportResponse{Report: toReport(report)}), nil
}
