package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/Ammar-alrfee/fit-manager/internal/attendance"
)

// AttendanceService implements the AttendanceService RPC interface over the ledger.
type AttendanceService struct {
	ledger *attendance.Ledger
}

// NewAttendanceService creates an AttendanceService.
func NewAttendanceService(ledger *attendance.Ledger) *AttendanceService {
	return &AttendanceService{ledger: ledger}
}

// Routes returns the service's handlers.
func (s *AttendanceService) Routes(opts ...connect.HandlerOption) []Route {
	return []Route{
		{ProcedureFindCandidates, connect.NewUnaryHandler(ProcedureFindCandidates, s.FindCandidates, opts...)},
		{ProcedureCheckIn, connect.NewUnaryHandler(ProcedureCheckIn, s.CheckIn, opts...)},
		{ProcedureTodayRecords, connect.NewUnaryHandler(ProcedureTodayRecords, s.TodayRecords, opts...)},
	}
}

// FindCandidates returns the members matching the query who may check in now.
func (s *AttendanceService) FindCandidates(ctx context.Context, req *connect.Request[FindCandidatesRequest]) (*connect.Response[FindCandidatesResponse], error) {
	candidates, err := s.ledger.FindCheckinCandidates(ctx, req.Msg.Query)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&FindCandidatesResponse{Members: toMembers(candidates)}), nil
}

// CheckIn records a check-in for the member.
func (s *AttendanceService) CheckIn(ctx context.Context, req *connect.Request[CheckInRequest]) (*connect.Response[CheckInResponse], error) {
	slog.Info("CheckIn request received", "member_id", req.Msg.MemberID)

	record, err := s.ledger.CheckIn(ctx, req.Msg.MemberID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&CheckInResponse{Record: toRecord(record)}), nil
}

// TodayRecords lists today's check-ins, newest first.
func (s *AttendanceService) TodayRecords(ctx context.Context, req *connect.Request[TodayRecordsRequest]) (*connect.Response[TodayRecordsResponse], error) {
	records, err := s.ledger.TodayRecords(ctx)
	if err != nil {
		slog.Error("TodayRecords failed", "error", err)
		return nil, toConnectError(err)
	}

	out := make([]AttendanceRecord, len(records))
	for i, r := range records {
		out[i] = toRecord(r)
	}
	return connect.NewResponse(&TodayRecordsResponse{
		Date:    s.ledger.Today(),
		Records: out,
	}), nil
}
