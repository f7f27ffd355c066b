package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/Ammar-alrfee/fit-manager/internal/calculator"
	"github.com/Ammar-alrfee/fit-manager/internal/directory"
)

// MemberService implements the MemberService RPC interface over the member directory.
type MemberService struct {
	directory *directory.Service
	prices    calculator.Prices
}

// NewMemberService creates a MemberService. prices may be nil for the defaults.
func NewMemberService(dir *directory.Service, prices calculator.Prices) *MemberService {
	return &MemberService{directory: dir, prices: prices}
}

// Routes returns the service's handlers.
func (s *MemberService) Routes(opts ...connect.HandlerOption) []Route {
	return []Route{
		{ProcedureCreateMember, connect.NewUnaryHandler(ProcedureCreateMember, s.CreateMember, opts...)},
		{ProcedureUpdateMember, connect.NewUnaryHandler(ProcedureUpdateMember, s.UpdateMember, opts...)},
		{ProcedureDeleteMember, connect.NewUnaryHandler(ProcedureDeleteMember, s.DeleteMember, opts...)},
		{ProcedureGetMember, connect.NewUnaryHandler(ProcedureGetMember, s.GetMember, opts...)},
		{ProcedureListMembers, connect.NewUnaryHandler(ProcedureListMembers, s.ListMembers, opts...)},
		{ProcedureListPlans, connect.NewUnaryHandler(ProcedureListPlans, s.ListPlans, opts...)},
	}
}

// CreateMember registers a new member.
func (s *MemberService) CreateMember(ctx context.Context, req *connect.Request[CreateMemberRequest]) (*connect.Response[CreateMemberResponse], error) {
	slog.Info("CreateMember request received", "plan", req.Msg.Plan, "start_date", req.Msg.StartDate)

	member, err := s.directory.Create(ctx, directory.CreateInput{
		Name:       req.Msg.Name,
		Phone:      req.Msg.Phone,
		Plan:       req.Msg.Plan,
		StartDate:  req.Msg.StartDate,
		AmountPaid: req.Msg.AmountPaid,
	})
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&CreateMemberResponse{
		Member: toMember(s.directory.Summarize(member)),
	}), nil
}

// UpdateMember applies a partial update to a member.
func (s *MemberService) UpdateMember(ctx context.Context, req *connect.Request[UpdateMemberRequest]) (*connect.Response[UpdateMemberResponse], error) {
	slog.Info("UpdateMember request received",
		"member_id", req.Msg.ID,
		"expected_version", req.Msg.ExpectedVersion,
	)

	member, err := s.directory.Update(ctx, req.Msg.ID, directory.UpdateInput{
		Name:            req.Msg.Name,
		Phone:           req.Msg.Phone,
		Plan:            req.Msg.Plan,
		StartDate:       req.Msg.StartDate,
		AmountPaid:      req.Msg.AmountPaid,
		Active:          req.Msg.Active,
		ExpectedVersion: req.Msg.ExpectedVersion,
	})
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&UpdateMemberResponse{
		Member: toMember(s.directory.Summarize(member)),
	}), nil
}

// DeleteMember removes a member. The client confirms with the user first.
func (s *MemberService) DeleteMember(ctx context.Context, req *connect.Request[DeleteMemberRequest]) (*connect.Response[DeleteMemberResponse], error) {
	slog.Info("DeleteMember request received", "member_id", req.Msg.ID)

	if err := s.directory.Remove(ctx, req.Msg.ID, req.Msg.ExpectedVersion); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&DeleteMemberResponse{}), nil
}

// GetMember retrieves a member by ID.
func (s *MemberService) GetMember(ctx context.Context, req *connect.Request[GetMemberRequest]) (*connect.Response[GetMemberResponse], error) {
	member, err := s.directory.Get(ctx, req.Msg.ID)
	if err != nil {
		slog.Error("GetMember failed", "member_id", req.Msg.ID, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&GetMemberResponse{
		Member: toMember(s.directory.Summarize(member)),
	}), nil
}

// ListMembers returns one page of the members matching the query.
func (s *MemberService) ListMembers(ctx context.Context, req *connect.Request[ListMembersRequest]) (*connect.Response[ListMembersResponse], error) {
	page, err := s.directory.List(ctx, req.Msg.Query, req.Msg.Page, req.Msg.PageSize)
	if err != nil {
		return nil, toConnectError(err)
	}

	slog.Info("ListMembers successful", "total", page.Total, "page", page.Page)

	return connect.NewResponse(&ListMembersResponse{
		Members:  toMembers(page.Members),
		Total:    page.Total,
		Page:     page.Page,
		PageSize: page.PageSize,
		Pages:    page.Pages(),
	}), nil
}

// ListPlans returns the plans in display order with their list prices.
func (s *MemberService) ListPlans(ctx context.Context, req *connect.Request[ListPlansRequest]) (*connect.Response[ListPlansResponse], error) {
	plans := make([]PlanPrice, 0, len(calculator.Plans))
	for _, p := range calculator.Plans {
		price, err := s.prices.For(p)
		if err != nil {
			return nil, toConnectError(err)
		}
		plans = append(plans, PlanPrice{Plan: string(p), Price: price})
	}
	return connect.NewResponse(&ListPlansResponse{Plans: plans}), nil
}
