package service

import (
	"context"
	"strings"
	"sync"

	"connectrpc.com/connect"

	"github.com/Ammar-alrfee/fit-manager/internal/auth"
)

// Client is a typed client for every RPC procedure. It sends the bearer
// token supplied by its token source on each call.
type Client struct {
	login          *connect.Client[LoginRequest, LoginResponse]
	me             *connect.Client[MeRequest, MeResponse]
	createMember   *connect.Client[CreateMemberRequest, CreateMemberResponse]
	updateMember   *connect.Client[UpdateMemberRequest, UpdateMemberResponse]
	deleteMember   *connect.Client[DeleteMemberRequest, DeleteMemberResponse]
	getMember      *connect.Client[GetMemberRequest, GetMemberResponse]
	listMembers    *connect.Client[ListMembersRequest, ListMembersResponse]
	listPlans      *connect.Client[ListPlansRequest, ListPlansResponse]
	findCandidates *connect.Client[FindCandidatesRequest, FindCandidatesResponse]
	checkIn        *connect.Client[CheckInRequest, CheckInResponse]
	todayRecords   *connect.Client[TodayRecordsRequest, TodayRecordsResponse]
	getReport      *connect.Client[GetReportRequest, GetReportResponse]

	mu    sync.RWMutex
	token func() string
}

// NewClient creates a client for the server at baseURL.
func NewClient(httpClient connect.HTTPClient, baseURL string) *Client {
	c := &Client{}
	baseURL = strings.TrimRight(baseURL, "/")
	opts := []connect.ClientOption{
		connect.WithCodec(Codec{}),
		connect.WithInterceptors(c.bearer()),
	}

	c.login = connect.NewClient[LoginRequest, LoginResponse](httpClient, baseURL+ProcedureLogin, opts...)
	c.me = connect.NewClient[MeRequest, MeResponse](httpClient, baseURL+ProcedureMe, opts...)
	c.createMember = connect.NewClient[CreateMemberRequest, CreateMemberResponse](httpClient, baseURL+ProcedureCreateMember, opts...)
	c.updateMember = connect.NewClient[UpdateMemberRequest, UpdateMemberResponse](httpClient, baseURL+ProcedureUpdateMember, opts...)
	c.deleteMember = connect.NewClient[DeleteMemberRequest, DeleteMemberResponse](httpClient, baseURL+ProcedureDeleteMember, opts...)
	c.getMember = connect.NewClient[GetMemberRequest, GetMemberResponse](httpClient, baseURL+ProcedureGetMember, opts...)
	c.listMembers = connect.NewClient[ListMembersRequest, ListMembersResponse](httpClient, baseURL+ProcedureListMembers, opts...)
	c.listPlans = connect.NewClient[ListPlansRequest, ListPlansResponse](httpClient, baseURL+ProcedureListPlans, opts...)
	c.findCandidates = connect.NewClient[FindCandidatesRequest, FindCandidatesResponse](httpClient, baseURL+ProcedureFindCandidates, opts...)
	c.checkIn = connect.NewClient[CheckInRequest, CheckInResponse](httpClient, baseURL+ProcedureCheckIn, opts...)
	c.todayRecords = connect.NewClient[TodayRecordsRequest, TodayRecordsResponse](httpClient, baseURL+ProcedureTodayRecords, opts...)
	c.getReport = connect.NewClient[GetReportRequest, GetReportResponse](httpClient, baseURL+ProcedureGetReport, opts...)
	return c
}

// SetTokenSource sets where the bearer token comes from, typically
// session.Manager.Token.
func (c *Client) SetTokenSource(token func() string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *Client) currentToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.token == nil {
		return ""
	}
	return c.token()
}

// bearer adds the Authorization header to outgoing requests.
func (c *Client) bearer() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if token := c.currentToken(); token != "" && req.Spec().IsClient {
				req.Header().Set("Authorization", "Bearer "+token)
			}
			return next(ctx, req)
		}
	}
}

// call performs one unary call and maps the error back to a domain error.
func call[Req, Res any](ctx context.Context, client *connect.Client[Req, Res], procedure string, msg *Req) (*Res, error) {
	resp, err := client.CallUnary(ctx, connect.NewRequest(msg))
	if err != nil {
		return nil, fromConnectError(procedure, err)
	}
	return resp.Msg, nil
}

// Login exchanges credentials for a grant. It satisfies session.Authenticator.
func (c *Client) Login(ctx context.Context, username, password string) (*auth.Grant, error) {
	resp, err := call(ctx, c.login, ProcedureLogin, &LoginRequest{Username: username, Password: password})
	if err != nil {
		return nil, err
	}
	return &auth.Grant{Identity: resp.User, Token: resp.Token, ExpiresAt: resp.ExpiresAt}, nil
}

func (c *Client) Me(ctx context.Context) (*MeResponse, error) {
	return call(ctx, c.me, ProcedureMe, &MeRequest{})
}

func (c *Client) CreateMember(ctx context.Context, req *CreateMemberRequest) (*Member, error) {
	resp, err := call(ctx, c.createMember, ProcedureCreateMember, req)
	if err != nil {
		return nil, err
	}
	return &resp.Member, nil
}

func (c *Client) UpdateMember(ctx context.Context, req *UpdateMemberRequest) (*Member, error) {
	resp, err := call(ctx, c.updateMember, ProcedureUpdateMember, req)
	if err != nil {
		return nil, err
	}
	return &resp.Member, nil
}

func (c *Client) DeleteMember(ctx context.Context, id string, expectedVersion int64) error {
	_, err := call(ctx, c.deleteMember, ProcedureDeleteMember, &DeleteMemberRequest{ID: id, ExpectedVersion: expectedVersion})
	return err
}

func (c *Client) GetMember(ctx context.Context, id string) (*Member, error) {
	resp, err := call(ctx, c.getMember, ProcedureGetMember, &GetMemberRequest{ID: id})
	if err != nil {
		return nil, err
	}
	return &resp.Member, nil
}

func (c *Client) ListMembers(ctx context.Context, query string, page, pageSize int) (*ListMembersResponse, error) {
	return call(ctx, c.listMembers, ProcedureListMembers, &ListMembersRequest{Query: query, Page: page, PageSize: pageSize})
}

func (c *Client) ListPlans(ctx context.Context) ([]PlanPrice, error) {
	resp, err := call(ctx, c.listPlans, ProcedureListPlans, &ListPlansRequest{})
	if err != nil {
		return nil, err
	}
	return resp.Plans, nil
}

func (c *Client) FindCandidates(ctx context.Context, query string) ([]Member, error) {
	resp, err := call(ctx, c.findCandidates, ProcedureFindCandidates, &FindCandidatesRequest{Query: query})
	if err != nil {
		return nil, err
	}
	return resp.Members, nil
}

func (c *Client) CheckIn(ctx context.Context, memberID string) (*AttendanceRecord, error) {
	resp, err := call(ctx, c.checkIn, ProcedureCheckIn, &CheckInRequest{MemberID: memberID})
	if err != nil {
		return nil, err
	}
	return &resp.Record, nil
}

func (c *Client) TodayRecords(ctx context.Context) (*TodayRecordsResponse, error) {
	return call(ctx, c.todayRecords, ProcedureTodayRecords, &TodayRecordsRequest{})
}

func (c *Client) GetReport(ctx context.Context) (*Report, error) {
	resp, err := call(ctx, c.getReport, ProcedureGetReport, &GetReportRequest{})
	if err != nil {
		return nil, err
	}
	return &resp.Report, nil
}
