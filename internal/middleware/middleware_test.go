package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ammar-alrfee/fit-manager/internal/auth"
	"github.com/Ammar-alrfee/fit-manager/internal/models"
	"github.com/Ammar-alrfee/fit-manager/internal/session"
)

const (
	publicProcedure  = "/test.v1.PingService/Hello"
	membersProcedure = "/test.v1.PingService/Members"
	openProcedure    = "/test.v1.PingService/Whoami"
)

type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (jsonCodec) Unmarshal(b []byte, v any) error { return json.Unmarshal(b, v) }

type ping struct {
	UserID string `json:"user_id"`
}

func setup(t *testing.T, jwtManager *auth.JWTManager) string {
	t.Helper()

	opts := []connect.HandlerOption{
		connect.WithCodec(jsonCodec{}),
		connect.WithInterceptors(
			LoggingInterceptor(),
			RequireAuth(jwtManager, publicProcedure),
			RequireArea(map[string]session.Area{membersProcedure: session.AreaMembers}),
		),
	}
	handle := func(ctx context.Context, req *connect.Request[ping]) (*connect.Response[ping], error) {
		return connect.NewResponse(&ping{UserID: GetUserID(ctx)}), nil
	}

	mux := http.NewServeMux()
	for _, p := range []string{publicProcedure, membersProcedure, openProcedure} {
		mux.Handle(p, connect.NewUnaryHandler(p, handle, opts...))
	}
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server.URL
}

func call(t *testing.T, url, procedure, token string) (*ping, error) {
	t.Helper()
	client := connect.NewClient[ping, ping](http.DefaultClient, url+procedure, connect.WithCodec(jsonCodec{}))
	req := connect.NewRequest(&ping{})
	if token != "" {
		req.Header().Set("Authorization", "Bearer "+token)
	}
	resp, err := client.CallUnary(context.Background(), req)
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

func TestRequireAuthAndArea(t *testing.T) {
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	url := setup(t, jwtManager)

	adminToken, _, err := jwtManager.Generate(&models.Identity{ID: "1", Username: "admin", Role: models.RoleAdmin})
	require.NoError(t, err)
	employeeToken, _, err := jwtManager.Generate(&models.Identity{ID: "2", Username: "employee", Role: models.RoleEmployee})
	require.NoError(t, err)

	t.Run("public procedure needs no token", func(t *testing.T) {
		resp, err := call(t, url, publicProcedure, "")
		require.NoError(t, err)
		assert.Empty(t, resp.UserID)
	})

	t.Run("missing token", func(t *testing.T) {
		_, err := call(t, url, openProcedure, "")
		assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))
	})

	t.Run("invalid token", func(t *testing.T) {
		_, err := call(t, url, openProcedure, "garbage")
		assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))
	})

	t.Run("ungated procedure carries identity", func(t *testing.T) {
		resp, err := call(t, url, openProcedure, employeeToken)
		require.NoError(t, err)
		assert.Equal(t, "2", resp.UserID)
	})

	t.Run("admin reaches members", func(t *testing.T) {
		resp, err := call(t, url, membersProcedure, adminToken)
		require.NoError(t, err)
		assert.Equal(t, "1", resp.UserID)
	})

	t.Run("employee is denied members", func(t *testing.T) {
		_, err := call(t, url, membersProcedure, employeeToken)
		assert.Equal(t, connect.CodePermissionDenied, connect.CodeOf(err))
	})
}

func TestGetIdentity(t *testing.T) {
	_, ok := GetIdentity(context.Background())
	assert.False(t, ok)
	assert.Empty(t, GetUserID(context.Background()))

	ctx := WithIdentity(context.Background(), models.Identity{ID: "7", Role: models.RoleEmployee})
	identity, ok := GetIdentity(ctx)
	assert.True(t, ok)
	assert.Equal(t, "7", identity.ID)
}
