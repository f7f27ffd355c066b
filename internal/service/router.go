// Package service exposes the member directory, attendance ledger and
// reports over Connect RPC with a plain JSON codec.
package service

import (
	"net/http"

	"connectrpc.com/connect"
	"github.com/go-chi/chi/v5"

	"github.com/Ammar-alrfee/fit-manager/internal/auth"
	"github.com/Ammar-alrfee/fit-manager/internal/middleware"
)

// Route is one procedure and its handler.
type Route struct {
	Procedure string
	Handler   http.Handler
}

// Registrar is implemented by every RPC service.
type Registrar interface {
	Routes(opts ...connect.HandlerOption) []Route
}

// HandlerOptions are the options every handler is built with: the JSON
// codec, request logging, token validation and the role gate.
func HandlerOptions(jwtManager *auth.JWTManager) []connect.HandlerOption {
	return []connect.HandlerOption{
		connect.WithCodec(Codec{}),
		connect.WithInterceptors(
			middleware.LoggingInterceptor(),
			middleware.RequireAuth(jwtManager, PublicProcedures...),
			middleware.RequireArea(ProcedureAreas),
		),
	}
}

// Register mounts every procedure of services on r.
func Register(r chi.Router, jwtManager *auth.JWTManager, services ...Registrar) {
	opts := HandlerOptions(jwtManager)
	for _, svc := range services {
		for _, route := range svc.Routes(opts...) {
			r.Handle(route.Procedure, route.Handler)
		}
	}
}
