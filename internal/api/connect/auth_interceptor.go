package connect

import (
	"context"
	"crypto/subtle"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

const (
	// AdminTokenHeader is the header name for admin authentication token.
	AdminTokenHeader = "X-Admin-Token"
)

// NewAdminAuthInterceptor creates an interceptor that rejects requests whose
// X-Admin-Token header does not match token.
func NewAdminAuthInterceptor(token string) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if req.Spec().IsClient {
				return next(ctx, req)
			}

			got := req.Header().Get(AdminTokenHeader)
			if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				zlog.Warn().Msgf("connect: unauthenticated call: procedure=%s peer=%s",
					req.Spec().Procedure, req.Peer().Addr)
				return nil, connect.NewError(connect.CodeUnauthenticated, errors.New("invalid admin token"))
			}

			return next(ctx, req)
		}
	}
}

// NewTokenInterceptor creates a client interceptor that sends token in the
// X-Admin-Token header of every request.
func NewTokenInterceptor(token string) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if req.Spec().IsClient {
				req.Header().Set(AdminTokenHeader, token)
			}
			return next(ctx, req)
		}
	}
}
