package interceptors

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/seu-repo/autospace/internal/domain"
	"github.com/seu-repo/autospace/internal/ports"
	"github.com/seu-repo/autospace/internal/service/auth"
)

const healthMethodPrefix = "/grpc.health.v1.Health/"

type operatorKey struct{}

// WithOperatorID returns a copy of ctx carrying the authenticated operator.
func WithOperatorID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, operatorKey{}, id)
}

// OperatorID returns the authenticated operator id carried by ctx, or "".
func OperatorID(ctx context.Context) string {
	id, _ := ctx.Value(operatorKey{}).(string)
	return id
}

// UnaryAuthInterceptor requires an operator bearer token in the
// "authorization" metadata. Health checks are exempt.
func UnaryAuthInterceptor(service ports.AuthService) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if strings.HasPrefix(info.FullMethod, healthMethodPrefix) {
			return handler(ctx, req)
		}

		token := bearerFromMetadata(ctx)
		if token == "" {
			return nil, status.Error(codes.Unauthenticated, "missing bearer token")
		}

		operator, err := service.ValidateToken(ctx, token)
		switch {
		case errors.Is(err, domain.ErrUnavailable):
			return nil, err
		case errors.Is(err, auth.ErrOperatorDisabled):
			return nil, status.Error(codes.PermissionDenied, "operator is disabled")
		case err != nil || operator == nil:
			return nil, status.Error(codes.Unauthenticated, "invalid or expired token")
		}

		return handler(WithOperatorID(ctx, operator.ID), req)
	}
}

func bearerFromMetadata(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	for _, v := range md.Get("authorization") {
		scheme, token, found := strings.Cut(v, " ")
		if found && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	return ""
}
