package interceptors

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

// UnaryLoggingInterceptor logs every call once it completes. Health probes
// are only logged at debug level.
func UnaryLoggingInterceptor(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)

		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.Duration("duration", time.Since(start)),
			zap.String("code", code.String()),
		}
		if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
			fields = append(fields, zap.String("peer", p.Addr.String()))
		}
		if err != nil {
			fields = append(fields, zap.Error(err))
		}

		switch {
		case strings.HasPrefix(info.FullMethod, healthMethodPrefix):
			log.Debug("gRPC health probe", fields...)
		case err == nil:
			log.Info("gRPC call", fields...)
		case code == codes.Internal || code == codes.Unavailable || code == codes.Unknown:
			log.Error("gRPC call failed", fields...)
		default:
			log.Warn("gRPC call rejected", fields...)
		}
		return resp, err
	}
}
