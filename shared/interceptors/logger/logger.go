package logger

import (
	"context"
	"net/http"
	"path"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	zapLogger "github.com/nastyazhadan/trade-settlement/shared/interceptors/logger/zap"
)

func LoggerInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		request interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		method := path.Base(info.FullMethod)
		startTime := time.Now()

		response, err := handler(ctx, request)

		fields := []zap.Field{
			zap.String("method", method),
			zap.Duration("took", time.Since(startTime)),
		}

		if err != nil {
			responseStatus, _ := status.FromError(err)
			zapLogger.Warn(ctx, "gRPC call failed",
				append(fields, zap.String("code", responseStatus.Code().String()), zap.Error(err))...)
		} else {
			zapLogger.Debug(ctx, "gRPC call finished", fields...)
		}

		return response, err
	}
}

// HTTP writes one access log line per request.
func HTTP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		wrapped := middleware.NewWrapResponseWriter(writer, request.ProtoMajor)
		startTime := time.Now()

		next.ServeHTTP(wrapped, request)

		fields := []zap.Field{
			zap.String("method", request.Method),
			zap.String("path", request.URL.Path),
			zap.Int("status", wrapped.Status()),
			zap.Int("bytes", wrapped.BytesWritten()),
			zap.Duration("took", time.Since(startTime)),
		}

		if wrapped.Status() >= http.StatusInternalServerError {
			zapLogger.Error(request.Context(), "http request", fields...)
			return
		}

		zapLogger.Info(request.Context(), "http request", fields...)
	})
}
