package xrequestid

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	zapLogger "github.com/nastyazhadan/trade-settlement/shared/interceptors/logger/zap"
)

const (
	headerKey  = "x-request-id"
	HeaderName = "X-Request-Id"
)

func Server(
	ctx context.Context,
	request interface{},
	_ *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (interface{}, error) {
	requestID := ""

	if meta, found := metadata.FromIncomingContext(ctx); found {
		if values := meta.Get(headerKey); len(values) > 0 {
			requestID = values[0]
		}
	}

	if requestID == "" {
		requestID = uuid.New().String()
	}

	return handler(zapLogger.ContextWithTraceID(ctx, requestID), request)
}

// HTTP propagates the caller's X-Request-Id, generating one when absent, and echoes it back.
func HTTP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		requestID := request.Header.Get(HeaderName)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		writer.Header().Set(HeaderName, requestID)

		ctx := zapLogger.ContextWithTraceID(request.Context(), requestID)
		next.ServeHTTP(writer, request.WithContext(ctx))
	})
}
