package recovery

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	zapLogger "github.com/nastyazhadan/trade-settlement/shared/interceptors/logger/zap"
)

func Unary(
	ctx context.Context,
	request interface{},
	_ *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (response interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			zapLogger.Error(ctx, "panic recovered in gRPC handler",
				zap.String("panic", fmt.Sprintf("%v", r)),
			)

			err = status.Errorf(codes.Internal, "internal error")
		}
	}()

	return handler(ctx, request)
}

func HTTP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			if r == http.ErrAbortHandler {
				panic(r)
			}

			zapLogger.Error(request.Context(), "panic recovered in http handler",
				zap.String("panic", fmt.Sprintf("%v", r)),
				zap.ByteString("stack", debug.Stack()),
			)

			http.Error(writer, `{"error":"internal error"}`, http.StatusInternalServerError)
		}()

		next.ServeHTTP(writer, request)
	})
}
