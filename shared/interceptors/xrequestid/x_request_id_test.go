package xrequestid

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	zapLogger "github.com/nastyazhadan/trade-settlement/shared/interceptors/logger/zap"
)

func TestHTTP(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
	}{
		{name: "заголовок передан клиентом", incoming: "req-42"},
		{name: "заголовок отсутствует", incoming: ""},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var seen string
			handler := HTTP(http.HandlerFunc(func(_ http.ResponseWriter, request *http.Request) {
				seen = zapLogger.TraceIDFromContext(request.Context())
			}))

			request := httptest.NewRequest(http.MethodGet, "/", nil)
			if test.incoming != "" {
				request.Header.Set(HeaderName, test.incoming)
			}
			recorder := httptest.NewRecorder()

			handler.ServeHTTP(recorder, request)

			echoed := recorder.Header().Get(HeaderName)
			assert.Equal(t, seen, echoed)

			if test.incoming != "" {
				assert.Equal(t, test.incoming, seen)
			} else {
				_, err := uuid.Parse(seen)
				assert.NoError(t, err)
			}
		})
	}
}
