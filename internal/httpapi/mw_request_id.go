package httpapi

import (
	"context"
	"net/http"

	"lukechampine.com/frand"
)

type ctxKey int

const requestIDKey ctxKey = 1

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

var alphabet = []byte("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")

func newReqID8() string {
	b := make([]byte, 8)
	for i := range b {
		b[i] = alphabet[frand.Intn(len(alphabet))]
	}
	return string(b)
}

// validRequestID accepts client ids of 8 to 64 alphanumeric or dash bytes.
func validRequestID(rid string) bool {
	if len(rid) < 8 || len(rid) > 64 {
		return false
	}
	for i := 0; i < len(rid); i++ {
		c := rid[i]
		if !(c == '-' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z') {
			return false
		}
	}
	return true
}

// RequestID tags the request context and response with an id, reusing a
// well-formed one sent by the client.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := r.Header.Get(RequestIDHeader)
		if !validRequestID(rid) {
			rid = newReqID8()
		}
		w.Header().Set(RequestIDHeader, rid)
		ctx := context.WithValue(r.Context(), requestIDKey, rid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetRequestID(ctx context.Context) string {
	if s, ok := ctx.Value(requestIDKey).(string); ok {
		return s
	}
	return ""
}
