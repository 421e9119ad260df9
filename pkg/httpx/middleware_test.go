package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aussiebroadwan/cookieauth/pkg/httpx"
	"github.com/stretchr/testify/require"
)

func TestChainOrder(t *testing.T) {
	var calls []string
	tag := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls = append(calls, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := httpx.Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, "handler")
	}), tag("outer"), tag("middle"), tag("inner"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, []string{"outer", "middle", "inner", "handler"}, calls)
}

func TestChainWithoutMiddleware(t *testing.T) {
	h := httpx.Chain(okHandler)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestWriteDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	httpx.WriteDetail(rec, http.StatusUnauthorized, "Invalid credentials.")

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	require.JSONEq(t, `{"detail":"Invalid credentials."}`, rec.Body.String())
}

func TestWriteEmpty(t *testing.T) {
	rec := httptest.NewRecorder()
	httpx.WriteEmpty(rec, http.StatusNoContent)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	require.Zero(t, rec.Body.Len())
}

func TestSplitCommaList(t *testing.T) {
	require.Nil(t, httpx.SplitCommaList(""))
	require.Equal(t, []string{"a", "b"}, httpx.SplitCommaList(" a, ,b ,"))
}

func TestUserIDContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	require.Empty(t, httpx.UserIDFromContext(req.Context()))

	ctx := httpx.WithUserID(req.Context(), "01HXUSER")
	require.Equal(t, "01HXUSER", httpx.UserIDFromContext(ctx))
}

func TestMetricsPassesThrough(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	})

	h := httpx.Chain(mux, httpx.Metrics())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items/42", nil))

	require.Equal(t, http.StatusTeapot, rec.Code)
	require.True(t, strings.HasPrefix(rec.Body.String(), "short"))
}
