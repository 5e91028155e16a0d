package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveRPC(t *testing.T) {
	okBefore := testutil.ToFloat64(rpcCalls.WithLabelValues("eth_call", "ok"))
	errBefore := testutil.ToFloat64(rpcCalls.WithLabelValues("eth_call", "error"))

	ObserveRPC("eth_call", nil)
	ObserveRPC("eth_call", errors.New("boom"))
	ObserveRPC("eth_call", nil)

	assert.Equal(t, okBefore+2, testutil.ToFloat64(rpcCalls.WithLabelValues("eth_call", "ok")))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(rpcCalls.WithLabelValues("eth_call", "error")))
}

func TestDecodeFailure(t *testing.T) {
	before := testutil.ToFloat64(decodeFailures.WithLabelValues("metrics-test"))
	DecodeFailure("metrics-test")
	assert.Equal(t, before+1, testutil.ToFloat64(decodeFailures.WithLabelValues("metrics-test")))
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware(nil))
	r.Get("/items/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "/items/{id}", "418"))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items/42", nil))
	require.Equal(t, http.StatusTeapot, rec.Code)

	assert.Equal(t, before+1, testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "/items/{id}", "418")))
}
