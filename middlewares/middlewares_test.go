package middlewares_test

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ray-remotestate/recipebox/middlewares"
	"github.com/ray-remotestate/recipebox/models"
	"github.com/ray-remotestate/recipebox/utils"
)

var secret = []byte("test-secret")

func whoami() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if identity, ok := middlewares.GetAuthenticatedUser(r); ok {
			w.Write([]byte(identity.Username))
			return
		}
		w.Write([]byte("anonymous"))
	})
}

func TestSessionResolvesCookie(t *testing.T) {
	token, err := utils.GenerateSessionToken(secret, models.Identity{Username: "ada"}, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: middlewares.SessionCookie, Value: token})
	rec := httptest.NewRecorder()

	middlewares.Session(secret)(whoami()).ServeHTTP(rec, req)

	assert.Equal(t, "ada", rec.Body.String())
}

func TestSessionIgnoresBadCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: middlewares.SessionCookie, Value: "forged"})
	rec := httptest.NewRecorder()

	middlewares.Session(secret)(whoami()).ServeHTTP(rec, req)

	assert.Equal(t, "anonymous", rec.Body.String())
	require.Len(t, rec.Result().Cookies(), 1)
	assert.Equal(t, -1, rec.Result().Cookies()[0].MaxAge)
}

func TestSessionsAreIndependentPerRequest(t *testing.T) {
	handler := middlewares.Session(secret)(whoami())
	for _, name := range []string{"ada", "bob"} {
		token, err := utils.GenerateSessionToken(secret, models.Identity{Username: name}, time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: middlewares.SessionCookie, Value: token})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, name, rec.Body.String())
	}
}

func TestRequireUser(t *testing.T) {
	rec := httptest.NewRecorder()
	middlewares.RequireUser(whoami()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/home", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	req := middlewares.WithUser(httptest.NewRequest(http.MethodGet, "/home", nil), models.Identity{Username: "ada"})
	rec = httptest.NewRecorder()
	middlewares.RequireUser(whoami()).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ada", rec.Body.String())
}

func TestSetAndClearSession(t *testing.T) {
	rec := httptest.NewRecorder()
	middlewares.SetSession(rec, "token", time.Hour, true)
	cookie := rec.Result().Cookies()[0]
	assert.Equal(t, middlewares.SessionCookie, cookie.Name)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)

	rec = httptest.NewRecorder()
	middlewares.ClearSession(rec)
	assert.Empty(t, rec.Result().Cookies()[0].Value)
}

func TestRequestID(t *testing.T) {
	var seen string
	handler := middlewares.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = middlewares.GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(middlewares.RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middlewares.RequestIDHeader, "abc")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "abc", seen)
}

func TestAccessLogPassesThrough(t *testing.T) {
	handler := middlewares.AccessLog(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestMetricsUseRouteTemplate(t *testing.T) {
	metrics := middlewares.NewMetrics(prometheus.NewRegistry())

	router := mux.NewRouter()
	router.Use(metrics.Instrument)
	router.HandleFunc("/recipes", func(w http.ResponseWriter, r *http.Request) {}).Methods("GET")
	router.Handle("/metrics", metrics.Handler())

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/recipes", nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `recipebox_http_requests_total{method="GET",route="/recipes",status="200"} 1`)
}

func TestConnUnavailable(t *testing.T) {
	db, err := sql.Open("postgres", "host=127.0.0.1 port=1 dbname=none sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	metrics := middlewares.NewMetrics(prometheus.NewRegistry())
	unavailable := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	reached := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { reached = true })

	rec := httptest.NewRecorder()
	middlewares.Conn(db, metrics, unavailable)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.False(t, reached)
}
