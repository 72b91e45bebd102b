package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fatflowers/billing/pkg/logctx"
	"github.com/fatflowers/billing/pkg/response"
)

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(TraceMiddleware(zap.NewNop().Sugar()), UserMiddleware(), RequestLoggerMiddleware(zap.NewNop().Sugar()), AccessLogMiddleware())
	return r
}

func decode(t *testing.T, w *httptest.ResponseRecorder) response.APIResponse[any] {
	t.Helper()
	var out response.APIResponse[any]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestTraceMiddleware_EchoesRequestID(t *testing.T) {
	r := newRouter()
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, logctx.TraceID(c.Request.Context())) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-ID", "trace-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "trace-1", w.Body.String())
	assert.Equal(t, "trace-1", w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.NotEmpty(t, w.Body.String())
	assert.Equal(t, w.Body.String(), w.Header().Get("X-Request-ID"))
}

func TestUserMiddleware_RequireUser(t *testing.T) {
	r := newRouter()
	r.GET("/me", RequireUser(), func(c *gin.Context) {
		assert.Equal(t, "u1", logctx.UserID(c.Request.Context()))
		assert.NotNil(t, logctx.FromGin(c, nil))
		name, email, _ := Profile(c)
		c.JSON(http.StatusOK, response.OKT([]string{UserID(c), name, email}))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, response.APIResponseCodeUnauthorized, decode(t, w).Code)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(HeaderUserID, "u1")
	req.Header.Set(HeaderUserName, "Asha")
	req.Header.Set(HeaderUserEmail, "a@b.c")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	out := decode(t, w)
	assert.Equal(t, response.APIResponseCodeOK, out.Code)
	assert.Equal(t, []any{"u1", "Asha", "a@b.c"}, out.Data)
}

func TestRequireAdmin(t *testing.T) {
	r := newRouter()
	r.GET("/admin", RequireAdmin(), func(c *gin.Context) { c.JSON(http.StatusOK, response.OKT(IsAdmin(c))) })

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set(HeaderUserRole, "member")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, response.APIResponseCodeForbidden, decode(t, w).Code)

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set(HeaderUserRole, RoleAdmin)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	out := decode(t, w)
	assert.Equal(t, response.APIResponseCodeOK, out.Code)
	assert.Equal(t, true, out.Data)
}
