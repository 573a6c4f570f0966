package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tpog/internal/config"
	"tpog/internal/domain"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type staticParser map[string]domain.RequestContext

func (p staticParser) ParseToken(raw string) (domain.RequestContext, error) {
	rc, ok := p[raw]
	if !ok {
		return domain.RequestContext{}, errors.New("bad token")
	}
	return rc, nil
}

var parser = staticParser{
	"admin-token":  {UserID: 1, Username: "ada", Role: "admin"},
	"viewer-token": {UserID: 2, Username: "vic", Role: "viewer"},
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequestIDGeneratedAndKept(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/x", nil))
	generated := w.Header().Get(RequestHeader)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestHeader, "abc-123")
	w = serve(r, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestHeader))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestHeader, strings.Repeat("z", 65))
	w = serve(r, req)
	assert.NotEqual(t, strings.Repeat("z", 65), w.Header().Get(RequestHeader))
}

func TestGetRequestIDNilContext(t *testing.T) {
	assert.Empty(t, GetRequestID(nil))
}

func authedEngine(roles ...string) *gin.Engine {
	r := gin.New()
	r.Use(RequestID())
	chain := []gin.HandlerFunc{AuthRequired(parser)}
	if len(roles) > 0 {
		chain = append(chain, RequireRoles(roles...))
	}
	chain = append(chain, func(c *gin.Context) {
		rc := GetRequestContext(c)
		c.String(http.StatusOK, rc.Username+"/"+rc.Role)
	})
	r.GET("/x", chain...)
	return r
}

func TestAuthRequired(t *testing.T) {
	r := authedEngine()

	w := serve(r, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"unauthorized"`)
	assert.Contains(t, w.Body.String(), w.Header().Get(RequestHeader))

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer nope")
	assert.Equal(t, http.StatusUnauthorized, serve(r, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "bearer admin-token")
	w = serve(r, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ada/admin", w.Body.String())

	w = serve(r, httptest.NewRequest(http.MethodGet, "/x?access_token=viewer-token", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "vic/viewer", w.Body.String())
}

func TestRequireRoles(t *testing.T) {
	r := authedEngine("Admin", "dispatcher")

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	assert.Equal(t, http.StatusOK, serve(r, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer viewer-token")
	w := serve(r, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"forbidden"`)
}

func TestRequireRolesWithoutAuth(t *testing.T) {
	r := gin.New()
	r.GET("/x", RequireRoles("admin"), func(c *gin.Context) { c.Status(http.StatusOK) })
	assert.Equal(t, http.StatusUnauthorized, serve(r, httptest.NewRequest(http.MethodGet, "/x", nil)).Code)
}

func TestGetRequestContextDefaultsToSystem(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Equal(t, "system", GetRequestContext(c).Actor())
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", bearerToken("Bearer abc"))
	assert.Equal(t, "abc", bearerToken("  BEARER   abc "))
	assert.Empty(t, bearerToken("Basic abc"))
	assert.Empty(t, bearerToken("Bearer"))
}

func TestCORSPreflight(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"http://localhost:5173"}))
	r.OPTIONS("/*path", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodOptions, "/api/weeks", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	req.Header.Set("Access-Control-Request-Headers", "X-Admin-Pin")
	w := serve(r, req)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, strings.ToLower(w.Header().Get("Access-Control-Allow-Headers")), "x-admin-pin")
}

func TestLoggerLevelsByStatus(t *testing.T) {
	hook := logtest.NewLocal(config.GetLogger())
	defer hook.Reset()

	r := gin.New()
	r.Use(RequestID(), Logger())
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	for path, level := range map[string]logrus.Level{
		"/ok":   logrus.InfoLevel,
		"/bad":  logrus.WarnLevel,
		"/boom": logrus.ErrorLevel,
	} {
		hook.Reset()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set(RequestHeader, "rid-"+path[1:])
		serve(r, req)

		entry := hook.LastEntry()
		require.NotNil(t, entry, path)
		assert.Equal(t, level, entry.Level, path)
		assert.Equal(t, "rid-"+path[1:], entry.Data["request_id"])
		assert.Equal(t, path, entry.Data["path"])
	}
}
