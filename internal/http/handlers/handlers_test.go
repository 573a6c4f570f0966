package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tpog/internal/domain"
	"tpog/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestSnakeField(t *testing.T) {
	cases := map[string]string{
		"Email":          "email",
		"PageSize":       "page_size",
		"ConfirmedMiles": "confirmed_miles",
		"DriverID":       "driver_id",
		"HTTPStatus":     "http_status",
		"q":              "q",
	}
	for in, want := range cases {
		assert.Equal(t, want, snakeField(in), in)
	}
}

func testContext(target string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	return c, w
}

func TestNumberOrString(t *testing.T) {
	cases := map[string]string{
		`"2950"`:   "2950",
		`2950`:     "2950",
		`2950.25`:  "2950.25",
		`2.95e3`:   "2950",
		`"abc"`:    "abc",
		`null`:     "",
		` 12 `:     "12",
		`"  7.5 "`: "  7.5 ",
	}
	for in, want := range cases {
		var v numberOrString
		require.NoError(t, json.Unmarshal([]byte(in), &v), in)
		assert.Equal(t, want, string(v), in)
	}

	var v numberOrString
	assert.Error(t, json.Unmarshal([]byte(`true`), &v))
	assert.Error(t, json.Unmarshal([]byte(`{"n":1}`), &v))
}

func TestViewStatePinned(t *testing.T) {
	c, _ := testContext("/api/weeks/2024-03-08")
	st, ok := viewState(c)
	require.True(t, ok)
	assert.Nil(t, st.Pinned, "absent means defaults")

	c, _ = testContext("/api/weeks/2024-03-08?pinned=")
	st, ok = viewState(c)
	require.True(t, ok)
	assert.NotNil(t, st.Pinned)
	assert.Empty(t, st.Pinned)

	c, _ = testContext("/api/weeks/2024-03-08?pinned=pay,%20miles,,&sort=pay&dir=desc&locked=true&min_percent=25")
	st, ok = viewState(c)
	require.True(t, ok)
	assert.Equal(t, []string{"pay", "miles"}, st.Pinned)
	assert.Equal(t, "pay", st.Sort)
	assert.True(t, st.Desc)
	require.NotNil(t, st.Locked)
	assert.True(t, *st.Locked)
	assert.True(t, st.MinPercent.Valid)
	assert.False(t, st.MaxPercent.Valid)
}

func TestViewStateRejectsBadQuery(t *testing.T) {
	c, w := testContext("/api/weeks/2024-03-08?dir=sideways&min_percent=lots")
	_, ok := viewState(c)
	require.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "validation_error", body.Code)
	details := body.Details.(map[string]any)
	assert.Contains(t, details, "dir")
	assert.Equal(t, "numeric", details["min_percent"])
}

func TestRespondDomainError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{domain.ValidationError{Field: "pay_date", Msg: "must be YYYY-MM-DD"}, http.StatusBadRequest, "validation_error"},
		{services.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
		{domain.ForbiddenError{Msg: "pin"}, http.StatusForbidden, "forbidden"},
		{domain.NotFoundError{Resource: "snapshot"}, http.StatusNotFound, "not_found"},
		{domain.ConflictError{Resource: "snapshot"}, http.StatusConflict, "conflict"},
		{domain.UpstreamError{Resource: "fuel", Status: 500}, http.StatusBadGateway, "upstream_error"},
		{errors.New("db exploded"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		c, w := testContext("/x")
		RespondDomainError(c, tc.err)
		assert.Equal(t, tc.status, w.Code, tc.code)
		assert.True(t, c.IsAborted())

		var body ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, tc.code, body.Code)
	}
}

func TestInternalErrorsHideDetails(t *testing.T) {
	c, w := testContext("/x")
	RespondDomainError(c, errors.New("dial tcp 10.0.0.3:3306: refused"))
	assert.NotContains(t, w.Body.String(), "10.0.0.3")
}

func TestValidationDetailsSingleField(t *testing.T) {
	c, w := testContext("/x")
	RespondDomainError(c, domain.ValidationError{Field: "pay_date", Msg: "must be YYYY-MM-DD"})
	assert.True(t, strings.Contains(w.Body.String(), `"pay_date":"must be YYYY-MM-DD"`), w.Body.String())
}

func TestBindJSONOrErrorEmptyBody(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/x", nil)
	var req loginRequest
	ok := BindJSONOrError(c, &req)
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "empty_body")
}

func TestHealthAndRoutesBeforeRouter(t *testing.T) {
	c, w := testContext("/api/health")
	Health(c)
	assert.Equal(t, http.StatusOK, w.Code)

	SetRouter(nil)
	c, w = testContext("/api/routes")
	Routes(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
