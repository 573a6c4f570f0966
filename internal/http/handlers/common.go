package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"tpog/internal/domain"
)

// BindJSONOrError ensures body is present and parsable; binding tags are
// checked by validator/v10.
func BindJSONOrError[T any](c *gin.Context, dst *T) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		respondError(c, http.StatusBadRequest, "empty_body", "request body is empty", nil)
		return false
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		respondBindError(c, err)
		return false
	}
	return true
}

// payDateParam validates :payDate and writes a 400 when it is malformed.
func payDateParam(c *gin.Context) (string, bool) {
	payDate, err := domain.NormalizePayDate(c.Param("payDate"))
	if err != nil {
		RespondDomainError(c, err)
		return "", false
	}
	return payDate, true
}

func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		RespondDomainError(c, domain.ValidationError{Field: name, Msg: "invalid id"})
		return 0, false
	}
	return id, true
}

// numberOrString accepts a JSON string or a JSON number and keeps its text,
// so "2950" and 2950 bind the same. null leaves it empty.
type numberOrString string

func (v *numberOrString) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	switch {
	case raw == "null":
		*v = ""
		return nil
	case strings.HasPrefix(raw, `"`):
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = numberOrString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected a number or a string, got %s", raw)
	}
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return err
	}
	*v = numberOrString(d.String())
	return nil
}

// nullDecimal parses an optional numeric query value; validation has
// already rejected non-numbers.
func nullDecimal(raw string) decimal.NullDecimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

func attachment(c *gin.Context, contentType, filename string, data []byte) {
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, data)
}
