package handlers

import (
	"errors"
	"net/http"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"tpog/internal/config"
	"tpog/internal/domain"
	"tpog/internal/http/middleware"
	"tpog/internal/services"
)

// ErrorResponse standardizes error payloads.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	Message   string `json:"message"`
}

func respondError(c *gin.Context, status int, code, message string, details any) {
	if code == "" {
		code = http.StatusText(status)
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:     message,
		Code:      code,
		Details:   details,
		RequestID: middleware.GetRequestID(c),
		Message:   message,
	})
}

// RespondDomainError maps domain errors to HTTP responses.
func RespondDomainError(c *gin.Context, err error) {
	var verr domain.ValidationError
	var upstream domain.UpstreamError
	switch {
	case errors.As(err, &verr):
		var details any
		if len(verr.Fields) > 0 {
			details = verr.Fields
		} else if verr.Field != "" {
			details = map[string]string{verr.Field: verr.Msg}
		}
		respondError(c, http.StatusBadRequest, "validation_error", err.Error(), details)
	case errors.Is(err, services.ErrInvalidCredentials):
		respondError(c, http.StatusUnauthorized, "invalid_credentials", err.Error(), nil)
	case domain.IsForbidden(err):
		respondError(c, http.StatusForbidden, "forbidden", err.Error(), nil)
	case domain.IsNotFound(err):
		respondError(c, http.StatusNotFound, "not_found", err.Error(), nil)
	case domain.IsConflict(err):
		respondError(c, http.StatusConflict, "conflict", err.Error(), nil)
	case errors.As(err, &upstream):
		logError(c, err)
		respondError(c, http.StatusBadGateway, "upstream_error", err.Error(), gin.H{"resource": upstream.Resource, "status": upstream.Status})
	default:
		logError(c, err)
		respondError(c, http.StatusInternalServerError, "internal_error", "something went wrong", nil)
	}
}

// respondBindError reports a failed ShouldBind*: validator field errors
// become a field -> rule map.
func respondBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			rule := fe.Tag()
			if fe.Param() != "" {
				rule += "=" + fe.Param()
			}
			details[snakeField(fe.Field())] = rule
		}
		respondError(c, http.StatusBadRequest, "validation_error", "invalid request", details)
		return
	}
	respondError(c, http.StatusBadRequest, "invalid_payload", "invalid payload: "+err.Error(), nil)
}

func logError(c *gin.Context, err error) {
	config.LogError(config.GetLogger(), "http", c.FullPath(), middleware.GetRequestID(c), nil, err)
}

// snakeField turns a Go field name like MinPercent into min_percent.
func snakeField(name string) string {
	runes := []rune(name)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && (!unicode.IsUpper(runes[i-1]) || (i+1 < len(runes) && unicode.IsLower(runes[i+1]))) {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
