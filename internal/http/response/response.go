package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/storybook-backend/internal/domain"
	"github.com/yungbote/storybook-backend/internal/platform/apierr"
	"github.com/yungbote/storybook-backend/internal/platform/logger"
)

const (
	MsgInternal = "Internal server error."
	MsgConflict = "Request conflicts with existing data."
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}

// Fail writes err as an error envelope. Domain errors are translated to
// their HTTP status; 5xx answers carry a fixed message and the cause is
// only logged.
func Fail(c *gin.Context, log *logger.Logger, err error) {
	ae := ToAPIError(err)
	if ae.Status >= http.StatusInternalServerError && log != nil {
		log.Error("request failed",
			"path", c.FullPath(),
			"status", ae.Status,
			"code", ae.Code,
			"error", err,
		)
	}
	RespondError(c, ae.Status, ae.Code, ae)
}

// ToAPIError maps err onto an *apierr.Error. An *apierr.Error already in the
// chain wins.
func ToAPIError(err error) *apierr.Error {
	var ae *apierr.Error
	if errors.As(err, &ae) {
		if ae.Status == 0 {
			ae.Status = http.StatusInternalServerError
		}
		if ae.Status >= http.StatusInternalServerError && ae.Message == "" {
			return apierr.WithMessage(ae.Status, ae.Code, MsgInternal, ae.Err)
		}
		return ae
	}

	code := domain.CodeOf(err)
	msg := domain.MessageOf(err)
	switch code {
	case domain.CodeValidation, domain.CodeInvalidInput:
		return apierr.WithMessage(http.StatusBadRequest, string(code), orDefault(msg, "Invalid request."), err)
	case domain.CodeConflict:
		// conflicts come from the database and carry its error text
		return apierr.WithMessage(http.StatusBadRequest, string(code), MsgConflict, err)
	case domain.CodeNotFound:
		return apierr.WithMessage(http.StatusNotFound, string(code), orDefault(msg, "Not found."), err)
	case domain.CodeAuth:
		return apierr.WithMessage(http.StatusUnauthorized, string(code), "Unauthorized access.", err)
	case "":
		return apierr.WithMessage(http.StatusInternalServerError, "internal", MsgInternal, err)
	default:
		return apierr.WithMessage(http.StatusInternalServerError, string(code), MsgInternal, err)
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
