// Package common holds the helpers every handler package shares: the error
// envelope, the caller principal and multipart uploads
package common

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"soulfamily/sounds-api/internal/service"
	"soulfamily/sounds-api/internal/workflow"
	"soulfamily/sounds-api/pkg/security"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Detail writes the standard {"detail", "requestID"} body
func Detail(c *gin.Context, code int, detail string) {
	c.JSON(code, gin.H{
		"detail":    detail,
		"requestID": c.GetString("requestID"),
	})
}

// Fail maps err to a response. Anything that is not a known client error is
// logged as "Failed to <action>" and hidden behind a 500.
func Fail(c *gin.Context, err error, action string) {
	var svcErr *service.Error

	switch {
	case errors.As(err, &svcErr):
		Detail(c, svcErr.Code, svcErr.Message)
	case errors.Is(err, workflow.ErrIllegalTransition):
		Detail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, gorm.ErrRecordNotFound):
		Detail(c, http.StatusNotFound, "Not found")
	default:
		Detail(c, http.StatusInternalServerError, "Internal server error")
		zap.L().Error("Failed to "+action, zap.Error(err), zap.String("requestID", c.GetString("requestID")))
	}
}

// BindFailed answers a request whose body could not be decoded
func BindFailed(c *gin.Context, err error) {
	Detail(c, http.StatusBadRequest, "Invalid request body")
	zap.L().Debug("Can't bind request body", zap.Error(err), zap.String("requestID", c.GetString("requestID")))
}

// Principal returns the caller set by the JWT middleware
func Principal(c *gin.Context) security.Principal {
	return c.MustGet("principal").(security.Principal)
}

// ParamID parses a numeric path parameter, answering 400 when it is not one
func ParamID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		Detail(c, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}

	return uint(id), true
}

// FromHeader turns a multipart file into an upload that is opened lazily by
// the uploader. A nil header gives an empty upload so the service can report
// which field was missing.
func FromHeader(fh *multipart.FileHeader) service.Upload {
	if fh == nil {
		return service.Upload{}
	}

	return service.Upload{
		Name: fh.Filename,
		Size: fh.Size,
		Open: func() (io.ReadSeekCloser, error) {
			return fh.Open()
		},
	}
}

// FormFile is FromHeader for a single named field
func FormFile(c *gin.Context, field string) service.Upload {
	fh, err := c.FormFile(field)
	if err != nil {
		return service.Upload{}
	}

	return FromHeader(fh)
}
