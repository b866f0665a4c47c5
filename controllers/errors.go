package controllers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"chkin-backend/middleware"
	"chkin-backend/services"
	"chkin-backend/utils"
)

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden),
		errors.Is(err, services.ErrProviderNotActive),
		errors.Is(err, services.ErrConsentInactive):
		return http.StatusForbidden
	case errors.Is(err, services.ErrConflict),
		errors.Is(err, services.ErrAlreadyWithdrawn),
		errors.Is(err, services.ErrNotRenewable):
		return http.StatusConflict
	case errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, services.ErrInvalidOrder):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	code := statusFor(err)
	_ = c.Error(err)
	if code == http.StatusInternalServerError {
		utils.JSONError(c, code, "internal server error")
		return
	}
	utils.JSONErrorDetail(c, code, http.StatusText(code), err)
}

func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		utils.JSONError(c, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

func mustActor(c *gin.Context) (services.Actor, bool) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		utils.JSONError(c, http.StatusUnauthorized, "not authenticated")
	}
	return actor, ok
}

// bindOptionalJSON binds a JSON body when one is sent and leaves obj
// untouched when the body is empty. Chunked bodies report no length, so the
// body is read rather than trusting ContentLength.
func bindOptionalJSON(c *gin.Context, obj interface{}) error {
	if c.Request.Body == nil || c.Request.Body == http.NoBody {
		return nil
	}
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
