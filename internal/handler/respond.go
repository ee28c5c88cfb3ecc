package handler

import (
	"log"
	"net/http"

	"github.com/programacioneltictac/app-gestion-stock/internal/apperr"
	"github.com/programacioneltictac/app-gestion-stock/pkg/response"

	"github.com/gin-gonic/gin"
)

// httpStatusFor maps business error kinds to HTTP status codes. Anything
// without a business kind is an internal failure: logged, never exposed.
func httpStatusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindAccessDenied:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindInvalidState, apperr.KindEmptyControl, apperr.KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status := httpStatusFor(kind)
	if status == http.StatusInternalServerError {
		log.Printf("internal error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(status, response.Error(status, "Internal server error"))
		return
	}
	c.JSON(status, response.Error(status, err.Error()))
}
