package handler

import (
	"errors"
	"log"
	"net/http"

	"friendchat/service"
	"friendchat/utils"

	"github.com/gin-gonic/gin"
)

// respondError 把业务错误映射为 HTTP 状态码
func respondError(c *gin.Context, err error) {
	var svcErr *service.Error
	if !errors.As(err, &svcErr) {
		log.Printf("[ERROR] %s %s: %v", c.Request.Method, c.FullPath(), err)
		utils.InternalServerError(c, "internal server error")
		return
	}

	switch svcErr.Kind {
	case service.KindValidation:
		utils.ErrorWithReason(c, http.StatusBadRequest, svcErr.Code, svcErr.Message)
	case service.KindConflict:
		utils.ErrorWithReason(c, http.StatusConflict, svcErr.Code, svcErr.Message)
	case service.KindNotFound:
		utils.ErrorWithReason(c, http.StatusNotFound, svcErr.Code, svcErr.Message)
	case service.KindForbidden:
		utils.ErrorWithReason(c, http.StatusForbidden, svcErr.Code, svcErr.Message)
	default:
		log.Printf("[ERROR] %s %s: %v", c.Request.Method, c.FullPath(), err)
		utils.ErrorWithReason(c, http.StatusInternalServerError, svcErr.Code, svcErr.Message)
	}
}
