package middleware

import (
	"log"
	"net/http"

	"friendchat/utils"

	"github.com/gin-gonic/gin"
)

// ReasonInternal 兜底错误的 reason
const ReasonInternal = "internal_error"

// ErrorHandlerMiddleware 兜底错误处理
// handler 内 panic 或通过 c.Error 挂上但没有写响应的错误，统一返回 500，
// 具体错误只写日志，不返回给客户端
func ErrorHandlerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("[ERROR] Panic recovered on %s %s: %v", c.Request.Method, c.Request.URL.Path, rec)
				if !c.Writer.Written() {
					utils.ErrorWithReason(c, http.StatusInternalServerError, ReasonInternal, "internal server error")
				}
				c.Abort()
			}
		}()

		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		for _, e := range c.Errors {
			log.Printf("[ERROR] %s %s: %v", c.Request.Method, c.Request.URL.Path, e.Err)
		}
		if !c.Writer.Written() {
			utils.ErrorWithReason(c, http.StatusInternalServerError, ReasonInternal, "internal server error")
		}
	}
}
