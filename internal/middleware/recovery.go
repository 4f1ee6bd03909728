package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// MsgInternalError 5xx 响应中的中性提示
const MsgInternalError = "Ocorreu um erro interno. Tente novamente mais tarde."

// Recovery 恢复 panic 的中间件
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				zerolog.Ctx(c.Request.Context()).Error().
					Interface("panic", err).
					Str("path", c.Request.URL.Path).
					Msg("panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": MsgInternalError,
				})
			}
		}()
		c.Next()
	}
}
