// Package middleware 提供 HTTP 中间件
package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"schema-assistant-api/internal/interfaces/http/dto"
	apperrors "schema-assistant-api/pkg/errors"
	"schema-assistant-api/pkg/logger"
)

// Recovery Panic 恢复中间件
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error(c.Request.Context(), "panic recovered",
					fmt.Errorf("%v", err),
					"stack", string(debug.Stack()),
					"path", c.Request.URL.Path,
					"method", c.Request.Method,
				)

				dto.FromAppError(c, apperrors.ErrInternalError)
				c.Abort()
			}
		}()

		c.Next()
	}
}
