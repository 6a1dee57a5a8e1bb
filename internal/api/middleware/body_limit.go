package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"timify/backend/pkg/response"
)

// BodyLimit 请求体大小限制中间件
// 默认上限为 maxBytes；overrides 按路由模板（c.FullPath()）单独放宽或收紧，
// 如学生批量导入接口需要接收 Excel 文件。
func BodyLimit(maxBytes int64, overrides map[string]int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := maxBytes
		if v, ok := overrides[c.FullPath()]; ok {
			limit = v
		}

		if c.Request.ContentLength > limit {
			response.PayloadTooLarge(c)
			c.Abort()
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}

		c.Next()

		if c.Writer.Written() {
			return
		}
		var tooLarge *http.MaxBytesError
		for _, err := range c.Errors {
			if errors.As(err.Err, &tooLarge) {
				response.PayloadTooLarge(c)
				return
			}
		}
	}
}
