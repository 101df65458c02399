package shared

import (
	"github.com/tourdesk-next/internal/http/response"
	"github.com/tourdesk-next/internal/i18n"
	"github.com/tourdesk-next/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 返回携带 request_id 与路由模板的日志实例。
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	kv := make([]interface{}, 0, 4)
	if id, ok := c.Get("request_id"); ok {
		if s, ok := id.(string); ok && s != "" {
			kv = append(kv, "request_id", s)
		}
	}
	if route := c.FullPath(); route != "" {
		kv = append(kv, "route", route)
	}
	if len(kv) == 0 {
		return logger.S()
	}
	return logger.SW(kv...)
}

// RespondError 按请求语言返回错误响应。
//
// err 为空时只响应不记日志；5xx 记 error，其余记 warn。
func RespondError(c *gin.Context, code int, key string, err error) {
	appErr := response.WrapError(code, i18n.T(i18n.ResolveLocale(c), key), err)
	if err != nil {
		log := RequestLog(c)
		if appErr.Code >= response.CodeInternal {
			log.Errorw("handler_error", "code", appErr.Code, "key", key, "error", err)
		} else {
			log.Warnw("handler_rejected", "code", appErr.Code, "key", key, "error", err)
		}
	}
	response.Error(c, appErr.Code, appErr.Message)
}
