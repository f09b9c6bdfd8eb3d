package httpx

import (
	"net/http"
	"reflect"

	"github.com/SlpAus/contact-form-backend/internal/telemetry"
	"github.com/SlpAus/contact-form-backend/pkg/logger"
	"github.com/gin-gonic/gin"
)

// InternalErrorMessage 是未处理异常时返回的通用文案，不会泄露具体原因。
const InternalErrorMessage = "Internal Server Error"

// Recovery 兜底处理 panic：返回通用的500，并以 panic 值的错误类型名上报错误指标。
func Recovery(rec telemetry.Recorder) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		label := ErrorTypeName(recovered)
		logger.Error("未处理的异常 [%s] %s %s: %v", label, c.Request.Method, c.Request.URL.Path, recovered)
		rec.RecordError(label)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": InternalErrorMessage})
	})
}

// ErrorTypeName 返回错误值的类型名（去掉指针）。非 error 值或匿名类型返回 UnknownError。
func ErrorTypeName(v any) string {
	err, ok := v.(error)
	if !ok || err == nil {
		return telemetry.ErrorLabelUnknown
	}
	t := reflect.TypeOf(err)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" {
		return telemetry.ErrorLabelUnknown
	}
	return t.Name()
}
