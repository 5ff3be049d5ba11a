package apperrors

import (
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

// ErrorResponse - стандартный ответ об ошибке.
// Message дублирует error.message для клиентов, читающих плоское поле.
type ErrorResponse struct {
	Message string    `json:"message"`
	Error   *AppError `json:"error"`
}

var debugMode atomic.Bool

// SetDebug включает вывод деталей 5xx ошибок (только для development)
func SetDebug(enabled bool) {
	debugMode.Store(enabled)
}

// GinErrorHandler - обработчик ошибок для Gin
type GinErrorHandler struct {
	Debug bool
}

// HandleGinError - основная логика обработки ошибок для Gin
func (h *GinErrorHandler) HandleGinError(c *gin.Context, err error) {
	appErr, ok := AsAppError(err)
	if !ok {
		appErr = InternalError(err)
	}

	status := appErr.HTTPCode
	if status == 0 {
		status = http.StatusInternalServerError
	}

	if status >= http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), "server error",
			"code", appErr.Code,
			"domain", appErr.Domain,
			"error", appErr.Unwrap(),
			"path", c.Request.URL.Path,
		)
		if !h.Debug {
			appErr = appErr.Clone()
			appErr.Details = nil
		} else if appErr.Err != nil && appErr.Details == nil {
			appErr = appErr.Clone()
			appErr.Details = appErr.Err.Error()
		}
	}

	c.AbortWithStatusJSON(status, ErrorResponse{Message: appErr.Message, Error: appErr})
}

// HandleError - быстрая функция-помощник для Gin
func HandleError(c *gin.Context, err error) {
	handler := &GinErrorHandler{Debug: debugMode.Load()}
	handler.HandleGinError(c, err)
}

// AsAppError - пытается преобразовать error в *AppError
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
