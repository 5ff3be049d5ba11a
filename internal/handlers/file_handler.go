package handlers

import (
	"net/http"
	"strings"

	"skillmarket_backend/internal/logger"
	"skillmarket_backend/internal/storage"
	"skillmarket_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// localFiles - хранилище, файлы которого лежат на диске и отдаются напрямую
type localFiles interface {
	FullPath(path string) (string, error)
}

type FileHandler struct {
	*BaseHandler
	storage storage.Storage
}

func NewFileHandler(base *BaseHandler, storage storage.Storage) *FileHandler {
	return &FileHandler{
		BaseHandler: base,
		storage:     storage,
	}
}

func (h *FileHandler) RegisterRoutes(r gin.IRouter) {
	files := r.Group("/uploads")
	{
		files.GET("/*filepath", h.ServeFile)
		files.HEAD("/*filepath", h.ServeFile)
	}
}

// ServeFile отдает загруженный файл: с диска для local, редиректом на публичный URL для s3
// @Summary Загруженный файл
// @Tags files
// @Param filepath path string true "Имя файла"
// @Success 200 {file} file
// @Success 302 "Редирект на объект в S3"
// @Failure 404 {object} apperrors.ErrorResponse
// @Router /uploads/{filepath} [get]
func (h *FileHandler) ServeFile(c *gin.Context) {
	ctx := c.Request.Context()
	key := strings.TrimPrefix(c.Param("filepath"), "/")

	exists, err := h.storage.Exists(ctx, key)
	if err != nil || !exists {
		if err != nil {
			logger.CtxDebug(ctx, "File lookup failed", "key", key, "error", err)
		}
		apperrors.HandleError(c, apperrors.ErrFileNotFound)
		return
	}

	if local, ok := h.storage.(localFiles); ok {
		fullPath, err := local.FullPath(key)
		if err != nil {
			apperrors.HandleError(c, apperrors.ErrFileNotFound)
			return
		}
		c.Header("Cache-Control", "public, max-age=31536000") // имена файлов не переиспользуются
		c.File(fullPath)
		return
	}

	url, err := h.storage.GetURL(ctx, key)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.Redirect(http.StatusFound, url)
}
